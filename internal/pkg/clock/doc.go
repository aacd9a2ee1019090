// Package clock lets issuance logic read the current time through an
// interface so expiry math can be pinned in tests with Fixed.
package clock

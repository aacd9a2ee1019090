// Package otp generates one-time codes delivered out of band.
//
// Codes are fixed-width decimal strings drawn uniformly from a configured
// range using crypto/rand. Rejection sampling keeps every value in the range
// equally likely.
package otp

// Package validator validates request structs and reports failures as a
// snake_case field to message map ready for the HTTP error envelope.
package validator

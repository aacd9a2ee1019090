package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates that the requested resource could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates that the request could not be completed due to a conflict.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies errors into high-level buckets used by the application.
type Type int

const (
	// TypeServer represents server-side failures.
	TypeServer Type = iota
	// TypeValidation represents input validation failures.
	TypeValidation
)

// String returns the string representation of the error type.
func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier used for mapping errors to HTTP status codes.
type Code int

const (
	// CodeInternal represents an internal or unspecified error.
	CodeInternal Code = iota
	// CodeInvalidFormat indicates the request body could not be decoded.
	CodeInvalidFormat
	// CodeInvalidInput indicates the request decoded but failed validation.
	CodeInvalidInput
	// CodeUnconfigured indicates a required collaborator has no usable configuration.
	CodeUnconfigured
	// CodePersistence indicates a storage read or write failed.
	CodePersistence
	// CodeDelivery indicates an outbound delivery channel rejected or failed a message.
	CodeDelivery
)

type codeInfo struct {
	name   string
	status int
	msg    string
}

var codes = map[Code]codeInfo{
	CodeInternal:      {"ERROR_CODE_INTERNAL", http.StatusInternalServerError, "Internal server error"},
	CodeInvalidFormat: {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest, "Invalid request body"},
	CodeInvalidInput:  {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity, "Validation error"},
	CodeUnconfigured:  {"ERROR_CODE_UNCONFIGURED", http.StatusServiceUnavailable, "Service is not configured"},
	CodePersistence:   {"ERROR_CODE_PERSISTENCE", http.StatusInternalServerError, "Failed to store data"},
	CodeDelivery:      {"ERROR_CODE_DELIVERY", http.StatusBadGateway, "Failed to deliver message"},
}

func (c Code) info() codeInfo {
	if ci, ok := codes[c]; ok {
		return ci
	}
	return codes[CodeInternal]
}

// String returns the string representation of the error code.
func (c Code) String() string {
	return c.info().name
}

// Error is a structured error used across the application.
//
// The wrapped cause is for logs only; transports render Msg and Fields.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	if e.msg != "" {
		return e.msg
	}
	return e.code.info().msg
}

// String returns a verbose representation of the error for debugging/logging.
func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType, e.code, e.msg, e.err)
}

// Msg returns the user-facing error message.
func (e *Error) Msg() string {
	return e.msg
}

// Type returns the high-level error type.
func (e *Error) Type() Type {
	return e.errType
}

// Code returns the stable error code.
func (e *Error) Code() Code {
	return e.code
}

// Fields returns validation errors (field to message map), if any.
func (e *Error) Fields() map[string]string {
	return e.fields
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.err
}

// StatusCode maps the error code to an HTTP status code.
func (e *Error) StatusCode() int {
	return e.code.info().status
}

func newError(err error, et Type, code Code) *Error {
	return &Error{err: err, msg: code.info().msg, errType: et, code: code}
}

// NewServer creates a server-type error with the provided error.
func NewServer(err error) error {
	return newError(err, TypeServer, CodeInternal)
}

// NewUnconfigured creates a server-type error for a collaborator that is missing configuration.
func NewUnconfigured(err error) error {
	return newError(err, TypeServer, CodeUnconfigured)
}

// NewPersistence creates a server-type error for a failed storage operation.
func NewPersistence(err error) error {
	return newError(err, TypeServer, CodePersistence)
}

// NewDelivery creates a server-type error for a failed outbound delivery.
func NewDelivery(err error) error {
	return newError(err, TypeServer, CodeDelivery)
}

// CodeOf returns the Code carried by err, or CodeInternal when err is not an *Error.
func CodeOf(err error) Code {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.code
	}
	return CodeInternal
}

// NewInvalidInput creates a validation error. With a nil err the kv pairs
// become the field map; an odd kv count is reported as a malformed body.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return newError(err, TypeValidation, CodeInvalidInput)
	}
	if len(kv)%2 != 0 {
		return newError(nil, TypeValidation, CodeInvalidFormat)
	}

	e := newError(nil, TypeValidation, CodeInvalidInput)
	e.fields = make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		e.fields[kv[i]] = kv[i+1]
	}
	return e
}

// NewInvalidFormat creates a validation error for an invalid request body format.
func NewInvalidFormat(msgs ...string) error {
	e := newError(nil, TypeValidation, CodeInvalidFormat)
	if len(msgs) > 0 {
		e.msg = msgs[0]
	}
	return e
}

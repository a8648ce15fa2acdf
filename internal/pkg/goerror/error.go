package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by stores when the row does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned by stores when a write lost a race or hit a unique key.
	ErrConflict = errors.New("resource conflict")
)

// FieldRetryAfter is the field holding the seconds a rate limited client
// should wait. The HTTP layer mirrors it into the Retry-After header.
const FieldRetryAfter = "retry_after_seconds"

// Type classifies errors into the buckets the transport layer renders differently.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier mapped to an HTTP status by StatusCode.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
	// CodeGone marks a resource that existed but can no longer be used, such as an expired code.
	CodeGone
)

var codeNames = map[Code]string{
	CodeInvalidFormat:  "ERROR_CODE_INVALID_FORMAT",
	CodeInvalidInput:   "ERROR_CODE_INVALID_INPUT",
	CodeNotFound:       "ERROR_CODE_NOT_FOUND",
	CodeConflict:       "ERROR_CODE_CONFLICT",
	CodeTooManyRequest: "ERROR_CODE_TOO_MANY_REQUESTS",
	CodeUnauthorized:   "ERROR_CODE_UNAUTHORIZED",
	CodeForbidden:      "ERROR_CODE_FORBIDDEN",
	CodeTimeout:        "ERROR_CODE_TIMEOUT",
	CodeGone:           "ERROR_CODE_GONE",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "ERROR_CODE_INTERNAL"
}

var codeStatus = map[Code]int{
	CodeInvalidFormat:  http.StatusBadRequest,
	CodeInvalidInput:   http.StatusUnprocessableEntity,
	CodeNotFound:       http.StatusNotFound,
	CodeConflict:       http.StatusConflict,
	CodeTooManyRequest: http.StatusTooManyRequests,
	CodeUnauthorized:   http.StatusUnauthorized,
	CodeForbidden:      http.StatusForbidden,
	CodeTimeout:        http.StatusRequestTimeout,
	CodeGone:           http.StatusGone,
}

// Error is the structured error shared by usecases and the HTTP layer.
//
// Besides the user-facing message it may carry a machine readable reason
// (for example "TOO_MANY_ATTEMPTS") and extra fields that clients can use to
// self-throttle.
type Error struct {
	err     error
	msg     string
	reason  string
	errType Type
	code    Code
	fields  map[string]string
}

// Option customizes an Error during construction.
type Option func(*Error)

// WithReason attaches a stable, machine readable reason.
func WithReason(reason string) Option {
	return func(e *Error) { e.reason = reason }
}

// WithFields attaches key/value pairs. An odd trailing key is ignored.
func WithFields(kv ...string) Option {
	return func(e *Error) {
		if len(kv) < 2 {
			return
		}
		if e.fields == nil {
			e.fields = make(map[string]string, len(kv)/2)
		}
		for i := 0; i+1 < len(kv); i += 2 {
			e.fields[kv[i]] = kv[i+1]
		}
	}
}

// WithCause wraps an underlying error without changing the user-facing message.
func WithCause(err error) Option {
	return func(e *Error) { e.err = err }
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}

	if e.msg != "" {
		return e.msg
	}

	switch e.errType {
	case TypeValidation:
		return "Validation violation"
	case TypeBusiness:
		return "Logical business not meet with requirement"
	case TypeServer:
		return "Internal error"
	default:
		return "Unknown error"
	}
}

// String returns a verbose representation for logs.
func (e *Error) String() string {
	return fmt.Sprintf(
		"Error Type: %s, Code: %s, Reason: %s, Message: %s, Underlying Error: %v",
		e.errType.String(),
		e.code.String(),
		e.reason,
		e.msg,
		e.err,
	)
}

func (e *Error) Msg() string { return e.msg }

func (e *Error) Reason() string { return e.reason }

func (e *Error) Type() Type { return e.errType }

func (e *Error) Code() Code { return e.code }

func (e *Error) Fields() map[string]string { return e.fields }

func (e *Error) Unwrap() error { return e.err }

// StatusCode maps the error code to an HTTP status code.
func (e *Error) StatusCode() int {
	if status, ok := codeStatus[e.code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ReasonOf returns the reason carried by err, or "" when err is not an *Error.
func ReasonOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.reason
	}
	return ""
}

func build(err error, msg string, et Type, code Code, opts ...Option) *Error {
	e := &Error{err: err, msg: msg, errType: et, code: code}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewServer creates a server-type error wrapping err.
func NewServer(err error) error {
	return build(err, "Internal server error", TypeServer, CodeInternal)
}

// NewBusiness creates a business-type error with the given message and code.
func NewBusiness(msg string, code Code, opts ...Option) error {
	return build(nil, msg, TypeBusiness, code, opts...)
}

// NewInvalidInput creates a validation error. When err is nil the kv pairs
// become the field map.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return build(err, "Validation error", TypeValidation, CodeInvalidInput)
	}

	if len(kv)%2 != 0 {
		return build(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}

	return build(nil, "Validation error", TypeValidation, CodeInvalidInput, WithFields(kv...))
}

// NewInvalidFormat creates a validation error for a malformed request body.
func NewInvalidFormat(msgs ...string) error {
	if len(msgs) == 0 {
		return build(nil, "Invalid request body", TypeValidation, CodeInvalidFormat)
	}
	return build(nil, msgs[0], TypeValidation, CodeInvalidFormat)
}

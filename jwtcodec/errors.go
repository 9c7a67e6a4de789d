package jwtcodec

import "fmt"

// ErrorCode represents a codec error code
type ErrorCode string

const (
	ErrCodeMalformedEncoding    ErrorCode = "MALFORMED_ENCODING"
	ErrCodeMalformedPayload     ErrorCode = "MALFORMED_PAYLOAD"
	ErrCodeSerialization        ErrorCode = "SERIALIZATION"
	ErrCodeUnsupportedAlgorithm ErrorCode = "UNSUPPORTED_ALGORITHM"
	ErrCodeInvalidKey           ErrorCode = "INVALID_KEY"
	ErrCodeConfig               ErrorCode = "CONFIG_ERROR"
)

// Sentinels for errors.Is. Matching is by code only.
var (
	ErrMalformedEncoding    = &CodecError{Code: ErrCodeMalformedEncoding}
	ErrMalformedPayload     = &CodecError{Code: ErrCodeMalformedPayload}
	ErrSerialization        = &CodecError{Code: ErrCodeSerialization}
	ErrUnsupportedAlgorithm = &CodecError{Code: ErrCodeUnsupportedAlgorithm}
	ErrInvalidKey           = &CodecError{Code: ErrCodeInvalidKey}
	ErrConfig               = &CodecError{Code: ErrCodeConfig}
)

// CodecError represents a structural failure with a code and message.
// Verification outcomes such as an expired token are never reported as a
// CodecError; see Reason.
type CodecError struct {
	Code     ErrorCode
	Message  string
	Internal error
}

// Error implements the error interface
func (e *CodecError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *CodecError) Unwrap() error {
	return e.Internal
}

// Is reports whether target is a *CodecError carrying the same code.
func (e *CodecError) Is(target error) bool {
	t, ok := target.(*CodecError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewCodecError creates a new codec error
func NewCodecError(code ErrorCode, message string, internal error) *CodecError {
	return &CodecError{
		Code:     code,
		Message:  message,
		Internal: internal,
	}
}

// errorCode extracts the code from err, or "UNKNOWN"
func errorCode(err error) string {
	if codecErr, ok := err.(*CodecError); ok {
		return string(codecErr.Code)
	}
	return "UNKNOWN"
}

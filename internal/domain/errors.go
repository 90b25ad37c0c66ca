package domain

import "fmt"

type ErrorCode string

const (
	ErrCodeInvalidNetwork      ErrorCode = "invalid_network"
	ErrCodeInvalidRequest      ErrorCode = "invalid_request"
	ErrCodeVersionUnresolvable ErrorCode = "version_unresolvable"
	ErrCodeDescriptorMissing   ErrorCode = "descriptor_missing"
	ErrCodeDescriptorMalformed ErrorCode = "descriptor_malformed"
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
)

// Error is a request-level failure with a stable code. Anything crossing
// the HTTP boundary is wrapped in one of these; raw internal errors stay
// inside the process.
type Error struct {
	Code   ErrorCode
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

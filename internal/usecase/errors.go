package usecase

import "fmt"

type ErrorCode string

const (
	ErrorInvalidBody      ErrorCode = "INVALID_BODY"
	ErrorMissingField     ErrorCode = "MISSING_FIELD"
	ErrorInvalidEnum      ErrorCode = "INVALID_ENUM"
	ErrorInvalidFormat    ErrorCode = "INVALID_FORMAT"
	ErrorUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrorStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrorInternal         ErrorCode = "INTERNAL_ERROR"
)

// Error is returned by the feedback service. Reason is safe to show to the
// caller; Err holds the underlying cause and is only logged.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsClientError reports whether the code belongs to the bad-request family.
func (c ErrorCode) IsClientError() bool {
	switch c {
	case ErrorInvalidBody, ErrorMissingField, ErrorInvalidEnum, ErrorInvalidFormat:
		return true
	}
	return false
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorInvalidInput            ErrorCode = "INVALID_INPUT"
	ErrorExtractionUnavailable   ErrorCode = "EXTRACTION_UNAVAILABLE"
	ErrorOperationalWriteFailed  ErrorCode = "OPERATIONAL_WRITE_FAILED"
	ErrorAnalyticalWriteFailed   ErrorCode = "ANALYTICAL_WRITE_FAILED"
	ErrorContextStoreUnavailable ErrorCode = "CONTEXT_STORE_UNAVAILABLE"
	ErrorGenerativeFailure       ErrorCode = "GENERATIVE_FAILURE"
)

// Error is a coded error carried across component boundaries. Code selects the
// HTTP status at the request boundary; Reason is a short machine-readable tag.
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
		return fmt.Sprintf("%s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("%s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf extracts the error code from err, if it carries one.
func CodeOf(err error) (ErrorCode, bool) {
	var coded *Error
	if !errors.As(err, &coded) {
		return "", false
	}
	return coded.Code, true
}

package query

import (
	"errors"
	"fmt"
)

// QueryError reports a request that cannot be turned into a matcher.
type QueryError struct {
	// Code identifies the error category.
	Code QueryErrorCode

	// Message is a human-readable description.
	Message string

	// Mode and Subject echo the offending request.
	Mode    Mode
	Subject string

	// Err is the underlying cause, if any.
	Err error
}

// QueryErrorCode categorizes query errors.
type QueryErrorCode string

const (
	// ErrCodeInvalidPattern indicates a regex or fuzzy subject that does not compile.
	ErrCodeInvalidPattern QueryErrorCode = "INVALID_PATTERN"

	// ErrCodeEmptySubject indicates a request without a subject.
	ErrCodeEmptySubject QueryErrorCode = "EMPTY_SUBJECT"

	// ErrCodeHashFailed indicates the subject named a file that could not be hashed.
	ErrCodeHashFailed QueryErrorCode = "HASH_FAILED"
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s (mode=%s, subject=%q)", e.Code, e.Message, e.Mode, e.Subject)
	}
	return fmt.Sprintf("%s: %s (mode=%s)", e.Code, e.Message, e.Mode)
}

// Unwrap returns the underlying cause.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsInvalidPattern returns true if the error is an invalid pattern error.
// Uses errors.As to handle wrapped errors.
func IsInvalidPattern(err error) bool {
	return hasCode(err, ErrCodeInvalidPattern)
}

// IsEmptySubject returns true if the error is an empty subject error.
func IsEmptySubject(err error) bool {
	return hasCode(err, ErrCodeEmptySubject)
}

func hasCode(err error, code QueryErrorCode) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code == code
	}
	return false
}

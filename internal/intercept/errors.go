package intercept

import (
	"errors"
	"fmt"
)

// ResolutionError reports a module or attribute that could not be resolved.
//
// Resolution errors are non-fatal for a run: Install skips the affected
// target and carries on with the rest.
type ResolutionError struct {
	// Code identifies the error category.
	Code ResolutionErrorCode

	// Message is a human-readable description.
	Message string

	// Module is the dotted module name being resolved.
	Module string

	// Attr is the attribute path on the module, if any.
	Attr string

	// Err is the underlying cause, e.g. a loader failure.
	Err error
}

// ResolutionErrorCode categorizes resolution errors.
type ResolutionErrorCode string

const (
	// ErrCodeModuleNotFound indicates no module is registered under a name.
	ErrCodeModuleNotFound ResolutionErrorCode = "MODULE_NOT_FOUND"

	// ErrCodeAttributeNotFound indicates a path segment is absent on its object.
	ErrCodeAttributeNotFound ResolutionErrorCode = "ATTRIBUTE_NOT_FOUND"

	// ErrCodeNotCallable indicates the attribute exists but is not a Func.
	ErrCodeNotCallable ResolutionErrorCode = "NOT_CALLABLE"

	// ErrCodeInvalidName indicates a malformed dotted name.
	ErrCodeInvalidName ResolutionErrorCode = "INVALID_NAME"

	// ErrCodeInvalidTarget indicates a target with a bad argument position or source.
	ErrCodeInvalidTarget ResolutionErrorCode = "INVALID_TARGET"

	// ErrCodeLoadFailed indicates a module loader returned an error.
	ErrCodeLoadFailed ResolutionErrorCode = "LOAD_FAILED"
)

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	var where string
	switch {
	case e.Module != "" && e.Attr != "":
		where = fmt.Sprintf(" (module=%s, attr=%s)", e.Module, e.Attr)
	case e.Module != "":
		where = fmt.Sprintf(" (module=%s)", e.Module)
	case e.Attr != "":
		where = fmt.Sprintf(" (attr=%s)", e.Attr)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s%s: %v", e.Code, e.Message, where, e.Err)
	}
	return fmt.Sprintf("%s: %s%s", e.Code, e.Message, where)
}

// Unwrap returns the underlying cause.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// IsModuleNotFound returns true if err is a module-not-found resolution error.
// Uses errors.As to handle wrapped errors.
func IsModuleNotFound(err error) bool {
	return hasCode(err, ErrCodeModuleNotFound)
}

// IsAttributeNotFound returns true if err is an attribute-not-found resolution error.
func IsAttributeNotFound(err error) bool {
	return hasCode(err, ErrCodeAttributeNotFound)
}

// IsNotCallable returns true if err reports a non-callable attribute.
func IsNotCallable(err error) bool {
	return hasCode(err, ErrCodeNotCallable)
}

func hasCode(err error, code ResolutionErrorCode) bool {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

func newModuleNotFound(module string) *ResolutionError {
	return &ResolutionError{
		Code:    ErrCodeModuleNotFound,
		Message: fmt.Sprintf("no module named %q", module),
		Module:  module,
	}
}

func newAttributeNotFound(owner, attr string) *ResolutionError {
	return &ResolutionError{
		Code:    ErrCodeAttributeNotFound,
		Message: fmt.Sprintf("%s has no attribute %q", owner, attr),
		Module:  owner,
		Attr:    attr,
	}
}

func newInvalidName(name, reason string) *ResolutionError {
	return &ResolutionError{
		Code:    ErrCodeInvalidName,
		Message: fmt.Sprintf("invalid name %q: %s", name, reason),
	}
}

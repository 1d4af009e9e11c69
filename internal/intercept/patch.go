package intercept

import (
	"fmt"
	"log/slog"
)

// Source tags an intercepted argument as something the run read or wrote.
type Source string

const (
	SourceInput  Source = "input"
	SourceOutput Source = "output"
)

// Valid reports whether s is a known source tag.
func (s Source) Valid() bool {
	return s == SourceInput || s == SourceOutput
}

// Recorder receives the subject argument of an intercepted call.
// Errors and panics from a Recorder never reach the intercepted caller.
type Recorder func(subject any, source Source) error

// Patch replaces the function at attrPath on target with a wrapper that
// passes args[argPos] to record before calling the original.
//
// The original is kept on the object that owns the final attribute, keyed
// by that attribute, so a function is wrapped at most once however the
// path to it is spelled: "csv.Table.Load" from tabular and "Table.Load"
// from tabular.csv name the same slot. Patch returns installed=false with a
// nil error when the slot is already patched. Resolution failures are
// returned as *ResolutionError and leave target unchanged.
func Patch(target *Object, attrPath string, argPos int, source Source, record Recorder) (bool, error) {
	if argPos < 0 {
		return false, &ResolutionError{
			Code:    ErrCodeInvalidTarget,
			Message: fmt.Sprintf("argument position %d is negative", argPos),
			Module:  target.name,
			Attr:    attrPath,
		}
	}
	if !source.Valid() {
		return false, &ResolutionError{
			Code:    ErrCodeInvalidTarget,
			Message: fmt.Sprintf("unknown source %q", source),
			Module:  target.name,
			Attr:    attrPath,
		}
	}

	owner, leaf, err := target.owner(attrPath)
	if err != nil {
		return false, err
	}

	owner.patchMu.Lock()
	defer owner.patchMu.Unlock()

	if _, ok := owner.backup(leaf); ok {
		return false, nil
	}
	original, err := owner.LookupFunc(leaf)
	if err != nil {
		return false, err
	}

	label := target.name + "." + attrPath
	owner.swap(leaf, Wrap(original, argPos, source, record, label), original)
	return true, nil
}

// Unpatch restores the original function at attrPath and drops the backup.
// It returns false when attrPath was not patched.
func Unpatch(target *Object, attrPath string) (bool, error) {
	owner, leaf, err := target.owner(attrPath)
	if err != nil {
		return false, err
	}

	owner.patchMu.Lock()
	defer owner.patchMu.Unlock()

	original, ok := owner.backup(leaf)
	if !ok {
		return false, nil
	}
	owner.swap(leaf, original, nil)
	return true, nil
}

// IsPatched reports whether attrPath on target currently carries a wrapper.
func IsPatched(target *Object, attrPath string) bool {
	owner, leaf, err := target.owner(attrPath)
	if err != nil {
		return false
	}
	_, ok := owner.backup(leaf)
	return ok
}

// Wrap builds the interceptor around original. The wrapper records
// args[argPos] and then calls original with the unmodified arguments,
// returning its result and error verbatim. A call with fewer arguments than
// argPos+1 is passed through without recording.
func Wrap(original Func, argPos int, source Source, record Recorder, label string) Func {
	return func(args ...any) (any, error) {
		if argPos < len(args) {
			safeRecord(record, args[argPos], source, label)
		} else {
			slog.Debug("intercepted call without subject argument",
				"function", label,
				"arg", argPos,
				"got", len(args),
			)
		}
		return original(args...)
	}
}

// safeRecord invokes record, logging instead of propagating its failures.
func safeRecord(record Recorder, subject any, source Source, label string) {
	if record == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("recorder panicked",
				"function", label,
				"source", string(source),
				"panic", fmt.Sprint(r),
			)
		}
	}()
	if err := record(subject, source); err != nil {
		slog.Warn("recording failed",
			"function", label,
			"source", string(source),
			"error", err,
		)
	}
}

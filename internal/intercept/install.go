package intercept

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// Target names one function to instrument.
type Target struct {
	// Module is the dotted module name passed to the Resolver.
	Module string

	// Function is the dotted attribute path on the module, e.g. "Table.Load".
	Function string

	// Arg is the position of the file argument.
	Arg int

	// Source tags the argument as read or written.
	Source Source
}

// String returns "module.function".
func (t Target) String() string {
	return t.Module + "." + t.Function
}

// SkippedTarget is a target Install could not instrument.
type SkippedTarget struct {
	Target Target
	Err    error
}

// InstallReport summarizes an Install pass.
type InstallReport struct {
	Installed      []Target
	AlreadyPatched []Target
	Skipped        []SkippedTarget
}

// Modules returns the distinct modules with at least one active interceptor,
// sorted.
func (rep InstallReport) Modules() []string {
	var mods []string
	for _, list := range [][]Target{rep.Installed, rep.AlreadyPatched} {
		for _, t := range list {
			if !slices.Contains(mods, t.Module) {
				mods = append(mods, t.Module)
			}
		}
	}
	slices.Sort(mods)
	return mods
}

// Active returns every target carrying an interceptor after the pass.
func (rep InstallReport) Active() []Target {
	out := make([]Target, 0, len(rep.Installed)+len(rep.AlreadyPatched))
	out = append(out, rep.Installed...)
	return append(out, rep.AlreadyPatched...)
}

// Install patches every target it can. Instrumentation is best effort: a
// module that is not registered or an attribute that does not exist is
// reported in Skipped and the remaining targets are still installed.
//
// All patches should be installed before any goroutine that may call an
// instrumented function is started.
func Install(r *Resolver, targets []Target, record Recorder) InstallReport {
	var rep InstallReport
	for _, t := range targets {
		obj, err := r.Resolve(t.Module)
		if err != nil {
			skip(&rep, t, err)
			continue
		}

		installed, err := Patch(obj, t.Function, t.Arg, t.Source, record)
		switch {
		case err != nil:
			skip(&rep, t, err)
		case installed:
			slog.Debug("instrumented", "target", t.String(), "arg", t.Arg, "source", string(t.Source))
			rep.Installed = append(rep.Installed, t)
		default:
			rep.AlreadyPatched = append(rep.AlreadyPatched, t)
		}
	}
	return rep
}

func skip(rep *InstallReport, t Target, err error) {
	if IsModuleNotFound(err) {
		slog.Debug("skipping instrumentation: module not available", "target", t.String())
	} else {
		slog.Warn("skipping instrumentation", "target", t.String(), "error", err)
	}
	rep.Skipped = append(rep.Skipped, SkippedTarget{Target: t, Err: err})
}

// Uninstall removes the interceptors for targets. Modules that were never
// loaded are ignored.
func Uninstall(r *Resolver, targets []Target) error {
	var errs []error
	for _, t := range targets {
		if !r.Loaded(t.Module) {
			continue
		}
		obj, err := r.Resolve(t.Module)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := Unpatch(obj, t.Function); err != nil {
			errs = append(errs, fmt.Errorf("unpatch %s: %w", t, err))
		}
	}
	return errors.Join(errs...)
}

// Check reports, without patching anything, whether each target resolves
// to a function. A nil entry means the target can be instrumented.
func Check(r *Resolver, targets []Target) []error {
	out := make([]error, len(targets))
	for i, t := range targets {
		obj, err := r.Resolve(t.Module)
		if err != nil {
			out[i] = err
			continue
		}
		if IsPatched(obj, t.Function) {
			continue
		}
		if _, err := obj.LookupFunc(t.Function); err != nil {
			out[i] = err
		}
	}
	return out
}

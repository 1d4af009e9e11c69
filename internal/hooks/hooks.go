// Package hooks loads the list of functions to instrument from CUE.
//
// A hooks file maps module names to function paths:
//
//	hooks: {
//		fileio: ReadFile: {arg: 0, source: "input"}
//		"tabular.csv": "Table.Save": {arg: 0, source: "output"}
//	}
//
// arg defaults to 0. The embedded default set covers the adapters under lib/.
package hooks

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/provtrack/internal/intercept"
)

//go:embed schema.cue
var schemaCUE []byte

//go:embed default.cue
var defaultCUE []byte

// Error codes for LoadError.
const (
	ErrCodeReadFailed = "HOOKS_READ_FAILED"
	ErrCodeInvalid    = "HOOKS_INVALID"
	ErrCodeEmpty      = "HOOKS_EMPTY"
)

// LoadError reports a hooks file that could not be read or does not match
// the schema.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Default returns the embedded target set.
func Default() ([]intercept.Target, error) {
	return Parse("default.cue", defaultCUE)
}

// DefaultSource returns the embedded hooks file, for display.
func DefaultSource() string {
	return string(defaultCUE)
}

// Load returns the targets in path, or the default set when path is empty.
func Load(path string) ([]intercept.Target, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading hooks file: %v", err)}
	}
	return Parse(path, data)
}

// Parse compiles CUE source, checks it against the hooks schema and returns
// the targets in declaration order.
func Parse(filename string, data []byte) ([]intercept.Target, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	value = schema.Unify(value)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	hooksVal := value.LookupPath(cue.ParsePath("hooks"))
	modules, err := hooksVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var targets []intercept.Target
	for modules.Next() {
		module := modules.Label()
		funcs, err := modules.Value().Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for funcs.Next() {
			target, err := parseTarget(module, funcs.Label(), funcs.Value())
			if err != nil {
				return nil, err
			}
			targets = append(targets, target)
		}
	}

	if len(targets) == 0 {
		return nil, &LoadError{Code: ErrCodeEmpty, Message: fmt.Sprintf("no hooks defined in %s", filename)}
	}
	return targets, nil
}

func parseTarget(module, function string, v cue.Value) (intercept.Target, error) {
	arg, err := v.LookupPath(cue.ParsePath("arg")).Int64()
	if err != nil {
		return intercept.Target{}, formatCUEError(err)
	}
	source, err := v.LookupPath(cue.ParsePath("source")).String()
	if err != nil {
		return intercept.Target{}, formatCUEError(err)
	}
	return intercept.Target{
		Module:   module,
		Function: function,
		Arg:      int(arg),
		Source:   intercept.Source(source),
	}, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: ErrCodeInvalid, Message: err.Error()}
	}

	firstErr := errs[0]
	loadErr := &LoadError{Code: ErrCodeInvalid, Message: firstErr.Error()}
	if positions := errors.Positions(firstErr); len(positions) > 0 {
		loadErr.Pos = positions[0]
	}
	return loadErr
}

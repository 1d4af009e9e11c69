// Package fileio is an instrumentable wrapper over the os file functions.
//
// Every exported function dispatches through Module, so once the "fileio"
// module is patched each call reports its path to the active run.
package fileio

import (
	"os"

	"github.com/roach88/provtrack/internal/intercept"
)

// ModuleName is the name fileio registers under.
const ModuleName = "fileio"

// Module is the namespace the exported functions dispatch through.
var Module = intercept.NewObject(ModuleName)

func init() {
	Module.SetFunc("ReadFile", func(args ...any) (any, error) {
		return os.ReadFile(args[0].(string))
	})
	Module.SetFunc("WriteFile", func(args ...any) (any, error) {
		return nil, os.WriteFile(args[0].(string), args[1].([]byte), args[2].(os.FileMode))
	})
	Module.SetFunc("Open", func(args ...any) (any, error) {
		return os.Open(args[0].(string))
	})
	Module.SetFunc("Create", func(args ...any) (any, error) {
		return os.Create(args[0].(string))
	})
}

// Register makes the module resolvable by name.
func Register(r *intercept.Resolver) error {
	return r.Register(ModuleName, func() (*intercept.Object, error) {
		return Module, nil
	})
}

// ReadFile reads the named file.
func ReadFile(name string) ([]byte, error) {
	v, err := Module.Call("ReadFile", name)
	data, _ := v.([]byte)
	return data, err
}

// WriteFile writes data to the named file, creating it if necessary.
func WriteFile(name string, data []byte, perm os.FileMode) error {
	_, err := Module.Call("WriteFile", name, data, perm)
	return err
}

// Open opens the named file for reading.
func Open(name string) (*os.File, error) {
	return fileResult(Module.Call("Open", name))
}

// Create creates or truncates the named file.
func Create(name string) (*os.File, error) {
	return fileResult(Module.Call("Create", name))
}

func fileResult(v any, err error) (*os.File, error) {
	f, _ := v.(*os.File)
	if err != nil {
		return nil, err
	}
	return f, nil
}

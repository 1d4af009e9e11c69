package tabular

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/provtrack/internal/intercept"
)

// LoadFile decodes the YAML document at path into generic values.
func LoadFile(path string) (any, error) {
	return YAML.Call("LoadFile", path)
}

// DumpFile encodes v as YAML and writes it to path.
func DumpFile(v any, path string) error {
	_, err := YAML.Call("DumpFile", v, path)
	return err
}

func newYAMLModule() *intercept.Object {
	mod := intercept.NewObject(YAMLModuleName)
	mod.SetFunc("LoadFile", func(args ...any) (any, error) {
		return loadYAML(args[0].(string))
	})
	mod.SetFunc("DumpFile", func(args ...any) (any, error) {
		return nil, dumpYAML(args[0], args[1].(string))
	})
	return mod
}

func loadYAML(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse yaml %s: %w", path, err)
	}
	return out, nil
}

func dumpYAML(v any, path string) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

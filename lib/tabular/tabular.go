// Package tabular is an instrumentable reader and writer for tabular and
// structured data files.
//
// Three modules are registered: "tabular" (the parent), "tabular.csv" with
// the Table type, and "tabular.yaml" for YAML documents. Calls go through
// the CSV and YAML namespaces so they can be intercepted.
package tabular

import (
	"github.com/roach88/provtrack/internal/intercept"
)

// Module names.
const (
	ModuleName     = "tabular"
	CSVModuleName  = "tabular.csv"
	YAMLModuleName = "tabular.yaml"
)

var (
	// Module is the parent namespace. Child modules are bound onto it as
	// "csv" and "yaml" when resolved.
	Module = intercept.NewObject(ModuleName)

	// CSV is the namespace behind Table.
	CSV = newCSVModule()

	// YAML is the namespace behind LoadFile and DumpFile.
	YAML = newYAMLModule()
)

// Register makes all three modules resolvable by name.
func Register(r *intercept.Resolver) error {
	for name, obj := range map[string]*intercept.Object{
		ModuleName:     Module,
		CSVModuleName:  CSV,
		YAMLModuleName: YAML,
	} {
		if err := r.Register(name, constant(obj)); err != nil {
			return err
		}
	}
	return nil
}

func constant(obj *intercept.Object) intercept.Loader {
	return func() (*intercept.Object, error) {
		return obj, nil
	}
}

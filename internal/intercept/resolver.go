package intercept

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Loader builds the namespace for one module. It runs at most once.
type Loader func() (*Object, error)

// Resolver maps dotted module names to loaders.
//
// Resolving "a.b.c" loads "a", then "a.b", then "a.b.c", each only if it has
// not been loaded already, and binds every child onto its parent under its
// last segment. Modules that are registered but never resolved, including
// siblings of resolved ones, are never loaded.
type Resolver struct {
	mu      sync.Mutex
	loaders map[string]Loader
	loaded  map[string]*Object
	failed  map[string]error
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		loaders: make(map[string]Loader),
		loaded:  make(map[string]*Object),
		failed:  make(map[string]error),
	}
}

// Register adds a loader for a dotted module name.
func (r *Resolver) Register(name string, loader Loader) error {
	if _, err := splitName(name); err != nil {
		return err
	}
	if loader == nil {
		return newInvalidName(name, "nil loader")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.loaders[name]; exists {
		return newInvalidName(name, "already registered")
	}
	r.loaders[name] = loader
	return nil
}

// MustRegister is like Register but panics on error.
// Use only for static registrations known to be valid.
func (r *Resolver) MustRegister(name string, loader Loader) {
	if err := r.Register(name, loader); err != nil {
		panic(err)
	}
}

// Resolve returns the namespace for name, loading it and its parents on
// first use. A missing segment yields ErrCodeModuleNotFound.
//
// A segment with no loader of its own may still resolve when its parent
// already exposes a nested *Object under that segment.
func (r *Resolver) Resolve(name string) (*Object, error) {
	segs, err := splitName(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var parent *Object
	for i, seg := range segs {
		prefix := strings.Join(segs[:i+1], ".")
		obj, err := r.loadLocked(prefix, seg, parent)
		if err != nil {
			return nil, err
		}
		parent = obj
	}
	return parent, nil
}

func (r *Resolver) loadLocked(prefix, seg string, parent *Object) (*Object, error) {
	if obj, ok := r.loaded[prefix]; ok {
		return obj, nil
	}
	if err, ok := r.failed[prefix]; ok {
		return nil, err
	}

	loader, ok := r.loaders[prefix]
	if !ok {
		if parent != nil {
			if v, ok := parent.Get(seg); ok {
				if obj, ok := v.(*Object); ok {
					r.loaded[prefix] = obj
					return obj, nil
				}
			}
		}
		return nil, newModuleNotFound(prefix)
	}

	obj, err := loader()
	if err == nil && obj == nil {
		err = errors.New("loader returned no namespace")
	}
	if err != nil {
		rerr := &ResolutionError{
			Code:    ErrCodeLoadFailed,
			Message: "module loader failed",
			Module:  prefix,
			Err:     err,
		}
		r.failed[prefix] = rerr
		return nil, rerr
	}

	r.loaded[prefix] = obj
	if parent != nil {
		if _, exists := parent.Get(seg); !exists {
			parent.Set(seg, obj)
		}
	}
	return obj, nil
}

// Validate checks that every registered name has all of its parents
// registered, so any registered module is reachable by Resolve. It loads
// nothing.
func (r *Resolver) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, name := range r.namesLocked() {
		segs := strings.Split(name, ".")
		for i := 1; i < len(segs); i++ {
			prefix := strings.Join(segs[:i], ".")
			if _, ok := r.loaders[prefix]; !ok {
				errs = append(errs, &ResolutionError{
					Code:    ErrCodeModuleNotFound,
					Message: fmt.Sprintf("parent %q of %q is not registered", prefix, name),
					Module:  prefix,
				})
			}
		}
	}
	return errors.Join(errs...)
}

// Loaded reports whether name has been loaded.
func (r *Resolver) Loaded(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.loaded[name]
	return ok
}

// Names returns the registered module names in sorted order.
func (r *Resolver) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.namesLocked()
}

func (r *Resolver) namesLocked() []string {
	names := make([]string, 0, len(r.loaders))
	for name := range r.loaders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

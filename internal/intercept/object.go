package intercept

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"
)

// Func is the calling convention shared by every instrumentable function.
// Arguments are positional; the result and error are passed through
// interception unchanged.
type Func func(args ...any) (any, error)

// Object is a namespace of named attributes: functions, values or nested
// objects. Instrumentable libraries route calls through an Object so an
// attribute can be replaced without changing call sites.
//
// Object is safe for concurrent use.
type Object struct {
	name string

	mu    sync.RWMutex
	attrs map[string]any

	// backups holds the originals of patched function attributes, keyed by
	// attribute name. It is separate from attrs so no attribute can collide
	// with a backup.
	backups map[string]Func

	// patchMu serializes Patch and Unpatch of this object's attributes.
	patchMu sync.Mutex
}

// NewObject creates an empty namespace.
func NewObject(name string) *Object {
	return &Object{name: name, attrs: make(map[string]any), backups: make(map[string]Func)}
}

// Name returns the namespace name.
func (o *Object) Name() string {
	return o.name
}

// Set binds an attribute, replacing any previous value.
func (o *Object) Set(name string, v any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attrs[name] = v
}

// SetFunc binds a function attribute.
func (o *Object) SetFunc(name string, fn Func) {
	o.Set(name, fn)
}

// Get returns an attribute and whether it exists.
func (o *Object) Get(name string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.attrs[name]
	return v, ok
}

// Delete removes an attribute.
func (o *Object) Delete(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.attrs, name)
}

// Attrs returns the attribute names in sorted order.
func (o *Object) Attrs() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, 0, len(o.attrs))
	for k := range o.attrs {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

func (o *Object) backup(name string) (Func, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	fn, ok := o.backups[name]
	return fn, ok
}

// swap binds fn to name and keeps or drops the backup in one step, so a
// reader never sees a wrapper without its backup.
func (o *Object) swap(name string, fn Func, backup Func) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attrs[name] = fn
	if backup != nil {
		o.backups[name] = backup
	} else {
		delete(o.backups, name)
	}
}

// Lookup resolves a dotted attribute path such as "Table.Load".
// Every segment except the last must be a nested *Object.
func (o *Object) Lookup(path string) (any, error) {
	owner, leaf, err := o.owner(path)
	if err != nil {
		return nil, err
	}
	v, ok := owner.Get(leaf)
	if !ok {
		return nil, newAttributeNotFound(owner.name, leaf)
	}
	return v, nil
}

// LookupFunc resolves a dotted path to a callable attribute.
func (o *Object) LookupFunc(path string) (Func, error) {
	v, err := o.Lookup(path)
	if err != nil {
		return nil, err
	}
	fn, ok := v.(Func)
	if !ok {
		return nil, &ResolutionError{
			Code:    ErrCodeNotCallable,
			Message: fmt.Sprintf("attribute is %T, not a function", v),
			Module:  o.name,
			Attr:    path,
		}
	}
	return fn, nil
}

// Call looks up the function at path and invokes it with args.
// This is the dispatch every instrumentable library uses, so a patched
// attribute takes effect on the next call.
func (o *Object) Call(path string, args ...any) (any, error) {
	fn, err := o.LookupFunc(path)
	if err != nil {
		return nil, err
	}
	return fn(args...)
}

// owner walks all but the last segment of path and returns the object that
// holds the final attribute, together with that attribute's name.
func (o *Object) owner(path string) (*Object, string, error) {
	segs, err := splitName(path)
	if err != nil {
		return nil, "", err
	}
	cur := o
	for _, seg := range segs[:len(segs)-1] {
		v, ok := cur.Get(seg)
		if !ok {
			return nil, "", newAttributeNotFound(cur.name, seg)
		}
		next, ok := v.(*Object)
		if !ok {
			return nil, "", &ResolutionError{
				Code:    ErrCodeAttributeNotFound,
				Message: fmt.Sprintf("%s.%s is %T, not a namespace", cur.name, seg, v),
				Module:  cur.name,
				Attr:    seg,
			}
		}
		cur = next
	}
	return cur, segs[len(segs)-1], nil
}

// splitName validates a dotted name and returns its segments.
func splitName(name string) ([]string, error) {
	if name == "" {
		return nil, newInvalidName(name, "empty")
	}
	segs := strings.Split(name, ".")
	for _, seg := range segs {
		if !isIdentifier(seg) {
			return nil, newInvalidName(name, fmt.Sprintf("segment %q is not an identifier", seg))
		}
	}
	return segs, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}

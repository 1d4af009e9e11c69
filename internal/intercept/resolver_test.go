package intercept

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLoader returns a loader that counts how often it runs.
func countingLoader(name string, count *int) Loader {
	return func() (*Object, error) {
		*count++
		obj := NewObject(name)
		obj.SetFunc("Run", echoFunc)
		return obj, nil
	}
}

func TestResolverLoadsLazily(t *testing.T) {
	r := NewResolver()
	var a, ab, abc, sibling int
	r.MustRegister("a", countingLoader("a", &a))
	r.MustRegister("a.b", countingLoader("a.b", &ab))
	r.MustRegister("a.b.c", countingLoader("a.b.c", &abc))
	r.MustRegister("a.sibling", countingLoader("a.sibling", &sibling))

	assert.False(t, r.Loaded("a"), "nothing loads at registration")

	obj, err := r.Resolve("a.b.c")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", obj.Name())

	assert.True(t, r.Loaded("a"))
	assert.True(t, r.Loaded("a.b"))
	assert.True(t, r.Loaded("a.b.c"))
	assert.False(t, r.Loaded("a.sibling"))
	assert.Equal(t, 0, sibling)

	_, err = r.Resolve("a.b.c")
	require.NoError(t, err)
	_, err = r.Resolve("a.b")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1}, []int{a, ab, abc}, "loaders run once")
}

func TestResolverLinksChildrenOntoParents(t *testing.T) {
	r := NewResolver()
	var n int
	r.MustRegister("tabular", countingLoader("tabular", &n))
	r.MustRegister("tabular.csv", countingLoader("tabular.csv", &n))

	child, err := r.Resolve("tabular.csv")
	require.NoError(t, err)
	root, err := r.Resolve("tabular")
	require.NoError(t, err)

	got, err := root.Lookup("csv")
	require.NoError(t, err)
	assert.Same(t, child, got)

	fn, err := root.LookupFunc("csv.Run")
	require.NoError(t, err)
	out, err := fn("x")
	require.NoError(t, err)
	assert.Equal(t, "x", out)
}

func TestResolverFallsBackToNestedObject(t *testing.T) {
	r := NewResolver()
	r.MustRegister("pkg", func() (*Object, error) {
		pkg := NewObject("pkg")
		pkg.Set("inner", NewObject("pkg.inner"))
		return pkg, nil
	})

	obj, err := r.Resolve("pkg.inner")
	require.NoError(t, err)
	assert.Equal(t, "pkg.inner", obj.Name())
}

func TestResolverModuleNotFound(t *testing.T) {
	r := NewResolver()
	var n int
	r.MustRegister("a", countingLoader("a", &n))

	for _, name := range []string{"missing", "a.missing", "a.missing.deeper"} {
		t.Run(name, func(t *testing.T) {
			_, err := r.Resolve(name)
			require.Error(t, err)
			assert.True(t, IsModuleNotFound(err), "got %v", err)
		})
	}

	_, err := r.Resolve("a..b")
	assert.True(t, hasCode(err, ErrCodeInvalidName))
}

func TestResolverLoadFailureIsRemembered(t *testing.T) {
	r := NewResolver()
	var calls int
	disk := errors.New("disk on fire")
	r.MustRegister("broken", func() (*Object, error) {
		calls++
		return nil, disk
	})
	r.MustRegister("empty", func() (*Object, error) { return nil, nil })

	_, err := r.Resolve("broken")
	require.Error(t, err)
	assert.ErrorIs(t, err, disk)
	assert.True(t, hasCode(err, ErrCodeLoadFailed))

	_, err = r.Resolve("broken")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.False(t, r.Loaded("broken"))

	_, err = r.Resolve("empty")
	assert.True(t, hasCode(err, ErrCodeLoadFailed))
}

func TestResolverRegisterErrors(t *testing.T) {
	r := NewResolver()
	var n int
	require.NoError(t, r.Register("ok", countingLoader("ok", &n)))

	assert.Error(t, r.Register("ok", countingLoader("ok", &n)), "duplicate")
	assert.Error(t, r.Register("", countingLoader("", &n)))
	assert.Error(t, r.Register("bad-name", countingLoader("x", &n)))
	assert.Error(t, r.Register("nil", nil))
	assert.Panics(t, func() { r.MustRegister("ok", countingLoader("ok", &n)) })

	assert.Equal(t, []string{"ok"}, r.Names())
}

func TestResolverValidate(t *testing.T) {
	r := NewResolver()
	var n int
	r.MustRegister("a", countingLoader("a", &n))
	r.MustRegister("a.b", countingLoader("a.b", &n))
	require.NoError(t, r.Validate())

	r.MustRegister("x.y.z", countingLoader("x.y.z", &n))
	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parent "x" of "x.y.z"`)
	assert.Contains(t, err.Error(), `parent "x.y" of "x.y.z"`)
	assert.Equal(t, 0, n, "validation loads nothing")
}

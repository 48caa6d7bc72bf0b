package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	r := New()

	err := r.Register(Setting{Name: "INITIAL_MEMORY", Default: 16777216})
	require.NoError(t, err)

	s := r.Get("INITIAL_MEMORY")
	require.NotNil(t, s)
	assert.Equal(t, TypeInt, s.Type)

	// Duplicate should fail
	err = r.Register(Setting{Name: "INITIAL_MEMORY", Default: 1})
	assert.ErrorIs(t, err, ErrSettingAlreadyRegistered)
}

func TestRegistry_RegisterRejectsBadDefaults(t *testing.T) {
	r := New()

	assert.ErrorIs(t, r.Register(Setting{Name: "", Default: 1}), ErrInvalidName)
	assert.ErrorIs(t, r.Register(Setting{Name: "RATIO", Default: 0.5}), ErrUnsupportedType)
	assert.False(t, r.Has("RATIO"))
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Setting{Name: "A", Default: "x"}))

	assert.Error(t, r.Register(Setting{Name: "A", Default: "y"}))
	assert.Equal(t, "x", r.Get("A").Default)
}

func TestRegistry_NormalizesDefaults(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Setting{Name: "EXPORTED_RUNTIME_METHODS", Default: []string{"ccall"}}))

	s := r.Get("EXPORTED_RUNTIME_METHODS")
	require.NotNil(t, s)
	assert.Equal(t, TypeList, s.Type)
	assert.Equal(t, []any{"ccall"}, s.Default)
}

func TestRegistry_Ordering(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Setting{Name: "B", Default: 1}))
	require.NoError(t, r.Register(Setting{Name: "A", Default: 1}))
	require.NoError(t, r.Register(Setting{Name: "C", Default: 1, Internal: true}))

	assert.Equal(t, []string{"A", "B", "C"}, r.Names())
	assert.Equal(t, 3, r.Len())

	ordered := r.Ordered()
	require.Len(t, ordered, 3)
	assert.Equal(t, "B", ordered[0].Name)

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "A", all[0].Name)
	assert.True(t, all[2].Internal)

	typ, ok := r.TypeOf("A")
	assert.True(t, ok)
	assert.Equal(t, TypeInt, typ)

	_, ok = r.TypeOf("missing")
	assert.False(t, ok)
}

package collision

import (
	"testing"

	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/internal/hash"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry[int]()

	id, err := r.Register("varint64", 1)
	require.NoError(t, err)
	require.Equal(t, hash.ID("varint64"), id)

	_, err = r.Register("string8", 2)
	require.NoError(t, err)
	require.Equal(t, 2, r.Count())
	require.Equal(t, []string{"varint64", "string8"}, r.Names())

	name, v, ok := r.Lookup(id)
	require.True(t, ok)
	require.Equal(t, "varint64", name)
	require.Equal(t, 1, v)

	gotID, v, ok := r.Get("string8")
	require.True(t, ok)
	require.Equal(t, hash.ID("string8"), gotID)
	require.Equal(t, 2, v)
}

func TestRegistry_Errors(t *testing.T) {
	r := NewRegistry[string]()

	_, err := r.Register("", "x")
	require.ErrorIs(t, err, errs.ErrInvalidSchemaName)

	_, err = r.Register("person", "a")
	require.NoError(t, err)

	_, err = r.Register("person", "b")
	require.ErrorIs(t, err, errs.ErrDuplicateSchema)
	require.True(t, errs.IsInvalidValue(err))

	require.Equal(t, 1, r.Count())
}

func TestRegistry_Collision(t *testing.T) {
	r := NewRegistry[string]()

	require.NoError(t, r.track("cpu.usage", 0x1234, "a"))
	err := r.track("cpu.idle", 0x1234, "b")
	require.ErrorIs(t, err, errs.ErrHashCollision)
	require.Contains(t, err.Error(), "cpu.usage")

	name, v, ok := r.Lookup(0x1234)
	require.True(t, ok)
	require.Equal(t, "cpu.usage", name)
	require.Equal(t, "a", v)
}

func TestRegistry_Missing(t *testing.T) {
	r := NewRegistry[int]()

	_, _, ok := r.Lookup(42)
	require.False(t, ok)

	_, _, ok = r.Get("nope")
	require.False(t, ok)
}

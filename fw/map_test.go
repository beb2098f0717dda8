package fw

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/format"
)

type stringToUint16 = MapBuilder[*StringView, *StringBuilder, *IntView[uint16], *IntBuilder[uint16]]

func setUint16(x uint16) func(*IntBuilder[uint16]) error {
	return func(b *IntBuilder[uint16]) error { return b.Set(x) }
}

func TestMap_Layout(t *testing.T) {
	codec := Map(format.Width8, String8(), Uint16())
	got, err := Encode(codec.NewBuilder(), func(b *stringToUint16) error {
		if err := b.Entry(setString("a"), setUint16(1)); err != nil {
			return err
		}
		if err := b.Key(setString("b")); err != nil {
			return err
		}
		return b.Value(setUint16(2))
	})
	require.NoError(t, err)
	require.Equal(t, []byte{0x0B, 0x04, 0x01, 'a', 0x01, 0x00, 0x01, 'b', 0x02, 0x00}, got)

	v := codec.NewView()
	require.NoError(t, v.Wrap(got, 0, len(got)))
	require.Equal(t, 2, v.Len())

	entries := map[string]uint16{}
	for k, val := range v.Entries() {
		entries[k.String()] = val.Value()
	}
	require.Equal(t, map[string]uint16{"a": 1, "b": 2}, entries)
}

func TestMapBuilder_KeyValueOrder(t *testing.T) {
	buf := make([]byte, 64)
	b := NewMapBuilder(format.Width8, String8(), Uint16())
	require.NoError(t, b.Wrap(buf, 0, len(buf)))

	require.ErrorIs(t, b.Value(setUint16(1)), errs.ErrKeyValueOrder)
	require.NoError(t, b.Key(setString("k")))
	require.ErrorIs(t, b.Key(setString("k2")), errs.ErrKeyValueOrder)

	_, err := b.Build()
	require.ErrorIs(t, err, errs.ErrKeyValueOrder)
	require.ErrorIs(t, err, errs.ErrIllegalState)

	require.NoError(t, b.Value(setUint16(7)))
	require.Equal(t, 1, b.Len())

	v, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, 1, v.Len())
}

func TestMapBuilder_EntryIsAtomic(t *testing.T) {
	buf := make([]byte, 8)
	b := NewMapBuilder(format.Width8, String8(), Uint16())
	require.NoError(t, b.Wrap(buf, 0, len(buf)))
	require.NoError(t, b.Entry(setString("a"), setUint16(1)))
	limit := b.Limit()

	// The key fits but the value does not.
	err := b.Entry(setString("b"), setUint16(2))
	require.ErrorIs(t, err, errs.ErrOutOfBounds)
	require.Equal(t, limit, b.Limit())
	require.Equal(t, 1, b.Len())

	// The builder still accepts a key after the rollback.
	require.NoError(t, b.Wrap(buf, 0, len(buf)))
	require.NoError(t, b.Key(setString("z")))
}

func TestMap_Empty(t *testing.T) {
	got, err := Encode(Map(format.Width16, String8(), Uint16()).NewBuilder(), nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0x02, 0x00, 0x00, 0x00}, got)

	v := NewMapView(format.Width16, String8(), Uint16())
	require.NoError(t, v.Wrap(got, 0, len(got)))
	require.Equal(t, 0, v.Len())
	for range v.Entries() {
		t.Fatal("empty map yielded an entry")
	}
}

func TestMapView_Malformed(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"odd count", []byte{0x04, 0x01, 0x01, 'a', 0x00}},
		{"value crosses limit", []byte{0x04, 0x02, 0x01, 'a', 0x01}},
		{"trailing bytes", []byte{0x06, 0x02, 0x01, 'a', 0x01, 0x00, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewMapView(format.Width8, String8(), Uint16())
			require.ErrorIs(t, v.Wrap(tt.buf, 0, len(tt.buf)), errs.ErrMalformed)
			require.False(t, v.TryWrap(tt.buf, 0, len(tt.buf)))
		})
	}
}

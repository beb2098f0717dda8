package flyweight

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/format"
	"github.com/arloliu/flyweight/frame"
	"github.com/arloliu/flyweight/fw"
)

func TestWriterRoundTrip(t *testing.T) {
	w, err := NewDefaultWriter("names")
	require.NoError(t, err)
	require.Equal(t, format.CompressionZstd, w.Header().Compression)

	b := fw.String16().NewBuilder()
	for _, name := range []string{"alpha", "beta"} {
		_, err := frame.Append(w, b, func(b *fw.StringBuilder) error { return b.Set(name) })
		require.NoError(t, err)
	}
	data, err := w.Finish()
	require.NoError(t, err)

	f, err := DecodeSchema(data, "names")
	require.NoError(t, err)
	require.Equal(t, SchemaID("names"), f.Header.SchemaID)

	names, err := Collect(f, fw.String16().NewView(), (*fw.StringView).String)
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "beta"}, names)

	_, err = DecodeSchema(data, "other")
	require.ErrorIs(t, err, errs.ErrSchemaMismatch)

	f, err = Decode(data)
	require.NoError(t, err)
	require.Equal(t, 2, f.Len())
}

func TestNewWriter_EmptySchema(t *testing.T) {
	_, err := NewWriter("")
	require.ErrorIs(t, err, errs.ErrInvalidSchemaName)
}

func TestEncodeRecord(t *testing.T) {
	got, err := EncodeRecord(fw.Varint64().NewBuilder(), func(b *fw.Varint64Builder) error {
		return b.Set(-1)
	})
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, got)
}

func TestCollect_Malformed(t *testing.T) {
	w, err := NewWriter("ints")
	require.NoError(t, err)
	_, err = frame.Append(w, fw.Uint16().NewBuilder(), func(b *fw.IntBuilder[uint16]) error { return b.Set(1) })
	require.NoError(t, err)
	data, err := w.Finish()
	require.NoError(t, err)

	f, err := Decode(data)
	require.NoError(t, err)

	// A two-byte record walked as four-byte records does not fit.
	_, err = Collect(f, fw.Uint32().NewView(), (*fw.IntView[uint32]).Value)
	require.ErrorIs(t, err, errs.ErrOutOfBounds)
}

func TestCollect_CountBeyondPayload(t *testing.T) {
	w, err := NewWriter("ints")
	require.NoError(t, err)
	_, err = frame.Append(w, fw.Uint16().NewBuilder(), func(b *fw.IntBuilder[uint16]) error { return b.Set(1) })
	require.NoError(t, err)
	data, err := w.Finish()
	require.NoError(t, err)

	f, err := Decode(data)
	require.NoError(t, err)
	f.Header.RecordCount = 0xFFFFFFFF

	_, err = Collect(f, fw.Uint16().NewView(), (*fw.IntView[uint16]).Value)
	require.ErrorIs(t, err, errs.ErrMalformed)
}

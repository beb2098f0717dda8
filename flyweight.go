// Package flyweight provides zero-copy, bounds-checked binary codecs built
// from composable view/builder pairs, and a frame envelope for batches of
// encoded records.
//
// The codecs live in package fw. A view wraps existing bytes without copying
// and a builder appends one value into a caller supplied region; both are
// reusable cursors:
//
//	codec := fw.List(format.Width16, fw.String8())
//	data, err := fw.Encode(codec.NewBuilder(), func(b *fw.ListBuilder[*fw.StringView, *fw.StringBuilder]) error {
//	    return b.Item(func(s *fw.StringBuilder) error { return s.Set("hello") })
//	})
//
// This package adds top-level helpers around package frame, which stores
// records of one named schema with an optional compression and a checksum:
//
//	w, _ := flyweight.NewWriter("names", frame.WithCompression(format.CompressionZstd))
//	b := fw.String16().NewBuilder()
//	frame.Append(w, b, func(b *fw.StringBuilder) error { return b.Set("alpha") })
//	data, _ := w.Finish()
//
//	f, _ := flyweight.DecodeSchema(data, "names")
//	names, _ := flyweight.Collect(f, fw.String16().NewView(), (*fw.StringView).String)
//
// For fine-grained control use packages fw and frame directly.
package flyweight

import (
	"fmt"

	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/format"
	"github.com/arloliu/flyweight/frame"
	"github.com/arloliu/flyweight/fw"
	"github.com/arloliu/flyweight/internal/hash"
)

// SchemaID returns the 64-bit id stored in frame headers for a schema name.
func SchemaID(name string) uint64 {
	return hash.ID(name)
}

// NewWriter creates a frame writer for records of the named schema.
func NewWriter(schema string, opts ...frame.WriterOption) (*frame.Writer, error) {
	if schema == "" {
		return nil, errs.ErrInvalidSchemaName
	}

	return frame.NewWriter(SchemaID(schema), opts...)
}

// NewDefaultWriter creates a little-endian, zstd-compressed frame writer.
func NewDefaultWriter(schema string) (*frame.Writer, error) {
	return NewWriter(schema,
		frame.WithLittleEndian(),
		frame.WithCompression(format.CompressionZstd),
	)
}

// Decode verifies and decodes one frame of any schema.
func Decode(data []byte) (*frame.Frame, error) {
	return frame.Decode(data)
}

// DecodeSchema decodes one frame and checks that it holds records of the
// named schema.
//
// Parameters:
//   - data: One encoded frame
//   - schema: Expected schema name
//
// Returns:
//   - *frame.Frame: Verified frame
//   - error: Decode error, or errs.ErrSchemaMismatch if the frame carries another schema
func DecodeSchema(data []byte, schema string) (*frame.Frame, error) {
	f, err := frame.Decode(data)
	if err != nil {
		return nil, err
	}
	if want := SchemaID(schema); f.Header.SchemaID != want {
		return nil, fmt.Errorf("%w: got %#016x, want %#016x (%s)", errs.ErrSchemaMismatch, f.Header.SchemaID, want, schema)
	}

	return f, nil
}

// EncodeRecord encodes a single value into a fresh buffer.
func EncodeRecord[B fw.Builder](b B, fn func(B) error) ([]byte, error) {
	return fw.Encode(b, fn)
}

// Collect walks every record of f with v and returns fn applied to each.
func Collect[V fw.View, T any](f *frame.Frame, v V, fn func(V) T) ([]T, error) {
	out := make([]T, 0, min(f.Len(), len(f.Payload())))
	err := frame.Each(f, v, func(_ int, v V) error {
		out = append(out, fn(v))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

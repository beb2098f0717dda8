package fw

import (
	"errors"
	"fmt"

	"github.com/arloliu/flyweight/endian"
	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/format"
	"github.com/arloliu/flyweight/internal/options"
)

// View is a reusable read cursor over an encoded value.
//
// Wrap and TryWrap accept and reject exactly the same inputs: Wrap returns an
// error wrapping errs.ErrOutOfBounds where TryWrap returns false. After a
// successful wrap, Offset() <= Limit() <= maxLimit <= len(buf) and every
// accessor reads only bytes in [Offset(), Limit()).
type View interface {
	Wrap(buf []byte, offset, maxLimit int) error
	TryWrap(buf []byte, offset, maxLimit int) bool
	Offset() int
	Limit() int
	Sizeof() int
}

// Builder is a reusable write cursor appending one value to a region.
//
// Limit is the exclusive end of the bytes written so far. No byte at or past
// maxLimit is ever written. Finish completes the value, back-patching any
// header, and returns its limit.
type Builder interface {
	Wrap(buf []byte, offset, maxLimit int) error
	Limit() int
	Finish() (int, error)
}

// Type is the type-erased form of a Codec, used by heterogeneous field and
// case tables.
type Type interface {
	anyView() View
	anyBuilder() Builder
}

// Codec pairs the view and builder factories of one wire type.
type Codec[V View, B Builder] struct {
	newView    func() V
	newBuilder func() B
}

var _ Type = Codec[View, Builder]{}

// NewCodec creates a codec from view and builder factories.
func NewCodec[V View, B Builder](newView func() V, newBuilder func() B) Codec[V, B] {
	return Codec[V, B]{newView: newView, newBuilder: newBuilder}
}

// NewView returns a fresh, unwrapped view.
func (c Codec[V, B]) NewView() V {
	return c.newView()
}

// NewBuilder returns a fresh, unwrapped builder.
func (c Codec[V, B]) NewBuilder() B {
	return c.newBuilder()
}

func (c Codec[V, B]) anyView() View {
	return c.newView()
}

func (c Codec[V, B]) anyBuilder() Builder {
	return c.newBuilder()
}

// Config holds the options shared by every view and builder.
type Config struct {
	engine endian.EndianEngine
}

// Engine returns the configured byte order.
func (c *Config) Engine() endian.EndianEngine {
	return c.engine
}

// Option configures a view, builder or codec.
type Option = options.Option[*Config]

// WithEngine selects the byte order used for all multi-byte integers.
// A nil engine keeps the default.
func WithEngine(engine endian.EndianEngine) Option {
	return options.NoError(func(c *Config) {
		if engine != nil {
			c.engine = engine
		}
	})
}

// WithLittleEndian selects little-endian byte order. It is the default.
func WithLittleEndian() Option {
	return WithEngine(endian.GetLittleEndianEngine())
}

// WithBigEndian selects big-endian byte order.
func WithBigEndian() Option {
	return WithEngine(endian.GetBigEndianEngine())
}

func newConfig(opts []Option) Config {
	cfg := Config{engine: endian.GetLittleEndianEngine()}
	_ = options.Apply(&cfg, opts...) // fw options never fail

	return cfg
}

// flyweight is the region a view or builder is bound to.
type flyweight struct {
	buf      []byte
	offset   int
	limit    int
	maxLimit int
	engine   endian.EndianEngine
}

func (f *flyweight) bind(buf []byte, offset, maxLimit int) error {
	if offset < 0 || offset > maxLimit || maxLimit > len(buf) {
		return errs.ErrOutOfBounds
	}
	f.buf = buf
	f.offset = offset
	f.limit = offset
	f.maxLimit = maxLimit

	return nil
}

// Buffer returns the wrapped buffer.
func (f *flyweight) Buffer() []byte {
	return f.buf
}

// Offset returns the first byte of the value.
func (f *flyweight) Offset() int {
	return f.offset
}

// Limit returns the exclusive end of the value.
func (f *flyweight) Limit() int {
	return f.limit
}

// MaxLimit returns the bound the value was wrapped with.
func (f *flyweight) MaxLimit() int {
	return f.maxLimit
}

// Sizeof returns Limit() - Offset().
func (f *flyweight) Sizeof() int {
	return f.limit - f.offset
}

// Engine returns the byte order of the value.
func (f *flyweight) Engine() endian.EndianEngine {
	return f.engine
}

// Encoded returns the encoded value without copying.
func (f *flyweight) Encoded() []byte {
	return f.buf[f.offset:f.limit:f.limit]
}

func (f *flyweight) uintAt(off int, w format.Width) uint64 {
	return getUint(f.engine, f.buf[off:], w)
}

func (f *flyweight) putUintAt(off int, w format.Width, v uint64) {
	putUint(f.engine, f.buf[off:], w, v)
}

func getUint(engine endian.EndianEngine, b []byte, w format.Width) uint64 {
	switch w {
	case format.Width8:
		return uint64(b[0])
	case format.Width16:
		return uint64(engine.Uint16(b))
	case format.Width32:
		return uint64(engine.Uint32(b))
	default:
		return engine.Uint64(b)
	}
}

func putUint(engine endian.EndianEngine, b []byte, w format.Width, v uint64) {
	switch w {
	case format.Width8:
		b[0] = byte(v)
	case format.Width16:
		engine.PutUint16(b, uint16(v)) //nolint:gosec
	case format.Width32:
		engine.PutUint32(b, uint32(v)) //nolint:gosec
	default:
		engine.PutUint64(b, v)
	}
}

// builderBase carries the region and state machine of a builder.
type builderBase struct {
	flyweight
	state builderState
}

// begin binds the builder and reserves a fixed header of n bytes.
func (b *builderBase) begin(buf []byte, offset, maxLimit, header int) error {
	b.state = stateUnwrapped
	if err := b.bind(buf, offset, maxLimit); err != nil {
		return err
	}
	if offset+header > maxLimit {
		return errs.ErrOutOfBounds
	}
	b.limit = offset + header
	b.state = stateWrapping

	return nil
}

func (b *builderBase) writable() error {
	return b.state.writable()
}

// reserve extends the limit by n bytes and returns the start of the new span.
func (b *builderBase) reserve(n int) (int, error) {
	if b.limit+n > b.maxLimit {
		return 0, fmt.Errorf("%w: need %d bytes at %d, max limit %d", errs.ErrOutOfBounds, n, b.limit, b.maxLimit)
	}
	start := b.limit
	b.limit += n

	return start, nil
}

func (b *builderBase) seal() int {
	b.state = stateBuilt
	return b.limit
}

func mustLengthWidth(w format.Width) {
	if !w.IsLengthWidth() {
		panic(fmt.Sprintf("fw: invalid length width %d", w))
	}
}

func wrapErr(what string, err error, offset, maxLimit int) error {
	return fmt.Errorf("%w: %s at offset %d, max limit %d", err, what, offset, maxLimit)
}

// maxEncodeSize bounds the scratch buffer used by Encode.
const maxEncodeSize = 1 << 30

// Encode writes one value with fn into a fresh buffer and returns exactly the
// encoded bytes. The buffer doubles and the value is rewritten whenever the
// builder runs out of room.
//
// Parameters:
//   - b: Builder of the value type
//   - fn: Fills the wrapped builder; called again after every buffer growth
//
// Returns:
//   - []byte: Exactly the encoded bytes
//   - error: The error from fn or Finish, or errs.ErrOutOfBounds past 1GB
func Encode[B Builder](b B, fn func(B) error) ([]byte, error) {
	for size := 64; ; size *= 2 {
		buf := make([]byte, size)
		limit, err := encodeInto(b, buf, fn)
		if err == nil {
			return buf[:limit], nil
		}
		if !errors.Is(err, errs.ErrOutOfBounds) || size >= maxEncodeSize {
			return nil, err
		}
	}
}

func encodeInto[B Builder](b B, buf []byte, fn func(B) error) (int, error) {
	if err := b.Wrap(buf, 0, len(buf)); err != nil {
		return 0, err
	}
	if fn != nil {
		if err := fn(b); err != nil {
			return 0, err
		}
	}

	return b.Finish()
}

func typed[T any](v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: got %T, want %T", errs.ErrTypeMismatch, v, zero)
	}

	return t, nil
}

// wrapResult wraps v over the bytes the builder has finished.
func (b *builderBase) wrapResult(v View, limit int) error {
	return v.Wrap(b.buf, b.offset, limit)
}

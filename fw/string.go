package fw

import (
	"fmt"
	"unicode/utf8"

	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/format"
)

// StringView reads a length-prefixed UTF-8 string.
//
// The layout is [len:uintN][bytes]. A length equal to the all-ones value of
// the prefix width marks a null string, which is distinct from an empty one.
type StringView struct {
	flyweight
	width  format.Width
	length int
}

// NewStringView creates an unwrapped string view with the given length
// prefix width. It panics if width is not Width8, Width16 or Width32.
//
// Parameters:
//   - width: Length prefix width (Width8, Width16 or Width32)
//   - opts: Optional settings such as byte order
//
// Returns:
//   - *StringView: Unwrapped view, reusable across Wrap calls
func NewStringView(width format.Width, opts ...Option) *StringView {
	mustLengthWidth(width)
	cfg := newConfig(opts)

	v := &StringView{width: width}
	v.engine = cfg.engine

	return v
}

func (v *StringView) wrap(buf []byte, offset, maxLimit int) error {
	if err := v.bind(buf, offset, maxLimit); err != nil {
		return err
	}
	w := v.width.Size()
	if maxLimit-offset < w {
		return errs.ErrOutOfBounds
	}
	n := v.uintAt(offset, v.width)
	if n == v.width.Max() {
		v.length = -1
		v.limit = offset + w
		return nil
	}
	if n > uint64(maxLimit-offset-w) {
		return errs.ErrOutOfBounds
	}
	v.length = int(n) //nolint:gosec
	v.limit = offset + w + v.length

	return nil
}

// Wrap binds the view to the string starting at offset.
func (v *StringView) Wrap(buf []byte, offset, maxLimit int) error {
	if err := v.wrap(buf, offset, maxLimit); err != nil {
		return wrapErr("string"+v.width.String(), err, offset, maxLimit)
	}

	return nil
}

// TryWrap is Wrap reporting failure as false.
func (v *StringView) TryWrap(buf []byte, offset, maxLimit int) bool {
	return v.wrap(buf, offset, maxLimit) == nil
}

// Width returns the length prefix width.
func (v *StringView) Width() format.Width {
	return v.width
}

// Length returns the byte length of the string, or -1 when it is null.
func (v *StringView) Length() int {
	return v.length
}

// IsNull reports whether the string is null.
func (v *StringView) IsNull() bool {
	return v.length < 0
}

// Bytes returns the string bytes without copying. It returns nil for a null
// string.
func (v *StringView) Bytes() []byte {
	if v.IsNull() {
		return nil
	}
	start := v.offset + v.width.Size()

	return v.buf[start:v.limit:v.limit]
}

// String returns a copy of the string, or "" when it is null.
func (v *StringView) String() string {
	return string(v.Bytes())
}

// StringBuilder writes a length-prefixed UTF-8 string.
type StringBuilder struct {
	builderBase
	width format.Width
	set   bool
}

// NewStringBuilder creates an unwrapped string builder. It panics if width
// is not Width8, Width16 or Width32.
//
// Parameters:
//   - width: Length prefix width (Width8, Width16 or Width32)
//   - opts: Optional settings such as byte order
//
// Returns:
//   - *StringBuilder: Unwrapped builder, reusable across Wrap calls
func NewStringBuilder(width format.Width, opts ...Option) *StringBuilder {
	mustLengthWidth(width)
	cfg := newConfig(opts)

	b := &StringBuilder{width: width}
	b.engine = cfg.engine

	return b
}

// Wrap binds the builder to buf[offset:maxLimit].
func (b *StringBuilder) Wrap(buf []byte, offset, maxLimit int) error {
	b.set = false
	return b.begin(buf, offset, maxLimit, 0)
}

// Width returns the length prefix width.
func (b *StringBuilder) Width() format.Width {
	return b.width
}

// Set writes s. It fails with errs.ErrInvalidValue when s is not valid UTF-8
// or its length reaches the null sentinel of the width.
func (b *StringBuilder) Set(s string) error {
	return putString(b, s, utf8.ValidString(s))
}

// SetBytes writes p as the string bytes. The same rules as Set apply.
func (b *StringBuilder) SetBytes(p []byte) error {
	return putString(b, p, utf8.Valid(p))
}

// SetNull writes the null sentinel.
func (b *StringBuilder) SetNull() error {
	if err := b.settable(); err != nil {
		return err
	}
	start, err := b.reserve(b.width.Size())
	if err != nil {
		return err
	}
	b.putUintAt(start, b.width, b.width.Max())
	b.set = true

	return nil
}

func (b *StringBuilder) settable() error {
	if err := b.writable(); err != nil {
		return err
	}
	if b.set {
		return errs.ErrValueAlreadySet
	}

	return nil
}

func putString[T ~string | ~[]byte](b *StringBuilder, s T, valid bool) error {
	if err := b.settable(); err != nil {
		return err
	}
	if uint64(len(s)) >= b.width.Max() {
		return fmt.Errorf("%w: length %d does not fit string%s", errs.ErrInvalidValue, len(s), b.width)
	}
	if !valid {
		return fmt.Errorf("%w: string is not valid UTF-8", errs.ErrInvalidValue)
	}
	w := b.width.Size()
	start, err := b.reserve(w + len(s))
	if err != nil {
		return err
	}
	b.putUintAt(start, b.width, uint64(len(s)))
	copy(b.buf[start+w:], s)
	b.set = true

	return nil
}

// Finish completes the string and returns its limit.
func (b *StringBuilder) Finish() (int, error) {
	if err := b.writable(); err != nil {
		return 0, err
	}
	if !b.set {
		return 0, errs.ErrValueNotSet
	}

	return b.seal(), nil
}

// Build finishes the string and returns a view over it.
func (b *StringBuilder) Build() (*StringView, error) {
	limit, err := b.Finish()
	if err != nil {
		return nil, err
	}
	v := NewStringView(b.width, WithEngine(b.engine))
	if err := b.wrapResult(v, limit); err != nil {
		return nil, err
	}

	return v, nil
}

// StringCodec returns the codec of strings with the given prefix width.
func StringCodec(width format.Width, opts ...Option) Codec[*StringView, *StringBuilder] {
	mustLengthWidth(width)

	return NewCodec(
		func() *StringView { return NewStringView(width, opts...) },
		func() *StringBuilder { return NewStringBuilder(width, opts...) },
	)
}

// String8 returns the codec of strings with an 8-bit length.
func String8(opts ...Option) Codec[*StringView, *StringBuilder] {
	return StringCodec(format.Width8, opts...)
}

// String16 returns the codec of strings with a 16-bit length.
func String16(opts ...Option) Codec[*StringView, *StringBuilder] {
	return StringCodec(format.Width16, opts...)
}

// String32 returns the codec of strings with a 32-bit length.
func String32(opts ...Option) Codec[*StringView, *StringBuilder] {
	return StringCodec(format.Width32, opts...)
}

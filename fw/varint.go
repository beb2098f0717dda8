package fw

import (
	"fmt"

	"github.com/arloliu/flyweight/errs"
)

// MaxVarint64Len is the longest encoding of a varint64.
const MaxVarint64Len = 10

func zigzag(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63) //nolint:gosec
}

func unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1) //nolint:gosec
}

// Varint64Size returns the number of bytes AppendVarint64 writes for v.
func Varint64Size(v int64) int {
	u := zigzag(v)
	n := 1
	for u >= 0x80 {
		u >>= 7
		n++
	}

	return n
}

// AppendVarint64 appends the zigzag varint encoding of v to dst.
func AppendVarint64(dst []byte, v int64) []byte {
	u := zigzag(v)
	for u >= 0x80 {
		dst = append(dst, byte(u)|0x80)
		u >>= 7
	}

	return append(dst, byte(u))
}

func putVarint64(b []byte, v int64) int {
	u := zigzag(v)
	i := 0
	for u >= 0x80 {
		b[i] = byte(u) | 0x80
		u >>= 7
		i++
	}
	b[i] = byte(u)

	return i + 1
}

// DecodeVarint64 decodes a zigzag varint from the start of b and returns the
// value and the number of bytes consumed. A tenth byte carrying more than the
// final payload bit fails with errs.ErrVarintOverflow.
func DecodeVarint64(b []byte) (int64, int, error) {
	var u uint64
	for i := 0; i < MaxVarint64Len; i++ {
		if i >= len(b) {
			return 0, 0, fmt.Errorf("%w: varint64 truncated after %d bytes", errs.ErrOutOfBounds, i)
		}
		c := b[i]
		if i == MaxVarint64Len-1 && c > 1 {
			return 0, 0, errs.ErrVarintOverflow
		}
		u |= uint64(c&0x7F) << (7 * i)
		if c&0x80 == 0 {
			return unzigzag(u), i + 1, nil
		}
	}

	return 0, 0, errs.ErrVarintOverflow
}

// Varint64View reads a zigzag varint64.
type Varint64View struct {
	flyweight
	value int64
}

// NewVarint64View creates an unwrapped varint64 view.
func NewVarint64View() *Varint64View {
	return &Varint64View{}
}

func (v *Varint64View) wrap(buf []byte, offset, maxLimit int) error {
	if err := v.bind(buf, offset, maxLimit); err != nil {
		return err
	}
	value, n, err := DecodeVarint64(buf[offset:maxLimit])
	if err != nil {
		return err
	}
	v.value = value
	v.limit = offset + n

	return nil
}

// Wrap binds the view to the varint starting at offset.
func (v *Varint64View) Wrap(buf []byte, offset, maxLimit int) error {
	if err := v.wrap(buf, offset, maxLimit); err != nil {
		return wrapErr("varint64", err, offset, maxLimit)
	}

	return nil
}

// TryWrap is Wrap reporting failure as false.
func (v *Varint64View) TryWrap(buf []byte, offset, maxLimit int) bool {
	return v.wrap(buf, offset, maxLimit) == nil
}

// Value returns the decoded value.
func (v *Varint64View) Value() int64 {
	return v.value
}

// Varint64Builder writes a zigzag varint64.
type Varint64Builder struct {
	builderBase
	set bool
}

// NewVarint64Builder creates an unwrapped varint64 builder.
func NewVarint64Builder() *Varint64Builder {
	return &Varint64Builder{}
}

// Wrap binds the builder to buf[offset:maxLimit].
func (b *Varint64Builder) Wrap(buf []byte, offset, maxLimit int) error {
	b.set = false
	return b.begin(buf, offset, maxLimit, 0)
}

// Set writes v using the minimal number of bytes.
func (b *Varint64Builder) Set(v int64) error {
	if err := b.writable(); err != nil {
		return err
	}
	if b.set {
		return errs.ErrValueAlreadySet
	}
	start, err := b.reserve(Varint64Size(v))
	if err != nil {
		return err
	}
	putVarint64(b.buf[start:], v)
	b.set = true

	return nil
}

// Finish completes the value and returns its limit.
func (b *Varint64Builder) Finish() (int, error) {
	if err := b.writable(); err != nil {
		return 0, err
	}
	if !b.set {
		return 0, errs.ErrValueNotSet
	}

	return b.seal(), nil
}

// Build finishes the value and returns a view over it.
func (b *Varint64Builder) Build() (*Varint64View, error) {
	limit, err := b.Finish()
	if err != nil {
		return nil, err
	}
	v := NewVarint64View()
	if err := b.wrapResult(v, limit); err != nil {
		return nil, err
	}

	return v, nil
}

// Varint64 returns the codec of zigzag varint64 values.
func Varint64() Codec[*Varint64View, *Varint64Builder] {
	return NewCodec(NewVarint64View, NewVarint64Builder)
}

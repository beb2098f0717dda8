package fw

import (
	"fmt"
	"iter"
	"slices"

	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/format"
)

// Integer is the set of fixed-width integer types.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// widthOf returns the encoded width of T.
func widthOf[T Integer]() format.Width {
	n := 0
	for v := T(1); v != 0; v <<= 1 {
		n++
	}

	return format.Width(n / 8)
}

// IntView reads one fixed-width integer.
type IntView[T Integer] struct {
	flyweight
	width format.Width
}

// NewIntView creates an unwrapped integer view.
func NewIntView[T Integer](opts ...Option) *IntView[T] {
	cfg := newConfig(opts)

	v := &IntView[T]{width: widthOf[T]()}
	v.engine = cfg.engine

	return v
}

func (v *IntView[T]) wrap(buf []byte, offset, maxLimit int) error {
	if err := v.bind(buf, offset, maxLimit); err != nil {
		return err
	}
	if maxLimit-offset < v.width.Size() {
		return errs.ErrOutOfBounds
	}
	v.limit = offset + v.width.Size()

	return nil
}

// Wrap binds the view to the integer at offset.
func (v *IntView[T]) Wrap(buf []byte, offset, maxLimit int) error {
	if err := v.wrap(buf, offset, maxLimit); err != nil {
		return wrapErr("int"+v.width.String(), err, offset, maxLimit)
	}

	return nil
}

// TryWrap is Wrap reporting failure as false.
func (v *IntView[T]) TryWrap(buf []byte, offset, maxLimit int) bool {
	return v.wrap(buf, offset, maxLimit) == nil
}

// Value returns the integer.
func (v *IntView[T]) Value() T {
	return T(v.uintAt(v.offset, v.width))
}

// IntBuilder writes one fixed-width integer.
type IntBuilder[T Integer] struct {
	builderBase
	width format.Width
	set   bool
}

// NewIntBuilder creates an unwrapped integer builder.
func NewIntBuilder[T Integer](opts ...Option) *IntBuilder[T] {
	cfg := newConfig(opts)

	b := &IntBuilder[T]{width: widthOf[T]()}
	b.engine = cfg.engine

	return b
}

// Wrap binds the builder to buf[offset:maxLimit].
func (b *IntBuilder[T]) Wrap(buf []byte, offset, maxLimit int) error {
	b.set = false
	return b.begin(buf, offset, maxLimit, 0)
}

// Set writes v.
func (b *IntBuilder[T]) Set(v T) error {
	if err := b.writable(); err != nil {
		return err
	}
	if b.set {
		return errs.ErrValueAlreadySet
	}
	start, err := b.reserve(b.width.Size())
	if err != nil {
		return err
	}
	b.putUintAt(start, b.width, uint64(v)) //nolint:gosec
	b.set = true

	return nil
}

// Finish completes the integer and returns its limit.
func (b *IntBuilder[T]) Finish() (int, error) {
	if err := b.writable(); err != nil {
		return 0, err
	}
	if !b.set {
		return 0, errs.ErrValueNotSet
	}

	return b.seal(), nil
}

// Build finishes the integer and returns a view over it.
func (b *IntBuilder[T]) Build() (*IntView[T], error) {
	limit, err := b.Finish()
	if err != nil {
		return nil, err
	}
	v := NewIntView[T](WithEngine(b.engine))
	if err := b.wrapResult(v, limit); err != nil {
		return nil, err
	}

	return v, nil
}

// IntCodec returns the codec of the fixed-width integer T.
func IntCodec[T Integer](opts ...Option) Codec[*IntView[T], *IntBuilder[T]] {
	return NewCodec(
		func() *IntView[T] { return NewIntView[T](opts...) },
		func() *IntBuilder[T] { return NewIntBuilder[T](opts...) },
	)
}

// Int8 returns the codec of int8 values.
func Int8(opts ...Option) Codec[*IntView[int8], *IntBuilder[int8]] {
	return IntCodec[int8](opts...)
}

// Int16 returns the codec of int16 values.
func Int16(opts ...Option) Codec[*IntView[int16], *IntBuilder[int16]] {
	return IntCodec[int16](opts...)
}

// Int32 returns the codec of int32 values.
func Int32(opts ...Option) Codec[*IntView[int32], *IntBuilder[int32]] {
	return IntCodec[int32](opts...)
}

// Int64 returns the codec of int64 values.
func Int64(opts ...Option) Codec[*IntView[int64], *IntBuilder[int64]] {
	return IntCodec[int64](opts...)
}

// Uint8 returns the codec of uint8 values.
func Uint8(opts ...Option) Codec[*IntView[uint8], *IntBuilder[uint8]] {
	return IntCodec[uint8](opts...)
}

// Uint16 returns the codec of uint16 values.
func Uint16(opts ...Option) Codec[*IntView[uint16], *IntBuilder[uint16]] {
	return IntCodec[uint16](opts...)
}

// Uint32 returns the codec of uint32 values.
func Uint32(opts ...Option) Codec[*IntView[uint32], *IntBuilder[uint32]] {
	return IntCodec[uint32](opts...)
}

// Uint64 returns the codec of uint64 values.
func Uint64(opts ...Option) Codec[*IntView[uint64], *IntBuilder[uint64]] {
	return IntCodec[uint64](opts...)
}

// FixedArrayView reads count integers laid out back to back with no framing.
// The count is part of the schema and is not encoded.
type FixedArrayView[T Integer] struct {
	flyweight
	width format.Width
	count int
}

// NewFixedArrayView creates an unwrapped view of count integers.
func NewFixedArrayView[T Integer](count int, opts ...Option) *FixedArrayView[T] {
	if count < 0 {
		panic(fmt.Sprintf("fw: negative fixed array count %d", count))
	}
	cfg := newConfig(opts)

	v := &FixedArrayView[T]{width: widthOf[T](), count: count}
	v.engine = cfg.engine

	return v
}

func (v *FixedArrayView[T]) wrap(buf []byte, offset, maxLimit int) error {
	if err := v.bind(buf, offset, maxLimit); err != nil {
		return err
	}
	size := v.count * v.width.Size()
	if maxLimit-offset < size {
		return errs.ErrOutOfBounds
	}
	v.limit = offset + size

	return nil
}

// Wrap binds the view to the array at offset.
func (v *FixedArrayView[T]) Wrap(buf []byte, offset, maxLimit int) error {
	if err := v.wrap(buf, offset, maxLimit); err != nil {
		return wrapErr("fixed array", err, offset, maxLimit)
	}

	return nil
}

// TryWrap is Wrap reporting failure as false.
func (v *FixedArrayView[T]) TryWrap(buf []byte, offset, maxLimit int) bool {
	return v.wrap(buf, offset, maxLimit) == nil
}

// Len returns the item count.
func (v *FixedArrayView[T]) Len() int {
	return v.count
}

// At returns item i. It panics if i is out of range.
func (v *FixedArrayView[T]) At(i int) T {
	if i < 0 || i >= v.count {
		panic(fmt.Sprintf("fw: fixed array index %d out of range [0,%d)", i, v.count))
	}

	return T(v.uintAt(v.offset+i*v.width.Size(), v.width))
}

// All returns an iterator over the items.
//
// Example:
//
//	for i, x := range view.All() {
//	    fmt.Printf("item %d: %d\n", i, x)
//	}
func (v *FixedArrayView[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := range v.count {
			if !yield(i, v.At(i)) {
				return
			}
		}
	}
}

// AppendTo appends the items to dst and returns the extended slice.
func (v *FixedArrayView[T]) AppendTo(dst []T) []T {
	for _, x := range v.All() {
		dst = append(dst, x)
	}

	return dst
}

// FixedArrayBuilder writes exactly count integers, either all at once with
// SetAll or one by one with Append.
type FixedArrayBuilder[T Integer] struct {
	builderBase
	width format.Width
	count int
	n     int
}

// NewFixedArrayBuilder creates an unwrapped builder of count integers.
//
// Parameters:
//   - count: Exact number of items the array holds
//   - opts: Optional settings such as byte order
//
// Returns:
//   - *FixedArrayBuilder[T]: Unwrapped builder
func NewFixedArrayBuilder[T Integer](count int, opts ...Option) *FixedArrayBuilder[T] {
	if count < 0 {
		panic(fmt.Sprintf("fw: negative fixed array count %d", count))
	}
	cfg := newConfig(opts)

	b := &FixedArrayBuilder[T]{width: widthOf[T](), count: count}
	b.engine = cfg.engine

	return b
}

// Wrap binds the builder to buf[offset:maxLimit].
func (b *FixedArrayBuilder[T]) Wrap(buf []byte, offset, maxLimit int) error {
	b.n = 0
	return b.begin(buf, offset, maxLimit, 0)
}

// Len returns the number of items written so far.
func (b *FixedArrayBuilder[T]) Len() int {
	return b.n
}

// SetAll replaces the whole array with the items of seq, which must yield
// exactly count items. Otherwise it fails with errs.ErrInvalidValue and the
// array is left empty.
func (b *FixedArrayBuilder[T]) SetAll(seq iter.Seq[T]) error {
	if err := b.writable(); err != nil {
		return err
	}
	b.n = 0
	b.limit = b.offset
	size := b.count * b.width.Size()
	if b.maxLimit-b.offset < size {
		return fmt.Errorf("%w: fixed array needs %d bytes at %d, max limit %d",
			errs.ErrOutOfBounds, size, b.offset, b.maxLimit)
	}

	n := 0
	for x := range seq {
		if n == b.count {
			n++
			break
		}
		b.putUintAt(b.offset+n*b.width.Size(), b.width, uint64(x)) //nolint:gosec
		n++
	}
	if n != b.count {
		return fmt.Errorf("%w: fixed array takes exactly %d items", errs.ErrInvalidValue, b.count)
	}
	b.n = n
	b.limit = b.offset + size

	return nil
}

// SetSlice is SetAll over the items of vals.
func (b *FixedArrayBuilder[T]) SetSlice(vals []T) error {
	return b.SetAll(slices.Values(vals))
}

// Append writes the next item. Appending beyond count fails with
// errs.ErrItemCount.
func (b *FixedArrayBuilder[T]) Append(x T) error {
	if err := b.writable(); err != nil {
		return err
	}
	if b.n >= b.count {
		return fmt.Errorf("%w: fixed array already holds %d items", errs.ErrItemCount, b.count)
	}
	start, err := b.reserve(b.width.Size())
	if err != nil {
		return err
	}
	b.putUintAt(start, b.width, uint64(x)) //nolint:gosec
	b.n++

	return nil
}

// Finish completes the array. It fails with errs.ErrItemCount unless exactly
// count items were written.
func (b *FixedArrayBuilder[T]) Finish() (int, error) {
	if err := b.writable(); err != nil {
		return 0, err
	}
	if b.n != b.count {
		return 0, fmt.Errorf("%w: fixed array has %d of %d items", errs.ErrItemCount, b.n, b.count)
	}

	return b.seal(), nil
}

// Build finishes the array and returns a view over it.
func (b *FixedArrayBuilder[T]) Build() (*FixedArrayView[T], error) {
	limit, err := b.Finish()
	if err != nil {
		return nil, err
	}
	v := NewFixedArrayView[T](b.count, WithEngine(b.engine))
	if err := b.wrapResult(v, limit); err != nil {
		return nil, err
	}

	return v, nil
}

// FixedArray returns the codec of arrays of count integers.
func FixedArray[T Integer](count int, opts ...Option) Codec[*FixedArrayView[T], *FixedArrayBuilder[T]] {
	return NewCodec(
		func() *FixedArrayView[T] { return NewFixedArrayView[T](count, opts...) },
		func() *FixedArrayBuilder[T] { return NewFixedArrayBuilder[T](count, opts...) },
	)
}

package fw

import (
	"github.com/arloliu/flyweight/format"
)

// ArrayView reads a single-header array, [physLen:uintN][items...]. The item
// count is found by walking the items.
type ArrayView[V View] struct {
	itemsView[V]
}

// NewArrayView creates an unwrapped array view over items of the given codec.
// It panics if width is not a length width.
func NewArrayView[V View, B Builder](width format.Width, item Codec[V, B], opts ...Option) *ArrayView[V] {
	return &ArrayView[V]{itemsView: newItemsView(width, false, item.NewView(), opts)}
}

// Wrap binds the view to the array at offset and validates every item.
func (v *ArrayView[V]) Wrap(buf []byte, offset, maxLimit int) error {
	if err := v.wrap(buf, offset, maxLimit); err != nil {
		return wrapErr("array", err, offset, maxLimit)
	}

	return nil
}

// TryWrap is Wrap reporting failure as false.
func (v *ArrayView[V]) TryWrap(buf []byte, offset, maxLimit int) bool {
	return v.wrap(buf, offset, maxLimit) == nil
}

// ArrayBuilder writes a single-header array.
type ArrayBuilder[V View, B Builder] struct {
	itemsBuilder[B]
	codec Codec[V, B]
	opts  []Option
}

// NewArrayBuilder creates an unwrapped array builder. It panics if width is
// not a length width.
//
// Parameters:
//   - width: Width of the physical length header
//   - item: Codec of the items
//   - opts: Optional settings such as byte order
//
// Returns:
//   - *ArrayBuilder[V, B]: Unwrapped builder
func NewArrayBuilder[V View, B Builder](width format.Width, item Codec[V, B], opts ...Option) *ArrayBuilder[V, B] {
	return &ArrayBuilder[V, B]{
		itemsBuilder: newItemsBuilder(width, false, item.NewBuilder(), opts),
		codec:        item,
		opts:         opts,
	}
}

// Build finishes the array and returns a view over it.
func (b *ArrayBuilder[V, B]) Build() (*ArrayView[V], error) {
	limit, err := b.Finish()
	if err != nil {
		return nil, err
	}
	v := NewArrayView(b.width, b.codec, b.opts...)
	if err := b.wrapResult(v, limit); err != nil {
		return nil, err
	}

	return v, nil
}

// Array returns the codec of single-header arrays of item.
func Array[V View, B Builder](width format.Width, item Codec[V, B], opts ...Option) Codec[*ArrayView[V], *ArrayBuilder[V, B]] {
	mustLengthWidth(width)

	return NewCodec(
		func() *ArrayView[V] { return NewArrayView(width, item, opts...) },
		func() *ArrayBuilder[V, B] { return NewArrayBuilder(width, item, opts...) },
	)
}

package fw

import (
	"github.com/arloliu/flyweight/format"
)

// ListView reads a dual-header list, [physLen:uintN][count:uintN][items...].
// physLen counts the count header and the items.
type ListView[V View] struct {
	itemsView[V]
}

// NewListView creates an unwrapped list view over items of the given codec.
// It panics if width is not a length width.
//
// Parameters:
//   - width: Width of the physical length and the item count
//   - item: Codec of the items
//   - opts: Optional settings such as byte order
//
// Returns:
//   - *ListView[V]: Unwrapped view
func NewListView[V View, B Builder](width format.Width, item Codec[V, B], opts ...Option) *ListView[V] {
	return &ListView[V]{itemsView: newItemsView(width, true, item.NewView(), opts)}
}

// Wrap binds the view to the list at offset and validates every item.
func (v *ListView[V]) Wrap(buf []byte, offset, maxLimit int) error {
	if err := v.wrap(buf, offset, maxLimit); err != nil {
		return wrapErr("list", err, offset, maxLimit)
	}

	return nil
}

// TryWrap is Wrap reporting failure as false.
func (v *ListView[V]) TryWrap(buf []byte, offset, maxLimit int) bool {
	return v.wrap(buf, offset, maxLimit) == nil
}

// ListBuilder writes a dual-header list.
type ListBuilder[V View, B Builder] struct {
	itemsBuilder[B]
	codec Codec[V, B]
	opts  []Option
}

// NewListBuilder creates an unwrapped list builder. It panics if width is
// not a length width.
//
// Parameters:
//   - width: Width of the physical length and the item count
//   - item: Codec of the items
//   - opts: Optional settings such as byte order
//
// Returns:
//   - *ListBuilder[V, B]: Unwrapped builder
func NewListBuilder[V View, B Builder](width format.Width, item Codec[V, B], opts ...Option) *ListBuilder[V, B] {
	return &ListBuilder[V, B]{
		itemsBuilder: newItemsBuilder(width, true, item.NewBuilder(), opts),
		codec:        item,
		opts:         opts,
	}
}

// Build finishes the list and returns a view over it.
func (b *ListBuilder[V, B]) Build() (*ListView[V], error) {
	limit, err := b.Finish()
	if err != nil {
		return nil, err
	}
	v := NewListView(b.width, b.codec, b.opts...)
	if err := b.wrapResult(v, limit); err != nil {
		return nil, err
	}

	return v, nil
}

// List returns the codec of dual-header lists of item.
func List[V View, B Builder](width format.Width, item Codec[V, B], opts ...Option) Codec[*ListView[V], *ListBuilder[V, B]] {
	mustLengthWidth(width)

	return NewCodec(
		func() *ListView[V] { return NewListView(width, item, opts...) },
		func() *ListBuilder[V, B] { return NewListBuilder(width, item, opts...) },
	)
}

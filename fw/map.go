package fw

import (
	"fmt"
	"iter"

	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/format"
)

// MapView reads a map, a dual-header list of interleaved keys and values:
//
//	[physLen:uintN][count:uintN][key0][value0][key1][value1]...
//
// count is twice the number of entries. An odd count is malformed.
type MapView[KV, VV View] struct {
	flyweight
	width   format.Width
	key     KV
	value   VV
	start   int
	entries int
}

// NewMapView creates an unwrapped map view. It panics if width is not a
// length width.
func NewMapView[KV View, KB Builder, VV View, VB Builder](
	width format.Width, key Codec[KV, KB], value Codec[VV, VB], opts ...Option,
) *MapView[KV, VV] {
	mustLengthWidth(width)
	cfg := newConfig(opts)

	v := &MapView[KV, VV]{width: width, key: key.NewView(), value: value.NewView()}
	v.engine = cfg.engine

	return v
}

func (v *MapView[KV, VV]) wrap(buf []byte, offset, maxLimit int) error {
	if err := v.bind(buf, offset, maxLimit); err != nil {
		return err
	}
	count, err := v.readHeader(v.width, true)
	if err != nil {
		return err
	}
	if count%2 != 0 {
		return fmt.Errorf("%w: odd map item count %d", errs.ErrMalformed, count)
	}
	v.start = offset + 2*v.width.Size()
	v.entries = count / 2

	cur := v.start
	for i := range v.entries {
		if cur, err = v.wrapEntry(cur); err != nil {
			return fmt.Errorf("%w: entry %d", err, i)
		}
	}
	if cur != v.limit {
		return fmt.Errorf("%w: entries end at %d, physical limit %d", errs.ErrMalformed, cur, v.limit)
	}

	return nil
}

// wrapEntry wraps the key at cur and the value after it, and returns the
// offset of the next entry.
func (v *MapView[KV, VV]) wrapEntry(cur int) (int, error) {
	if !v.key.TryWrap(v.buf, cur, v.limit) || v.key.Limit() <= cur {
		return cur, fmt.Errorf("%w: bad key at offset %d", errs.ErrMalformed, cur)
	}
	cur = v.key.Limit()
	if !v.value.TryWrap(v.buf, cur, v.limit) || v.value.Limit() <= cur {
		return cur, fmt.Errorf("%w: bad value at offset %d", errs.ErrMalformed, cur)
	}

	return v.value.Limit(), nil
}

// Wrap binds the view to the map at offset and validates every entry.
func (v *MapView[KV, VV]) Wrap(buf []byte, offset, maxLimit int) error {
	if err := v.wrap(buf, offset, maxLimit); err != nil {
		return wrapErr("map", err, offset, maxLimit)
	}

	return nil
}

// TryWrap is Wrap reporting failure as false.
func (v *MapView[KV, VV]) TryWrap(buf []byte, offset, maxLimit int) bool {
	return v.wrap(buf, offset, maxLimit) == nil
}

// Len returns the number of entries.
func (v *MapView[KV, VV]) Len() int {
	return v.entries
}

// Entries returns an iterator over the entries in encoded order. The key and
// value views are reused and only valid until the next iteration.
//
// Example:
//
//	for k, val := range m.Entries() {
//	    fmt.Printf("%s=%d\n", k.String(), val.Value())
//	}
func (v *MapView[KV, VV]) Entries() iter.Seq2[KV, VV] {
	return func(yield func(KV, VV) bool) {
		cur := v.start
		for range v.entries {
			next, err := v.wrapEntry(cur)
			if err != nil {
				return
			}
			if !yield(v.key, v.value) {
				return
			}
			cur = next
		}
	}
}

// MapBuilder writes a map one key and one value at a time.
type MapBuilder[KV View, KB Builder, VV View, VB Builder] struct {
	builderBase
	width      format.Width
	key        KB
	value      VB
	keyCodec   Codec[KV, KB]
	valueCodec Codec[VV, VB]
	opts       []Option
	items      int
	pendingKey bool
}

// NewMapBuilder creates an unwrapped map builder. It panics if width is not
// a length width.
func NewMapBuilder[KV View, KB Builder, VV View, VB Builder](
	width format.Width, key Codec[KV, KB], value Codec[VV, VB], opts ...Option,
) *MapBuilder[KV, KB, VV, VB] {
	mustLengthWidth(width)
	cfg := newConfig(opts)

	b := &MapBuilder[KV, KB, VV, VB]{
		width:      width,
		key:        key.NewBuilder(),
		value:      value.NewBuilder(),
		keyCodec:   key,
		valueCodec: value,
		opts:       opts,
	}
	b.engine = cfg.engine

	return b
}

// Wrap binds the builder to buf[offset:maxLimit] and reserves the header.
func (b *MapBuilder[KV, KB, VV, VB]) Wrap(buf []byte, offset, maxLimit int) error {
	b.items = 0
	b.pendingKey = false

	return b.begin(buf, offset, maxLimit, 2*b.width.Size())
}

// Len returns the number of complete entries written so far.
func (b *MapBuilder[KV, KB, VV, VB]) Len() int {
	return b.items / 2
}

// Key appends the key of the next entry. Two keys in a row fail with
// errs.ErrKeyValueOrder.
func (b *MapBuilder[KV, KB, VV, VB]) Key(fn func(KB) error) error {
	if err := b.writable(); err != nil {
		return err
	}
	if b.pendingKey {
		return fmt.Errorf("%w: key set twice", errs.ErrKeyValueOrder)
	}
	if err := appendTo(&b.builderBase, b.key, fn); err != nil {
		return err
	}
	b.items++
	b.pendingKey = true

	return nil
}

// Value appends the value of the pending key. A value without a key fails
// with errs.ErrKeyValueOrder.
func (b *MapBuilder[KV, KB, VV, VB]) Value(fn func(VB) error) error {
	if err := b.writable(); err != nil {
		return err
	}
	if !b.pendingKey {
		return fmt.Errorf("%w: value without key", errs.ErrKeyValueOrder)
	}
	if err := appendTo(&b.builderBase, b.value, fn); err != nil {
		return err
	}
	b.items++
	b.pendingKey = false

	return nil
}

// Entry appends a key and its value. If either fails the map is left as it
// was before the call.
func (b *MapBuilder[KV, KB, VV, VB]) Entry(keyFn func(KB) error, valueFn func(VB) error) error {
	limit, items := b.limit, b.items
	if err := b.Key(keyFn); err != nil {
		return err
	}
	if err := b.Value(valueFn); err != nil {
		b.limit, b.items, b.pendingKey = limit, items, false
		return err
	}

	return nil
}

// Finish back-patches the header and returns the limit. A key without a
// value fails with errs.ErrKeyValueOrder.
func (b *MapBuilder[KV, KB, VV, VB]) Finish() (int, error) {
	if err := b.writable(); err != nil {
		return 0, err
	}
	if b.pendingKey {
		return 0, fmt.Errorf("%w: dangling key", errs.ErrKeyValueOrder)
	}
	if err := b.writeHeader(b.width, true, b.items); err != nil {
		return 0, err
	}

	return b.seal(), nil
}

// Build finishes the map and returns a view over it.
func (b *MapBuilder[KV, KB, VV, VB]) Build() (*MapView[KV, VV], error) {
	limit, err := b.Finish()
	if err != nil {
		return nil, err
	}
	v := NewMapView(b.width, b.keyCodec, b.valueCodec, b.opts...)
	if err := b.wrapResult(v, limit); err != nil {
		return nil, err
	}

	return v, nil
}

// Map returns the codec of maps from key to value.
func Map[KV View, KB Builder, VV View, VB Builder](
	width format.Width, key Codec[KV, KB], value Codec[VV, VB], opts ...Option,
) Codec[*MapView[KV, VV], *MapBuilder[KV, KB, VV, VB]] {
	mustLengthWidth(width)

	return NewCodec(
		func() *MapView[KV, VV] { return NewMapView(width, key, value, opts...) },
		func() *MapBuilder[KV, KB, VV, VB] { return NewMapBuilder(width, key, value, opts...) },
	)
}

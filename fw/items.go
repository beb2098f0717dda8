package fw

import (
	"fmt"
	"iter"

	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/format"
)

// itemsView is the shared reader of arrays and lists:
//
//	[physLen:uintN][count:uintN, when counted][items...]
//
// physLen counts every byte after itself, so limit is known from the first
// header alone. Wrap still walks all items so that a view that wraps
// successfully never reads outside its region.
type itemsView[V View] struct {
	flyweight
	width   format.Width
	counted bool
	item    V
	start   int
	count   int
}

func newItemsView[V View](width format.Width, counted bool, item V, opts []Option) itemsView[V] {
	mustLengthWidth(width)
	cfg := newConfig(opts)

	v := itemsView[V]{width: width, counted: counted, item: item}
	v.engine = cfg.engine

	return v
}

func (v *itemsView[V]) headerSize() int {
	if v.counted {
		return 2 * v.width.Size()
	}

	return v.width.Size()
}

func (v *itemsView[V]) wrap(buf []byte, offset, maxLimit int) error {
	if err := v.bind(buf, offset, maxLimit); err != nil {
		return err
	}
	count, err := v.readHeader(v.width, v.counted)
	if err != nil {
		return err
	}
	v.start = offset + v.headerSize()
	if !v.counted {
		v.count, err = v.walk(-1)
		return err
	}
	v.count = count
	_, err = v.walk(count)

	return err
}

// readHeader reads the length header at f.offset and sets f.limit. With
// counted it also reads the count, which can never exceed the payload size
// since items are at least one byte wide.
func (f *flyweight) readHeader(width format.Width, counted bool) (int, error) {
	w := width.Size()
	if f.maxLimit-f.offset < w {
		return 0, errs.ErrOutOfBounds
	}
	phys := f.uintAt(f.offset, width)
	if phys > uint64(f.maxLimit-f.offset-w) {
		return 0, errs.ErrOutOfBounds
	}
	f.limit = f.offset + w + int(phys) //nolint:gosec
	if !counted {
		return 0, nil
	}
	if phys < uint64(w) {
		return 0, fmt.Errorf("%w: physical length %d shorter than count header", errs.ErrMalformed, phys)
	}
	count := f.uintAt(f.offset+w, width)
	if payload := phys - uint64(w); count > payload {
		return 0, fmt.Errorf("%w: count %d exceeds payload of %d bytes", errs.ErrMalformed, count, payload)
	}

	return int(count), nil //nolint:gosec
}

// walk wraps every item in [start, limit). With want >= 0 it wraps exactly
// want items, otherwise it wraps items until the limit is reached. The walk
// must end exactly at the limit.
func (v *itemsView[V]) walk(want int) (int, error) {
	cur := v.start
	n := 0
	for (want < 0 && cur < v.limit) || n < want {
		if !v.item.TryWrap(v.buf, cur, v.limit) {
			return n, fmt.Errorf("%w: item %d at offset %d", errs.ErrMalformed, n, cur)
		}
		next := v.item.Limit()
		if next <= cur {
			return n, fmt.Errorf("%w: zero-width item %d at offset %d", errs.ErrMalformed, n, cur)
		}
		cur = next
		n++
	}
	if cur != v.limit {
		return n, fmt.Errorf("%w: items end at %d, physical limit %d", errs.ErrMalformed, cur, v.limit)
	}

	return n, nil
}

// Len returns the number of items.
func (v *itemsView[V]) Len() int {
	return v.count
}

// PhysicalLength returns the encoded byte size after the length header.
func (v *itemsView[V]) PhysicalLength() int {
	return v.limit - v.offset - v.width.Size()
}

// Items returns an iterator over the items. Every item is yielded through
// the same reused view, which is only valid until the next iteration.
//
// Example:
//
//	for i, s := range list.Items() {
//	    fmt.Printf("item %d: %s\n", i, s.String())
//	}
func (v *itemsView[V]) Items() iter.Seq2[int, V] {
	return func(yield func(int, V) bool) {
		cur := v.start
		for i := range v.count {
			if !v.item.TryWrap(v.buf, cur, v.limit) {
				return
			}
			next := v.item.Limit()
			if !yield(i, v.item) {
				return
			}
			cur = next
		}
	}
}

// ForEach calls fn for every item and stops at the first error.
func (v *itemsView[V]) ForEach(fn func(int, V) error) error {
	for i, item := range v.Items() {
		if err := fn(i, item); err != nil {
			return err
		}
	}

	return nil
}

// itemsBuilder is the shared writer of arrays and lists. Headers are
// reserved on Wrap and back-patched by Finish.
type itemsBuilder[B Builder] struct {
	builderBase
	width   format.Width
	counted bool
	item    B
	count   int
}

func newItemsBuilder[B Builder](width format.Width, counted bool, item B, opts []Option) itemsBuilder[B] {
	mustLengthWidth(width)
	cfg := newConfig(opts)

	b := itemsBuilder[B]{width: width, counted: counted, item: item}
	b.engine = cfg.engine

	return b
}

// Wrap binds the builder to buf[offset:maxLimit] and reserves the header.
func (b *itemsBuilder[B]) Wrap(buf []byte, offset, maxLimit int) error {
	b.count = 0
	header := b.width.Size()
	if b.counted {
		header *= 2
	}

	return b.begin(buf, offset, maxLimit, header)
}

// Len returns the number of items written so far.
func (b *itemsBuilder[B]) Len() int {
	return b.count
}

// appendItem appends one item written by fn and counts it.
func (b *itemsBuilder[B]) appendItem(fn func(B) error) error {
	if err := b.writable(); err != nil {
		return err
	}
	if err := appendTo(&b.builderBase, b.item, fn); err != nil {
		return err
	}
	b.count++

	return nil
}

// appendTo wraps item after the bytes written so far, lets fn fill it and
// commits it. On failure nothing is committed.
func appendTo[B Builder](b *builderBase, item B, fn func(B) error) error {
	if err := item.Wrap(b.buf, b.limit, b.maxLimit); err != nil {
		return err
	}
	if fn != nil {
		if err := fn(item); err != nil {
			return err
		}
	}
	limit, err := item.Finish()
	if err != nil {
		return err
	}
	if limit <= b.limit {
		return fmt.Errorf("%w: zero-width item at offset %d", errs.ErrInvalidValue, b.limit)
	}
	b.limit = limit

	return nil
}

// Item appends one item written by fn.
func (b *itemsBuilder[B]) Item(fn func(B) error) error {
	return b.appendItem(fn)
}

// Finish back-patches the header and returns the limit.
func (b *itemsBuilder[B]) Finish() (int, error) {
	if err := b.writable(); err != nil {
		return 0, err
	}
	if err := b.writeHeader(b.width, b.counted, b.count); err != nil {
		return 0, err
	}

	return b.seal(), nil
}

// writeHeader back-patches the length header, and the count when counted.
func (b *builderBase) writeHeader(width format.Width, counted bool, count int) error {
	w := width.Size()
	phys := uint64(b.limit - b.offset - w) //nolint:gosec
	if phys > width.Max() {
		return fmt.Errorf("%w: payload of %d bytes does not fit a %s-bit length", errs.ErrInvalidValue, phys, width)
	}
	if uint64(count) > width.Max() { //nolint:gosec
		return fmt.Errorf("%w: count %d does not fit a %s-bit header", errs.ErrInvalidValue, count, width)
	}
	b.putUintAt(b.offset, width, phys)
	if counted {
		b.putUintAt(b.offset+w, width, uint64(count)) //nolint:gosec
	}

	return nil
}

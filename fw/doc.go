// Package fw implements zero-copy views and builders for a schema-driven
// binary wire format.
//
// A view is a reusable read cursor and a builder is a reusable write cursor.
// Both are bound to a region of a caller-owned buffer with Wrap and hold no
// copy of the data: accessors decode straight from the buffer every time
// they are called.
//
// # Regions
//
// Every Wrap takes (buf, offset, maxLimit). After a successful wrap
//
//	offset <= Limit() <= maxLimit <= len(buf)
//
// and the value occupies buf[offset:Limit()]. Builders never write a byte at
// or past maxLimit; a write that does not fit fails with errs.ErrOutOfBounds
// before touching the buffer, so the caller may grow the buffer and start
// over.
//
// View.Wrap and View.TryWrap share one check. TryWrap returns false exactly
// where Wrap returns an error, which makes speculative decoding of a stream
// of records safe:
//
//	for off < len(buf) && view.TryWrap(buf, off, len(buf)) {
//	    handle(view)
//	    off = view.Limit()
//	}
//
// # Wire layouts
//
// All multi-byte integers use one schema-wide byte order, little-endian
// unless WithBigEndian is given.
//
//	Varint64       zigzag, 7-bit groups, least significant first, bit 7 continues
//	StringN        [len:uintN][utf8 bytes]; len == max(uintN) is null
//	Fixed array    [item] x count, no framing
//	Array          [physLen:uintN][items]
//	List           [physLen:uintN][count:uintN][items]
//	Optional list  [physLen:uintN][count:uintN][bitmask:uintM][fields]
//	Map            [physLen:uintN][count:uintN][key][value]...
//	Variant        [kind:u8][payload of kind]
//
// physLen counts every byte after the physLen field itself.
//
// # Codecs and composition
//
// A Codec pairs the view and builder factories of one wire type. Containers
// take codecs of their items, so nested types are plain composition:
//
//	tags := fw.List(format.Width16, fw.String8())
//	b := tags.NewBuilder()
//	_ = b.Wrap(buf, 0, len(buf))
//	_ = b.Item(func(sb *fw.StringBuilder) error { return sb.Set("a") })
//	view, err := b.Build()
//
// # Builder protocol
//
// A builder moves through Unwrapped, Wrapping and Built. Any setter before
// Wrap fails with errs.ErrNotWrapped and any setter after Finish or Build
// fails with errs.ErrAlreadyBuilt; Wrap resets the builder for reuse. Fields
// of an optional list are set in strictly increasing order and fields that
// were skipped are defaulted on the way. Protocol violations wrap
// errs.ErrIllegalState, rejected values wrap errs.ErrInvalidValue, and
// bounds and decode failures wrap errs.ErrOutOfBounds.
//
// Views and builders are not safe for concurrent use.
package fw

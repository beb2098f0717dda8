package fw

import (
	"fmt"

	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/format"
)

// Case binds one kind tag of a union to the type of its payload. A nil Type
// declares a payload-less kind.
type Case struct {
	Kind format.Kind
	Type Type
}

// Union is a table of cases indexed by kind tag.
type Union struct {
	cases [256]*Case
	kinds []format.Kind
}

// NewUnion validates cases and builds the lookup table. Kinds must be unique
// and must not be format.KindMissing.
//
// Parameters:
//   - cases: Kind and codec of every case; kinds must be distinct
//
// Returns:
//   - *Union: Case table shared by views and builders
//   - error: Error wrapping errs.ErrInvalidValue on a duplicate kind or format.KindMissing
func NewUnion(cases ...Case) (*Union, error) {
	u := &Union{kinds: make([]format.Kind, 0, len(cases))}
	for i := range cases {
		c := cases[i]
		if c.Kind == format.KindMissing {
			return nil, fmt.Errorf("%w: %s is reserved for missing fields", errs.ErrInvalidValue, c.Kind)
		}
		if u.cases[c.Kind] != nil {
			return nil, fmt.Errorf("%w: duplicate union kind 0x%02x", errs.ErrInvalidValue, byte(c.Kind))
		}
		u.cases[c.Kind] = &c
		u.kinds = append(u.kinds, c.Kind)
	}

	return u, nil
}

// Kinds returns the declared kinds in declaration order.
func (u *Union) Kinds() []format.Kind {
	return append([]format.Kind(nil), u.kinds...)
}

// Has reports whether kind is declared.
func (u *Union) Has(kind format.Kind) bool {
	return u.cases[kind] != nil
}

// VariantView reads a union value, [kind:u8][payload].
type VariantView struct {
	flyweight
	union *Union
	views [256]View
	kind  format.Kind
	value View
}

// NewVariantView creates an unwrapped view over u.
func NewVariantView(u *Union) *VariantView {
	v := &VariantView{union: u}
	for _, k := range u.kinds {
		if t := u.cases[k].Type; t != nil {
			v.views[k] = t.anyView()
		}
	}

	return v
}

func (v *VariantView) wrap(buf []byte, offset, maxLimit int) error {
	if err := v.bind(buf, offset, maxLimit); err != nil {
		return err
	}
	if maxLimit-offset < 1 {
		return errs.ErrOutOfBounds
	}
	kind := format.Kind(buf[offset])
	if !v.union.Has(kind) {
		return fmt.Errorf("%w: 0x%02x", errs.ErrUnknownKind, byte(kind))
	}
	v.kind = kind
	v.value = v.views[kind]
	if v.value == nil {
		v.limit = offset + 1
		return nil
	}
	if !v.value.TryWrap(buf, offset+1, maxLimit) {
		return fmt.Errorf("%w: %s payload", errs.ErrMalformed, kind)
	}
	v.limit = v.value.Limit()

	return nil
}

// Wrap binds the view to the variant at offset.
func (v *VariantView) Wrap(buf []byte, offset, maxLimit int) error {
	if err := v.wrap(buf, offset, maxLimit); err != nil {
		return wrapErr("variant", err, offset, maxLimit)
	}

	return nil
}

// TryWrap is Wrap reporting failure as false.
func (v *VariantView) TryWrap(buf []byte, offset, maxLimit int) bool {
	return v.wrap(buf, offset, maxLimit) == nil
}

// Kind returns the active kind tag.
func (v *VariantView) Kind() format.Kind {
	return v.kind
}

// Value returns the view of the active payload, or nil for a payload-less
// kind.
func (v *VariantView) Value() View {
	return v.value
}

// ValueAs returns the active payload view as V.
func ValueAs[V View](v *VariantView) (V, error) {
	return typed[V](v.value)
}

// VariantBuilder writes a union value.
type VariantBuilder struct {
	builderBase
	union    *Union
	builders [256]Builder
	set      bool
}

// NewVariantBuilder creates an unwrapped builder over u.
func NewVariantBuilder(u *Union) *VariantBuilder {
	b := &VariantBuilder{union: u}
	for _, k := range u.kinds {
		if t := u.cases[k].Type; t != nil {
			b.builders[k] = t.anyBuilder()
		}
	}

	return b
}

// Wrap binds the builder to buf[offset:maxLimit].
func (b *VariantBuilder) Wrap(buf []byte, offset, maxLimit int) error {
	b.set = false
	return b.begin(buf, offset, maxLimit, 0)
}

// Set writes the kind tag and lets fn write the payload. fn is not called
// for a payload-less kind. On failure nothing is committed.
func (b *VariantBuilder) Set(kind format.Kind, fn func(Builder) error) error {
	if err := b.writable(); err != nil {
		return err
	}
	if b.set {
		return errs.ErrValueAlreadySet
	}
	if !b.union.Has(kind) {
		return fmt.Errorf("%w: undeclared union kind 0x%02x", errs.ErrInvalidValue, byte(kind))
	}
	start, err := b.reserve(1)
	if err != nil {
		return err
	}
	b.buf[start] = byte(kind)

	if sub := b.builders[kind]; sub != nil {
		if err := b.writePayload(sub, fn); err != nil {
			b.limit = start
			return err
		}
	}
	b.set = true

	return nil
}

func (b *VariantBuilder) writePayload(sub Builder, fn func(Builder) error) error {
	if err := sub.Wrap(b.buf, b.limit, b.maxLimit); err != nil {
		return err
	}
	if fn != nil {
		if err := fn(sub); err != nil {
			return err
		}
	}
	limit, err := sub.Finish()
	if err != nil {
		return err
	}
	b.limit = limit

	return nil
}

// SetAs is Set with a payload builder of a known type.
//
// Example:
//
//	err := fw.SetAs(vb, kindName, func(sb *fw.StringBuilder) error {
//	    return sb.Set("alice")
//	})
func SetAs[B Builder](b *VariantBuilder, kind format.Kind, fn func(B) error) error {
	if fn == nil {
		return b.Set(kind, nil)
	}

	return b.Set(kind, func(sub Builder) error {
		tb, err := typed[B](sub)
		if err != nil {
			return err
		}

		return fn(tb)
	})
}

// Finish completes the variant and returns its limit.
func (b *VariantBuilder) Finish() (int, error) {
	if err := b.writable(); err != nil {
		return 0, err
	}
	if !b.set {
		return 0, errs.ErrValueNotSet
	}

	return b.seal(), nil
}

// Build finishes the variant and returns a view over it.
func (b *VariantBuilder) Build() (*VariantView, error) {
	limit, err := b.Finish()
	if err != nil {
		return nil, err
	}
	v := NewVariantView(b.union)
	if err := b.wrapResult(v, limit); err != nil {
		return nil, err
	}

	return v, nil
}

// Variant returns the codec of values of u.
func Variant(u *Union) Codec[*VariantView, *VariantBuilder] {
	return NewCodec(
		func() *VariantView { return NewVariantView(u) },
		func() *VariantBuilder { return NewVariantBuilder(u) },
	)
}

package fw

import (
	"fmt"
	"math/bits"

	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/format"
)

// Presence selects how a skipped field of an optional list is laid out.
type Presence uint8

const (
	// PresenceBitmask stores nothing for a skipped field.
	PresenceBitmask Presence = iota
	// PresenceDefaultNull stores one MissingFieldByte for a skipped field that
	// precedes the last present one, keeping every field positionally
	// locatable.
	PresenceDefaultNull
)

func (p Presence) String() string {
	switch p {
	case PresenceBitmask:
		return "Bitmask"
	case PresenceDefaultNull:
		return "DefaultNull"
	default:
		return "Unknown"
	}
}

// MissingFieldByte is the placeholder of a skipped field in a
// PresenceDefaultNull list. It is distinct from every variant kind.
const MissingFieldByte = byte(format.KindMissing)

// MaxFields is the largest number of fields a list schema may declare.
const MaxFields = 64

// Field declares one field of an optional list.
type Field struct {
	Name string
	Type Type
	// Required fields must be present when the list is built. A required
	// field with a Default is written with its default when skipped.
	Required bool
	// Default writes the default value of the field. Nil means the field
	// has no default.
	Default func(Builder) error
}

// DefaultOf adapts a typed default writer to Field.Default.
//
// Example:
//
//	fw.Field{Name: "port", Type: fw.Uint16(), Default: fw.DefaultOf(func(b *fw.IntBuilder[uint16]) error {
//	    return b.Set(8080)
//	})}
func DefaultOf[B Builder](fn func(B) error) func(Builder) error {
	return func(b Builder) error {
		tb, err := typed[B](b)
		if err != nil {
			return err
		}

		return fn(tb)
	}
}

// ListSchema describes an optional list: its header width, presence scheme
// and fields in declaration order.
type ListSchema struct {
	width        format.Width
	maskWidth    format.Width
	presence     Presence
	fields       []Field
	defaults     [][]byte
	byName       map[string]int
	lastRequired int
	cfg          Config
}

// NewListSchema validates fields and encodes their defaults once. Every
// field needs a Type, names must be unique when set, and at most MaxFields
// fields may be declared.
//
// Parameters:
//   - width: Width of the physical length and the field count
//   - presence: Bitmask or default-null scheme
//   - fields: Field table in wire order
//   - opts: Optional settings such as byte order
//
// Returns:
//   - *ListSchema: Immutable schema with pre-encoded defaults
//   - error: Error wrapping errs.ErrInvalidValue if the table is invalid, or the error encoding a default
func NewListSchema(width format.Width, presence Presence, fields []Field, opts ...Option) (*ListSchema, error) {
	if !width.IsLengthWidth() {
		return nil, fmt.Errorf("%w: list header width %d", errs.ErrInvalidValue, width)
	}
	if presence != PresenceBitmask && presence != PresenceDefaultNull {
		return nil, fmt.Errorf("%w: presence scheme %d", errs.ErrInvalidValue, presence)
	}
	maskWidth, ok := format.MaskWidthFor(len(fields))
	if !ok {
		return nil, fmt.Errorf("%w: %d fields, at most %d allowed", errs.ErrInvalidValue, len(fields), MaxFields)
	}

	s := &ListSchema{
		width:        width,
		maskWidth:    maskWidth,
		presence:     presence,
		fields:       append([]Field(nil), fields...),
		defaults:     make([][]byte, len(fields)),
		byName:       make(map[string]int, len(fields)),
		lastRequired: -1,
		cfg:          newConfig(opts),
	}
	for i, f := range s.fields {
		if f.Type == nil {
			return nil, fmt.Errorf("%w: field %d has no type", errs.ErrInvalidValue, i)
		}
		if f.Name != "" {
			if _, dup := s.byName[f.Name]; dup {
				return nil, fmt.Errorf("%w: duplicate field name %q", errs.ErrInvalidValue, f.Name)
			}
			s.byName[f.Name] = i
		}
		if f.Required {
			s.lastRequired = i
		}
		if f.Default == nil {
			continue
		}
		def, err := Encode(f.Type.anyBuilder(), f.Default)
		if err != nil {
			return nil, fmt.Errorf("field %d default: %w", i, err)
		}
		if len(def) == 0 {
			return nil, fmt.Errorf("%w: field %d default is empty", errs.ErrInvalidValue, i)
		}
		s.defaults[i] = def
	}

	return s, nil
}

// FieldCount returns the number of declared fields.
func (s *ListSchema) FieldCount() int {
	return len(s.fields)
}

// Field returns the declaration of field i.
func (s *ListSchema) Field(i int) Field {
	return s.fields[i]
}

// Index returns the index of the field called name.
func (s *ListSchema) Index(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// HeaderSize returns the size of [physLen][count][bitmask].
func (s *ListSchema) HeaderSize() int {
	return 2*s.width.Size() + s.maskWidth.Size()
}

// MaskWidth returns the width of the presence bitmask.
func (s *ListSchema) MaskWidth() format.Width {
	return s.maskWidth
}

// Presence returns the presence scheme.
func (s *ListSchema) Presence() Presence {
	return s.presence
}

// DefaultBytes returns the encoded default of field i, or nil.
func (s *ListSchema) DefaultBytes(i int) []byte {
	return s.defaults[i]
}

func (s *ListSchema) checkIndex(i int) error {
	if i < 0 || i >= len(s.fields) {
		return fmt.Errorf("%w: %d of %d", errs.ErrUnknownField, i, len(s.fields))
	}

	return nil
}

// OptionalListView reads a list of optional fields:
//
//	[physLen:uintN][count:uintN][bitmask:uintM][fields...]
//
// Bit i of the bitmask is set when field i is present. count is the number
// of physical slots that follow the bitmask.
type OptionalListView struct {
	flyweight
	schema *ListSchema
	views  []View
	starts []int
	count  int
	mask   uint64
}

// NewOptionalListView creates an unwrapped view for schema.
func NewOptionalListView(schema *ListSchema) *OptionalListView {
	v := &OptionalListView{
		schema: schema,
		views:  make([]View, len(schema.fields)),
		starts: make([]int, len(schema.fields)),
	}
	v.engine = schema.cfg.engine
	for i, f := range schema.fields {
		v.views[i] = f.Type.anyView()
	}

	return v
}

func (v *OptionalListView) wrap(buf []byte, offset, maxLimit int) error {
	if err := v.bind(buf, offset, maxLimit); err != nil {
		return err
	}
	s := v.schema
	count, err := v.readHeader(s.width, true)
	if err != nil {
		return err
	}
	cur := offset + 2*s.width.Size()
	if v.limit-cur < s.maskWidth.Size() {
		return fmt.Errorf("%w: physical length shorter than bitmask", errs.ErrMalformed)
	}
	mask := v.uintAt(cur, s.maskWidth)
	cur += s.maskWidth.Size()
	if n := len(s.fields); n < 64 && mask>>uint(n) != 0 {
		return fmt.Errorf("%w: bitmask 0x%x sets undeclared fields", errs.ErrMalformed, mask)
	}

	want := bits.OnesCount64(mask)
	if s.presence == PresenceDefaultNull {
		want = bits.Len64(mask)
	}
	if count != want {
		return fmt.Errorf("%w: count %d does not match bitmask 0x%x", errs.ErrMalformed, count, mask)
	}

	for i := range s.fields {
		switch {
		case mask&(1<<uint(i)) != 0:
			item := v.views[i]
			if !item.TryWrap(v.buf, cur, v.limit) || item.Limit() <= cur {
				return fmt.Errorf("%w: field %d at offset %d", errs.ErrMalformed, i, cur)
			}
			v.starts[i] = cur
			cur = item.Limit()
		case s.presence == PresenceDefaultNull && i < count:
			if cur >= v.limit || v.buf[cur] != MissingFieldByte {
				return fmt.Errorf("%w: missing placeholder for field %d at offset %d", errs.ErrMalformed, i, cur)
			}
			v.starts[i] = -1
			cur++
		default:
			v.starts[i] = -1
		}
	}
	if cur != v.limit {
		return fmt.Errorf("%w: fields end at %d, physical limit %d", errs.ErrMalformed, cur, v.limit)
	}
	v.count = count
	v.mask = mask

	return nil
}

// Wrap binds the view to the list at offset and validates every present
// field.
func (v *OptionalListView) Wrap(buf []byte, offset, maxLimit int) error {
	if err := v.wrap(buf, offset, maxLimit); err != nil {
		return wrapErr("optional list", err, offset, maxLimit)
	}

	return nil
}

// TryWrap is Wrap reporting failure as false.
func (v *OptionalListView) TryWrap(buf []byte, offset, maxLimit int) bool {
	return v.wrap(buf, offset, maxLimit) == nil
}

// Schema returns the schema of the list.
func (v *OptionalListView) Schema() *ListSchema {
	return v.schema
}

// FieldCount returns the count header: the number of physical slots.
func (v *OptionalListView) FieldCount() int {
	return v.count
}

// Bitmask returns the presence bitmask.
func (v *OptionalListView) Bitmask() uint64 {
	return v.mask
}

// HasField reports whether field i is physically present.
func (v *OptionalListView) HasField(i int) bool {
	return i >= 0 && i < len(v.views) && v.mask&(1<<uint(i)) != 0
}

// Field returns a view of field i. An absent field resolves to a view over
// its encoded default; an absent field without a default fails with
// errs.ErrFieldAbsent.
func (v *OptionalListView) Field(i int) (View, error) {
	if err := v.schema.checkIndex(i); err != nil {
		return nil, err
	}
	item := v.views[i]
	if v.HasField(i) {
		if err := item.Wrap(v.buf, v.starts[i], v.limit); err != nil {
			return nil, err
		}

		return item, nil
	}
	def := v.schema.defaults[i]
	if def == nil {
		return nil, fmt.Errorf("%w: field %d", errs.ErrFieldAbsent, i)
	}
	if err := item.Wrap(def, 0, len(def)); err != nil {
		return nil, err
	}

	return item, nil
}

// FieldByName is Field for the field called name.
func (v *OptionalListView) FieldByName(name string) (View, error) {
	i, ok := v.schema.Index(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownField, name)
	}

	return v.Field(i)
}

// FieldAs returns field i of v as V.
func FieldAs[V View](v *OptionalListView, i int) (V, error) {
	item, err := v.Field(i)
	if err != nil {
		var zero V
		return zero, err
	}

	return typed[V](item)
}

// OptionalListBuilder writes an optional list. Fields are set in strictly
// increasing order; skipped fields are defaulted on the way.
type OptionalListBuilder struct {
	builderBase
	schema   *ListSchema
	builders []Builder
	order    fieldOrder
	mask     uint64
	slots    int
}

// NewOptionalListBuilder creates an unwrapped builder for schema.
func NewOptionalListBuilder(schema *ListSchema) *OptionalListBuilder {
	b := &OptionalListBuilder{
		schema:   schema,
		builders: make([]Builder, len(schema.fields)),
	}
	b.engine = schema.cfg.engine
	for i, f := range schema.fields {
		b.builders[i] = f.Type.anyBuilder()
	}

	return b
}

// Wrap binds the builder to buf[offset:maxLimit] and reserves the header.
func (b *OptionalListBuilder) Wrap(buf []byte, offset, maxLimit int) error {
	b.order.reset()
	b.mask = 0
	b.slots = 0

	return b.begin(buf, offset, maxLimit, b.schema.HeaderSize())
}

// Schema returns the schema of the builder.
func (b *OptionalListBuilder) Schema() *ListSchema {
	return b.schema
}

// LastField returns the index of the last field written, or -1.
func (b *OptionalListBuilder) LastField() int {
	return b.order.last
}

type listSnapshot struct {
	limit int
	mask  uint64
	slots int
	last  int
}

func (b *OptionalListBuilder) snapshot() listSnapshot {
	return listSnapshot{limit: b.limit, mask: b.mask, slots: b.slots, last: b.order.last}
}

func (b *OptionalListBuilder) restore(s listSnapshot) {
	b.limit, b.mask, b.slots, b.order.last = s.limit, s.mask, s.slots, s.last
}

// Field writes field i with fn after defaulting every skipped field before
// it. Setting a field twice fails with errs.ErrFieldAlreadySet and going
// backwards with errs.ErrFieldOutOfOrder. On failure the builder is left as
// it was before the call.
func (b *OptionalListBuilder) Field(i int, fn func(Builder) error) error {
	if err := b.writable(); err != nil {
		return err
	}
	if err := b.schema.checkIndex(i); err != nil {
		return err
	}
	if err := b.order.check(i); err != nil {
		return err
	}

	snap := b.snapshot()
	if err := b.fillGap(i); err != nil {
		b.restore(snap)
		return err
	}
	if err := appendTo(&b.builderBase, b.builders[i], fn); err != nil {
		b.restore(snap)
		return err
	}
	b.present(i)

	return nil
}

// FieldByName is Field for the field called name.
func (b *OptionalListBuilder) FieldByName(name string, fn func(Builder) error) error {
	i, ok := b.schema.Index(name)
	if !ok {
		return fmt.Errorf("%w: %q", errs.ErrUnknownField, name)
	}

	return b.Field(i, fn)
}

// SetField is Field with a field builder of a known type.
//
// Example:
//
//	err := fw.SetField(lb, 2, func(sb *fw.StringBuilder) error {
//	    return sb.Set("alice")
//	})
func SetField[B Builder](b *OptionalListBuilder, i int, fn func(B) error) error {
	if fn == nil {
		return b.Field(i, nil)
	}

	return b.Field(i, DefaultOf(fn))
}

func (b *OptionalListBuilder) present(i int) {
	b.mask |= 1 << uint(i)
	b.slots++
	b.order.last = i
}

// fillGap defaults every field after the last one written and before end.
func (b *OptionalListBuilder) fillGap(end int) error {
	for j := b.order.last + 1; j < end; j++ {
		f := b.schema.fields[j]
		def := b.schema.defaults[j]
		switch {
		case f.Required && def == nil:
			return fmt.Errorf("%w: field %d", errs.ErrMissingRequiredField, j)
		case f.Required:
			start, err := b.reserve(len(def))
			if err != nil {
				return err
			}
			copy(b.buf[start:], def)
			b.present(j)
		case b.schema.presence == PresenceDefaultNull:
			start, err := b.reserve(1)
			if err != nil {
				return err
			}
			b.buf[start] = MissingFieldByte
			b.slots++
			b.order.last = j
		default:
			b.order.last = j
		}
	}

	return nil
}

// Finish defaults the remaining fields up to the last required one,
// back-patches the header and returns the limit. A required field that was
// never set and has no default fails with errs.ErrMissingRequiredField.
func (b *OptionalListBuilder) Finish() (int, error) {
	if err := b.writable(); err != nil {
		return 0, err
	}
	snap := b.snapshot()
	if err := b.fillGap(b.schema.lastRequired + 1); err != nil {
		b.restore(snap)
		return 0, err
	}
	if err := b.writeHeader(b.schema.width, true, b.slots); err != nil {
		b.restore(snap)
		return 0, err
	}
	b.putUintAt(b.offset+2*b.schema.width.Size(), b.schema.maskWidth, b.mask)

	return b.seal(), nil
}

// Build finishes the list and returns a view over it.
func (b *OptionalListBuilder) Build() (*OptionalListView, error) {
	limit, err := b.Finish()
	if err != nil {
		return nil, err
	}
	v := NewOptionalListView(b.schema)
	if err := b.wrapResult(v, limit); err != nil {
		return nil, err
	}

	return v, nil
}

// OptionalList returns the codec of lists of schema.
func OptionalList(schema *ListSchema) Codec[*OptionalListView, *OptionalListBuilder] {
	return NewCodec(
		func() *OptionalListView { return NewOptionalListView(schema) },
		func() *OptionalListBuilder { return NewOptionalListBuilder(schema) },
	)
}

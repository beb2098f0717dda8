package fw

import (
	"fmt"
	"math/bits"
	"unicode/utf8"

	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/format"
)

// IntKindFor returns the narrowest signed kind holding v. 0 and 1 map to
// the payload-less KindZero and KindOne; other values are sized by the
// highest set byte of their zigzag form, which matches the signed range of
// each width.
func IntKindFor(v int64) format.Kind {
	switch v {
	case 0:
		return format.KindZero
	case 1:
		return format.KindOne
	}

	return kindForBytes(true, (bits.Len64(zigzag(v))+7)/8)
}

// UintKindFor returns the narrowest unsigned kind holding v, preferring
// KindZero and KindOne.
func UintKindFor(v uint64) format.Kind {
	switch v {
	case 0:
		return format.KindZero
	case 1:
		return format.KindOne
	}

	return kindForBytes(false, (bits.Len64(v)+7)/8)
}

func kindForBytes(signed bool, n int) format.Kind {
	var k format.Kind
	switch {
	case n <= 1:
		k = 0x01
	case n <= 2:
		k = 0x02
	case n <= 4:
		k = 0x04
	default:
		k = 0x08
	}
	if signed {
		return 0x10 | k
	}

	return 0x20 | k
}

// numberFamily is the set of kinds a numeric variant may carry: KindZero,
// KindOne and the signed or unsigned kinds up to maxKind.
type numberFamily struct {
	signed  bool
	maxKind format.Kind
}

func newNumberFamily(signed bool, maxKind format.Kind) numberFamily {
	if maxKind.PayloadSize() == 0 || kindForBytes(signed, maxKind.PayloadSize()) != maxKind {
		panic(fmt.Sprintf("fw: %s is not a valid maximum numeric kind", maxKind))
	}

	return numberFamily{signed: signed, maxKind: maxKind}
}

func (f numberFamily) allows(k format.Kind) bool {
	if k == format.KindZero || k == format.KindOne {
		return true
	}

	size := k.PayloadSize()

	return size > 0 && size <= f.maxKind.PayloadSize() && kindForBytes(f.signed, size) == k
}

// fits reports whether raw, the sign-extended or unsigned value, can be
// written with kind k.
func (f numberFamily) fits(k format.Kind, raw uint64) bool {
	switch k {
	case format.KindZero:
		return raw == 0
	case format.KindOne:
		return raw == 1
	}
	if f.signed {
		return IntKindFor(int64(raw)).PayloadSize() <= k.PayloadSize() //nolint:gosec
	}

	return UintKindFor(raw).PayloadSize() <= k.PayloadSize()
}

// numberView is the shared reader of IntVariantView and UintVariantView.
type numberView struct {
	flyweight
	family numberFamily
	kind   format.Kind
}

func (v *numberView) wrap(buf []byte, offset, maxLimit int) error {
	if err := v.bind(buf, offset, maxLimit); err != nil {
		return err
	}
	if maxLimit-offset < 1 {
		return errs.ErrOutOfBounds
	}
	kind := format.Kind(buf[offset])
	if !v.family.allows(kind) {
		return fmt.Errorf("%w: 0x%02x", errs.ErrUnknownKind, byte(kind))
	}
	size := 1 + kind.PayloadSize()
	if maxLimit-offset < size {
		return errs.ErrOutOfBounds
	}
	v.kind = kind
	v.limit = offset + size

	return nil
}

// Kind returns the kind tag of the value.
func (v *numberView) Kind() format.Kind {
	return v.kind
}

func (v *numberView) raw() uint64 {
	switch v.kind {
	case format.KindZero:
		return 0
	case format.KindOne:
		return 1
	}

	return v.uintAt(v.offset+1, format.Width(v.kind.PayloadSize()))
}

// numberBuilder is the shared writer of IntVariantBuilder and
// UintVariantBuilder.
type numberBuilder struct {
	builderBase
	family numberFamily
	set    bool
}

func (b *numberBuilder) Wrap(buf []byte, offset, maxLimit int) error {
	b.set = false
	return b.begin(buf, offset, maxLimit, 0)
}

func (b *numberBuilder) put(kind format.Kind, raw uint64) error {
	if err := b.writable(); err != nil {
		return err
	}
	if b.set {
		return errs.ErrValueAlreadySet
	}
	if !b.family.allows(kind) {
		return fmt.Errorf("%w: kind %s not allowed up to %s", errs.ErrInvalidValue, kind, b.family.maxKind)
	}
	if !b.family.fits(kind, raw) {
		return fmt.Errorf("%w: value does not fit kind %s", errs.ErrInvalidValue, kind)
	}
	size := kind.PayloadSize()
	start, err := b.reserve(1 + size)
	if err != nil {
		return err
	}
	b.buf[start] = byte(kind)
	if size > 0 {
		b.putUintAt(start+1, format.Width(size), raw)
	}
	b.set = true

	return nil
}

func (b *numberBuilder) Finish() (int, error) {
	if err := b.writable(); err != nil {
		return 0, err
	}
	if !b.set {
		return 0, errs.ErrValueNotSet
	}

	return b.seal(), nil
}

// IntVariantView reads a signed integer stored with the narrowest of
// KindZero, KindOne, KindInt8, KindInt16, KindInt32 or KindInt64.
type IntVariantView struct {
	numberView
}

// NewIntVariantView creates an unwrapped view accepting kinds up to maxKind.
// It panics unless maxKind is one of KindInt8 to KindInt64.
func NewIntVariantView(maxKind format.Kind, opts ...Option) *IntVariantView {
	cfg := newConfig(opts)

	v := &IntVariantView{numberView{family: newNumberFamily(true, maxKind)}}
	v.engine = cfg.engine

	return v
}

// Wrap binds the view to the variant at offset.
func (v *IntVariantView) Wrap(buf []byte, offset, maxLimit int) error {
	if err := v.wrap(buf, offset, maxLimit); err != nil {
		return wrapErr("int variant", err, offset, maxLimit)
	}

	return nil
}

// TryWrap is Wrap reporting failure as false.
func (v *IntVariantView) TryWrap(buf []byte, offset, maxLimit int) bool {
	return v.wrap(buf, offset, maxLimit) == nil
}

// Value returns the decoded value.
func (v *IntVariantView) Value() int64 {
	raw := v.raw()
	switch v.kind.PayloadSize() {
	case 1:
		return int64(int8(raw)) //nolint:gosec
	case 2:
		return int64(int16(raw)) //nolint:gosec
	case 4:
		return int64(int32(raw)) //nolint:gosec
	default:
		return int64(raw) //nolint:gosec
	}
}

// IntVariantBuilder writes a signed integer variant.
type IntVariantBuilder struct {
	numberBuilder
}

// NewIntVariantBuilder creates an unwrapped builder allowing kinds up to
// maxKind. It panics unless maxKind is one of KindInt8 to KindInt64.
//
// Parameters:
//   - maxKind: Widest signed kind the builder may emit
//   - opts: Optional settings such as byte order
//
// Returns:
//   - *IntVariantBuilder: Unwrapped builder
func NewIntVariantBuilder(maxKind format.Kind, opts ...Option) *IntVariantBuilder {
	cfg := newConfig(opts)

	b := &IntVariantBuilder{numberBuilder{family: newNumberFamily(true, maxKind)}}
	b.engine = cfg.engine

	return b
}

// Set writes v with the narrowest kind. A value wider than the maximum kind
// fails with errs.ErrInvalidValue.
func (b *IntVariantBuilder) Set(v int64) error {
	return b.put(IntKindFor(v), uint64(v)) //nolint:gosec
}

// SetKind writes v with an explicit kind, which must be allowed and able to
// hold v.
func (b *IntVariantBuilder) SetKind(kind format.Kind, v int64) error {
	return b.put(kind, uint64(v)) //nolint:gosec
}

// Build finishes the variant and returns a view over it.
func (b *IntVariantBuilder) Build() (*IntVariantView, error) {
	limit, err := b.Finish()
	if err != nil {
		return nil, err
	}
	v := NewIntVariantView(b.family.maxKind, WithEngine(b.engine))
	if err := b.wrapResult(v, limit); err != nil {
		return nil, err
	}

	return v, nil
}

// IntVariant returns the codec of signed integer variants up to maxKind.
func IntVariant(maxKind format.Kind, opts ...Option) Codec[*IntVariantView, *IntVariantBuilder] {
	newNumberFamily(true, maxKind)

	return NewCodec(
		func() *IntVariantView { return NewIntVariantView(maxKind, opts...) },
		func() *IntVariantBuilder { return NewIntVariantBuilder(maxKind, opts...) },
	)
}

// UintVariantView reads an unsigned integer stored with the narrowest of
// KindZero, KindOne, KindUint8, KindUint16, KindUint32 or KindUint64.
type UintVariantView struct {
	numberView
}

// NewUintVariantView creates an unwrapped view accepting kinds up to maxKind.
// It panics unless maxKind is one of KindUint8 to KindUint64.
func NewUintVariantView(maxKind format.Kind, opts ...Option) *UintVariantView {
	cfg := newConfig(opts)

	v := &UintVariantView{numberView{family: newNumberFamily(false, maxKind)}}
	v.engine = cfg.engine

	return v
}

// Wrap binds the view to the variant at offset.
func (v *UintVariantView) Wrap(buf []byte, offset, maxLimit int) error {
	if err := v.wrap(buf, offset, maxLimit); err != nil {
		return wrapErr("uint variant", err, offset, maxLimit)
	}

	return nil
}

// TryWrap is Wrap reporting failure as false.
func (v *UintVariantView) TryWrap(buf []byte, offset, maxLimit int) bool {
	return v.wrap(buf, offset, maxLimit) == nil
}

// Value returns the decoded value.
func (v *UintVariantView) Value() uint64 {
	return v.raw()
}

// UintVariantBuilder writes an unsigned integer variant.
type UintVariantBuilder struct {
	numberBuilder
}

// NewUintVariantBuilder creates an unwrapped builder allowing kinds up to
// maxKind. It panics unless maxKind is one of KindUint8 to KindUint64.
func NewUintVariantBuilder(maxKind format.Kind, opts ...Option) *UintVariantBuilder {
	cfg := newConfig(opts)

	b := &UintVariantBuilder{numberBuilder{family: newNumberFamily(false, maxKind)}}
	b.engine = cfg.engine

	return b
}

// Set writes v with the narrowest kind.
func (b *UintVariantBuilder) Set(v uint64) error {
	return b.put(UintKindFor(v), v)
}

// SetKind writes v with an explicit kind.
func (b *UintVariantBuilder) SetKind(kind format.Kind, v uint64) error {
	return b.put(kind, v)
}

// Build finishes the variant and returns a view over it.
func (b *UintVariantBuilder) Build() (*UintVariantView, error) {
	limit, err := b.Finish()
	if err != nil {
		return nil, err
	}
	v := NewUintVariantView(b.family.maxKind, WithEngine(b.engine))
	if err := b.wrapResult(v, limit); err != nil {
		return nil, err
	}

	return v, nil
}

// UintVariant returns the codec of unsigned integer variants up to maxKind.
func UintVariant(maxKind format.Kind, opts ...Option) Codec[*UintVariantView, *UintVariantBuilder] {
	newNumberFamily(false, maxKind)

	return NewCodec(
		func() *UintVariantView { return NewUintVariantView(maxKind, opts...) },
		func() *UintVariantBuilder { return NewUintVariantBuilder(maxKind, opts...) },
	)
}

func stringKind(w format.Width) format.Kind {
	return 0x30 | format.Kind(w)
}

func checkStringMax(maxKind format.Kind) {
	if !maxKind.IsString() || !format.Width(maxKind.PayloadSize()).IsLengthWidth() {
		panic(fmt.Sprintf("fw: %s is not a valid maximum string kind", maxKind))
	}
}

// StringVariantView reads a string stored as KindString8, KindString16 or
// KindString32 followed by the string of that width.
type StringVariantView struct {
	flyweight
	maxKind format.Kind
	kind    format.Kind
	subs    [3]*StringView
	str     *StringView
}

// NewStringVariantView creates an unwrapped view accepting kinds up to maxKind.
// It panics unless maxKind is a string kind.
func NewStringVariantView(maxKind format.Kind, opts ...Option) *StringVariantView {
	checkStringMax(maxKind)
	cfg := newConfig(opts)

	v := &StringVariantView{maxKind: maxKind}
	v.engine = cfg.engine
	for i, w := range []format.Width{format.Width8, format.Width16, format.Width32} {
		v.subs[i] = NewStringView(w, opts...)
	}

	return v
}

func stringSlot(k format.Kind) int {
	switch k {
	case format.KindString8:
		return 0
	case format.KindString16:
		return 1
	case format.KindString32:
		return 2
	default:
		return -1
	}
}

func (v *StringVariantView) wrap(buf []byte, offset, maxLimit int) error {
	if err := v.bind(buf, offset, maxLimit); err != nil {
		return err
	}
	if maxLimit-offset < 1 {
		return errs.ErrOutOfBounds
	}
	kind := format.Kind(buf[offset])
	slot := stringSlot(kind)
	if slot < 0 || kind.PayloadSize() > v.maxKind.PayloadSize() {
		return fmt.Errorf("%w: 0x%02x", errs.ErrUnknownKind, byte(kind))
	}
	str := v.subs[slot]
	if err := str.wrap(buf, offset+1, maxLimit); err != nil {
		return err
	}
	v.kind = kind
	v.str = str
	v.limit = str.Limit()

	return nil
}

// Wrap binds the view to the variant at offset.
func (v *StringVariantView) Wrap(buf []byte, offset, maxLimit int) error {
	if err := v.wrap(buf, offset, maxLimit); err != nil {
		return wrapErr("string variant", err, offset, maxLimit)
	}

	return nil
}

// TryWrap is Wrap reporting failure as false.
func (v *StringVariantView) TryWrap(buf []byte, offset, maxLimit int) bool {
	return v.wrap(buf, offset, maxLimit) == nil
}

// Kind returns the kind tag of the value.
func (v *StringVariantView) Kind() format.Kind {
	return v.kind
}

// Str returns the active string view.
func (v *StringVariantView) Str() *StringView {
	return v.str
}

// IsNull reports whether the string is null.
func (v *StringVariantView) IsNull() bool {
	return v.str.IsNull()
}

// Bytes returns the string bytes without copying.
func (v *StringVariantView) Bytes() []byte {
	return v.str.Bytes()
}

// String returns a copy of the string.
func (v *StringVariantView) String() string {
	return v.str.String()
}

// StringVariantBuilder writes a string with the narrowest string kind.
type StringVariantBuilder struct {
	builderBase
	maxKind format.Kind
	subs    [3]*StringBuilder
	set     bool
	opts    []Option
}

// NewStringVariantBuilder creates an unwrapped builder allowing kinds up to
// maxKind. It panics unless maxKind is a string kind.
//
// Parameters:
//   - maxKind: Widest string kind the builder may emit
//   - opts: Optional settings such as byte order
//
// Returns:
//   - *StringVariantBuilder: Unwrapped builder
func NewStringVariantBuilder(maxKind format.Kind, opts ...Option) *StringVariantBuilder {
	checkStringMax(maxKind)
	cfg := newConfig(opts)

	b := &StringVariantBuilder{maxKind: maxKind, opts: opts}
	b.engine = cfg.engine
	for i, w := range []format.Width{format.Width8, format.Width16, format.Width32} {
		b.subs[i] = NewStringBuilder(w, opts...)
	}

	return b
}

// Wrap binds the builder to buf[offset:maxLimit].
func (b *StringVariantBuilder) Wrap(buf []byte, offset, maxLimit int) error {
	b.set = false
	return b.begin(buf, offset, maxLimit, 0)
}

// StringKindFor returns the narrowest string kind able to carry a string of
// n bytes. A length equal to the null sentinel of a width moves to the next
// width. It returns false when n does not fit KindString32.
func StringKindFor(n int) (format.Kind, bool) {
	w, ok := format.WidthForLength(n)
	if !ok {
		return 0, false
	}

	return stringKind(w), true
}

// Set writes s with the narrowest string kind able to carry its length.
func (b *StringVariantBuilder) Set(s string) error {
	kind, ok := StringKindFor(len(s))
	if !ok {
		return fmt.Errorf("%w: string of %d bytes is too long", errs.ErrInvalidValue, len(s))
	}

	return putVariantString(b, kind, s, utf8.ValidString(s))
}

// SetBytes is Set over raw bytes.
func (b *StringVariantBuilder) SetBytes(p []byte) error {
	kind, ok := StringKindFor(len(p))
	if !ok {
		return fmt.Errorf("%w: string of %d bytes is too long", errs.ErrInvalidValue, len(p))
	}

	return putVariantString(b, kind, p, utf8.Valid(p))
}

// SetKind writes s with an explicit string kind.
func (b *StringVariantBuilder) SetKind(kind format.Kind, s string) error {
	return putVariantString(b, kind, s, utf8.ValidString(s))
}

// SetNull writes a null string with KindString8.
func (b *StringVariantBuilder) SetNull() error {
	if err := b.settable(format.KindString8); err != nil {
		return err
	}

	return b.delegate(format.KindString8, func(sb *StringBuilder) error { return sb.SetNull() })
}

func (b *StringVariantBuilder) settable(kind format.Kind) error {
	if err := b.writable(); err != nil {
		return err
	}
	if b.set {
		return errs.ErrValueAlreadySet
	}
	if stringSlot(kind) < 0 || kind.PayloadSize() > b.maxKind.PayloadSize() {
		return fmt.Errorf("%w: kind %s not allowed up to %s", errs.ErrInvalidValue, kind, b.maxKind)
	}

	return nil
}

func putVariantString[T ~string | ~[]byte](b *StringVariantBuilder, kind format.Kind, s T, valid bool) error {
	if err := b.settable(kind); err != nil {
		return err
	}
	if uint64(len(s)) >= format.Width(kind.PayloadSize()).Max() {
		return fmt.Errorf("%w: length %d does not fit %s", errs.ErrInvalidValue, len(s), kind)
	}
	if !valid {
		return fmt.Errorf("%w: string is not valid UTF-8", errs.ErrInvalidValue)
	}

	return b.delegate(kind, func(sb *StringBuilder) error { return putString(sb, s, valid) })
}

// delegate writes the kind tag and lets fn write the string after it.
func (b *StringVariantBuilder) delegate(kind format.Kind, fn func(*StringBuilder) error) error {
	start, err := b.reserve(1)
	if err != nil {
		return err
	}
	b.buf[start] = byte(kind)
	sub := b.subs[stringSlot(kind)]
	if err := appendTo(&b.builderBase, sub, fn); err != nil {
		b.limit = start
		return err
	}
	b.set = true

	return nil
}

// Finish completes the variant and returns its limit.
func (b *StringVariantBuilder) Finish() (int, error) {
	if err := b.writable(); err != nil {
		return 0, err
	}
	if !b.set {
		return 0, errs.ErrValueNotSet
	}

	return b.seal(), nil
}

// Build finishes the variant and returns a view over it.
func (b *StringVariantBuilder) Build() (*StringVariantView, error) {
	limit, err := b.Finish()
	if err != nil {
		return nil, err
	}
	v := NewStringVariantView(b.maxKind, b.opts...)
	if err := b.wrapResult(v, limit); err != nil {
		return nil, err
	}

	return v, nil
}

// StringVariant returns the codec of string variants up to maxKind.
func StringVariant(maxKind format.Kind, opts ...Option) Codec[*StringVariantView, *StringVariantBuilder] {
	checkStringMax(maxKind)

	return NewCodec(
		func() *StringVariantView { return NewStringVariantView(maxKind, opts...) },
		func() *StringVariantBuilder { return NewStringVariantBuilder(maxKind, opts...) },
	)
}

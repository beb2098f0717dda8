package fw

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/flyweight/endian"
	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/format"
)

func TestBuilderState(t *testing.T) {
	require.ErrorIs(t, stateUnwrapped.writable(), errs.ErrNotWrapped)
	require.NoError(t, stateWrapping.writable())
	require.ErrorIs(t, stateBuilt.writable(), errs.ErrAlreadyBuilt)

	require.Equal(t, "Unwrapped", stateUnwrapped.String())
	require.Equal(t, "Wrapping", stateWrapping.String())
	require.Equal(t, "Built", stateBuilt.String())
}

func TestFieldOrder(t *testing.T) {
	var o fieldOrder
	o.reset()
	require.NoError(t, o.check(0))
	require.NoError(t, o.check(5))

	o.last = 3
	require.ErrorIs(t, o.check(3), errs.ErrFieldAlreadySet)
	require.ErrorIs(t, o.check(2), errs.ErrFieldOutOfOrder)
	require.NoError(t, o.check(4))
}

func TestConfig_Engine(t *testing.T) {
	cfg := newConfig(nil)
	require.Equal(t, endian.GetLittleEndianEngine(), cfg.Engine())

	cfg = newConfig([]Option{WithBigEndian()})
	require.Equal(t, endian.GetBigEndianEngine(), cfg.Engine())

	cfg = newConfig([]Option{WithBigEndian(), WithEngine(nil)})
	require.Equal(t, endian.GetBigEndianEngine(), cfg.Engine())

	cfg = newConfig([]Option{WithBigEndian(), WithLittleEndian()})
	require.Equal(t, endian.GetLittleEndianEngine(), cfg.Engine())
}

func TestEncode_GrowsBuffer(t *testing.T) {
	long := strings.Repeat("z", 1000)
	got, err := Encode(String16().NewBuilder(), func(b *StringBuilder) error { return b.Set(long) })
	require.NoError(t, err)
	require.Len(t, got, 1002)

	v := String16().NewView()
	require.NoError(t, v.Wrap(got, 0, len(got)))
	require.Equal(t, long, v.String())
}

func TestEncode_StopsOnOtherErrors(t *testing.T) {
	_, err := Encode(String8().NewBuilder(), func(b *StringBuilder) error {
		return b.Set(strings.Repeat("z", 300))
	})
	require.ErrorIs(t, err, errs.ErrInvalidValue)
}

func TestBuilderWrap_RejectsBadRegion(t *testing.T) {
	buf := make([]byte, 4)

	list := NewListBuilder(format.Width16, String8())
	require.ErrorIs(t, list.Wrap(buf, 0, 3), errs.ErrOutOfBounds, "header does not fit")
	require.ErrorIs(t, list.Item(setString("a")), errs.ErrNotWrapped)
	require.ErrorIs(t, list.Wrap(buf, 0, 5), errs.ErrOutOfBounds)
	require.ErrorIs(t, list.Wrap(buf, 3, 2), errs.ErrOutOfBounds)
	require.NoError(t, list.Wrap(buf, 0, 4))
}

func TestFlyweight_Encoded(t *testing.T) {
	buf := []byte{0xAA, 0x02, 'h', 'i', 0xBB}
	v := NewStringView(format.Width8)
	require.NoError(t, v.Wrap(buf, 1, len(buf)))

	enc := v.Encoded()
	require.Equal(t, []byte{0x02, 'h', 'i'}, enc)
	require.Equal(t, 3, cap(enc))
	require.Equal(t, 5, v.MaxLimit())
	require.Equal(t, buf, v.Buffer())
}

// wrapCase builds a view for the equivalence sweep and a valid encoding of it.
type wrapCase struct {
	name    string
	newView func() View
	valid   func(t *testing.T) []byte
}

func wrapCases() []wrapCase {
	listCodec := List(format.Width8, String8())
	mapCodec := Map(format.Width8, String8(), UintVariant(format.KindUint64))
	union, _ := NewUnion(Case{Kind: 0x01}, Case{Kind: 0x02, Type: Varint64()})
	optSchema, _ := NewListSchema(format.Width8, PresenceDefaultNull, []Field{
		{Type: Int16()},
		{Type: String8(), Default: DefaultOf(setString("d"))},
		{Type: Varint64()},
	})

	return []wrapCase{
		{
			name:    "varint64",
			newView: func() View { return NewVarint64View() },
			valid: func(t *testing.T) []byte {
				return AppendVarint64(nil, -123456789)
			},
		},
		{
			name:    "string16",
			newView: func() View { return NewStringView(format.Width16) },
			valid: func(t *testing.T) []byte {
				got, err := Encode(NewStringBuilder(format.Width16), func(b *StringBuilder) error { return b.Set("hello") })
				require.NoError(t, err)
				return got
			},
		},
		{
			name:    "list",
			newView: func() View { return listCodec.NewView() },
			valid: func(t *testing.T) []byte {
				got, err := Encode(listCodec.NewBuilder(), func(b *ListBuilder[*StringView, *StringBuilder]) error {
					if err := b.Item(setString("x")); err != nil {
						return err
					}
					return b.Item(setString("yz"))
				})
				require.NoError(t, err)
				return got
			},
		},
		{
			name:    "map",
			newView: func() View { return mapCodec.NewView() },
			valid: func(t *testing.T) []byte {
				got, err := Encode(mapCodec.NewBuilder(), func(b *MapBuilder[*StringView, *StringBuilder, *UintVariantView, *UintVariantBuilder]) error {
					return b.Entry(setString("k"), func(vb *UintVariantBuilder) error { return vb.Set(70000) })
				})
				require.NoError(t, err)
				return got
			},
		},
		{
			name:    "int variant",
			newView: func() View { return NewIntVariantView(format.KindInt64) },
			valid: func(t *testing.T) []byte {
				got, err := Encode(NewIntVariantBuilder(format.KindInt64), func(b *IntVariantBuilder) error { return b.Set(-40000) })
				require.NoError(t, err)
				return got
			},
		},
		{
			name:    "string variant",
			newView: func() View { return NewStringVariantView(format.KindString32) },
			valid: func(t *testing.T) []byte {
				got, err := Encode(NewStringVariantBuilder(format.KindString32), func(b *StringVariantBuilder) error { return b.Set("abc") })
				require.NoError(t, err)
				return got
			},
		},
		{
			name:    "union",
			newView: func() View { return NewVariantView(union) },
			valid: func(t *testing.T) []byte {
				got, err := Encode(NewVariantBuilder(union), func(b *VariantBuilder) error {
					return SetAs(b, 0x02, func(vb *Varint64Builder) error { return vb.Set(99) })
				})
				require.NoError(t, err)
				return got
			},
		},
		{
			name:    "optional list",
			newView: func() View { return NewOptionalListView(optSchema) },
			valid: func(t *testing.T) []byte {
				got, err := Encode(NewOptionalListBuilder(optSchema), func(b *OptionalListBuilder) error {
					return SetField(b, 2, func(vb *Varint64Builder) error { return vb.Set(-1) })
				})
				require.NoError(t, err)
				return got
			},
		},
	}
}

func TestWrapTryWrapEquivalence(t *testing.T) {
	rng := rand.New(rand.NewPCG(2024, 10))

	for _, tc := range wrapCases() {
		t.Run(tc.name, func(t *testing.T) {
			valid := tc.valid(t)
			a, b := tc.newView(), tc.newView()

			check := func(buf []byte, offset, maxLimit int) {
				err := a.Wrap(buf, offset, maxLimit)
				ok := b.TryWrap(buf, offset, maxLimit)
				require.Equal(t, err == nil, ok, "buf %x offset %d maxLimit %d: %v", buf, offset, maxLimit, err)
				if ok {
					require.Equal(t, a.Offset(), b.Offset())
					require.Equal(t, a.Limit(), b.Limit())
					require.LessOrEqual(t, b.Limit(), maxLimit)
					require.GreaterOrEqual(t, b.Limit(), offset)
				} else {
					require.ErrorIs(t, err, errs.ErrOutOfBounds)
				}
			}

			// The valid encoding under every bound, including the exact one.
			for maxLimit := 0; maxLimit <= len(valid); maxLimit++ {
				check(valid, 0, maxLimit)
			}
			require.True(t, b.TryWrap(valid, 0, len(valid)))
			require.Equal(t, len(valid), b.Limit())

			// Single byte corruptions of the valid encoding.
			for range 500 {
				buf := append([]byte(nil), valid...)
				buf[rng.IntN(len(buf))] = byte(rng.Uint32())
				check(buf, 0, len(buf))
			}

			// Random bytes at random offsets.
			for range 2000 {
				buf := make([]byte, rng.IntN(24))
				for i := range buf {
					buf[i] = byte(rng.Uint32())
				}
				offset := rng.IntN(len(buf) + 1)
				maxLimit := offset + rng.IntN(len(buf)-offset+1)
				check(buf, offset, maxLimit)
			}
		})
	}
}

package fw

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/format"
)

func TestIntKindFor_Boundaries(t *testing.T) {
	tests := []struct {
		value int64
		want  format.Kind
	}{
		{0, format.KindZero},
		{1, format.KindOne},
		{-1, format.KindInt8},
		{2, format.KindInt8},
		{math.MinInt8, format.KindInt8},
		{math.MaxInt8, format.KindInt8},
		{math.MinInt8 - 1, format.KindInt16},
		{math.MaxInt8 + 1, format.KindInt16},
		{math.MaxInt16, format.KindInt16},
		{math.MaxInt16 + 1, format.KindInt32},
		{math.MinInt32, format.KindInt32},
		{math.MaxInt32 + 1, format.KindInt64},
		{math.MinInt64, format.KindInt64},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, IntKindFor(tt.value), "value %d", tt.value)
	}
}

func TestUintKindFor_Boundaries(t *testing.T) {
	tests := []struct {
		value uint64
		want  format.Kind
	}{
		{0, format.KindZero},
		{1, format.KindOne},
		{2, format.KindUint8},
		{math.MaxUint8, format.KindUint8},
		{math.MaxUint8 + 1, format.KindUint16},
		{math.MaxUint16 + 1, format.KindUint32},
		{math.MaxUint32, format.KindUint32},
		{math.MaxUint32 + 1, format.KindUint64},
		{math.MaxUint64, format.KindUint64},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, UintKindFor(tt.value), "value %d", tt.value)
	}
}

func signedFits(v int64, size int) bool {
	switch size {
	case 1:
		return v >= math.MinInt8 && v <= math.MaxInt8
	case 2:
		return v >= math.MinInt16 && v <= math.MaxInt16
	case 4:
		return v >= math.MinInt32 && v <= math.MaxInt32
	default:
		return true
	}
}

func TestIntKindFor_Minimal(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for range 20000 {
		v := int64(rng.Uint64()) >> rng.IntN(64) //nolint:gosec
		kind := IntKindFor(v)
		if v == 0 || v == 1 {
			continue
		}
		size := kind.PayloadSize()
		require.True(t, signedFits(v, size), "value %d kind %s", v, kind)
		if size > 1 {
			require.False(t, signedFits(v, size/2), "value %d kind %s is not minimal", v, kind)
		}
	}
}

func TestUintKindFor_Minimal(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for range 20000 {
		v := rng.Uint64() >> rng.IntN(64)
		if v <= 1 {
			continue
		}
		size := UintKindFor(v).PayloadSize()
		if size < 8 {
			require.Less(t, v, uint64(1)<<(8*size), "value %d", v)
		}
		if size > 1 {
			require.GreaterOrEqual(t, v, uint64(1)<<(4*size), "value %d is not minimal", v)
		}
	}
}

func TestIntVariant_Layout(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		want  []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"one", 1, []byte{0x01}},
		{"minus two", -2, []byte{0x11, 0xFE}},
		{"300", 300, []byte{0x12, 0x2C, 0x01}},
		{"min int32", math.MinInt32, []byte{0x14, 0x00, 0x00, 0x00, 0x80}},
		{"min int64", math.MinInt64, []byte{0x18, 0, 0, 0, 0, 0, 0, 0, 0x80}},
	}

	codec := IntVariant(format.KindInt64)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(codec.NewBuilder(), func(b *IntVariantBuilder) error { return b.Set(tt.value) })
			require.NoError(t, err)
			require.Equal(t, tt.want, got)

			v := codec.NewView()
			require.NoError(t, v.Wrap(got, 0, len(got)))
			require.Equal(t, tt.value, v.Value())
			require.Equal(t, format.Kind(tt.want[0]), v.Kind())
			require.Equal(t, len(got), v.Sizeof())
		})
	}
}

func TestIntVariant_RoundTrip(t *testing.T) {
	codec := IntVariant(format.KindInt64, WithBigEndian())
	b := codec.NewBuilder()
	v := codec.NewView()
	buf := make([]byte, 16)

	rng := rand.New(rand.NewPCG(42, 42))
	for range 5000 {
		x := int64(rng.Uint64()) >> rng.IntN(64) //nolint:gosec
		require.NoError(t, b.Wrap(buf, 0, len(buf)))
		require.NoError(t, b.Set(x))
		limit, err := b.Finish()
		require.NoError(t, err)

		require.NoError(t, v.Wrap(buf, 0, limit))
		require.Equal(t, x, v.Value())
		require.Equal(t, IntKindFor(x), v.Kind())
	}
}

func TestIntVariant_MaxKind(t *testing.T) {
	buf := make([]byte, 16)
	b := NewIntVariantBuilder(format.KindInt16)
	require.NoError(t, b.Wrap(buf, 0, len(buf)))

	require.ErrorIs(t, b.Set(1<<20), errs.ErrInvalidValue)
	require.ErrorIs(t, b.SetKind(format.KindInt32, 5), errs.ErrInvalidValue)
	require.ErrorIs(t, b.SetKind(format.KindInt8, 300), errs.ErrInvalidValue)
	require.ErrorIs(t, b.SetKind(format.KindZero, 1), errs.ErrInvalidValue)
	require.ErrorIs(t, b.SetKind(format.KindUint8, 5), errs.ErrInvalidValue)
	require.Equal(t, 0, b.Limit())

	require.NoError(t, b.SetKind(format.KindInt16, 5))
	v, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, format.KindInt16, v.Kind())
	require.Equal(t, int64(5), v.Value())
	require.Equal(t, []byte{0x12, 0x05, 0x00}, buf[:3])

	require.Panics(t, func() { NewIntVariantView(format.KindUint8) })
	require.Panics(t, func() { NewIntVariantBuilder(format.KindZero) })
	require.Panics(t, func() { IntVariant(format.Kind(0x13)) })
}

func TestIntVariantView_RejectsKinds(t *testing.T) {
	v := NewIntVariantView(format.KindInt16)
	for _, buf := range [][]byte{
		{0x13, 0, 0, 0},
		{0x14, 0, 0, 0, 0},
		{0x21, 0},
		{0x40},
		{0x10},
	} {
		require.ErrorIs(t, v.Wrap(buf, 0, len(buf)), errs.ErrUnknownKind, "kind 0x%02x", buf[0])
		require.False(t, v.TryWrap(buf, 0, len(buf)))
	}

	require.ErrorIs(t, v.Wrap([]byte{0x12, 0x00}, 0, 2), errs.ErrOutOfBounds)
	require.ErrorIs(t, v.Wrap([]byte{}, 0, 0), errs.ErrOutOfBounds)
}

func TestUintVariant_Layout(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		value uint64
		want  []byte
	}{
		{"255", nil, 255, []byte{0x21, 0xFF}},
		{"256", nil, 256, []byte{0x22, 0x00, 0x01}},
		{"256 big endian", []Option{WithBigEndian()}, 256, []byte{0x22, 0x01, 0x00}},
		{"max", nil, math.MaxUint64, []byte{0x28, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := UintVariant(format.KindUint64, tt.opts...)
			got, err := Encode(codec.NewBuilder(), func(b *UintVariantBuilder) error { return b.Set(tt.value) })
			require.NoError(t, err)
			require.Equal(t, tt.want, got)

			v := codec.NewView()
			require.NoError(t, v.Wrap(got, 0, len(got)))
			require.Equal(t, tt.value, v.Value())
		})
	}
}

func TestStringVariant_SelectsWidth(t *testing.T) {
	codec := StringVariant(format.KindString32)

	got, err := Encode(codec.NewBuilder(), func(b *StringVariantBuilder) error { return b.Set("hi") })
	require.NoError(t, err)
	require.Equal(t, []byte{0x31, 0x02, 'h', 'i'}, got)

	// 255 is the null sentinel of String8, so it moves to String16.
	long := strings.Repeat("a", 255)
	got, err = Encode(codec.NewBuilder(), func(b *StringVariantBuilder) error { return b.Set(long) })
	require.NoError(t, err)
	require.Equal(t, []byte{0x32, 0xFF, 0x00}, got[:3])

	v := codec.NewView()
	require.NoError(t, v.Wrap(got, 0, len(got)))
	require.Equal(t, format.KindString16, v.Kind())
	require.Equal(t, long, v.String())
	require.Equal(t, format.Width16, v.Str().Width())

	got, err = Encode(codec.NewBuilder(), func(b *StringVariantBuilder) error { return b.SetNull() })
	require.NoError(t, err)
	require.Equal(t, []byte{0x31, 0xFF}, got)
	require.NoError(t, v.Wrap(got, 0, len(got)))
	require.True(t, v.IsNull())
}

func TestStringVariant_MaxKind(t *testing.T) {
	buf := make([]byte, 512)
	b := NewStringVariantBuilder(format.KindString8)
	require.NoError(t, b.Wrap(buf, 0, len(buf)))

	require.ErrorIs(t, b.Set(strings.Repeat("a", 255)), errs.ErrInvalidValue)
	require.ErrorIs(t, b.SetKind(format.KindString16, "a"), errs.ErrInvalidValue)
	require.ErrorIs(t, b.SetBytes([]byte{0xC3}), errs.ErrInvalidValue)
	require.Equal(t, 0, b.Limit())

	require.NoError(t, b.SetBytes([]byte("ok")))
	require.ErrorIs(t, b.Set("again"), errs.ErrValueAlreadySet)

	v, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, []byte("ok"), v.Bytes())

	view := NewStringVariantView(format.KindString8)
	require.ErrorIs(t, view.Wrap([]byte{0x32, 0x01, 0x00, 'a'}, 0, 4), errs.ErrUnknownKind)

	require.Panics(t, func() { StringVariant(format.KindInt8) })
}

func TestStringVariantBuilder_FailureRollsBack(t *testing.T) {
	buf := make([]byte, 3)
	b := NewStringVariantBuilder(format.KindString32)
	require.NoError(t, b.Wrap(buf, 0, len(buf)))

	require.ErrorIs(t, b.Set("abc"), errs.ErrOutOfBounds)
	require.Equal(t, 0, b.Limit())

	require.NoError(t, b.Set("a"))
	limit, err := b.Finish()
	require.NoError(t, err)
	require.Equal(t, 3, limit)
}

const (
	kindFlag  format.Kind = 0x01
	kindName  format.Kind = 0x31
	kindCount format.Kind = 0x14
)

func testUnion(t *testing.T) *Union {
	t.Helper()

	u, err := NewUnion(
		Case{Kind: kindFlag},
		Case{Kind: kindName, Type: String8()},
		Case{Kind: kindCount, Type: Int32()},
	)
	require.NoError(t, err)

	return u
}

func TestNewUnion_Validation(t *testing.T) {
	_, err := NewUnion(Case{Kind: 0x01}, Case{Kind: 0x01, Type: Int8()})
	require.ErrorIs(t, err, errs.ErrInvalidValue)

	_, err = NewUnion(Case{Kind: format.KindMissing})
	require.ErrorIs(t, err, errs.ErrInvalidValue)

	u := testUnion(t)
	require.Equal(t, []format.Kind{kindFlag, kindName, kindCount}, u.Kinds())
	require.True(t, u.Has(kindName))
	require.False(t, u.Has(0x02))
}

func TestVariant_RoundTrip(t *testing.T) {
	codec := Variant(testUnion(t))

	t.Run("string payload", func(t *testing.T) {
		got, err := Encode(codec.NewBuilder(), func(b *VariantBuilder) error {
			return SetAs(b, kindName, setString("bob"))
		})
		require.NoError(t, err)
		require.Equal(t, []byte{0x31, 0x03, 'b', 'o', 'b'}, got)

		v := codec.NewView()
		require.NoError(t, v.Wrap(got, 0, len(got)))
		require.Equal(t, kindName, v.Kind())

		sv, err := ValueAs[*StringView](v)
		require.NoError(t, err)
		require.Equal(t, "bob", sv.String())

		_, err = ValueAs[*IntView[int32]](v)
		require.ErrorIs(t, err, errs.ErrTypeMismatch)
	})

	t.Run("payload-less kind", func(t *testing.T) {
		got, err := Encode(codec.NewBuilder(), func(b *VariantBuilder) error {
			return b.Set(kindFlag, nil)
		})
		require.NoError(t, err)
		require.Equal(t, []byte{0x01}, got)

		v := codec.NewView()
		require.NoError(t, v.Wrap(got, 0, len(got)))
		require.Nil(t, v.Value())
		require.Equal(t, 1, v.Limit())
	})

	t.Run("typed setter mismatch", func(t *testing.T) {
		buf := make([]byte, 16)
		b := codec.NewBuilder()
		require.NoError(t, b.Wrap(buf, 0, len(buf)))

		err := SetAs(b, kindCount, setString("nope"))
		require.ErrorIs(t, err, errs.ErrTypeMismatch)
		require.Equal(t, 0, b.Limit())

		require.ErrorIs(t, b.Set(0x7F, nil), errs.ErrInvalidValue)

		require.NoError(t, SetAs(b, kindCount, func(ib *IntBuilder[int32]) error { return ib.Set(-5) }))
		v, err := b.Build()
		require.NoError(t, err)
		iv, err := ValueAs[*IntView[int32]](v)
		require.NoError(t, err)
		require.Equal(t, int32(-5), iv.Value())
	})

	t.Run("unknown kind", func(t *testing.T) {
		v := codec.NewView()
		require.ErrorIs(t, v.Wrap([]byte{0x02, 0x00}, 0, 2), errs.ErrUnknownKind)
		require.ErrorIs(t, v.Wrap([]byte{0x14, 0x00}, 0, 2), errs.ErrMalformed)
	})
}

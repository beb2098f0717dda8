package format

import "math"

type (
	Width           uint8
	Kind            uint8
	CompressionType uint8
)

// Header and length prefix widths. The value is the encoded size in bytes.
const (
	Width8  Width = 1 // Width8 is a one-byte unsigned prefix.
	Width16 Width = 2 // Width16 is a two-byte unsigned prefix.
	Width32 Width = 4 // Width32 is a four-byte unsigned prefix.
	Width64 Width = 8 // Width64 is only valid for bitmasks.
)

// Variant kind tags. The low nibble of a numeric or string kind is the
// byte width of its payload or length prefix.
const (
	KindZero Kind = 0x00 // KindZero is the payload-less integer 0.
	KindOne  Kind = 0x01 // KindOne is the payload-less integer 1.

	KindInt8  Kind = 0x11 // KindInt8 carries a signed 8-bit payload.
	KindInt16 Kind = 0x12 // KindInt16 carries a signed 16-bit payload.
	KindInt32 Kind = 0x14 // KindInt32 carries a signed 32-bit payload.
	KindInt64 Kind = 0x18 // KindInt64 carries a signed 64-bit payload.

	KindUint8  Kind = 0x21 // KindUint8 carries an unsigned 8-bit payload.
	KindUint16 Kind = 0x22 // KindUint16 carries an unsigned 16-bit payload.
	KindUint32 Kind = 0x24 // KindUint32 carries an unsigned 32-bit payload.
	KindUint64 Kind = 0x28 // KindUint64 carries an unsigned 64-bit payload.

	KindString8  Kind = 0x31 // KindString8 carries a string with an 8-bit length.
	KindString16 Kind = 0x32 // KindString16 carries a string with a 16-bit length.
	KindString32 Kind = 0x34 // KindString32 carries a string with a 32-bit length.

	// KindMissing is the placeholder byte of a skipped field in a
	// default-null list. It is never a valid variant kind.
	KindMissing Kind = 0x40
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// Size returns the encoded size of the width in bytes.
func (w Width) Size() int {
	return int(w)
}

// Bits returns the encoded size of the width in bits.
func (w Width) Bits() int {
	return int(w) * 8
}

// Max returns the largest unsigned value representable in the width.
func (w Width) Max() uint64 {
	switch w {
	case Width8:
		return math.MaxUint8
	case Width16:
		return math.MaxUint16
	case Width32:
		return math.MaxUint32
	case Width64:
		return math.MaxUint64
	default:
		return 0
	}
}

// IsLengthWidth reports whether w may prefix a string, array, list or map.
func (w Width) IsLengthWidth() bool {
	return w == Width8 || w == Width16 || w == Width32
}

func (w Width) String() string {
	switch w {
	case Width8:
		return "8"
	case Width16:
		return "16"
	case Width32:
		return "32"
	case Width64:
		return "64"
	default:
		return "Unknown"
	}
}

// WidthForLength returns the narrowest length width able to carry a byte
// length of n. The all-ones value of each width is the null sentinel, so n
// must be strictly below it. It returns false when n does not fit Width32.
func WidthForLength(n int) (Width, bool) {
	switch {
	case n < 0:
		return 0, false
	case uint64(n) < Width8.Max():
		return Width8, true
	case uint64(n) < Width16.Max():
		return Width16, true
	case uint64(n) < Width32.Max():
		return Width32, true
	default:
		return 0, false
	}
}

// MaskWidthFor returns the narrowest bitmask width with at least n bits.
func MaskWidthFor(n int) (Width, bool) {
	switch {
	case n < 0:
		return 0, false
	case n <= 8:
		return Width8, true
	case n <= 16:
		return Width16, true
	case n <= 32:
		return Width32, true
	case n <= 64:
		return Width64, true
	default:
		return 0, false
	}
}

// PayloadSize returns the payload width of a numeric kind in bytes, or the
// length prefix width of a string kind. Payload-less kinds return 0.
func (k Kind) PayloadSize() int {
	switch k {
	case KindZero, KindOne, KindMissing:
		return 0
	default:
		return int(k & 0x0F)
	}
}

// IsInt reports whether k belongs to the signed integer family.
func (k Kind) IsInt() bool {
	return k == KindZero || k == KindOne || k&0xF0 == 0x10
}

// IsUint reports whether k belongs to the unsigned integer family.
func (k Kind) IsUint() bool {
	return k == KindZero || k == KindOne || k&0xF0 == 0x20
}

// IsString reports whether k belongs to the string family.
func (k Kind) IsString() bool {
	return k&0xF0 == 0x30
}

func (k Kind) String() string {
	switch k {
	case KindZero:
		return "Zero"
	case KindOne:
		return "One"
	case KindInt8:
		return "Int8"
	case KindInt16:
		return "Int16"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindUint8:
		return "Uint8"
	case KindUint16:
		return "Uint16"
	case KindUint32:
		return "Uint32"
	case KindUint64:
		return "Uint64"
	case KindString8:
		return "String8"
	case KindString16:
		return "String16"
	case KindString32:
		return "String32"
	case KindMissing:
		return "Missing"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompression maps a case-sensitive lowercase name to a compression type.
func ParseCompression(name string) (CompressionType, bool) {
	switch name {
	case "none", "":
		return CompressionNone, true
	case "zstd":
		return CompressionZstd, true
	case "s2":
		return CompressionS2, true
	case "lz4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}

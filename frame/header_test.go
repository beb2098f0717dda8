package frame

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/flyweight/endian"
	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/format"
)

func sampleHeader() Header {
	h := NewHeader(0x0102030405060708)
	h.Compression = format.CompressionS2
	h.RawLen = 100
	h.StoredLen = 60
	h.Checksum = 0x1122334455667788
	h.RecordCount = 7

	return h
}

func TestNewHeader(t *testing.T) {
	h := NewHeader(42)

	require.Equal(t, uint16(MagicFrameV1Opt), h.Magic())
	require.False(t, h.IsBigEndian())
	require.Equal(t, format.CompressionNone, h.Compression)
	require.Equal(t, uint64(42), h.SchemaID)
	require.NoError(t, h.Validate())
}

func TestHeader_Layout(t *testing.T) {
	b := sampleHeader().Bytes()
	require.Len(t, b, HeaderSize)

	require.Equal(t, []byte{0x70, 0xF1}, b[0:2])
	require.Equal(t, byte(format.CompressionS2), b[2])
	require.Zero(t, b[3])
	require.Equal(t, uint64(0x0102030405060708), binary.LittleEndian.Uint64(b[4:12]))
	require.Equal(t, uint32(100), binary.LittleEndian.Uint32(b[12:16]))
	require.Equal(t, uint32(60), binary.LittleEndian.Uint32(b[16:20]))
	require.Equal(t, uint64(0x1122334455667788), binary.LittleEndian.Uint64(b[20:28]))
	require.Equal(t, uint32(7), binary.LittleEndian.Uint32(b[28:32]))
}

func TestHeader_BigEndian(t *testing.T) {
	h := sampleHeader()
	h.SetEngine(endian.GetBigEndianEngine())
	require.True(t, h.IsBigEndian())
	require.True(t, endian.IsBigEndian(h.Engine()))

	b := h.Bytes()
	// Options stay little-endian, the endianness bit is bit 1.
	require.Equal(t, []byte{0x72, 0xF1}, b[0:2])
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, b[4:12])

	got, err := ParseHeader(b)
	require.NoError(t, err)
	require.Equal(t, h, got)

	h.SetEngine(endian.GetLittleEndianEngine())
	require.False(t, h.IsBigEndian())
}

func TestParseHeader_RoundTrip(t *testing.T) {
	h := sampleHeader()

	got, err := ParseHeader(h.Bytes())
	require.NoError(t, err)
	require.Equal(t, h, got)
}

func TestParseHeader_Errors(t *testing.T) {
	valid := sampleHeader().Bytes()

	tests := []struct {
		name   string
		mutate func(b []byte) []byte
		err    error
	}{
		{"too short", func(b []byte) []byte { return b[:HeaderSize-1] }, errs.ErrInvalidHeaderSize},
		{"bad magic", func(b []byte) []byte { b[1] = 0xEA; return b }, errs.ErrInvalidMagicNumber},
		{"reserved bit", func(b []byte) []byte { b[0] |= 0x01; return b }, errs.ErrInvalidHeaderFlags},
		{"reserved byte", func(b []byte) []byte { b[3] = 1; return b }, errs.ErrInvalidHeaderFlags},
		{"unknown compression", func(b []byte) []byte { b[2] = 0x09; return b }, errs.ErrInvalidHeaderFlags},
		{"uncompressed size mismatch", func(b []byte) []byte { b[2] = byte(format.CompressionNone); return b }, errs.ErrMalformed},
		{"more records than bytes", func(b []byte) []byte { binary.LittleEndian.PutUint32(b[28:32], 101); return b }, errs.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.mutate(append([]byte(nil), valid...))
			_, err := ParseHeader(b)
			require.ErrorIs(t, err, tt.err)
			require.True(t, errs.IsDecode(err))
		})
	}
}

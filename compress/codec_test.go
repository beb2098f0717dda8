package compress

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/arloliu/flyweight/format"
	"github.com/stretchr/testify/require"
)

var allTypes = []format.CompressionType{
	format.CompressionNone,
	format.CompressionZstd,
	format.CompressionS2,
	format.CompressionLZ4,
}

func payloads() map[string][]byte {
	rng := rand.New(rand.NewPCG(7, 11))
	random := make([]byte, 4096)
	for i := range random {
		random[i] = byte(rng.UintN(256))
	}

	return map[string][]byte{
		"single":     {0x42},
		"repetitive": bytes.Repeat([]byte("flyweight record "), 512),
		"random":     random,
		"records":    bytes.Repeat([]byte{0x05, 0x00, 0x68, 0x65, 0x6c, 0x6c, 0x6f, 0x21, 0x2a}, 300),
	}
}

func TestCodecRoundTrip(t *testing.T) {
	for _, ct := range allTypes {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		for name, data := range payloads() {
			t.Run(ct.String()+"/"+name, func(t *testing.T) {
				stored, err := codec.Compress(data)
				require.NoError(t, err)

				got, err := codec.Decompress(stored)
				require.NoError(t, err)
				require.Equal(t, data, got)
			})
		}
	}
}

func TestCodecEmpty(t *testing.T) {
	for _, ct := range allTypes[1:] {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			stored, err := codec.Compress(nil)
			require.NoError(t, err)
			require.Empty(t, stored)

			got, err := codec.Decompress(nil)
			require.NoError(t, err)
			require.Empty(t, got)
		})
	}
}

func TestNoOpAliasesInput(t *testing.T) {
	data := []byte{1, 2, 3}
	out, err := NewNoOpCompressor().Compress(data)
	require.NoError(t, err)
	require.Same(t, &data[0], &out[0])
}

func TestCodecCorruptInput(t *testing.T) {
	garbage := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01, 0x02}

	_, err := NewZstdCompressor().Decompress(garbage)
	require.Error(t, err)

	_, err = NewS2Compressor().Decompress(garbage)
	require.Error(t, err)
}

func TestLZ4GrowsOutputBuffer(t *testing.T) {
	// Highly repetitive input compresses far beyond the initial 4x guess.
	data := bytes.Repeat([]byte{0}, 1<<16)
	codec := NewLZ4Compressor()

	stored, err := codec.Compress(data)
	require.NoError(t, err)
	require.Less(t, len(stored)*4, len(data))

	got, err := codec.Decompress(stored)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestGetCodecUnknown(t *testing.T) {
	_, err := GetCodec(format.CompressionType(0x7f))
	require.Error(t, err)
}

func TestMeasure(t *testing.T) {
	data := bytes.Repeat([]byte("abcd"), 1024)

	stats, err := Measure(format.CompressionS2, data)
	require.NoError(t, err)
	require.Equal(t, format.CompressionS2, stats.Algorithm)
	require.Equal(t, len(data), stats.OriginalSize)
	require.Less(t, stats.Ratio(), 0.5)
	require.Greater(t, stats.SpaceSavings(), 50.0)

	stats, err = Measure(format.CompressionNone, data)
	require.NoError(t, err)
	require.InDelta(t, 1.0, stats.Ratio(), 1e-9)

	require.Zero(t, Stats{}.Ratio())

	_, err = Measure(format.CompressionType(0), data)
	require.Error(t, err)
}

func TestDecompressBounded(t *testing.T) {
	data := bytes.Repeat([]byte("flyweight "), 10000)

	for _, ct := range allTypes {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)
			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			got, err := codec.DecompressBounded(compressed, len(data))
			require.NoError(t, err)
			require.Equal(t, data, got)

			_, err = codec.DecompressBounded(compressed, len(data)-1)
			require.ErrorIs(t, err, ErrSizeExceeded)
		})
	}
}

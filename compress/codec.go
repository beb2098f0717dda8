package compress

import (
	"errors"
	"fmt"

	"github.com/arloliu/flyweight/format"
)

// Compressor compresses a frame payload.
//
// The returned slice is owned by the caller and the input is never modified,
// except for the no-op codec which returns its input as is.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor of the same algorithm.
//
// It returns an error when the data is corrupted or was produced by another
// algorithm.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// ErrSizeExceeded is returned when decompressed data would exceed the
// caller's limit.
var ErrSizeExceeded = errors.New("decompressed size exceeds limit")

// BoundedDecompressor decompresses without producing more than maxSize
// bytes. Memory use is bounded by maxSize, not by what the input claims.
type BoundedDecompressor interface {
	DecompressBounded(data []byte, maxSize int) ([]byte, error)
}

// Codec combines both directions. All builtin codecs are safe for
// concurrent use.
type Codec interface {
	Compressor
	Decompressor
	BoundedDecompressor
}

// Stats describes the effect of compressing one payload.
type Stats struct {
	Algorithm      format.CompressionType
	OriginalSize   int
	CompressedSize int
}

// Ratio returns CompressedSize / OriginalSize, or 0 for an empty payload.
func (s Stats) Ratio() float64 {
	if s.OriginalSize == 0 {
		return 0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the saved space as a percentage.
func (s Stats) SpaceSavings() float64 {
	return (1 - s.Ratio()) * 100
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec returns the shared builtin codec for a compression type.
//
// Parameters:
//   - compressionType: One of the format.Compression* constants
//
// Returns:
//   - Codec: Shared codec, safe for concurrent use
//   - error: Error if the compression type is unknown
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}

// Measure compresses data with the builtin codec and reports the sizes.
//
// Parameters:
//   - compressionType: Compression algorithm to measure
//   - data: Uncompressed payload
//
// Returns:
//   - Stats: Original and compressed sizes
//   - error: Error if the type is unknown or compression fails
func Measure(compressionType format.CompressionType, data []byte) (Stats, error) {
	codec, err := GetCodec(compressionType)
	if err != nil {
		return Stats{}, err
	}
	out, err := codec.Compress(data)
	if err != nil {
		return Stats{}, err
	}

	return Stats{Algorithm: compressionType, OriginalSize: len(data), CompressedSize: len(out)}, nil
}

func checkDecodedSize(n, maxSize int) error {
	if n > maxSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrSizeExceeded, n, maxSize)
	}

	return nil
}

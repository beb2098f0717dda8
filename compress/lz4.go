package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
)

var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// lz4MaxDecoded caps the output buffer while guessing the decoded size.
const lz4MaxDecoded = 128 << 20

// LZ4Compressor is the LZ4 block codec.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates an LZ4 codec.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress encodes data as one LZ4 block using a pooled compressor.
//
// Parameters:
//   - data: Input data to compress
//
// Returns:
//   - []byte: Compressed data (nil if input is empty)
//   - error: Compression error if any
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

// Decompress decodes one LZ4 block.
//
// LZ4 blocks do not record their decoded size, so the output buffer starts
// at four times the input and doubles on a short buffer up to 128MB.
//
// Parameters:
//   - data: LZ4 compressed block
//
// Returns:
//   - []byte: Decompressed data (nil if input is empty)
//   - error: Decompression error if the block is corrupted or decodes past 128MB
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	return c.DecompressBounded(data, lz4MaxDecoded)
}

// DecompressBounded decodes one LZ4 block into at most maxSize bytes. The
// output buffer grows the same way as in Decompress but stops at maxSize.
//
// Parameters:
//   - data: LZ4 compressed block
//   - maxSize: Largest acceptable decoded size in bytes
//
// Returns:
//   - []byte: Decompressed data (nil if input is empty)
//   - error: ErrSizeExceeded if the block decodes past maxSize, or a decode error
func (c LZ4Compressor) DecompressBounded(data []byte, maxSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	size := min(len(data)*4, maxSize)
	for {
		buf := make([]byte, size)
		n, err := lz4.UncompressBlock(data, buf)
		if err == nil {
			return buf[:n], nil
		}
		if !errors.Is(err, lz4.ErrInvalidSourceShortBuffer) {
			return nil, err
		}
		if size >= maxSize {
			return nil, fmt.Errorf("%w: %w", ErrSizeExceeded, err)
		}
		size = min(size*2, maxSize)
	}
}

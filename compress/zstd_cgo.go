//go:build cgozstd

package compress

import (
	"bytes"

	"github.com/valyala/gozstd"
)

const zstdLevel = 3

// Compress encodes data as one zstd frame with libzstd.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.CompressLevel(nil, data, zstdLevel), nil
}

// Decompress decodes one zstd frame with libzstd.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.Decompress(nil, data)
}

// DecompressBounded streams one zstd frame through libzstd and stops once
// the output passes maxSize.
func (c ZstdCompressor) DecompressBounded(data []byte, maxSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	zr := gozstd.NewReader(bytes.NewReader(data))
	defer zr.Release()

	return readBounded(zr, maxSize)
}

package compress

import (
	"fmt"
	"io"
)

// ZstdCompressor is the Zstandard codec, the best ratio of the builtin
// codecs. The backend is pure Go unless built with the cgozstd tag.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a Zstandard codec at the default level.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}

// readBounded reads r to the end, failing once more than maxSize bytes come
// out. The buffer grows with the data actually decoded.
func readBounded(r io.Reader, maxSize int) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, int64(maxSize)+1))
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}
	if err := checkDecodedSize(len(out), maxSize); err != nil {
		return nil, err
	}

	return out, nil
}

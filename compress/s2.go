package compress

import "github.com/klauspost/compress/s2"

// S2Compressor is the fast block codec for small frames.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates an S2 codec.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress encodes data as one S2 block.
//
// Parameters:
//   - data: Input data to compress
//
// Returns:
//   - []byte: Compressed data (nil if input is empty)
//   - error: Always nil
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress decodes one S2 block.
//
// Parameters:
//   - data: S2 compressed block
//
// Returns:
//   - []byte: Decompressed data (nil if input is empty)
//   - error: Decompression error if the block is corrupted
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, data)
}

// DecompressBounded decodes one S2 block after checking its declared length
// against maxSize.
func (c S2Compressor) DecompressBounded(data []byte, maxSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, err
	}
	if err := checkDecodedSize(n, maxSize); err != nil {
		return nil, err
	}

	return s2.Decode(nil, data)
}

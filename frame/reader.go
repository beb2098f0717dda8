package frame

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/arloliu/flyweight/compress"
	"github.com/arloliu/flyweight/endian"
	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/fw"
	"github.com/arloliu/flyweight/internal/hash"
)

// Frame is a decoded frame: a verified header and the uncompressed payload.
type Frame struct {
	Header  Header
	payload []byte
}

// Decode verifies and decompresses one encoded frame.
//
// The checksum is verified before decompression. data must hold exactly one
// frame. The payload of an uncompressed frame aliases data.
//
// Parameters:
//   - data: One encoded frame, header included
//
// Returns:
//   - *Frame: Verified frame with its uncompressed payload
//   - error: Decode error (errs.IsDecode) or errs.ErrChecksumMismatch
func Decode(data []byte) (*Frame, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	stored := data[HeaderSize:]
	if uint64(len(stored)) != uint64(h.StoredLen) {
		return nil, fmt.Errorf("%w: stored payload is %d bytes, header says %d", errs.ErrMalformed, len(stored), h.StoredLen)
	}
	if sum := hash.Checksum(stored); sum != h.Checksum {
		return nil, fmt.Errorf("%w: got %#016x, want %#016x", errs.ErrChecksumMismatch, sum, h.Checksum)
	}

	codec, err := compress.GetCodec(h.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrMalformed, err)
	}
	payload, err := codec.DecompressBounded(stored, int(min(h.RawLen, maxPayloadSize)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrMalformed, err)
	}
	if uint64(len(payload)) != uint64(h.RawLen) {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", errs.ErrMalformed, len(payload), h.RawLen)
	}

	Logger().Debug("frame decoded",
		zap.Uint64("schema_id", h.SchemaID),
		zap.Uint32("records", h.RecordCount),
		zap.Stringer("compression", h.Compression),
	)

	return &Frame{Header: h, payload: payload}, nil
}

// Payload returns the uncompressed record bytes.
func (f *Frame) Payload() []byte {
	return f.payload
}

// Len returns the number of records declared by the header.
func (f *Frame) Len() int {
	return int(f.Header.RecordCount)
}

// Engine returns the byte order of the records.
func (f *Frame) Engine() endian.EndianEngine {
	return f.Header.Engine()
}

// Each wraps v over every record in order and calls fn with it. The same
// view is reused for every record, so fn must not retain it.
//
// Each fails with an error wrapping errs.ErrMalformed when a record does not
// wrap, when a record is empty, or when the records do not cover the payload
// exactly as many times as the header declares. An error from fn stops the
// walk and is returned as is.
func Each[V fw.View](f *Frame, v V, fn func(i int, v V) error) error {
	offset, n := 0, f.Len()
	if n > len(f.payload) {
		return fmt.Errorf("%w: %d records in a %d byte payload", errs.ErrMalformed, n, len(f.payload))
	}
	for i := range n {
		if err := v.Wrap(f.payload, offset, len(f.payload)); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if v.Sizeof() == 0 {
			return fmt.Errorf("%w: record %d is empty", errs.ErrMalformed, i)
		}
		offset = v.Limit()
		if fn != nil {
			if err := fn(i, v); err != nil {
				return err
			}
		}
	}
	if offset != len(f.payload) {
		return fmt.Errorf("%w: %d trailing payload bytes after %d records", errs.ErrMalformed, len(f.payload)-offset, n)
	}

	return nil
}

// Offsets returns the start offset of each record, walking the payload
// with v.
func Offsets[V fw.View](f *Frame, v V) ([]int, error) {
	offsets := make([]int, 0, min(f.Len(), len(f.payload)))
	err := Each(f, v, func(_ int, v V) error {
		offsets = append(offsets, v.Offset())
		return nil
	})
	if err != nil {
		return nil, err
	}

	return offsets, nil
}

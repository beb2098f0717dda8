package frame

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/arloliu/flyweight/compress"
	"github.com/arloliu/flyweight/endian"
	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/format"
	"github.com/arloliu/flyweight/fw"
	"github.com/arloliu/flyweight/internal/hash"
	"github.com/arloliu/flyweight/internal/options"
	"github.com/arloliu/flyweight/internal/pool"
)

// maxPayloadSize bounds the raw and stored payload of a frame.
const maxPayloadSize = math.MaxInt32

type writerConfig struct {
	compression   format.CompressionType
	engine        endian.EndianEngine
	maxRecordSize int
}

// WriterOption configures a Writer.
type WriterOption = options.Option[*writerConfig]

// WithCompression selects the payload compression. The default is none.
func WithCompression(compression format.CompressionType) WriterOption {
	return options.New(func(c *writerConfig) error {
		if _, err := compress.GetCodec(compression); err != nil {
			return fmt.Errorf("%w: %w", errs.ErrInvalidValue, err)
		}
		c.compression = compression

		return nil
	})
}

// WithLittleEndian records little-endian byte order in the header. It is the
// default.
func WithLittleEndian() WriterOption {
	return options.NoError(func(c *writerConfig) {
		c.engine = endian.GetLittleEndianEngine()
	})
}

// WithBigEndian records big-endian byte order in the header.
func WithBigEndian() WriterOption {
	return options.NoError(func(c *writerConfig) {
		c.engine = endian.GetBigEndianEngine()
	})
}

// WithMaxRecordSize bounds the encoded size of a single record. Zero means
// no bound beyond the frame limit.
func WithMaxRecordSize(n int) WriterOption {
	return options.New(func(c *writerConfig) error {
		if n < 0 {
			return fmt.Errorf("%w: max record size %d", errs.ErrInvalidValue, n)
		}
		c.maxRecordSize = n

		return nil
	})
}

// Writer accumulates records of one schema into a frame.
//
// Records are encoded in place into a pooled buffer. Builders passed to
// Append must be configured with the same byte order as the writer, see
// Engine. A Writer is not safe for concurrent use.
type Writer struct {
	header Header
	cfg    writerConfig
	buf    *pool.ByteBuffer
	done   bool
}

// NewWriter creates a writer for records of schemaID.
//
// Parameters:
//   - schemaID: Schema id recorded in the header, see internal/hash
//   - opts: Writer options (compression, byte order, max record size)
//
// Returns:
//   - *Writer: Writer ready for Append
//   - error: Error wrapping errs.ErrInvalidValue if an option is invalid
func NewWriter(schemaID uint64, opts ...WriterOption) (*Writer, error) {
	cfg := writerConfig{
		compression: format.CompressionNone,
		engine:      endian.GetLittleEndianEngine(),
	}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	w := &Writer{cfg: cfg}
	w.Reset(schemaID)

	return w, nil
}

// Reset discards the pending records and starts a new frame for schemaID
// with the same options.
func (w *Writer) Reset(schemaID uint64) {
	w.header = NewHeader(schemaID)
	w.header.Compression = w.cfg.compression
	w.header.SetEngine(w.cfg.engine)
	if w.buf == nil {
		w.buf = pool.GetFrameBuffer()
	}
	w.buf.Reset()
	w.done = false
}

// Engine returns the byte order records must be encoded with.
func (w *Writer) Engine() endian.EndianEngine {
	return w.cfg.engine
}

// Len returns the number of records appended so far.
func (w *Writer) Len() int {
	return int(w.header.RecordCount)
}

// Size returns the uncompressed payload size so far.
func (w *Writer) Size() int {
	if w.buf == nil {
		return int(w.header.RawLen)
	}

	return w.buf.Len()
}

// Append encodes one record with b and returns its encoded size.
//
// b is wrapped over the spare capacity of the frame buffer and fn fills it.
// When the region is too small the buffer grows and the record is encoded
// again from scratch, so fn must be repeatable. A failed record leaves the
// frame unchanged.
//
// Parameters:
//   - w: Writer to append to
//   - b: Builder of the record type, configured with w.Engine()
//   - fn: Fills the wrapped builder; called again after every buffer growth
//
// Returns:
//   - int: Encoded size of the record in bytes
//   - error: errs.ErrFrameFinished, errs.ErrRecordTooLarge, or the error from fn or Finish
func Append[B fw.Builder](w *Writer, b B, fn func(B) error) (int, error) {
	if w.done {
		return 0, errs.ErrFrameFinished
	}

	start := w.buf.Len()
	for {
		limit := min(w.buf.Cap(), start+maxPayloadSize)
		if w.cfg.maxRecordSize > 0 {
			limit = min(limit, start+w.cfg.maxRecordSize)
		}

		end, err := appendRecord(b, w.buf.Slice(0, w.buf.Cap()), start, limit, fn)
		if err == nil {
			if end == start {
				return 0, fmt.Errorf("%w: empty record", errs.ErrInvalidValue)
			}
			w.buf.SetLength(end)
			w.header.RecordCount++

			return end - start, nil
		}
		if !errors.Is(err, errs.ErrOutOfBounds) {
			return 0, err
		}
		if limit < w.buf.Cap() || limit-start >= maxPayloadSize {
			return 0, fmt.Errorf("%w: record %d: %w", errs.ErrRecordTooLarge, w.header.RecordCount, err)
		}

		w.buf.Grow(max(w.buf.Cap()-start, pool.FrameBufferDefaultSize) * 2)
		Logger().Debug("frame buffer grown",
			zap.Int("record", int(w.header.RecordCount)),
			zap.Int("capacity", w.buf.Cap()),
		)
	}
}

func appendRecord[B fw.Builder](b B, buf []byte, start, limit int, fn func(B) error) (int, error) {
	if err := b.Wrap(buf, start, limit); err != nil {
		return 0, err
	}
	if fn != nil {
		if err := fn(b); err != nil {
			return 0, err
		}
	}

	return b.Finish()
}

// Finish compresses the payload, completes the header and returns the
// encoded frame. The frame buffer goes back to the pool and the writer
// rejects further records until Reset.
//
// Returns:
//   - []byte: Header followed by the stored payload, owned by the caller
//   - error: errs.ErrFrameFinished, errs.ErrRecordTooLarge, or a compression error
func (w *Writer) Finish() ([]byte, error) {
	if w.done {
		return nil, errs.ErrFrameFinished
	}

	payload := w.buf.Bytes()
	if len(payload) > maxPayloadSize {
		return nil, fmt.Errorf("%w: payload of %d bytes", errs.ErrRecordTooLarge, len(payload))
	}

	codec, err := compress.GetCodec(w.header.Compression)
	if err != nil {
		return nil, err
	}
	stored, err := codec.Compress(payload)
	if err != nil {
		return nil, fmt.Errorf("compress frame payload: %w", err)
	}
	if len(stored) > maxPayloadSize {
		return nil, fmt.Errorf("%w: compressed payload of %d bytes", errs.ErrRecordTooLarge, len(stored))
	}

	w.header.RawLen = uint32(len(payload)) //nolint:gosec
	w.header.StoredLen = uint32(len(stored)) //nolint:gosec
	w.header.Checksum = hash.Checksum(stored)

	out := make([]byte, 0, HeaderSize+len(stored))
	out = w.header.AppendTo(out)
	out = append(out, stored...)

	Logger().Debug("frame finished",
		zap.Uint64("schema_id", w.header.SchemaID),
		zap.Uint32("records", w.header.RecordCount),
		zap.Uint32("raw_len", w.header.RawLen),
		zap.Uint32("stored_len", w.header.StoredLen),
		zap.Stringer("compression", w.header.Compression),
	)

	pool.PutFrameBuffer(w.buf)
	w.buf = nil
	w.done = true

	return out, nil
}

// Header returns the header of the frame built so far. RawLen, StoredLen
// and Checksum are only set after Finish.
func (w *Writer) Header() Header {
	return w.header
}

package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/flyweight/endian"
	"github.com/arloliu/flyweight/errs"
	"github.com/arloliu/flyweight/format"
)

const (
	HeaderSize = 32 // fixed frame header size in bytes

	EndiannessMask   = 0x0002 // bit 1: 0 little-endian, 1 big-endian
	ReservedBitsMask = 0x000D // bits 0, 2 and 3, must be zero
	MagicNumberMask  = 0xFFF0 // bits 4-15
	MagicFrameV1Opt  = 0xF170 // version 1 frame magic number
)

// Header is the fixed 32-byte prefix of a frame.
//
// Layout, multi-byte fields in the frame byte order except Options, which is
// always little-endian so the byte order can be read first:
//
//	offset  size  field
//	0       2     Options (bit 1 endianness, bits 4-15 magic)
//	2       1     Compression
//	3       1     reserved, zero
//	4       8     SchemaID
//	12      4     RawLen (payload size before compression)
//	16      4     StoredLen (payload size after compression)
//	20      8     Checksum (xxHash64 of the stored payload)
//	28      4     RecordCount
type Header struct {
	Options     uint16
	Compression format.CompressionType
	SchemaID    uint64
	RawLen      uint32
	StoredLen   uint32
	Checksum    uint64
	RecordCount uint32
}

// NewHeader creates a little-endian, uncompressed header for schemaID.
func NewHeader(schemaID uint64) Header {
	return Header{
		Options:     MagicFrameV1Opt,
		Compression: format.CompressionNone,
		SchemaID:    schemaID,
	}
}

// IsBigEndian reports whether the frame is big-endian.
func (h Header) IsBigEndian() bool {
	return h.Options&EndiannessMask != 0
}

// SetEngine records the byte order of engine in the options.
func (h *Header) SetEngine(engine endian.EndianEngine) {
	if endian.IsBigEndian(engine) {
		h.Options |= EndiannessMask
	} else {
		h.Options &^= EndiannessMask
	}
}

// Engine returns the byte order recorded in the options.
func (h Header) Engine() endian.EndianEngine {
	if h.IsBigEndian() {
		return endian.GetBigEndianEngine()
	}

	return endian.GetLittleEndianEngine()
}

// Magic returns the magic number bits of the options.
func (h Header) Magic() uint16 {
	return h.Options & MagicNumberMask
}

// Validate checks the magic number, reserved bits and compression type, and
// that the lengths and record count are consistent. Records are never empty,
// so a frame cannot declare more records than raw payload bytes.
func (h Header) Validate() error {
	if h.Magic() != MagicFrameV1Opt {
		return fmt.Errorf("%w: %#04x", errs.ErrInvalidMagicNumber, h.Magic())
	}
	if h.Options&ReservedBitsMask != 0 {
		return fmt.Errorf("%w: reserved bits %#04x", errs.ErrInvalidHeaderFlags, h.Options&ReservedBitsMask)
	}
	switch h.Compression {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
	default:
		return fmt.Errorf("%w: compression %#02x", errs.ErrInvalidHeaderFlags, uint8(h.Compression))
	}
	if h.Compression == format.CompressionNone && h.RawLen != h.StoredLen {
		return fmt.Errorf("%w: uncompressed payload stores %d of %d bytes", errs.ErrMalformed, h.StoredLen, h.RawLen)
	}
	if h.RecordCount > h.RawLen {
		return fmt.Errorf("%w: %d records in a %d byte payload", errs.ErrMalformed, h.RecordCount, h.RawLen)
	}

	return nil
}

// AppendTo appends the encoded header to dst.
func (h Header) AppendTo(dst []byte) []byte {
	engine := h.Engine()

	dst = binary.LittleEndian.AppendUint16(dst, h.Options)
	dst = append(dst, byte(h.Compression), 0)
	dst = engine.AppendUint64(dst, h.SchemaID)
	dst = engine.AppendUint32(dst, h.RawLen)
	dst = engine.AppendUint32(dst, h.StoredLen)
	dst = engine.AppendUint64(dst, h.Checksum)
	dst = engine.AppendUint32(dst, h.RecordCount)

	return dst
}

// Bytes returns the encoded header.
func (h Header) Bytes() []byte {
	return h.AppendTo(make([]byte, 0, HeaderSize))
}

// ParseHeader decodes and validates the first HeaderSize bytes of data.
//
// Parameters:
//   - data: At least HeaderSize bytes
//
// Returns:
//   - Header: Parsed and validated header
//   - error: errs.ErrInvalidHeaderSize, errs.ErrInvalidMagicNumber, errs.ErrInvalidHeaderFlags or errs.ErrMalformed
func ParseHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < HeaderSize {
		return h, fmt.Errorf("%w: got %d bytes", errs.ErrInvalidHeaderSize, len(data))
	}

	h.Options = binary.LittleEndian.Uint16(data[0:2])
	h.Compression = format.CompressionType(data[2])
	if data[3] != 0 {
		return h, fmt.Errorf("%w: reserved byte %#02x", errs.ErrInvalidHeaderFlags, data[3])
	}

	engine := h.Engine()
	h.SchemaID = engine.Uint64(data[4:12])
	h.RawLen = engine.Uint32(data[12:16])
	h.StoredLen = engine.Uint32(data[16:20])
	h.Checksum = engine.Uint64(data[20:28])
	h.RecordCount = engine.Uint32(data[28:32])

	if err := h.Validate(); err != nil {
		return h, err
	}

	return h, nil
}

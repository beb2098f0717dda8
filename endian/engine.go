// Package endian provides the byte order engines used by flyweight codecs.
//
// Every multi-byte integer of a wire type (length prefixes, counts, bitmasks,
// fixed-width payloads) is read and written through one EndianEngine chosen
// for the whole schema. Little-endian is the default:
//
//	engine := endian.GetLittleEndianEngine()
//	view := fw.NewStringView(format.Width16, fw.WithEngine(engine))
//
// # Thread Safety
//
// All functions and methods in this package are safe for concurrent use.
// The returned EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian from
// the standard library.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness uses a fixed integer value to determine the host's byte order.
func CheckEndianness() binary.ByteOrder {
	// 0x0100 is 256. For a little-endian system, the LSB (0x00) is first.
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host is little-endian.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// CompareNativeEndian reports whether engine matches the host byte order.
func CompareNativeEndian(engine EndianEngine) bool {
	return engine == CheckEndianness()
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// IsBigEndian reports whether engine writes the most significant byte first.
func IsBigEndian(engine EndianEngine) bool {
	return engine == binary.BigEndian
}

// Name returns "little" or "big" for the engine.
func Name(engine EndianEngine) string {
	if IsBigEndian(engine) {
		return "big"
	}

	return "little"
}

// ByName returns the engine for "little" or "big".
func ByName(name string) (EndianEngine, error) {
	switch name {
	case "little", "le", "":
		return GetLittleEndianEngine(), nil
	case "big", "be":
		return GetBigEndianEngine(), nil
	default:
		return nil, fmt.Errorf("unknown byte order: %q", name)
	}
}

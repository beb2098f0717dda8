// Package errs defines the sentinel errors returned by flyweight codecs.
//
// Errors fall into three classes that callers must never conflate:
//
//   - Decode failures (ErrOutOfBounds and its refinements): the bytes do not
//     fit the region. Wrap returns them exactly where TryWrap returns false.
//   - ErrInvalidValue: a setter received a value the field cannot carry.
//   - ErrIllegalState: the builder protocol was violated by the caller.
package errs

import (
	"errors"
	"fmt"
)

// Root errors of each class.
var (
	ErrOutOfBounds  = errors.New("out of bounds")
	ErrInvalidValue = errors.New("invalid value")
	ErrIllegalState = errors.New("illegal builder state")
)

// Decode errors.
var (
	ErrMalformed      = fmt.Errorf("%w: malformed encoding", ErrOutOfBounds)
	ErrVarintOverflow = fmt.Errorf("%w: varint64 exceeds 64 bits", ErrMalformed)
	ErrUnknownKind    = fmt.Errorf("%w: unknown variant kind", ErrMalformed)
)

// Protocol errors.
var (
	ErrNotWrapped           = fmt.Errorf("%w: builder is not wrapped", ErrIllegalState)
	ErrAlreadyBuilt         = fmt.Errorf("%w: builder already built", ErrIllegalState)
	ErrValueNotSet          = fmt.Errorf("%w: value not set", ErrIllegalState)
	ErrValueAlreadySet      = fmt.Errorf("%w: value already set", ErrIllegalState)
	ErrFieldOutOfOrder      = fmt.Errorf("%w: field set out of order", ErrIllegalState)
	ErrFieldAlreadySet      = fmt.Errorf("%w: field already set", ErrIllegalState)
	ErrUnknownField         = fmt.Errorf("%w: unknown field index", ErrIllegalState)
	ErrMissingRequiredField = fmt.Errorf("%w: required field not set", ErrIllegalState)
	ErrFieldAbsent          = fmt.Errorf("%w: field absent without default", ErrIllegalState)
	ErrKeyValueOrder        = fmt.Errorf("%w: key and value must alternate", ErrIllegalState)
	ErrItemCount            = fmt.Errorf("%w: item count mismatch", ErrIllegalState)
	ErrTypeMismatch         = fmt.Errorf("%w: unexpected view or builder type", ErrIllegalState)
)

// Frame errors.
var (
	ErrInvalidHeaderSize  = fmt.Errorf("%w: invalid frame header size", ErrMalformed)
	ErrInvalidMagicNumber = fmt.Errorf("%w: invalid frame magic number", ErrMalformed)
	ErrInvalidHeaderFlags = fmt.Errorf("%w: invalid frame header flags", ErrMalformed)
	ErrChecksumMismatch   = fmt.Errorf("%w: frame checksum mismatch", ErrMalformed)
	ErrRecordTooLarge     = fmt.Errorf("%w: record exceeds maximum size", ErrInvalidValue)
	ErrFrameFinished      = fmt.Errorf("%w: frame writer already finished", ErrIllegalState)
	ErrSchemaMismatch     = fmt.Errorf("%w: frame schema mismatch", ErrInvalidValue)
)

// Registry errors.
var (
	ErrInvalidSchemaName = fmt.Errorf("%w: empty schema name", ErrInvalidValue)
	ErrDuplicateSchema   = fmt.Errorf("%w: schema name already registered", ErrInvalidValue)
	ErrHashCollision     = fmt.Errorf("%w: schema id collision", ErrInvalidValue)
)

// IsDecode reports whether err is a bounds or malformed-input failure.
func IsDecode(err error) bool {
	return errors.Is(err, ErrOutOfBounds)
}

// IsProtocol reports whether err signals a builder protocol violation.
func IsProtocol(err error) bool {
	return errors.Is(err, ErrIllegalState)
}

// IsInvalidValue reports whether err rejects a caller supplied value.
func IsInvalidValue(err error) bool {
	return errors.Is(err, ErrInvalidValue)
}

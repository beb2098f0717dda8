// Package compress provides the payload codecs of flyweight frames.
//
// A frame stores its records as one contiguous payload, which may be
// compressed with one of the builtin algorithms:
//   - None: the payload is stored as is
//   - Zstd: best ratio, moderate speed
//   - S2: fast with a reasonable ratio
//   - LZ4: fastest decompression
//
// Codecs are looked up by format.CompressionType:
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	stored, err := codec.Compress(payload)
//
// # Build tags
//
// Zstd uses github.com/klauspost/compress/zstd by default. Building with
// -tags cgozstd switches to github.com/valyala/gozstd, which requires cgo.
// Both produce standard zstd frames and can read each other's output.
package compress

// Package compression implements the payload compression used inside
// container typed arrays: zstd or LZ4 block compression.
package compression

import (
	"errors"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrIncompressible reports that compression would not shrink the
// payload. Callers should store the raw bytes instead.
var ErrIncompressible = errors.New("payload is incompressible")

// zstd encoders and decoders are safe for concurrent use, so one of
// each is shared across calls.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compression: zstd encoder init failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("compression: zstd decoder init failed: " + err.Error())
	}
}

// Compress shrinks data with the named algorithm. Returns
// ErrIncompressible when the output would be at least as large as the
// input.
func Compress(data []byte, algorithm string) ([]byte, error) {
	switch normalize(algorithm) {
	case "zstd":
		encoded := zstdEncoder.EncodeAll(data, nil)
		if len(encoded) >= len(data) {
			return nil, ErrIncompressible
		}
		return encoded, nil
	case "lz4":
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		written, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		// CompressBlock reports 0 for incompressible input.
		if written == 0 || written >= len(data) {
			return nil, ErrIncompressible
		}
		return dst[:written], nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm %q", algorithm)
	}
}

// Decompress expands data compressed with the named algorithm. size is
// the expected uncompressed length; a mismatch is an error.
func Decompress(encoded []byte, algorithm string, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("invalid uncompressed size %d", size)
	}
	switch normalize(algorithm) {
	case "zstd":
		out, err := zstdDecoder.DecodeAll(encoded, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(out) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(out), size)
		}
		return out, nil
	case "lz4":
		dst := make([]byte, size)
		read, err := lz4.UncompressBlock(encoded, dst)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
		}
		return dst, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm %q", algorithm)
	}
}

// Valid reports whether algorithm names a supported compressor. The
// empty string means no compression and is valid.
func Valid(algorithm string) bool {
	switch normalize(algorithm) {
	case "", "zstd", "lz4":
		return true
	}
	return false
}

func normalize(algorithm string) string {
	return strings.ToLower(strings.TrimSpace(algorithm))
}

package compression

import (
	"fmt"
	"strings"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

const (
	AlgorithmZstd = "zstd"
	AlgorithmS2   = "s2"
)

var (
	zstdDecoder, _ = zstd.NewReader(nil)
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
)

// Decompress expands a typed-array payload. elemSize is the width of one
// array element in bytes; the decoded length must be a multiple of it.
func Decompress(encoded []byte, algorithm string, elemSize int) ([]byte, error) {
	if elemSize <= 0 {
		return nil, fmt.Errorf("invalid element size %d", elemSize)
	}
	if len(encoded) == 0 {
		return []byte{}, nil
	}

	var (
		out []byte
		err error
	)
	switch normalize(algorithm) {
	case AlgorithmZstd:
		out, err = zstdDecoder.DecodeAll(encoded, nil)
	case AlgorithmS2:
		out, err = s2.Decode(nil, encoded)
	default:
		return nil, fmt.Errorf("unsupported compression algorithm %q", algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("%s decompression failed: %w", normalize(algorithm), err)
	}
	if len(out)%elemSize != 0 {
		return nil, fmt.Errorf("decompressed size %d is not a multiple of element size %d", len(out), elemSize)
	}
	return out, nil
}

func Compress(raw []byte, algorithm string) ([]byte, error) {
	switch normalize(algorithm) {
	case AlgorithmZstd:
		return zstdEncoder.EncodeAll(raw, nil), nil
	case AlgorithmS2:
		return s2.Encode(nil, raw), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm %q", algorithm)
	}
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

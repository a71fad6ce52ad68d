package compression

import (
	"bytes"
	"testing"
)

func TestCompressRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte{0, 0, 0x80, 0x3f}, 256)
	for _, alg := range []string{AlgorithmZstd, AlgorithmS2, " ZSTD "} {
		encoded, err := Compress(raw, alg)
		if err != nil {
			t.Fatalf("%s compress: %v", alg, err)
		}
		decoded, err := Decompress(encoded, alg, 4)
		if err != nil {
			t.Fatalf("%s decompress: %v", alg, err)
		}
		if !bytes.Equal(decoded, raw) {
			t.Fatalf("%s round trip mismatch", alg)
		}
	}
}

func TestDecompressRejectsBadInput(t *testing.T) {
	if _, err := Decompress([]byte{1}, "lz4", 1); err == nil {
		t.Fatalf("expected error for unsupported algorithm")
	}
	if _, err := Decompress([]byte{1}, AlgorithmZstd, 0); err == nil {
		t.Fatalf("expected error for zero element size")
	}
	encoded, err := Compress([]byte{1, 2, 3}, AlgorithmS2)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if _, err := Decompress(encoded, AlgorithmS2, 2); err == nil {
		t.Fatalf("expected element size mismatch error")
	}
}

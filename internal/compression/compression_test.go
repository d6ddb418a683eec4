package compression

import (
	"bytes"
	"errors"
	"testing"
)

func TestCompressRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("synthetic depth rows "), 512)
	for _, algorithm := range []string{"zstd", "lz4"} {
		encoded, err := Compress(data, algorithm)
		if err != nil {
			t.Fatalf("%s Compress error: %v", algorithm, err)
		}
		if len(encoded) >= len(data) {
			t.Fatalf("%s did not shrink: %d >= %d", algorithm, len(encoded), len(data))
		}
		decoded, err := Decompress(encoded, algorithm, len(data))
		if err != nil {
			t.Fatalf("%s Decompress error: %v", algorithm, err)
		}
		if !bytes.Equal(decoded, data) {
			t.Fatalf("%s round trip mismatch", algorithm)
		}
	}
}

func TestCompressIncompressible(t *testing.T) {
	data := make([]byte, 512)
	state := uint32(88172645)
	for i := range data {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		data[i] = byte(state)
	}
	if _, err := Compress(data, "lz4"); !errors.Is(err, ErrIncompressible) {
		t.Fatalf("expected ErrIncompressible, got %v", err)
	}
}

func TestCompressUnknownAlgorithm(t *testing.T) {
	if _, err := Compress([]byte("x"), "brotli"); err == nil {
		t.Fatalf("expected error for unknown algorithm")
	}
	if _, err := Decompress([]byte("x"), "brotli", 1); err == nil {
		t.Fatalf("expected error for unknown algorithm")
	}
}

func TestDecompressSizeMismatch(t *testing.T) {
	data := bytes.Repeat([]byte("abcd"), 256)
	encoded, err := Compress(data, "zstd")
	if err != nil {
		t.Fatalf("Compress error: %v", err)
	}
	if _, err := Decompress(encoded, "zstd", len(data)-1); err == nil {
		t.Fatalf("expected size mismatch error")
	}
}

func TestValid(t *testing.T) {
	for _, algorithm := range []string{"", "zstd", "lz4", "LZ4", " zstd "} {
		if !Valid(algorithm) {
			t.Fatalf("expected %q to be valid", algorithm)
		}
	}
	if Valid("gzip") {
		t.Fatalf("expected gzip to be invalid")
	}
}

package container

import (
	"reflect"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	arrays := map[string]*Array{
		"colors": {
			Shape: []int{2, 2, 3},
			DType: Uint8,
			Data:  []uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
		},
		"depth": {
			Shape: []int{2, 2},
			DType: Float32,
			Data:  []float32{0.5, 100, 1.25, 0},
		},
		"normals": {
			Shape: []int{2, 2, 3},
			DType: Float64,
			Data:  []float64{0, 0, 1, 0, 1, 0, 1, 0, 0, -1, 0, 0},
		},
		"labels": {
			Shape: []int{4},
			DType: Int64,
			Data:  []int64{-2, -1, 0, 1},
		},
		"counts": {
			Shape: []int{2},
			DType: Uint16,
			Data:  []uint16{7, 65535},
		},
	}
	c := Container{"frame_index": uint64(3)}
	for name, arr := range arrays {
		c[name] = arr
	}

	payload, err := Encode(c, "")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	got, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	for name, want := range arrays {
		if !reflect.DeepEqual(got[name], want) {
			t.Fatalf("%s mismatch: got %#v want %#v", name, got[name], want)
		}
	}
	if got["frame_index"] != uint64(3) {
		t.Fatalf("frame_index mismatch: got %#v", got["frame_index"])
	}
}

func TestEncodeCompressedShrinks(t *testing.T) {
	flat := make([]uint16, 128*128)
	for i := range flat {
		flat[i] = uint16(i % 7)
	}
	c := Container{
		"depth": &Array{Shape: []int{128, 128}, DType: Uint16, Data: flat},
	}

	raw, err := Encode(c, "")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	for _, algorithm := range []string{"zstd", "lz4"} {
		packed, err := Encode(c, algorithm)
		if err != nil {
			t.Fatalf("%s Encode error: %v", algorithm, err)
		}
		if len(packed) >= len(raw) {
			t.Fatalf("%s payload did not shrink: %d >= %d", algorithm, len(packed), len(raw))
		}
		got, err := Decode(packed)
		if err != nil {
			t.Fatalf("%s Decode error: %v", algorithm, err)
		}
		if !reflect.DeepEqual(got["depth"], c["depth"]) {
			t.Fatalf("%s round trip mismatch", algorithm)
		}
	}
}

func TestEncodeIncompressibleStaysRaw(t *testing.T) {
	// A xorshift fill defeats both compressors, forcing the raw
	// payload fallback.
	flat := make([]uint8, 1024)
	state := uint32(2463534242)
	for i := range flat {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		flat[i] = uint8(state)
	}
	c := Container{
		"noise": &Array{Shape: []int{32, 32}, DType: Uint8, Data: flat},
	}

	packed, err := Encode(c, "lz4")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	got, err := Decode(packed)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if !reflect.DeepEqual(got["noise"], c["noise"]) {
		t.Fatalf("round trip mismatch")
	}
}

func TestEncodeFloat16RoundTrip(t *testing.T) {
	c := Container{
		"half": &Array{Shape: []int{4}, DType: Float16, Data: []float32{0, 1, -2, 0.5}},
	}
	payload, err := Encode(c, "")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	got, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if !reflect.DeepEqual(got["half"], c["half"]) {
		t.Fatalf("half mismatch: got %#v", got["half"])
	}
}

func TestEncodeShapeMismatch(t *testing.T) {
	c := Container{
		"bad": &Array{Shape: []int{2, 2}, DType: Uint8, Data: []uint8{1, 2, 3}},
	}
	if _, err := Encode(c, ""); err == nil {
		t.Fatalf("expected shape mismatch error")
	}
}

func TestEncodeUnknownAlgorithm(t *testing.T) {
	c := Container{
		"depth": &Array{Shape: []int{1}, DType: Uint8, Data: []uint8{1}},
	}
	if _, err := Encode(c, "snappy"); err == nil {
		t.Fatalf("expected unsupported algorithm error")
	}
}

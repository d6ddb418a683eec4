package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/x448/float16"

	"synthpack-go/internal/compression"
)

const (
	tagMultiDim  = 40
	tagUint8     = 64
	tagUint16LE  = 69
	tagUint32LE  = 70
	tagUint64LE  = 71
	tagInt8      = 72
	tagInt16LE   = 77
	tagInt32LE   = 78
	tagInt64LE   = 79
	tagFloat16LE = 84
	tagFloat32LE = 85
	tagFloat64LE = 86

	// tagCompressed wraps a typed-array payload in a compression
	// envelope: [algorithm, uncompressed size, compressed bytes].
	tagCompressed = 56600
)

// Decode parses a CBOR container. Typed-array datasets become *Array
// values; scalars, byte strings and maps pass through as the decoder
// produced them.
func Decode(data []byte) (Container, error) {
	var raw map[string]any
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	c := make(Container, len(raw))
	for name, value := range raw {
		decoded, err := decodeValue(value)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: %w", name, err)
		}
		c[name] = decoded
	}
	return c, nil
}

func decodeValue(value any) (any, error) {
	tag, ok := value.(cbor.Tag)
	if !ok {
		return value, nil
	}
	switch {
	case tag.Number == tagMultiDim:
		return decodeMultiDimArray(tag)
	case isTypedArrayTag(tag.Number):
		flat, dtype, err := decodeTypedArray(tag)
		if err != nil {
			return nil, err
		}
		return &Array{Shape: []int{flatLen(flat)}, DType: dtype, Data: flat}, nil
	default:
		// Unknown tags stay wrapped; the metadata path describes them.
		return value, nil
	}
}

func isTypedArrayTag(number uint64) bool {
	switch number {
	case tagUint8, tagUint16LE, tagUint32LE, tagUint64LE,
		tagInt8, tagInt16LE, tagInt32LE, tagInt64LE,
		tagFloat16LE, tagFloat32LE, tagFloat64LE:
		return true
	}
	return false
}

func decodeMultiDimArray(tag cbor.Tag) (*Array, error) {
	items, ok := tag.Content.([]any)
	if !ok || len(items) != 2 {
		return nil, errors.New("invalid multidim array content")
	}

	dimsRaw, ok := items[0].([]any)
	if !ok || len(dimsRaw) == 0 {
		return nil, errors.New("invalid multidim dimensions")
	}
	dims := make([]int, len(dimsRaw))
	for i, raw := range dimsRaw {
		d, err := toInt(raw)
		if err != nil {
			return nil, err
		}
		if d < 0 {
			return nil, fmt.Errorf("negative dimension %d", d)
		}
		dims[i] = d
	}

	inner, ok := items[1].(cbor.Tag)
	if !ok {
		return nil, errors.New("expected typed array tag")
	}
	flat, dtype, err := decodeTypedArray(inner)
	if err != nil {
		return nil, err
	}

	want := 1
	for _, d := range dims {
		want *= d
	}
	if want != flatLen(flat) {
		return nil, fmt.Errorf("dimension mismatch: %v holds %d elements, payload has %d", dims, want, flatLen(flat))
	}
	return &Array{Shape: dims, DType: dtype, Data: flat}, nil
}

func decodeTypedArray(tag cbor.Tag) (any, DType, error) {
	dataBytes, err := extractBytes(tag)
	if err != nil {
		return nil, 0, err
	}

	var dtype DType
	switch tag.Number {
	case tagUint8:
		dtype = Uint8
	case tagUint16LE:
		dtype = Uint16
	case tagUint32LE:
		dtype = Uint32
	case tagUint64LE:
		dtype = Uint64
	case tagInt8:
		dtype = Int8
	case tagInt16LE:
		dtype = Int16
	case tagInt32LE:
		dtype = Int32
	case tagInt64LE:
		dtype = Int64
	case tagFloat16LE:
		dtype = Float16
	case tagFloat32LE:
		dtype = Float32
	case tagFloat64LE:
		dtype = Float64
	default:
		return nil, 0, fmt.Errorf("unsupported typed array tag %d", tag.Number)
	}
	if len(dataBytes)%dtype.Size() != 0 {
		return nil, 0, fmt.Errorf("%s payload length %d is not a multiple of %d", dtype, len(dataBytes), dtype.Size())
	}

	switch dtype {
	case Uint8:
		return dataBytes, dtype, nil
	case Uint16:
		return bytesToUint16(dataBytes), dtype, nil
	case Uint32:
		return bytesToUint32(dataBytes), dtype, nil
	case Uint64:
		return bytesToUint64(dataBytes), dtype, nil
	case Int8:
		return bytesToInt8(dataBytes), dtype, nil
	case Int16:
		return bytesToInt16(dataBytes), dtype, nil
	case Int32:
		return bytesToInt32(dataBytes), dtype, nil
	case Int64:
		return bytesToInt64(dataBytes), dtype, nil
	case Float16:
		return bytesToFloat16(dataBytes), dtype, nil
	case Float32:
		return bytesToFloat32(dataBytes), dtype, nil
	default:
		return bytesToFloat64(dataBytes), dtype, nil
	}
}

func extractBytes(tag cbor.Tag) ([]byte, error) {
	switch v := tag.Content.(type) {
	case []byte:
		return v, nil
	case cbor.Tag:
		if v.Number != tagCompressed {
			return nil, fmt.Errorf("unsupported nested tag %d", v.Number)
		}
		return decompressPayload(v)
	default:
		return nil, fmt.Errorf("unsupported typed array content %T", v)
	}
}

func decompressPayload(tag cbor.Tag) ([]byte, error) {
	items, ok := tag.Content.([]any)
	if !ok || len(items) != 3 {
		return nil, errors.New("invalid compression envelope")
	}
	algorithm, ok := items[0].(string)
	if !ok {
		return nil, errors.New("invalid compression algorithm")
	}
	size, err := toInt(items[1])
	if err != nil {
		return nil, err
	}
	encoded, ok := items[2].([]byte)
	if !ok {
		return nil, errors.New("invalid compressed payload")
	}
	return compression.Decompress(encoded, algorithm, size)
}

func flatLen(flat any) int {
	switch v := flat.(type) {
	case []uint8:
		return len(v)
	case []int8:
		return len(v)
	case []uint16:
		return len(v)
	case []int16:
		return len(v)
	case []uint32:
		return len(v)
	case []int32:
		return len(v)
	case []uint64:
		return len(v)
	case []int64:
		return len(v)
	case []float32:
		return len(v)
	case []float64:
		return len(v)
	default:
		return 0
	}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case uint32:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("unsupported int type %T", v)
	}
}

func bytesToInt8(data []byte) []int8 {
	out := make([]int8, len(data))
	for i, b := range data {
		out[i] = int8(b)
	}
	return out
}

func bytesToUint16(data []byte) []uint16 {
	out := make([]uint16, len(data)/2)
	for i := 0; i < len(out); i++ {
		out[i] = binary.LittleEndian.Uint16(data[i*2 : i*2+2])
	}
	return out
}

func bytesToInt16(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := 0; i < len(out); i++ {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
	}
	return out
}

func bytesToUint32(data []byte) []uint32 {
	out := make([]uint32, len(data)/4)
	for i := 0; i < len(out); i++ {
		out[i] = binary.LittleEndian.Uint32(data[i*4 : i*4+4])
	}
	return out
}

func bytesToInt32(data []byte) []int32 {
	out := make([]int32, len(data)/4)
	for i := 0; i < len(out); i++ {
		out[i] = int32(binary.LittleEndian.Uint32(data[i*4 : i*4+4]))
	}
	return out
}

func bytesToUint64(data []byte) []uint64 {
	out := make([]uint64, len(data)/8)
	for i := 0; i < len(out); i++ {
		out[i] = binary.LittleEndian.Uint64(data[i*8 : i*8+8])
	}
	return out
}

func bytesToInt64(data []byte) []int64 {
	out := make([]int64, len(data)/8)
	for i := 0; i < len(out); i++ {
		out[i] = int64(binary.LittleEndian.Uint64(data[i*8 : i*8+8]))
	}
	return out
}

func bytesToFloat16(data []byte) []float32 {
	out := make([]float32, len(data)/2)
	for i := 0; i < len(out); i++ {
		bits := binary.LittleEndian.Uint16(data[i*2 : i*2+2])
		out[i] = float16.Frombits(bits).Float32()
	}
	return out
}

func bytesToFloat32(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := 0; i < len(out); i++ {
		bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}
	return out
}

func bytesToFloat64(data []byte) []float64 {
	out := make([]float64, len(data)/8)
	for i := 0; i < len(out); i++ {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		out[i] = math.Float64frombits(bits)
	}
	return out
}

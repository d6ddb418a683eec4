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

// Encode serializes a container to CBOR. Array values become tag 40
// multi-dimensional arrays over little-endian typed payloads; other
// values are marshaled as-is. algorithm selects payload compression
// ("" stores payloads raw). Payloads that do not shrink are stored
// raw regardless.
func Encode(c Container, algorithm string) ([]byte, error) {
	out := make(map[string]any, len(c))
	for name, value := range c {
		arr, ok := value.(*Array)
		if !ok {
			out[name] = value
			continue
		}
		tag, err := encodeArray(arr, algorithm)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: %w", name, err)
		}
		out[name] = tag
	}
	return cbor.Marshal(out)
}

func encodeArray(a *Array, algorithm string) (cbor.Tag, error) {
	raw, typedTag, err := arrayBytes(a)
	if err != nil {
		return cbor.Tag{}, err
	}

	var content any = raw
	if algorithm != "" {
		encoded, err := compression.Compress(raw, algorithm)
		switch {
		case err == nil:
			content = cbor.Tag{
				Number:  tagCompressed,
				Content: []any{algorithm, len(raw), encoded},
			}
		case errors.Is(err, compression.ErrIncompressible):
			// keep the raw payload
		default:
			return cbor.Tag{}, err
		}
	}

	return cbor.Tag{
		Number:  tagMultiDim,
		Content: []any{a.Shape, cbor.Tag{Number: typedTag, Content: content}},
	}, nil
}

// arrayBytes flattens the array to its little-endian wire payload and
// reports the matching typed-array tag.
func arrayBytes(a *Array) ([]byte, uint64, error) {
	if got := flatLen(a.Data); got != a.Len() {
		return nil, 0, fmt.Errorf("shape %v holds %d elements, data has %d", a.Shape, a.Len(), got)
	}

	switch a.DType {
	case Uint8:
		v, ok := a.Data.([]uint8)
		if !ok {
			return nil, 0, typeMismatch(a)
		}
		return v, tagUint8, nil
	case Int8:
		v, ok := a.Data.([]int8)
		if !ok {
			return nil, 0, typeMismatch(a)
		}
		out := make([]byte, len(v))
		for i, n := range v {
			out[i] = byte(n)
		}
		return out, tagInt8, nil
	case Uint16:
		v, ok := a.Data.([]uint16)
		if !ok {
			return nil, 0, typeMismatch(a)
		}
		out := make([]byte, len(v)*2)
		for i, n := range v {
			binary.LittleEndian.PutUint16(out[i*2:], n)
		}
		return out, tagUint16LE, nil
	case Int16:
		v, ok := a.Data.([]int16)
		if !ok {
			return nil, 0, typeMismatch(a)
		}
		out := make([]byte, len(v)*2)
		for i, n := range v {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(n))
		}
		return out, tagInt16LE, nil
	case Uint32:
		v, ok := a.Data.([]uint32)
		if !ok {
			return nil, 0, typeMismatch(a)
		}
		out := make([]byte, len(v)*4)
		for i, n := range v {
			binary.LittleEndian.PutUint32(out[i*4:], n)
		}
		return out, tagUint32LE, nil
	case Int32:
		v, ok := a.Data.([]int32)
		if !ok {
			return nil, 0, typeMismatch(a)
		}
		out := make([]byte, len(v)*4)
		for i, n := range v {
			binary.LittleEndian.PutUint32(out[i*4:], uint32(n))
		}
		return out, tagInt32LE, nil
	case Uint64:
		v, ok := a.Data.([]uint64)
		if !ok {
			return nil, 0, typeMismatch(a)
		}
		out := make([]byte, len(v)*8)
		for i, n := range v {
			binary.LittleEndian.PutUint64(out[i*8:], n)
		}
		return out, tagUint64LE, nil
	case Int64:
		v, ok := a.Data.([]int64)
		if !ok {
			return nil, 0, typeMismatch(a)
		}
		out := make([]byte, len(v)*8)
		for i, n := range v {
			binary.LittleEndian.PutUint64(out[i*8:], uint64(n))
		}
		return out, tagInt64LE, nil
	case Float16:
		v, ok := a.Data.([]float32)
		if !ok {
			return nil, 0, typeMismatch(a)
		}
		out := make([]byte, len(v)*2)
		for i, n := range v {
			binary.LittleEndian.PutUint16(out[i*2:], float16.Fromfloat32(n).Bits())
		}
		return out, tagFloat16LE, nil
	case Float32:
		v, ok := a.Data.([]float32)
		if !ok {
			return nil, 0, typeMismatch(a)
		}
		out := make([]byte, len(v)*4)
		for i, n := range v {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(n))
		}
		return out, tagFloat32LE, nil
	case Float64:
		v, ok := a.Data.([]float64)
		if !ok {
			return nil, 0, typeMismatch(a)
		}
		out := make([]byte, len(v)*8)
		for i, n := range v {
			binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(n))
		}
		return out, tagFloat64LE, nil
	default:
		return nil, 0, fmt.Errorf("unsupported dtype %s", a.DType)
	}
}

func typeMismatch(a *Array) error {
	return fmt.Errorf("dtype %s does not match data %T", a.DType, a.Data)
}

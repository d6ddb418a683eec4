// Package container reads and writes render-output containers: CBOR
// maps from dataset name to value, with multi-dimensional arrays
// carried as RFC 8746 typed arrays.
package container

import (
	"fmt"
	"sort"
	"strings"
)

// DType identifies the element type of an Array as stored on the wire.
type DType uint8

const (
	Uint8 DType = iota
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Uint64
	Int64
	Float16
	Float32
	Float64
)

func (d DType) String() string {
	switch d {
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	case Uint16:
		return "uint16"
	case Int16:
		return "int16"
	case Uint32:
		return "uint32"
	case Int32:
		return "int32"
	case Uint64:
		return "uint64"
	case Int64:
		return "int64"
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("dtype(%d)", d)
	}
}

// Size returns the wire size of one element in bytes.
func (d DType) Size() int {
	switch d {
	case Uint8, Int8:
		return 1
	case Uint16, Int16, Float16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	default:
		return 8
	}
}

// Array is a decoded multi-dimensional dataset. Data holds the flat
// element slice in row-major order; its Go type follows DType, except
// Float16 which is widened to []float32 on decode.
type Array struct {
	Shape []int
	DType DType
	Data  any
}

func (a *Array) Len() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

func (a *Array) NumDims() int { return len(a.Shape) }

func (a *Array) DimSize(i int) int { return a.Shape[i] }

// Float1D returns element i of the flat data widened to float64.
func (a *Array) Float1D(i int) float64 {
	switch v := a.Data.(type) {
	case []uint8:
		return float64(v[i])
	case []int8:
		return float64(v[i])
	case []uint16:
		return float64(v[i])
	case []int16:
		return float64(v[i])
	case []uint32:
		return float64(v[i])
	case []int32:
		return float64(v[i])
	case []uint64:
		return float64(v[i])
	case []int64:
		return float64(v[i])
	case []float32:
		return float64(v[i])
	case []float64:
		return v[i]
	default:
		return 0
	}
}

// element returns element i as a JSON-friendly scalar: int64 or uint64
// for integer dtypes, float64 for float dtypes.
func (a *Array) element(i int) any {
	switch v := a.Data.(type) {
	case []uint8:
		return int64(v[i])
	case []int8:
		return int64(v[i])
	case []uint16:
		return int64(v[i])
	case []int16:
		return int64(v[i])
	case []uint32:
		return int64(v[i])
	case []int32:
		return int64(v[i])
	case []uint64:
		return v[i]
	case []int64:
		return v[i]
	case []float32:
		return float64(v[i])
	case []float64:
		return v[i]
	default:
		return nil
	}
}

// NestedList converts the array to nested []any slices mirroring its
// shape, with scalar leaves.
func (a *Array) NestedList() any {
	if len(a.Shape) == 0 {
		return a.element(0)
	}
	return a.nested(0, 0)
}

func (a *Array) nested(dim, offset int) any {
	n := a.Shape[dim]
	if dim == len(a.Shape)-1 {
		out := make([]any, n)
		for i := 0; i < n; i++ {
			out[i] = a.element(offset + i)
		}
		return out
	}
	stride := 1
	for _, d := range a.Shape[dim+1:] {
		stride *= d
	}
	out := make([]any, n)
	for i := 0; i < n; i++ {
		out[i] = a.nested(dim+1, offset+i*stride)
	}
	return out
}

// String renders a compact descriptor, e.g.
// "Array shape: (512, 512, 3), dtype: uint8". One-dimensional shapes
// keep the trailing comma: "(300,)".
func (a *Array) String() string {
	var shape string
	switch len(a.Shape) {
	case 1:
		shape = fmt.Sprintf("(%d,)", a.Shape[0])
	default:
		parts := make([]string, len(a.Shape))
		for i, d := range a.Shape {
			parts[i] = fmt.Sprintf("%d", d)
		}
		shape = "(" + strings.Join(parts, ", ") + ")"
	}
	return fmt.Sprintf("Array shape: %s, dtype: %s", shape, a.DType)
}

// Container maps dataset names to decoded values: *Array for typed
// arrays, plain Go values for everything else.
type Container map[string]any

// Names returns the dataset names in sorted order.
func (c Container) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

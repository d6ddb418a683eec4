package unpack

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"os"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"

	"synthpack-go/internal/container"
)

// smallArrayLimit is the element count below which arrays are inlined
// into the sidecar as nested lists instead of a shape descriptor.
const smallArrayLimit = 100

// metadataValue converts one dataset value into its sidecar
// representation: small arrays become nested lists, large ones a shape
// descriptor, byte strings decode as UTF-8 where possible, and
// everything else goes through NormalizeJSONValue.
func metadataValue(value any) any {
	switch v := value.(type) {
	case *container.Array:
		if v.Len() < smallArrayLimit {
			return NormalizeJSONValue(v.NestedList())
		}
		return v.String()
	case []byte:
		if utf8.Valid(v) {
			return string(v)
		}
		return fmt.Sprintf("Binary data (%d bytes)", len(v))
	default:
		return NormalizeJSONValue(value)
	}
}

// NormalizeJSONValue rewrites a decoded CBOR value so encoding/json
// can marshal it. Non-string map keys become strings, tags unwrap to
// their content, nested byte strings decode like top-level ones, and
// non-finite floats turn into their string forms. Values with no
// structural conversion fall back to fmt.Sprintf.
func NormalizeJSONValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case bool, string:
		return v
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Sprint(v)
		}
		return v
	case float32:
		return NormalizeJSONValue(float64(v))
	case big.Int:
		return v.String()
	case []byte:
		if utf8.Valid(v) {
			return string(v)
		}
		return fmt.Sprintf("Binary data (%d bytes)", len(v))
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = NormalizeJSONValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = NormalizeJSONValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[keyString(key)] = NormalizeJSONValue(item)
		}
		return out
	case cbor.Tag:
		return NormalizeJSONValue(v.Content)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func keyString(key any) string {
	if s, ok := key.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", key)
}

// writeSidecar writes the metadata document with two-space
// indentation. Keys serialize in sorted order.
func writeSidecar(path string, doc map[string]any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

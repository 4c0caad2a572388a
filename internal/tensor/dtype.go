// Package tensor provides the raw buffer types the paged cache engine
// reads from and writes into.
package tensor

import (
	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// DType is a constraint for supported element types.
// Float16 and BFloat16 are 16-bit container types; the engine never
// converts between representations, it only moves elements.
type DType interface {
	float32 | float16.Float16 | bfloat16.BF16 | int32
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types.
//
// Float32, Float16 and BFloat16 are the activation types the copy engine
// accepts. Int32 exists for index arrays (sequence lengths, offsets,
// block tables) and is rejected by the engine's copy entry points.
const (
	Float32 DataType = iota
	Float16
	BFloat16
	Int32
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float16, BFloat16:
		return 2
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float16:
		return "float16"
	case BFloat16:
		return "bfloat16"
	case Int32:
		return "int32"
	default:
		return "unknown"
	}
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float16.Float16:
		return Float16
	case bfloat16.BF16:
		return BFloat16
	case int32:
		return Int32
	default:
		panic("unsupported type")
	}
}

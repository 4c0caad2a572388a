// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the raw buffer types consumed and produced by
// the paged KV cache engine.
//
// The package defines:
//   - RawTensor: a flat, dtype-tagged buffer with zero-copy typed accessors
//   - Shape, DataType: layout and runtime element-type descriptors
//   - DType: the generics constraint over supported element types
//
// Example:
//
//	key, err := tensor.NewRaw(tensor.Shape{numTokens, numHeads * headDim}, tensor.Float32)
package tensor

import (
	"github.com/born-ml/pagedkv/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for tensor element types.
// Supported types: float32, float16.Float16, bfloat16.BF16, int32.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
//
// Float32, Float16 and BFloat16 are activation element types; Int32 is
// for index arrays (lengths, offsets, block tables).
const (
	Float32  DataType = tensor.Float32
	Float16  DataType = tensor.Float16
	BFloat16 DataType = tensor.BFloat16
	Int32    DataType = tensor.Int32
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// RawTensor is the low-level tensor representation: a reference-counted
// flat buffer with row-major strides.
type RawTensor = tensor.RawTensor

// NewRaw creates a new zeroed raw tensor with the given shape and dtype.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// FromSlice creates a raw tensor holding a copy of data, shaped by shape.
//
// Example:
//
//	data := []float32{1, 2, 3, 4, 5, 6}
//	x, err := tensor.FromSlice(data, tensor.Shape{2, 3})
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

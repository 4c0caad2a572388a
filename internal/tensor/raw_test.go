package tensor

import (
	"testing"

	"github.com/x448/float16"
)

// RawTensor Tests

func TestRawTensorAsFloat32(t *testing.T) {
	raw, _ := NewRaw(Shape{3, 2}, Float32)
	data := raw.AsFloat32()

	if len(data) != 6 {
		t.Errorf("AsFloat32 length = %d, want 6", len(data))
	}

	// Modify and verify zero-copy
	data[0] = 42
	if raw.AsFloat32()[0] != 42 {
		t.Error("AsFloat32 should return zero-copy slice")
	}
}

func TestRawTensorAsFloat16(t *testing.T) {
	raw, _ := NewRaw(Shape{4, 4}, Float16)
	data := raw.AsFloat16()

	if len(data) != 16 {
		t.Errorf("AsFloat16 length = %d, want 16", len(data))
	}

	data[0] = float16.Fromfloat32(1.5)
	if raw.AsFloat16()[0].Float32() != 1.5 {
		t.Error("AsFloat16 should return zero-copy slice")
	}
}

func TestRawTensorAsBFloat16(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 3}, BFloat16)
	data := raw.AsBFloat16()

	if len(data) != 6 {
		t.Errorf("AsBFloat16 length = %d, want 6", len(data))
	}
	if raw.ByteSize() != 12 {
		t.Errorf("ByteSize = %d, want 12", raw.ByteSize())
	}
}

func TestRawTensorAsInt32(t *testing.T) {
	raw, _ := NewRaw(Shape{5}, Int32)
	data := raw.AsInt32()

	data[4] = -1
	if raw.AsInt32()[4] != -1 {
		t.Error("AsInt32 should return zero-copy slice")
	}
}

func TestRawTensorAccessorPanicsOnWrongDType(t *testing.T) {
	raw, _ := NewRaw(Shape{2}, Float32)

	defer func() {
		if recover() == nil {
			t.Error("AsInt32 on a float32 tensor should panic")
		}
	}()
	raw.AsInt32()
}

func TestFromSlice(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6}
	raw, err := FromSlice(data, Shape{2, 3})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	if raw.DType() != Float32 {
		t.Errorf("DType = %s, want float32", raw.DType())
	}

	got := raw.AsFloat32()
	for i, want := range data {
		if got[i] != want {
			t.Errorf("element %d = %v, want %v", i, got[i], want)
		}
	}

	// FromSlice copies: mutating the original must not affect the tensor.
	data[0] = 99
	if raw.AsFloat32()[0] != 1 {
		t.Error("FromSlice should copy the input slice")
	}
}

func TestFromSliceShapeMismatch(t *testing.T) {
	_, err := FromSlice([]int32{1, 2, 3}, Shape{2, 2})
	if err == nil {
		t.Error("expected error for mismatched shape")
	}
}

func TestRawTensorStrides(t *testing.T) {
	raw, _ := NewRaw(Shape{4, 2, 8, 16}, Float32)
	want := []int{256, 128, 16, 1}
	got := raw.Strides()

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("stride[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestRawTensorClone(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Float32)
	clone := raw.Clone()

	// Clone shares the buffer: writes are visible through both.
	raw.AsFloat32()[0] = 7
	if clone.AsFloat32()[0] != 7 {
		t.Error("Clone should share the underlying buffer")
	}
}

func TestRawTensorRelease(_ *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Float32)

	clone := raw.Clone()
	clone.Release()

	// Original is still alive after the clone is released.
	raw.AsFloat32()[0] = 1
	raw.Release()
}

// DataType Tests

func TestDataTypeSize(t *testing.T) {
	tests := []struct {
		dtype DataType
		size  int
	}{
		{Float32, 4},
		{Float16, 2},
		{BFloat16, 2},
		{Int32, 4},
	}

	for _, tt := range tests {
		if got := tt.dtype.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.dtype, got, tt.size)
		}
	}
}

func TestDataTypeString(t *testing.T) {
	if Float16.String() != "float16" {
		t.Errorf("Float16.String() = %q", Float16.String())
	}
	if BFloat16.String() != "bfloat16" {
		t.Errorf("BFloat16.String() = %q", BFloat16.String())
	}
}

// Shape Tests

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{5}, 5},
		{Shape{2, 3}, 6},
		{Shape{8, 4, 16, 32}, 16384},
	}

	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("%v.NumElements() = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

func TestShapeValidate(t *testing.T) {
	if err := (Shape{2, 3}).Validate(); err != nil {
		t.Errorf("valid shape rejected: %v", err)
	}
	if err := (Shape{2, 0}).Validate(); err == nil {
		t.Error("zero dimension should be rejected")
	}
	if err := (Shape{-1, 3}).Validate(); err == nil {
		t.Error("negative dimension should be rejected")
	}
}

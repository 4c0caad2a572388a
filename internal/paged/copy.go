package paged

import (
	"fmt"
	"unsafe"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"

	"github.com/born-ml/pagedkv/internal/parallel"
	"github.com/born-ml/pagedkv/internal/tensor"
)

// Elem is the closed set of activation element kinds the engine can move.
// The copy is representation-blind: elements are relocated bit-for-bit,
// never converted.
type Elem interface {
	float32 | float16.Float16 | bfloat16.BF16
}

// chunkWidth returns the widest span of {4, 2, 1} elements that evenly
// divides headDim. Chunks never straddle a head boundary, so width only
// affects throughput, not placement.
func chunkWidth(headDim int) int {
	switch {
	case headDim%4 == 0:
		return 4
	case headDim%2 == 0:
		return 2
	default:
		return 1
	}
}

// elems reinterprets a RawTensor's storage as a []T.
// The dispatch switch guarantees T matches the tensor's dtype.
func elems[T Elem](r *tensor.RawTensor) []T {
	data := r.Data()
	var zero T
	n := r.ByteSize() / int(unsafe.Sizeof(zero))
	//nolint:gosec // unsafe.Slice for zero-copy access, length derived from ByteSize
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), n)
}

// CopyToPaged scatters the key and value vectors of a batch of
// concatenated variable-length sequences into the paged caches.
//
// key and value are token-major: row r holds token r's NumHeads*HeadDim
// elements, and the row stride (Strides()[0]) may exceed the hidden size
// when rows are padded. cuSeqLens is the prefix sum giving each
// sequence's starting row; seqLens gives each sequence's valid token
// count. Token t of sequence s lands in block bt.Get(s, t/BlockSize) at
// slot t%BlockSize, laid out [block, head, slot, dim] in the caches.
//
// Tokens at or past a sequence's length and tokens whose logical block is
// unallocated (negative table entry) are skipped silently; no destination
// slot they would have occupied is touched. The engine performs no other
// validation: inconsistent shapes, aliased block tables, or malformed
// prefix sums are caller contract violations with undefined results.
//
// The only failures are configuration errors, surfaced before any write:
// an element type outside the supported set, mismatched element types
// across the four buffers, or an internally computed chunk width outside
// {1, 2, 4}.
func CopyToPaged(cfg Config, key, value, keyCache, valueCache *tensor.RawTensor, seqLens, cuSeqLens []int32, bt *BlockTable, maxSeqLen int) error {
	return copyToPaged(cfg, key, value, keyCache, valueCache, seqLens, cuSeqLens, bt, maxSeqLen, chunkWidth(cfg.HeadDim), parallel.DefaultConfig())
}

func copyToPaged(cfg Config, key, value, keyCache, valueCache *tensor.RawTensor, seqLens, cuSeqLens []int32, bt *BlockTable, maxSeqLen, width int, pcfg parallel.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := checkDTypes(key, value, keyCache, valueCache); err != nil {
		return err
	}
	switch width {
	case 1, 2, 4:
	default:
		return fmt.Errorf("%w: %d", ErrChunkWidth, width)
	}

	switch key.DType() {
	case tensor.Float32:
		copyContext[float32](cfg, key, value, keyCache, valueCache, seqLens, cuSeqLens, bt, maxSeqLen, width, pcfg)
	case tensor.Float16:
		copyContext[float16.Float16](cfg, key, value, keyCache, valueCache, seqLens, cuSeqLens, bt, maxSeqLen, width, pcfg)
	case tensor.BFloat16:
		copyContext[bfloat16.BF16](cfg, key, value, keyCache, valueCache, seqLens, cuSeqLens, bt, maxSeqLen, width, pcfg)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDType, key.DType())
	}
	return nil
}

// AppendDecode writes one new token per sequence into the paged caches,
// the decode-stage counterpart of CopyToPaged. Row s of key and value
// holds the single new vector for sequence s, and seqLens[s] is the
// sequence length including that token, so it lands at position
// seqLens[s]-1. Sequences with seqLens[s] <= 0 and tokens whose logical
// block is unallocated are skipped silently.
func AppendDecode(cfg Config, key, value, keyCache, valueCache *tensor.RawTensor, seqLens []int32, bt *BlockTable) error {
	return appendDecode(cfg, key, value, keyCache, valueCache, seqLens, bt, chunkWidth(cfg.HeadDim), parallel.DefaultConfig())
}

func appendDecode(cfg Config, key, value, keyCache, valueCache *tensor.RawTensor, seqLens []int32, bt *BlockTable, width int, pcfg parallel.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := checkDTypes(key, value, keyCache, valueCache); err != nil {
		return err
	}
	switch width {
	case 1, 2, 4:
	default:
		return fmt.Errorf("%w: %d", ErrChunkWidth, width)
	}

	switch key.DType() {
	case tensor.Float32:
		copyDecode[float32](cfg, key, value, keyCache, valueCache, seqLens, bt, width, pcfg)
	case tensor.Float16:
		copyDecode[float16.Float16](cfg, key, value, keyCache, valueCache, seqLens, bt, width, pcfg)
	case tensor.BFloat16:
		copyDecode[bfloat16.BF16](cfg, key, value, keyCache, valueCache, seqLens, bt, width, pcfg)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDType, key.DType())
	}
	return nil
}

func checkDTypes(key, value, keyCache, valueCache *tensor.RawTensor) error {
	dt := key.DType()
	switch dt {
	case tensor.Float32, tensor.Float16, tensor.BFloat16:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedDType, dt)
	}
	for _, r := range []*tensor.RawTensor{value, keyCache, valueCache} {
		if r.DType() != dt {
			return fmt.Errorf("paged: mixed element types: %s vs %s", dt, r.DType())
		}
	}
	return nil
}

// copyContext is the prefill kernel: one work unit per (sequence,
// token-position) pair over the full batch×maxSeqLen launch grid.
func copyContext[T Elem](cfg Config, key, value, keyCache, valueCache *tensor.RawTensor, seqLens, cuSeqLens []int32, bt *BlockTable, maxSeqLen, width int, pcfg parallel.Config) {
	k := elems[T](key)
	v := elems[T](value)
	kDst := elems[T](keyCache)
	vDst := elems[T](valueCache)
	keyStride := key.Strides()[0]
	valueStride := value.Strides()[0]

	parallel.ForGrid(len(seqLens), maxSeqLen, func(s, t int) {
		if t >= int(seqLens[s]) {
			return
		}
		blockID := bt.Get(s, t/cfg.BlockSize)
		if blockID < 0 {
			return
		}
		srcRow := int(cuSeqLens[s]) + t
		copyToken(cfg, kDst, vDst, k[srcRow*keyStride:], v[srcRow*valueStride:], blockID, t%cfg.BlockSize, width)
	}, pcfg)
}

// copyDecode is the decode kernel: one work unit per sequence, source row s.
func copyDecode[T Elem](cfg Config, key, value, keyCache, valueCache *tensor.RawTensor, seqLens []int32, bt *BlockTable, width int, pcfg parallel.Config) {
	k := elems[T](key)
	v := elems[T](value)
	kDst := elems[T](keyCache)
	vDst := elems[T](valueCache)
	keyStride := key.Strides()[0]
	valueStride := value.Strides()[0]

	parallel.For(len(seqLens), func(s int) {
		t := int(seqLens[s]) - 1
		if t < 0 {
			return
		}
		blockID := bt.Get(s, t/cfg.BlockSize)
		if blockID < 0 {
			return
		}
		copyToken(cfg, kDst, vDst, k[s*keyStride:], v[s*valueStride:], blockID, t%cfg.BlockSize, width)
	}, pcfg)
}

// copyToken moves one token's full key and value vectors into their slot.
// For hidden index i, the destination is
// blockID*BlockElems + (i/HeadDim)*BlockSize*HeadDim + slot*HeadDim + i%HeadDim,
// walked in width-sized spans. Destination regions of distinct (sequence,
// token) units are disjoint by construction, so units never race.
func copyToken[T Elem](cfg Config, kDst, vDst, kSrc, vSrc []T, blockID int32, slot, width int) {
	headSpan := cfg.BlockSize * cfg.HeadDim
	base := int(blockID)*cfg.BlockElems() + slot*cfg.HeadDim
	hidden := cfg.HiddenSize()

	for i := 0; i < hidden; i += width {
		dst := base + (i/cfg.HeadDim)*headSpan + i%cfg.HeadDim
		copy(kDst[dst:dst+width], kSrc[i:i+width])
		copy(vDst[dst:dst+width], vSrc[i:i+width])
	}
}

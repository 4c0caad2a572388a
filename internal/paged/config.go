// Package paged implements population of a block-structured key/value
// cache: freshly computed per-token key and value vectors are scattered
// into pre-allocated physical blocks through a per-sequence block table.
//
// The package performs placement only. It does not compute attention,
// does not own any buffer it touches, and carries no state between calls.
package paged

import (
	"errors"
	"fmt"

	"github.com/born-ml/pagedkv/internal/tensor"
)

// Configuration errors. Both are fatal at launch and never retried.
var (
	// ErrUnsupportedDType is returned when a source or cache buffer has
	// an element type outside {float32, float16, bfloat16}.
	ErrUnsupportedDType = errors.New("paged: unsupported element type")

	// ErrChunkWidth is returned when the computed vectorized copy width
	// falls outside {1, 2, 4}. Selection always yields a legal width, so
	// hitting this indicates an implementation defect, not caller error.
	ErrChunkWidth = errors.New("paged: unsupported chunk width")

	// ErrNoFreeBlocks is returned by the allocator when the cache has no
	// remaining physical blocks.
	ErrNoFreeBlocks = errors.New("paged: no free blocks")
)

// Config describes the fixed geometry of a paged KV cache.
//
// Block count and block size are fixed for the lifetime of the cache;
// the engine never grows the cache structure.
type Config struct {
	NumBlocks int // Physical blocks in the cache.
	BlockSize int // Token slots per block.
	NumHeads  int // Attention heads per token vector.
	HeadDim   int // Elements per head.
}

// Validate checks that all geometry fields are positive.
func (c Config) Validate() error {
	if c.NumBlocks <= 0 {
		return fmt.Errorf("paged: NumBlocks must be > 0, got %d", c.NumBlocks)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("paged: BlockSize must be > 0, got %d", c.BlockSize)
	}
	if c.NumHeads <= 0 {
		return fmt.Errorf("paged: NumHeads must be > 0, got %d", c.NumHeads)
	}
	if c.HeadDim <= 0 {
		return fmt.Errorf("paged: HeadDim must be > 0, got %d", c.HeadDim)
	}
	return nil
}

// HiddenSize returns the per-token vector width, NumHeads*HeadDim.
func (c Config) HiddenSize() int {
	return c.NumHeads * c.HeadDim
}

// BlockElems returns the element count of one physical block,
// NumHeads*BlockSize*HeadDim.
func (c Config) BlockElems() int {
	return c.NumHeads * c.BlockSize * c.HeadDim
}

// CacheShape returns the [block, head, slot, dim] shape of a cache buffer.
// All tokens of one (block, head) pair are contiguous in this layout; the
// downstream attention reader assumes exactly this arrangement.
func (c Config) CacheShape() tensor.Shape {
	return tensor.Shape{c.NumBlocks, c.NumHeads, c.BlockSize, c.HeadDim}
}

// NewCaches allocates zeroed key and value cache buffers for cfg.
func NewCaches(cfg Config, dtype tensor.DataType) (keyCache, valueCache *tensor.RawTensor, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	keyCache, err = tensor.NewRaw(cfg.CacheShape(), dtype)
	if err != nil {
		return nil, nil, fmt.Errorf("paged: allocating key cache: %w", err)
	}
	valueCache, err = tensor.NewRaw(cfg.CacheShape(), dtype)
	if err != nil {
		return nil, nil, fmt.Errorf("paged: allocating value cache: %w", err)
	}
	return keyCache, valueCache, nil
}

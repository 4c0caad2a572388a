// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package kvcache provides the public API for populating a paged
// key/value cache.
//
// The engine scatters freshly computed per-token key and value vectors
// for a batch of variable-length sequences into pre-allocated physical
// blocks, following a per-sequence block table. It performs placement
// only: buffers are caller-owned, no attention is computed, and no
// eviction policy is applied.
//
// Example:
//
//	cfg := kvcache.Config{NumBlocks: 512, BlockSize: 16, NumHeads: 16, HeadDim: 64}
//	keyCache, valueCache, _ := kvcache.NewCaches(cfg, tensor.Float32)
//	alloc := kvcache.NewAllocator(cfg.NumBlocks)
//	table, _ := alloc.AllocTable(seqLens, cfg.BlockSize, maxBlocksPerSeq)
//	err := kvcache.CopyToPaged(cfg, key, value, keyCache, valueCache, seqLens, cuSeqLens, table, maxSeqLen)
package kvcache

import (
	"github.com/born-ml/pagedkv/internal/paged"
	"github.com/born-ml/pagedkv/tensor"
)

// Configuration errors surfaced at launch; neither is retried.
var (
	// ErrUnsupportedDType reports an element type outside the supported
	// set (float32, float16, bfloat16).
	ErrUnsupportedDType = paged.ErrUnsupportedDType

	// ErrChunkWidth reports an internally computed copy width outside
	// {1, 2, 4}; seeing it indicates an engine defect, not caller error.
	ErrChunkWidth = paged.ErrChunkWidth

	// ErrNoFreeBlocks reports an exhausted block pool.
	ErrNoFreeBlocks = paged.ErrNoFreeBlocks
)

// Unallocated marks a block-table entry with no physical block behind it.
const Unallocated = paged.Unallocated

// Config describes the fixed geometry of a paged KV cache.
type Config = paged.Config

// BlockTable maps (sequence, logical block index) to a physical block id.
type BlockTable = paged.BlockTable

// Allocator hands out physical block ids from a fixed pool.
type Allocator = paged.Allocator

// NewBlockTable creates a batch×width table with every entry Unallocated.
func NewBlockTable(batch, width int) (*BlockTable, error) {
	return paged.NewBlockTable(batch, width)
}

// BlockTableFromRows builds a table from explicit per-sequence rows,
// padding short rows with Unallocated.
func BlockTableFromRows(rows [][]int32) (*BlockTable, error) {
	return paged.BlockTableFromRows(rows)
}

// NewAllocator creates an allocator over numBlocks physical blocks.
func NewAllocator(numBlocks int) *Allocator {
	return paged.NewAllocator(numBlocks)
}

// NewCaches allocates zeroed key and value cache buffers for cfg, laid
// out [block, head, slot, dim].
func NewCaches(cfg Config, dtype tensor.DataType) (keyCache, valueCache *tensor.RawTensor, err error) {
	return paged.NewCaches(cfg, dtype)
}

// CopyToPaged scatters a batch of concatenated variable-length sequences
// into the paged caches. See the internal engine documentation for the
// full contract: padding tokens and unallocated blocks are skipped
// silently, and the only errors are configuration errors surfaced before
// any write.
func CopyToPaged(cfg Config, key, value, keyCache, valueCache *tensor.RawTensor, seqLens, cuSeqLens []int32, table *BlockTable, maxSeqLen int) error {
	return paged.CopyToPaged(cfg, key, value, keyCache, valueCache, seqLens, cuSeqLens, table, maxSeqLen)
}

// AppendDecode writes one new token per sequence into the paged caches.
// Row s of key and value holds sequence s's single new vector; it lands
// at position seqLens[s]-1.
func AppendDecode(cfg Config, key, value, keyCache, valueCache *tensor.RawTensor, seqLens []int32, table *BlockTable) error {
	return paged.AppendDecode(cfg, key, value, keyCache, valueCache, seqLens, table)
}

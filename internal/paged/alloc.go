package paged

import "fmt"

// Allocator hands out physical block ids from a fixed pool.
//
// The engine itself never allocates; the allocator exists so callers can
// build block tables that are correct by construction. It implements no
// eviction or prefix reuse — freed blocks simply return to the pool.
type Allocator struct {
	free []int32
}

// NewAllocator creates an allocator over numBlocks physical blocks.
func NewAllocator(numBlocks int) *Allocator {
	free := make([]int32, numBlocks)
	for i := range free {
		// Stack order: block 0 is handed out first.
		free[i] = int32(numBlocks - 1 - i)
	}
	return &Allocator{free: free}
}

// NumFree returns the number of unallocated blocks remaining.
func (a *Allocator) NumFree() int {
	return len(a.free)
}

// Alloc pops a free block id. Returns ErrNoFreeBlocks when exhausted.
func (a *Allocator) Alloc() (int32, error) {
	if len(a.free) == 0 {
		return Unallocated, ErrNoFreeBlocks
	}
	id := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]
	return id, nil
}

// Free returns a block id to the pool.
func (a *Allocator) Free(id int32) {
	a.free = append(a.free, id)
}

// AllocTable builds a block table for a batch, allocating exactly enough
// blocks to cover each sequence's length at the given block size. Row
// entries past a sequence's last block stay Unallocated, so the table is
// safe to hand to the copy engine together with seqLens.
func (a *Allocator) AllocTable(seqLens []int32, blockSize, width int) (*BlockTable, error) {
	bt, err := NewBlockTable(len(seqLens), width)
	if err != nil {
		return nil, err
	}
	for s, n := range seqLens {
		needed := (int(n) + blockSize - 1) / blockSize
		if needed > width {
			return nil, fmt.Errorf("paged: sequence %d needs %d blocks, table width is %d", s, needed, width)
		}
		for b := 0; b < needed; b++ {
			id, err := a.Alloc()
			if err != nil {
				return nil, fmt.Errorf("paged: allocating block %d for sequence %d: %w", b, s, err)
			}
			bt.Set(s, b, id)
		}
	}
	return bt, nil
}

// FreeTable returns every allocated block in the table to the pool.
func (a *Allocator) FreeTable(bt *BlockTable) {
	for _, id := range bt.ids {
		if id >= 0 {
			a.Free(id)
		}
	}
}

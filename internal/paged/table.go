package paged

import "fmt"

// Unallocated marks a block-table entry whose logical block has no
// physical block behind it. Any negative entry is treated the same way.
const Unallocated int32 = -1

// BlockTable maps (sequence, logical block index) to a physical block id.
//
// Rows are stored flat with a fixed width. Every logical block index a
// valid token resolves to must lie inside the row width; the engine never
// reads past a row, so a table too narrow for the batch's longest
// sequence is a caller error caught by bounds-checked lookups here rather
// than silent adjacent reads.
type BlockTable struct {
	ids   []int32
	batch int
	width int
}

// NewBlockTable creates a batch×width table with every entry Unallocated.
func NewBlockTable(batch, width int) (*BlockTable, error) {
	if batch <= 0 || width <= 0 {
		return nil, fmt.Errorf("paged: block table needs positive dimensions, got %d x %d", batch, width)
	}
	ids := make([]int32, batch*width)
	for i := range ids {
		ids[i] = Unallocated
	}
	return &BlockTable{ids: ids, batch: batch, width: width}, nil
}

// BlockTableFromRows builds a table from explicit per-sequence rows.
// Short rows are padded with Unallocated; width is the longest row.
func BlockTableFromRows(rows [][]int32) (*BlockTable, error) {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	bt, err := NewBlockTable(len(rows), width)
	if err != nil {
		return nil, err
	}
	for s, row := range rows {
		copy(bt.ids[s*width:], row)
	}
	return bt, nil
}

// Batch returns the number of sequences the table covers.
func (bt *BlockTable) Batch() int {
	return bt.batch
}

// Width returns the number of logical block slots per sequence.
func (bt *BlockTable) Width() int {
	return bt.width
}

// Get returns the physical block id at (seq, logical).
// Panics if either index is out of range.
func (bt *BlockTable) Get(seq, logical int) int32 {
	if seq < 0 || seq >= bt.batch || logical < 0 || logical >= bt.width {
		panic(fmt.Sprintf("paged: block table index (%d, %d) out of range %dx%d", seq, logical, bt.batch, bt.width))
	}
	return bt.ids[seq*bt.width+logical]
}

// Set stores id at (seq, logical).
// Panics if either index is out of range.
func (bt *BlockTable) Set(seq, logical int, id int32) {
	if seq < 0 || seq >= bt.batch || logical < 0 || logical >= bt.width {
		panic(fmt.Sprintf("paged: block table index (%d, %d) out of range %dx%d", seq, logical, bt.batch, bt.width))
	}
	bt.ids[seq*bt.width+logical] = id
}

// Row returns the logical-to-physical mapping for one sequence.
// The returned slice aliases the table.
func (bt *BlockTable) Row(seq int) []int32 {
	if seq < 0 || seq >= bt.batch {
		panic(fmt.Sprintf("paged: block table row %d out of range %d", seq, bt.batch))
	}
	return bt.ids[seq*bt.width : (seq+1)*bt.width]
}

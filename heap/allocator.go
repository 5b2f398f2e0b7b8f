package heap

// DefaultSizeClasses returns a copy of the compiled-in size-class set.
// Callers that build a Heap from loaded tunables use this as the
// fallback when no override is configured.
func DefaultSizeClasses() []uintptr {
	out := make([]uintptr, len(sizeClasses))
	copy(out, sizeClasses)
	return out
}

// CellAllocator owns every HeapBlock of one size class. It serves
// allocations from a block with free slots ("usable"), carving a new
// block when none remain, and is notified by the sweeper when a block's
// occupancy crosses the empty or full boundary.
type CellAllocator struct {
	cellSize uintptr
	usable   []*HeapBlock
	full     []*HeapBlock
}

func newCellAllocator(cellSize uintptr) *CellAllocator {
	return &CellAllocator{cellSize: cellSize}
}

// CellSize returns the size class this allocator serves.
func (a *CellAllocator) CellSize() uintptr { return a.cellSize }

// allocateCell returns a newly placed slot for cell, carving a new block
// if no usable block has room.
func (a *CellAllocator) allocateCell(cell Cell) (*HeapBlock, int) {
	if len(a.usable) == 0 {
		a.usable = append(a.usable, newHeapBlock(a.cellSize))
	}
	block := a.usable[len(a.usable)-1]
	slot := block.allocate(cell)
	if block.IsFull() {
		a.usable = a.usable[:len(a.usable)-1]
		a.full = append(a.full, block)
	}
	return block, slot
}

// blockDidBecomeEmpty drops block from this allocator's bookkeeping
// entirely; its memory is released for the host Go GC to reclaim.
func (a *CellAllocator) blockDidBecomeEmpty(block *HeapBlock) {
	a.usable = removeBlock(a.usable, block)
	a.full = removeBlock(a.full, block)
}

// blockDidBecomeUsable moves block from the full list to the usable list.
func (a *CellAllocator) blockDidBecomeUsable(block *HeapBlock) {
	a.full = removeBlock(a.full, block)
	for _, b := range a.usable {
		if b == block {
			return
		}
	}
	a.usable = append(a.usable, block)
}

// forEachBlock calls fn for every block (usable and full) owned by this
// allocator.
func (a *CellAllocator) forEachBlock(fn func(*HeapBlock)) {
	for _, b := range a.usable {
		fn(b)
	}
	for _, b := range a.full {
		fn(b)
	}
}

func removeBlock(list []*HeapBlock, block *HeapBlock) []*HeapBlock {
	for i, b := range list {
		if b == block {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

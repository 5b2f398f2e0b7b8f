package heap

import (
	"fmt"
	"time"
)

// cellMustSurviveGC consults a cell's optional must-survive override. A
// cell that both declares the override and returns true from it escapes
// the current cycle: it is neither finalized nor swept, regardless of
// its mark state.
func cellMustSurviveGC(c Cell) bool {
	if m, ok := c.(MustSurviveGC); ok {
		return m.MustSurviveGarbageCollection()
	}
	return false
}

// finalizeUnmarkedCells walks every block and calls Finalize on every
// Live, unmarked, non-must-survive cell. Finalization never reclaims
// memory itself; it only runs user-observable cleanup before the sweeper
// unlinks the slot.
func (h *Heap) finalizeUnmarkedCells() {
	h.ForEachBlock(func(b *HeapBlock) {
		b.forEachLive(func(_ int, cell Cell) {
			if !cell.IsMarked() && !cellMustSurviveGC(cell) {
				if f, ok := cell.(Finalizer); ok {
					f.Finalize()
				}
			}
		})
	})
}

// sweepDeadCells reclaims every Live, unmarked, non-must-survive cell,
// clears the mark bit of every survivor, purges weak containers of
// members that did not survive, notifies allocators of block occupancy
// transitions, and recomputes the adaptive allocation threshold.
func (h *Heap) sweepDeadCells(printReport bool, start time.Time) {
	var emptyBlocks, becameUsable []*HeapBlock
	var collectedCells, liveCells int
	var collectedBytes, liveBytes uint64

	h.ForEachBlock(func(b *HeapBlock) {
		wasFull := b.IsFull()
		b.forEachLive(func(slot int, cell Cell) {
			if !cell.IsMarked() && !cellMustSurviveGC(cell) {
				delete(h.addrIdx, addressOfCell(cell))
				b.deallocate(slot)
				collectedCells++
				collectedBytes += uint64(b.CellSize())
			} else {
				cell.SetMarked(false)
				liveCells++
				liveBytes += uint64(b.CellSize())
			}
		})
		if b.IsEmpty() {
			emptyBlocks = append(emptyBlocks, b)
		} else if wasFull != b.IsFull() {
			becameUsable = append(becameUsable, b)
		}
	})

	for w := range h.roots.weakContainers {
		w.removeDeadCells()
	}

	for _, b := range emptyBlocks {
		h.allocatorForSize(b.CellSize()).blockDidBecomeEmpty(b)
	}
	for _, b := range becameUsable {
		h.allocatorForSize(b.CellSize()).blockDidBecomeUsable(b)
	}

	if liveBytes > h.gcMinBytesFloor {
		h.gcBytesThreshold = liveBytes
	} else {
		h.gcBytesThreshold = h.gcMinBytesFloor
	}
	h.bytesSinceLastGC = 0

	liveBlocks := 0
	h.ForEachBlock(func(*HeapBlock) { liveBlocks++ })

	h.lastReport = Report{
		Duration:           time.Since(start),
		LiveCells:          liveCells,
		CollectedCells:     collectedCells,
		LiveCellBytes:      liveBytes,
		CollectedCellBytes: collectedBytes,
		LiveBlocks:         liveBlocks,
		FreedBlocks:        len(emptyBlocks),
	}

	h.tracef("sweep done: %d live (%d bytes), %d collected (%d bytes), threshold now %d",
		liveCells, liveBytes, collectedCells, collectedBytes, h.gcBytesThreshold)

	if printReport {
		r := h.lastReport
		fmt.Printf("Garbage collection report\n")
		fmt.Printf("=============================================\n")
		fmt.Printf("     Time spent: %d ms\n", r.Duration.Milliseconds())
		fmt.Printf("     Live cells: %d (%d bytes)\n", r.LiveCells, r.LiveCellBytes)
		fmt.Printf("Collected cells: %d (%d bytes)\n", r.CollectedCells, r.CollectedCellBytes)
		fmt.Printf("    Live blocks: %d\n", r.LiveBlocks)
		fmt.Printf("   Freed blocks: %d\n", r.FreedBlocks)
		fmt.Printf("=============================================\n")
	}
}

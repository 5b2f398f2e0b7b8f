package heap

// markLiveCells performs the transitive closure from roots: every root
// is marked and enqueued, the bytecode interpreter's own edges are
// folded in the same way, and the worklist is drained by popping a cell
// and calling its VisitEdges. A cell already marked is never re-enqueued,
// which both breaks cycles and bounds the work to one visit per cell.
//
// Marking never recurses on the Go call stack: the worklist is an
// explicit slice, so a deep object graph costs O(1) native frames per
// cell rather than one frame per edge followed.
func (h *Heap) markLiveCells(roots RootSet) {
	var worklist []Cell

	mark := func(c Cell) {
		if c == nil || c.IsMarked() {
			return
		}
		c.SetMarked(true)
		worklist = append(worklist, c)
	}
	visitor := &Visitor{visit: mark}

	for c := range roots {
		mark(c)
	}
	if h.vm != nil {
		h.vm.VisitInterpreterEdges(visitor)
	}

	for len(worklist) > 0 {
		c := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		c.VisitEdges(visitor)
	}

	h.roots.applyUprootingAndClear()
}

package heap

import "time"

// CollectionType selects what a call to CollectGarbage does.
type CollectionType int

const (
	// CollectGarbage runs a normal cycle: gather roots, mark, finalize,
	// sweep.
	CollectGarbage CollectionType = iota
	// CollectEverything skips root gathering and marking entirely: no
	// cell is a root, so everything unmarked (which is to say,
	// everything) is finalized and swept. Used at heap teardown.
	CollectEverything
)

// gatherRoots assembles the full root set for one cycle: VM-owned roots,
// conservative roots from the scanner, and the precise registries
// (handles, marked vectors).
func (h *Heap) gatherRoots() RootSet {
	roots := make(RootSet)
	if h.vm != nil {
		h.vm.GatherRoots(roots)
	}
	h.gatherConservativeRoots(roots)
	h.roots.gatherPreciseRoots(roots)
	return roots
}

// Roots takes a snapshot of the current root set without running a
// collection. It is meant for diagnostics (heap/graph's dumper) rather
// than for the collector itself, which gathers roots fresh inside each
// collectGarbageLocked call.
func (h *Heap) Roots() RootSet {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gatherRoots()
}

// CollectGarbage sequences one collection cycle: gather-roots, mark,
// finalize, sweep. It is non-reentrant: calling it from within a cycle
// already in progress (for instance, from a finalizer) is a precondition
// violation.
//
// If typ is CollectGarbage and a deferral is outstanding (DeferGC was
// called without a matching UndeferGC yet), no work happens; instead the
// request is remembered and will run exactly once, as soon as the
// deferral count returns to zero.
func (h *Heap) CollectGarbage(typ CollectionType, printReport bool) {
	// The reentrancy check runs before taking the lock: a heap is owned
	// by one goroutine, so a reentrant call (a finalizer re-entering the
	// collector) happens while that same goroutine holds h.mu, and
	// locking first would deadlock instead of reporting the violation.
	if h.collectingGarbage {
		violatef("gc: collect_garbage called while a collection is already in progress")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.collectGarbageLocked(typ, printReport)
}

// collectGarbageLocked is CollectGarbage's body, callable from places
// that already hold h.mu (AllocateCell's trigger check, UndeferGC).
func (h *Heap) collectGarbageLocked(typ CollectionType, printReport bool) {
	if h.collectingGarbage {
		violatef("gc: collect_garbage called while a collection is already in progress")
	}
	h.collectingGarbage = true
	defer func() { h.collectingGarbage = false }()

	start := time.Now()

	if typ == CollectGarbage {
		if h.gcDeferrals > 0 {
			h.tracef("collection requested during deferral, postponed")
			h.shouldGCWhenDeferralEnds = true
			return
		}
		roots := h.gatherRoots()
		h.tracef("gathered %d roots", len(roots))
		h.markLiveCells(roots)
	}
	h.finalizeUnmarkedCells()
	h.sweepDeadCells(printReport, start)
}

// Close tears down the heap: the VM's caches are cleared (if it exposes
// any through the CacheHolder capability), then a CollectEverything
// pass runs so every remaining finalizer fires before the allocators
// themselves go out of scope.
func (h *Heap) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.vm.(CacheHolder); ok {
		ch.ClearCaches()
	}
	h.collectGarbageLocked(CollectEverything, false)
}

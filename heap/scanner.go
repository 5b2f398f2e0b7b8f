package heap

import "unsafe"

// shiftedCellPattern is the high-bit pattern a 64-bit NaN-boxed Value
// carries when it holds a cell pointer. A candidate word matching the
// pattern has its tag bits stripped before classification; anything else
// is classified as a raw pointer.
const (
	valueTagShift      = 48
	cellTagPattern     = uint64(0x8001)
	shiftedCellPattern = cellTagPattern << valueTagShift
)

// decodePossibleValue undoes NaN-boxing on a candidate word. On 64-bit
// targets a word matching the cell-tagged pattern yields its pointer
// portion; every other word, and every word on a 32-bit target (where
// the halves of a Value are separate words and are scanned as such),
// is returned unchanged.
func decodePossibleValue(word uintptr) uintptr {
	if unsafe.Sizeof(word) < 8 {
		return word
	}
	w := uint64(word)
	if w&shiftedCellPattern == shiftedCellPattern {
		return uintptr(w &^ shiftedCellPattern)
	}
	return word
}

// classify decides whether word names a live cell, accepting interior
// pointers: any word within a live cell's extent yields that cell, not
// just a pointer to its exact start.
//
// A collector that owns its payload memory would recover the owning
// block from a candidate pointer by masking to block alignment and then
// asking the block to locate the cell within its payload. This module
// has no raw payload region to mask into, cells are ordinary Go
// allocations, so it answers the same question with an address index
// the allocator maintains instead. The index is a map keyed by a cell's
// start address; an interior-pointer hit falls back to a bounded scan
// of that index, trading O(1) pointer arithmetic for a simpler, safer
// lookup.
func (h *Heap) classify(word uintptr) (Cell, bool) {
	if word == 0 {
		return nil, false
	}
	if e, ok := h.addrIdx[word]; ok && e.cell.State() == CellStateLive {
		return e.cell, true
	}
	for addr, e := range h.addrIdx {
		if word > addr && word < addr+e.size && e.cell.State() == CellStateLive {
			return e.cell, true
		}
	}
	return nil, false
}

// AddPossibleValue decodes one candidate machine word and, if it names a
// live cell, records that cell in out tagged with origin. Words that do
// not classify are dropped without comment; a stack word that merely
// looks like a pointer is never an error.
func (h *Heap) AddPossibleValue(word uintptr, origin RootOrigin, out RootSet) {
	if cell, ok := h.classify(decodePossibleValue(word)); ok {
		out.add(cell, origin)
	}
}

// ScanWords conservatively scans an explicit list of candidate machine
// words. This is the shared primitive behind every conservative root
// source that arrives as a materialized slice: the VM's reported
// operand-stack snapshot and an embedder-captured register snapshot.
func (h *Heap) ScanWords(words []uintptr, origin RootOrigin, out RootSet) {
	for _, w := range words {
		h.AddPossibleValue(w, origin, out)
	}
}

// ScanRange reads the memory range [base, base+length) one aligned
// machine word at a time and feeds each word to AddPossibleValue. The
// caller owns the range and must keep it valid for the duration of the
// call; a trailing fragment smaller than a word is not read.
func (h *Heap) ScanRange(base, length uintptr, origin RootOrigin, out RootSet) {
	for length >= unsafe.Sizeof(base) {
		word := *(*uintptr)(unsafe.Pointer(base))
		h.AddPossibleValue(word, origin, out)

		base += unsafe.Alignof(base)
		length -= unsafe.Alignof(base)
	}
}

// CaptureRegisters stores words as the register snapshot to be scanned,
// tagged RegisterPointer, on the next collection. Hosted Go code cannot
// read machine registers directly, so the embedder captures the values
// it is holding in locals at a call boundary and reports them here; the
// snapshot is consumed by the next cycle and then dropped, since stale
// register contents must not pin cells forever.
func (h *Heap) CaptureRegisters(words []uintptr) {
	h.mu.Lock()
	h.registerSnapshot = append(h.registerSnapshot[:0], words...)
	h.mu.Unlock()
}

// gatherConservativeRoots merges every conservative root source into out:
// the VM's reported words and (if it provides one) native stack range,
// the embedder's register snapshot, and every registered safe-function
// closure, each attributed to the SourceLocation that owns it.
func (h *Heap) gatherConservativeRoots(out RootSet) {
	if h.vm != nil {
		h.ScanWords(h.vm.ConservativeRoots(), RootOrigin{Type: RootStackPointer}, out)
		if sp, ok := h.vm.(StackInfoProvider); ok {
			info := sp.StackInfo()
			if info.Low < info.High {
				h.ScanRange(info.Low, info.High-info.Low, RootOrigin{Type: RootStackPointer}, out)
			}
		}
	}
	if len(h.registerSnapshot) > 0 {
		h.ScanWords(h.registerSnapshot, RootOrigin{Type: RootRegisterPointer}, out)
		h.registerSnapshot = h.registerSnapshot[:0]
	}
	for base, length := range h.ranges.lengths {
		loc := h.ranges.locs[base]
		h.ScanRange(base, length, RootOrigin{Type: RootSafeFunction, Location: loc}, out)
	}
}

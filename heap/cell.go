// Package heap implements a mark-and-sweep garbage collector with
// conservative stack scanning for an embedded, JavaScript-style VM.
//
// Cells are the unit of managed memory. A Cell exposes its outbound
// references through the Visitor protocol (VisitEdges); the collector
// never relies on reference counts or back-pointers to decide what is
// reachable.
package heap

// CellState is the lifecycle state of a single cell slot, as tracked by
// the HeapBlock that owns it.
type CellState uint8

const (
	// CellStateLive means the slot holds a cell the VM may still reach.
	CellStateLive CellState = iota
	// CellStateDead means the slot holds no cell: it was never allocated
	// or has been reclaimed by the sweeper.
	CellStateDead
)

func (s CellState) String() string {
	switch s {
	case CellStateLive:
		return "live"
	case CellStateDead:
		return "dead"
	default:
		return "!err"
	}
}

// Cell is the protocol required of every managed object. Concrete Cells
// are expected to embed CellHeader, which supplies State/IsMarked/SetMarked
// by delegating to the HeapBlock slot that owns the cell.
type Cell interface {
	// VisitEdges invokes visitor.Visit for every outbound owned cell
	// reference.
	VisitEdges(v *Visitor)
	// ClassName returns a stable string for diagnostics.
	ClassName() string
	// State reports whether the sweeper has reclaimed this cell yet.
	State() CellState
	// IsMarked reports the current mark bit. It is false outside of the
	// mark->sweep window of a collection.
	IsMarked() bool
	// SetMarked sets the mark bit. Called by the marker and the sweeper.
	SetMarked(bool)
}

// Finalizer is an optional Cell capability. Finalize runs on unmarked
// cells before the sweeper reclaims their slot. It must not allocate or
// otherwise re-enter the collector.
type Finalizer interface {
	Finalize()
}

// MustSurviveGC is an optional Cell capability. A cell whose
// MustSurviveGarbageCollection returns true is treated as marked for the
// current cycle: it is neither finalized nor swept, regardless of its
// actual mark state.
type MustSurviveGC interface {
	MustSurviveGarbageCollection() bool
}

// CellHeader is embedded by concrete Cell implementations to obtain the
// default State/IsMarked/SetMarked bookkeeping. The canonical state lives
// on the owning HeapBlock's slot table, not on the cell itself, so that a
// conservative scan can validate a candidate pointer purely from block
// metadata without trusting the bytes the pointer happens to reference.
type CellHeader struct {
	block *HeapBlock
	slot  int
}

// State reports the Live/Dead state of the slot backing this cell.
func (h *CellHeader) State() CellState {
	if h.block == nil {
		return CellStateDead
	}
	return h.block.slotState(h.slot)
}

// IsMarked reports the mark bit of the slot backing this cell.
func (h *CellHeader) IsMarked() bool {
	if h.block == nil {
		return false
	}
	return h.block.slotMarked(h.slot)
}

// SetMarked sets the mark bit of the slot backing this cell.
func (h *CellHeader) SetMarked(marked bool) {
	if h.block == nil {
		return
	}
	h.block.setSlotMarked(h.slot, marked)
}

// Visitor carries the transitive-closure worklist during marking (or, via
// NewVisitor in package graph, during diagnostic graph construction).
// Cell.VisitEdges implementations call Visit once per outbound reference;
// they must not recurse into the referenced cell themselves.
type Visitor struct {
	visit func(Cell)
}

// NewVisitor builds a Visitor that invokes fn once per visited cell.
// The marker uses its own internal visitor; this constructor exists for
// diagnostic consumers of the visitor protocol (heap/graph's dumper)
// that walk edges without marking.
func NewVisitor(fn func(Cell)) *Visitor {
	return &Visitor{visit: fn}
}

// Visit records c as reachable from the cell currently being visited.
func (v *Visitor) Visit(c Cell) {
	if c == nil {
		return
	}
	v.visit(c)
}

package heap

import "fmt"

// HeapRootType classifies why a cell was discovered as a root during
// gather_roots.
type HeapRootType uint8

const (
	RootHandle HeapRootType = iota
	RootMarkedVector
	RootRegisterPointer
	RootStackPointer
	RootVM
	RootSafeFunction
)

func (t HeapRootType) String() string {
	switch t {
	case RootHandle:
		return "Handle"
	case RootMarkedVector:
		return "MarkedVector"
	case RootRegisterPointer:
		return "RegisterPointer"
	case RootStackPointer:
		return "StackPointer"
	case RootVM:
		return "VM"
	case RootSafeFunction:
		return "SafeFunction"
	default:
		return "!err"
	}
}

// RootOrigin attributes a discovered root to either a HeapRootType or, for
// roots found inside a registered conservative range, the SourceLocation
// that owns that range.
type RootOrigin struct {
	Type     HeapRootType
	Location *SourceLocation
}

func (o RootOrigin) String() string {
	if o.Location != nil {
		return o.Location.String()
	}
	return o.Type.String()
}

// SourceLocation attributes a registered conservative range (a
// closure-capture buffer) to the code that owns it, purely for
// diagnostics.
type SourceLocation struct {
	FunctionName string
	File         string
	Line         int
}

func (l *SourceLocation) String() string {
	if l == nil {
		return ""
	}
	return fmt.Sprintf("SafeFunction %s %s:%d", l.FunctionName, l.File, l.Line)
}

// RootSet maps a reachable cell to the reason it was found reachable.
// gather_roots populates a RootSet; a cell already present keeps its
// first-found origin.
type RootSet map[Cell]RootOrigin

func (rs RootSet) add(c Cell, origin RootOrigin) {
	if c == nil {
		return
	}
	if _, ok := rs[c]; ok {
		return
	}
	rs[c] = origin
}

// rootRegistry owns the four precise registries: handles, marked
// vectors, weak containers, and the uprooted-cells list for the current
// cycle.
type rootRegistry struct {
	handles        map[*Handle]struct{}
	markedVectors  map[*MarkedVectorBase]struct{}
	weakContainers map[WeakContainer]struct{}
	uprooted       []Cell
}

func newRootRegistry() *rootRegistry {
	return &rootRegistry{
		handles:        make(map[*Handle]struct{}),
		markedVectors:  make(map[*MarkedVectorBase]struct{}),
		weakContainers: make(map[WeakContainer]struct{}),
	}
}

func (r *rootRegistry) didCreateHandle(h *Handle) {
	if _, ok := r.handles[h]; ok {
		violatef("gc: handle registered twice")
	}
	r.handles[h] = struct{}{}
}

func (r *rootRegistry) didDestroyHandle(h *Handle) {
	if _, ok := r.handles[h]; !ok {
		violatef("gc: unregistering a handle that was never registered")
	}
	delete(r.handles, h)
}

func (r *rootRegistry) didCreateMarkedVector(v *MarkedVectorBase) {
	if _, ok := r.markedVectors[v]; ok {
		violatef("gc: marked vector registered twice")
	}
	r.markedVectors[v] = struct{}{}
}

func (r *rootRegistry) didDestroyMarkedVector(v *MarkedVectorBase) {
	if _, ok := r.markedVectors[v]; !ok {
		violatef("gc: unregistering a marked vector that was never registered")
	}
	delete(r.markedVectors, v)
}

func (r *rootRegistry) didCreateWeakContainer(w WeakContainer) {
	if _, ok := r.weakContainers[w]; ok {
		violatef("gc: weak container registered twice")
	}
	r.weakContainers[w] = struct{}{}
}

func (r *rootRegistry) didDestroyWeakContainer(w WeakContainer) {
	if _, ok := r.weakContainers[w]; !ok {
		violatef("gc: unregistering a weak container that was never registered")
	}
	delete(r.weakContainers, w)
}

// uprootCell excludes cell from surviving the current cycle even if it is
// otherwise reachable through a registered root. The exclusion applies
// once: after marking finishes the list is cleared.
func (r *rootRegistry) uprootCell(c Cell) {
	r.uprooted = append(r.uprooted, c)
}

func (r *rootRegistry) applyUprootingAndClear() {
	for _, c := range r.uprooted {
		c.SetMarked(false)
	}
	r.uprooted = nil
}

// gatherPreciseRoots populates out with every handle target and every
// marked-vector element. VM-owned roots and conservative roots are
// gathered separately (see driver.go and scanner.go).
func (r *rootRegistry) gatherPreciseRoots(out RootSet) {
	for h := range r.handles {
		out.add(h.cell, RootOrigin{Type: RootHandle})
	}
	for v := range r.markedVectors {
		for _, c := range v.cells() {
			out.add(c, RootOrigin{Type: RootMarkedVector})
		}
	}
}

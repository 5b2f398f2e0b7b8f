package heap

import (
	"runtime"
	"testing"
	"unsafe"
)

func TestDecodePossibleValue(t *testing.T) {
	if unsafe.Sizeof(uintptr(0)) < 8 {
		t.Skip("NaN-box decoding only applies on 64-bit targets")
	}
	addr := uintptr(0x7f00dead0)
	boxed := uintptr(uint64(addr) | shiftedCellPattern)
	if got := decodePossibleValue(boxed); got != addr {
		t.Errorf("decodePossibleValue(boxed) = %#x, want %#x", got, addr)
	}
	if got := decodePossibleValue(addr); got != addr {
		t.Errorf("decodePossibleValue(raw) = %#x, want unchanged", got)
	}
}

func TestNaNBoxedWordRootsCell(t *testing.T) {
	if unsafe.Sizeof(uintptr(0)) < 8 {
		t.Skip("NaN-box decoding only applies on 64-bit targets")
	}
	h, vm := newTestHeap()
	a := alloc(h, 64)
	vm.words = []uintptr{uintptr(uint64(AddressOf(a)) | shiftedCellPattern)}

	h.CollectGarbage(CollectGarbage, false)
	if a.State() != CellStateLive {
		t.Errorf("cell-tagged value word did not keep the cell alive")
	}
}

func TestScanRangeFindsCells(t *testing.T) {
	h, _ := newTestHeap()
	a := alloc(h, 64)
	b := alloc(h, 64)

	buf := make([]uintptr, 4)
	buf[1] = AddressOf(a)
	buf[3] = 0xdeadbeef // not a cell; must be ignored

	out := make(RootSet)
	base := uintptr(unsafe.Pointer(&buf[0]))
	h.ScanRange(base, uintptr(len(buf))*unsafe.Sizeof(base), RootOrigin{Type: RootStackPointer}, out)
	runtime.KeepAlive(buf)

	if _, ok := out[a]; !ok {
		t.Errorf("scan missed a cell pointer in the range")
	}
	if _, ok := out[b]; ok {
		t.Errorf("scan invented a root for a cell the range never mentions")
	}
	if len(out) != 1 {
		t.Errorf("RootSet has %d entries, want 1", len(out))
	}
}

func TestSafeFunctionClosureRange(t *testing.T) {
	h, _ := newTestHeap()
	a := alloc(h, 64)

	captures := make([]uintptr, 2)
	captures[0] = AddressOf(a)
	base := uintptr(unsafe.Pointer(&captures[0]))
	length := uintptr(len(captures)) * unsafe.Sizeof(base)
	loc := &SourceLocation{FunctionName: "onTimeout", File: "timer.js", Line: 12}

	h.RegisterSafeFunctionClosure(base, length, loc)
	h.CollectGarbage(CollectGarbage, false)
	runtime.KeepAlive(captures)
	if a.State() != CellStateLive {
		t.Fatalf("cell held only by a registered closure range was collected")
	}

	roots := h.Roots()
	origin, ok := roots[a]
	if !ok || origin.Location != loc {
		t.Errorf("closure-range root not attributed to its source location")
	}

	h.UnregisterSafeFunctionClosure(base, length)
	h.CollectGarbage(CollectGarbage, false)
	if a.State() != CellStateDead {
		t.Errorf("cell survived after its closure range was unregistered")
	}
}

func TestDuplicateClosureRegistrationPanics(t *testing.T) {
	h, _ := newTestHeap()
	buf := make([]uintptr, 1)
	base := uintptr(unsafe.Pointer(&buf[0]))
	h.RegisterSafeFunctionClosure(base, unsafe.Sizeof(base), nil)
	defer runtime.KeepAlive(buf)
	expectViolation(t, func() {
		h.RegisterSafeFunctionClosure(base, unsafe.Sizeof(base), nil)
	})
}

func TestUnregisterUnknownClosurePanics(t *testing.T) {
	h, _ := newTestHeap()
	expectViolation(t, func() {
		h.UnregisterSafeFunctionClosure(0x1000, 8)
	})
}

func TestRegisterSnapshotIsSingleShot(t *testing.T) {
	h, _ := newTestHeap()
	a := alloc(h, 64)

	h.CaptureRegisters([]uintptr{AddressOf(a)})
	h.CollectGarbage(CollectGarbage, false)
	if a.State() != CellStateLive {
		t.Fatalf("register-snapshot word did not keep the cell alive")
	}

	// The snapshot is consumed by the cycle that scanned it.
	h.CollectGarbage(CollectGarbage, false)
	if a.State() != CellStateDead {
		t.Errorf("stale register snapshot pinned the cell a second time")
	}
}

// stackVM extends testVM with an explicit stack range, exercising the
// optional StackInfoProvider capability.
type stackVM struct {
	testVM
	stack []uintptr
}

func (vm *stackVM) StackInfo() StackInfo {
	base := uintptr(unsafe.Pointer(&vm.stack[0]))
	return StackInfo{Low: base, High: base + uintptr(len(vm.stack))*unsafe.Sizeof(base)}
}

func TestStackInfoProviderScanned(t *testing.T) {
	vm := &stackVM{stack: make([]uintptr, 8)}
	h := New(vm)
	a := alloc(h, 64)
	vm.stack[3] = AddressOf(a)

	h.CollectGarbage(CollectGarbage, false)
	if a.State() != CellStateLive {
		t.Fatalf("cell on the reported stack range was collected")
	}

	vm.stack[3] = 0
	h.CollectGarbage(CollectGarbage, false)
	runtime.KeepAlive(vm.stack)
	if a.State() != CellStateDead {
		t.Errorf("cell survived after its stack word was overwritten")
	}
}

func TestRootOriginStrings(t *testing.T) {
	cases := []struct {
		origin RootOrigin
		want   string
	}{
		{RootOrigin{Type: RootHandle}, "Handle"},
		{RootOrigin{Type: RootMarkedVector}, "MarkedVector"},
		{RootOrigin{Type: RootRegisterPointer}, "RegisterPointer"},
		{RootOrigin{Type: RootStackPointer}, "StackPointer"},
		{RootOrigin{Type: RootVM}, "VM"},
		{
			RootOrigin{Type: RootSafeFunction, Location: &SourceLocation{FunctionName: "f", File: "a.js", Line: 3}},
			"SafeFunction f a.js:3",
		},
	}
	for _, c := range cases {
		if got := c.origin.String(); got != c.want {
			t.Errorf("origin.String() = %q, want %q", got, c.want)
		}
	}
}

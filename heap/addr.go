package heap

import "reflect"

// cellHeaderProvider is implemented by CellHeader and, via Go's method
// promotion, by any type that embeds it. Keeping the method name
// unexported and declared in this package seals the interface: only
// CellHeader (or a type embedding it) can satisfy it, which is exactly
// the set of types the collector is allowed to reach into.
type cellHeaderProvider interface {
	cellHeader() *CellHeader
}

func (h *CellHeader) cellHeader() *CellHeader { return h }

// headerOf returns the CellHeader embedded in cell, if any. Cells that
// implement the protocol without embedding CellHeader (unusual, but
// legal if they manage their own state/mark storage) get nil, and the
// allocator simply skips attaching block/slot bookkeeping to them.
func headerOf(cell Cell) *CellHeader {
	if p, ok := cell.(cellHeaderProvider); ok {
		return p.cellHeader()
	}
	return nil
}

// addressOfCell returns a stable identity for cell's underlying storage,
// used as the key into the heap's address index. Concrete Cells are
// expected to be implemented on a pointer type, so this is simply the
// pointer value; Go does not move or deduplicate objects that are still
// referenced from somewhere (here, from the owning HeapBlock's slot),
// so the address stays valid for exactly as long as our own bookkeeping
// holds it live.
func addressOfCell(cell Cell) uintptr {
	v := reflect.ValueOf(cell)
	switch v.Kind() {
	case reflect.Ptr, reflect.UnsafePointer:
		return v.Pointer()
	default:
		violatef("gc: cell of type %T is not a pointer type", cell)
		return 0
	}
}

// AddressOf exposes addressOfCell to other packages (notably heap/graph)
// that need a stable identity for a cell without reaching into collector
// internals.
func AddressOf(cell Cell) uintptr {
	return addressOfCell(cell)
}

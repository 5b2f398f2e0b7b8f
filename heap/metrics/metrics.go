// Package metrics exposes collector counters in the shape of the standard
// library's runtime/metrics: a registry of named Descriptions and a Read
// that fills a caller-supplied slice of Samples in place.
package metrics

import "github.com/sprigvm/heap/heap"

type ValueKind int

const (
	KindBad ValueKind = iota
	KindUint64
	KindFloat64
)

type Value struct {
	kind ValueKind
	u64  uint64
	f64  float64
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) Uint64() uint64  { return v.u64 }
func (v Value) Float64() float64 {
	return v.f64
}

type Description struct {
	Name        string
	Description string
	Kind        ValueKind
	Cumulative  bool
}

var descriptions = []Description{
	{Name: "/gc/heap/live:cells", Description: "Cells surviving the most recent collection.", Kind: KindUint64},
	{Name: "/gc/heap/live:bytes", Description: "Bytes surviving the most recent collection.", Kind: KindUint64},
	{Name: "/gc/heap/collected:cells", Description: "Cells reclaimed by the most recent collection.", Kind: KindUint64},
	{Name: "/gc/heap/collected:bytes", Description: "Bytes reclaimed by the most recent collection.", Kind: KindUint64},
	{Name: "/gc/heap/blocks:live", Description: "Blocks currently holding at least one live cell.", Kind: KindUint64},
	{Name: "/gc/heap/blocks:freed", Description: "Empty blocks dropped from their allocators by the most recent collection.", Kind: KindUint64},
	{Name: "/gc/pause:seconds", Description: "Wall-clock duration of the most recent collection.", Kind: KindFloat64},
}

// All returns the descriptions of every metric this package can sample.
func All() []Description {
	out := make([]Description, len(descriptions))
	copy(out, descriptions)
	return out
}

// Sample pairs a metric name with a Value filled in by Read.
type Sample struct {
	Name  string
	Value Value
}

// Read fills in m[i].Value for every m[i].Name this package recognizes,
// drawn from h's most recently completed collection report. Unrecognized
// names are left with a KindBad zero Value, matching runtime/metrics.Read.
func Read(h *heap.Heap, m []Sample) {
	r := h.LastReport()
	for i := range m {
		switch m[i].Name {
		case "/gc/heap/live:cells":
			m[i].Value = Value{kind: KindUint64, u64: uint64(r.LiveCells)}
		case "/gc/heap/live:bytes":
			m[i].Value = Value{kind: KindUint64, u64: r.LiveCellBytes}
		case "/gc/heap/collected:cells":
			m[i].Value = Value{kind: KindUint64, u64: uint64(r.CollectedCells)}
		case "/gc/heap/collected:bytes":
			m[i].Value = Value{kind: KindUint64, u64: r.CollectedCellBytes}
		case "/gc/heap/blocks:live":
			m[i].Value = Value{kind: KindUint64, u64: uint64(r.LiveBlocks)}
		case "/gc/heap/blocks:freed":
			m[i].Value = Value{kind: KindUint64, u64: uint64(r.FreedBlocks)}
		case "/gc/pause:seconds":
			m[i].Value = Value{kind: KindFloat64, f64: r.Duration.Seconds()}
		default:
			m[i].Value = Value{}
		}
	}
}

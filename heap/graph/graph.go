// Package graph builds a diagnostic, JSON-shaped dump of the heap's
// object graph: one node per cell reachable from the current roots,
// annotated with its class name, its outbound edges as pointer values,
// and (for root nodes) the root descriptor that found it, including
// source-location attribution for cells rooted through a registered
// closure range.
//
// The dumper is a consumer of the same visitor protocol the marker
// uses: it seeds a worklist from the roots and drains it through
// VisitEdges, so a cell no root can reach this cycle never appears in
// the dump, even if the sweeper has not reclaimed its slot yet. Unlike
// the marker it never touches mark bits; dumping a graph between
// collections has no effect on the next cycle.
package graph

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sprigvm/heap/heap"
)

// Node is one cell in the dumped graph.
type Node struct {
	ClassName string   `json:"class_name"`
	Root      string   `json:"root,omitempty"`
	Edges     []string `json:"edges,omitempty"`
}

// Build gathers the current roots of h and walks outward through the
// visitor protocol, returning the reachable graph as a map from each
// cell's address (formatted as a hex string, so the output is valid
// JSON) to its node.
func Build(h *heap.Heap) map[string]*Node {
	roots := h.Roots()

	nodes := make(map[string]*Node)
	var worklist []heap.Cell

	// discover creates the node for c on first sight and reports
	// whether it was new; the caller enqueues fresh cells, which is
	// also what keeps a cyclic graph from looping.
	discover := func(c heap.Cell) (string, bool) {
		key := fmt.Sprintf("%#x", heap.AddressOf(c))
		if _, ok := nodes[key]; ok {
			return key, false
		}
		nodes[key] = &Node{ClassName: c.ClassName()}
		return key, true
	}

	for c, origin := range roots {
		key, fresh := discover(c)
		nodes[key].Root = origin.String()
		if fresh {
			worklist = append(worklist, c)
		}
	}

	for len(worklist) > 0 {
		c := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		node := nodes[fmt.Sprintf("%#x", heap.AddressOf(c))]
		seen := make(map[string]bool)
		v := heap.NewVisitor(func(edge heap.Cell) {
			key, fresh := discover(edge)
			if fresh {
				worklist = append(worklist, edge)
			}
			if seen[key] {
				return
			}
			seen[key] = true
			node.Edges = append(node.Edges, key)
		})
		c.VisitEdges(v)
	}
	return nodes
}

// Dump writes the graph of h to w as indented JSON. A write failure is
// reported to the caller but never disturbs the heap; the dump is purely
// diagnostic.
func Dump(h *heap.Heap, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Build(h))
}

package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sprigvm/heap/heap"
)

type node struct {
	heap.CellHeader
	refs []*node
}

func (n *node) VisitEdges(v *heap.Visitor) {
	for _, r := range n.refs {
		v.Visit(r)
	}
}

func (n *node) ClassName() string { return "Node" }

func TestBuild(t *testing.T) {
	h := heap.New(nil)
	a := &node{}
	b := &node{}
	h.AllocateCell(64, a)
	h.AllocateCell(64, b)
	a.refs = append(a.refs, b)
	handle := heap.NewHandle(h, a)
	defer handle.Release()

	nodes := Build(h)
	if len(nodes) != 2 {
		t.Fatalf("graph has %d nodes, want 2", len(nodes))
	}

	aKey := fmt.Sprintf("%#x", heap.AddressOf(a))
	bKey := fmt.Sprintf("%#x", heap.AddressOf(b))

	an, ok := nodes[aKey]
	if !ok {
		t.Fatalf("rooted cell missing from the graph")
	}
	if an.ClassName != "Node" {
		t.Errorf("ClassName = %q, want Node", an.ClassName)
	}
	if an.Root != "Handle" {
		t.Errorf("root annotation = %q, want Handle", an.Root)
	}
	if len(an.Edges) != 1 || an.Edges[0] != bKey {
		t.Errorf("edges of a = %v, want [%s]", an.Edges, bKey)
	}

	bn := nodes[bKey]
	if bn == nil || bn.Root != "" {
		t.Errorf("non-root cell carries a root annotation")
	}
}

func TestBuildExcludesUnreachableCells(t *testing.T) {
	h := heap.New(nil)
	a := &node{}
	h.AllocateCell(64, a)
	handle := heap.NewHandle(h, a)
	defer handle.Release()

	// Live in its block, but no root reaches it this cycle: the sweeper
	// will reclaim it eventually, and the dump must not show it either.
	garbage := &node{}
	h.AllocateCell(64, garbage)

	nodes := Build(h)
	if len(nodes) != 1 {
		t.Fatalf("graph has %d nodes, want only the rooted one", len(nodes))
	}
	gKey := fmt.Sprintf("%#x", heap.AddressOf(garbage))
	if _, ok := nodes[gKey]; ok {
		t.Errorf("unreachable cell appears in the dump")
	}
}

func TestBuildCyclicGraph(t *testing.T) {
	h := heap.New(nil)
	a := &node{}
	b := &node{}
	h.AllocateCell(64, a)
	h.AllocateCell(64, b)
	a.refs = append(a.refs, b)
	b.refs = append(b.refs, a)
	handle := heap.NewHandle(h, a)
	defer handle.Release()

	nodes := Build(h)
	if len(nodes) != 2 {
		t.Fatalf("cyclic graph has %d nodes, want 2", len(nodes))
	}
	aKey := fmt.Sprintf("%#x", heap.AddressOf(a))
	bn := nodes[fmt.Sprintf("%#x", heap.AddressOf(b))]
	if bn == nil || len(bn.Edges) != 1 || bn.Edges[0] != aKey {
		t.Errorf("back edge of the cycle missing from the dump")
	}
}

func TestDumpIsValidJSON(t *testing.T) {
	h := heap.New(nil)
	a := &node{}
	h.AllocateCell(64, a)
	handle := heap.NewHandle(h, a)
	defer handle.Release()

	var buf bytes.Buffer
	if err := Dump(h, &buf); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]Node
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("dump is not valid JSON: %v", err)
	}
	if len(decoded) != 1 {
		t.Errorf("decoded %d nodes, want 1", len(decoded))
	}
}

func TestDumpDoesNotMark(t *testing.T) {
	h := heap.New(nil)
	a := &node{}
	h.AllocateCell(64, a)
	handle := heap.NewHandle(h, a)
	defer handle.Release()

	if err := Dump(h, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	if a.IsMarked() {
		t.Errorf("diagnostic dump left a mark bit set")
	}
}

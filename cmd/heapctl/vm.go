package main

import "github.com/sprigvm/heap/heap"

// object is the demo cell type the console allocates. Edges added with
// the link command are its outbound owned references.
type object struct {
	heap.CellHeader
	name string
	refs []*object
}

func (o *object) VisitEdges(v *heap.Visitor) {
	for _, r := range o.refs {
		v.Visit(r)
	}
}

func (o *object) ClassName() string { return "Object" }

// demoVM satisfies the heap's VM protocol with no roots of its own; the
// console exercises the precise registries directly instead.
type demoVM struct{}

func (*demoVM) GatherRoots(heap.RootSet)            {}
func (*demoVM) VisitInterpreterEdges(*heap.Visitor) {}
func (*demoVM) ConservativeRoots() []uintptr        { return nil }

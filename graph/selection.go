// graph/selection.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package graph

import (
	"sync"

	"github.com/brunoga/deep"
)

// SelectionSet is the mutable selection store. It may be updated from the
// input handling goroutine while frames are rendered; the renderer reads
// a Snapshot taken once per frame.
type SelectionSet struct {
	mu    sync.Mutex
	nodes map[int]bool
	edges map[int]bool

	// AutoSelectNeighbours makes SelectNodes also select every edge
	// incident to a selected node.
	AutoSelectNeighbours bool
}

func NewSelectionSet(autoSelectNeighbours bool) *SelectionSet {
	return &SelectionSet{
		nodes:                make(map[int]bool),
		edges:                make(map[int]bool),
		AutoSelectNeighbours: autoSelectNeighbours,
	}
}

// SelectNodes replaces the current selection with the given nodes.
func (s *SelectionSet) SelectNodes(nodes ...*BasicNode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.nodes)
	clear(s.edges)
	for _, n := range nodes {
		s.nodes[n.Id] = true
		if s.AutoSelectNeighbours {
			for _, e := range n.edges {
				s.edges[e.Id] = true
			}
		}
	}
}

// SelectEdges adds the given edges to the selection.
func (s *SelectionSet) SelectEdges(edges ...*BasicEdge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range edges {
		s.edges[e.Id] = true
	}
}

func (s *SelectionSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.nodes)
	clear(s.edges)
}

// Snapshot returns an immutable copy of the current selection.
func (s *SelectionSet) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Nodes: deep.MustCopy(s.nodes),
		Edges: deep.MustCopy(s.edges),
	}
}

// Snapshot is a Selection fixed at the time it was taken. The zero value
// is an empty selection.
type Snapshot struct {
	Nodes map[int]bool
	Edges map[int]bool
}

func (s Snapshot) IsNodeSelected(n Node) bool { return s.Nodes[n.ID()] }
func (s Snapshot) IsEdgeSelected(e Edge) bool { return s.Edges[e.ID()] }
func (s Snapshot) SomeNodesSelected() bool    { return len(s.Nodes) > 0 }
func (s Snapshot) SomeEdgesSelected() bool    { return len(s.Edges) > 0 }

var _ Selection = Snapshot{}

// graph/graph.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package graph holds the graph model the rendering pipeline reads: node
// and edge accessors, the visibility index that produces the per-frame
// element arrays, and the selection state.
package graph

import (
	"fmt"
	"slices"
	"sync"
)

// Node is the read-only view of a node that the pipeline encodes.
type Node interface {
	ID() int
	Position() [2]float32
	Size() float32
	Color() Color
}

// Edge is the read-only view of an edge. Source and Target refer to nodes
// by identity; an edge does not own its endpoints.
type Edge interface {
	ID() int
	Source() Node
	Target() Node
	Weight() float32
	Color() Color
	Directed() bool
}

// Index provides the elements that are visible in the current frame, in
// draw order. The returned slices must not be modified by the caller and
// must not change while a frame is being encoded.
type Index interface {
	VisibleNodes() []Node
	VisibleEdges() []Edge
}

// Selection answers membership queries for one frame.
type Selection interface {
	IsNodeSelected(Node) bool
	IsEdgeSelected(Edge) bool
	SomeNodesSelected() bool
	SomeEdgesSelected() bool
}

type BasicNode struct {
	Id    int
	Pos   [2]float32
	Sz    float32
	Col   Color
	edges []*BasicEdge
}

func (n *BasicNode) ID() int              { return n.Id }
func (n *BasicNode) Position() [2]float32 { return n.Pos }
func (n *BasicNode) Size() float32        { return n.Sz }
func (n *BasicNode) Color() Color         { return n.Col }

// Edges returns the edges incident to n.
func (n *BasicNode) Edges() []*BasicEdge { return n.edges }

type BasicEdge struct {
	Id         int
	Src, Tgt   *BasicNode
	W          float32
	Col        Color
	IsDirected bool
}

func (e *BasicEdge) ID() int         { return e.Id }
func (e *BasicEdge) Source() Node    { return e.Src }
func (e *BasicEdge) Target() Node    { return e.Tgt }
func (e *BasicEdge) Weight() float32 { return e.W }
func (e *BasicEdge) Color() Color    { return e.Col }
func (e *BasicEdge) Directed() bool  { return e.IsDirected }

// Graph is an in-memory graph store. It implements Index: Refresh
// recomputes the visible element arrays for a view rectangle and
// publishes them as new slices, so arrays handed out earlier are never
// modified.
type Graph struct {
	mu    sync.RWMutex
	nodes []*BasicNode
	edges []*BasicEdge
	byID  map[int]*BasicNode

	visibleNodes []Node
	visibleEdges []Edge
}

func New() *Graph {
	return &Graph{byID: make(map[int]*BasicNode)}
}

func (g *Graph) AddNode(n *BasicNode) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.byID[n.Id]; ok {
		return fmt.Errorf("node %d: %w", n.Id, ErrDuplicateID)
	}
	g.byID[n.Id] = n
	g.nodes = append(g.nodes, n)
	return nil
}

// AddEdge adds an edge between two nodes that are already in the graph.
func (g *Graph) AddEdge(e *BasicEdge) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, n := range []*BasicNode{e.Src, e.Tgt} {
		if n == nil || g.byID[n.Id] != n {
			return fmt.Errorf("edge %d: %w", e.Id, ErrUnknownNode)
		}
	}
	e.Src.edges = append(e.Src.edges, e)
	if e.Tgt != e.Src {
		e.Tgt.edges = append(e.Tgt.edges, e)
	}
	g.edges = append(g.edges, e)
	return nil
}

func (g *Graph) Node(id int) (*BasicNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.byID[id]
	return n, ok
}

func (g *Graph) Nodes() []*BasicNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.nodes)
}

func (g *Graph) Edges() []*BasicEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.edges)
}

// NodeAt returns the node drawn on top at p, which is the most recently
// added node whose disk contains it.
func (g *Graph) NodeAt(p [2]float32) (*BasicNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, n := range slices.Backward(g.nodes) {
		dx, dy := p[0]-n.Pos[0], p[1]-n.Pos[1]
		if dx*dx+dy*dy <= n.Sz*n.Sz {
			return n, true
		}
	}
	return nil, false
}

// Bounds returns the bounding box of the nodes, including their sizes.
func (g *Graph) Bounds() (p0, p1 [2]float32) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for i, n := range g.nodes {
		lo := [2]float32{n.Pos[0] - n.Sz, n.Pos[1] - n.Sz}
		hi := [2]float32{n.Pos[0] + n.Sz, n.Pos[1] + n.Sz}
		if i == 0 {
			p0, p1 = lo, hi
			continue
		}
		p0 = [2]float32{min(p0[0], lo[0]), min(p0[1], lo[1])}
		p1 = [2]float32{max(p1[0], hi[0]), max(p1[1], hi[1])}
	}
	return
}

// Refresh recomputes the visible arrays for the view rectangle [p0,p1].
// A node is visible if its disk overlaps the rectangle; an edge is
// visible if the bounding box of its endpoints does. Element order is
// insertion order.
func (g *Graph) Refresh(p0, p1 [2]float32) {
	g.mu.Lock()
	defer g.mu.Unlock()

	overlaps := func(lo, hi [2]float32) bool {
		return hi[0] >= p0[0] && lo[0] <= p1[0] && hi[1] >= p0[1] && lo[1] <= p1[1]
	}

	nodes := make([]Node, 0, len(g.visibleNodes))
	for _, n := range g.nodes {
		if overlaps([2]float32{n.Pos[0] - n.Sz, n.Pos[1] - n.Sz}, [2]float32{n.Pos[0] + n.Sz, n.Pos[1] + n.Sz}) {
			nodes = append(nodes, n)
		}
	}

	edges := make([]Edge, 0, len(g.visibleEdges))
	for _, e := range g.edges {
		s, t := e.Src.Pos, e.Tgt.Pos
		if overlaps([2]float32{min(s[0], t[0]), min(s[1], t[1])}, [2]float32{max(s[0], t[0]), max(s[1], t[1])}) {
			edges = append(edges, e)
		}
	}

	g.visibleNodes, g.visibleEdges = nodes, edges
}

// RefreshAll makes every element visible.
func (g *Graph) RefreshAll() {
	g.mu.Lock()
	defer g.mu.Unlock()

	nodes := make([]Node, len(g.nodes))
	for i, n := range g.nodes {
		nodes[i] = n
	}
	edges := make([]Edge, len(g.edges))
	for i, e := range g.edges {
		edges[i] = e
	}
	g.visibleNodes, g.visibleEdges = nodes, edges
}

func (g *Graph) VisibleNodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.visibleNodes
}

func (g *Graph) VisibleEdges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.visibleEdges
}

// Visible is a fixed Index, handy when the element arrays are built
// directly.
type Visible struct {
	Nodes []Node
	Edges []Edge
}

func (v Visible) VisibleNodes() []Node { return v.Nodes }
func (v Visible) VisibleEdges() []Edge { return v.Edges }

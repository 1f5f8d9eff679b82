// pipeline/geometry.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package pipeline

import (
	"fmt"

	"github.com/mmp/vizgl/math"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mmp/earcut-go"
)

// Mesh is triangulated unit geometry: a triangle list with Floats
// components per vertex.
type Mesh struct {
	Floats int
	Data   []float32
}

func (m Mesh) Vertices() int { return len(m.Data) / m.Floats }

type shape int

const (
	shapeEdgeUndirected shape = iota
	shapeEdgeDirected
	shapeDisk
)

type meshKey struct {
	shape    shape
	segments int
}

// Geometry builds and caches the unit meshes that strategies upload as
// their static per-vertex data. It is safe for concurrent use.
type Geometry struct {
	cache *lru.Cache[meshKey, Mesh]
}

func NewGeometry() *Geometry {
	// Four node LODs, one instanced disk, two edge shapes, with room to
	// spare for changed segment counts.
	c, err := lru.New[meshKey, Mesh](16)
	if err != nil {
		panic(err)
	}
	return &Geometry{cache: c}
}

func (g *Geometry) get(k meshKey, build func() Mesh) Mesh {
	if m, ok := g.cache.Get(k); ok {
		return m
	}
	m := build()
	g.cache.Add(k, m)
	return m
}

// triangulate returns the triangles covering the given outline as a flat
// list of vertices.
func triangulate(outline [][2]float32) [][2]float32 {
	vertices := make([]earcut.Vertex, len(outline))
	for i, v := range outline {
		vertices[i].P = [2]float64{float64(v[0]), float64(v[1])}
	}

	var tris [][2]float32
	for _, tri := range earcut.Triangulate(earcut.Polygon{Rings: [][]earcut.Vertex{vertices}}) {
		for _, v64 := range tri.Vertices {
			tris = append(tris, [2]float32{float32(v64.P[0]), float32(v64.P[1])})
		}
	}
	return tris
}

// The edge body spans x in [0,1] from source to target and y in [-1,1]
// across the edge in units of half its width.
var edgeBodyOutline = [][2]float32{{0, -1}, {1, -1}, {1, 1}, {0, 1}}

// The arrow head spans x in [0,1] from its base to its tip.
var arrowOutline = [][2]float32{{0, -1}, {1, 0}, {0, 1}}

// UndirectedEdge returns the undirected edge mesh: (x, y) per vertex.
func (g *Geometry) UndirectedEdge() Mesh {
	return g.get(meshKey{shape: shapeEdgeUndirected}, func() Mesh {
		m := Mesh{Floats: 2}
		for _, v := range triangulate(edgeBodyOutline) {
			m.Data = append(m.Data, v[0], v[1])
		}
		return m
	})
}

// DirectedEdge returns the directed edge mesh: (x, y, arrow) per vertex,
// where arrow is 0 for the body and 1 for the head.
func (g *Geometry) DirectedEdge() Mesh {
	return g.get(meshKey{shape: shapeEdgeDirected}, func() Mesh {
		m := Mesh{Floats: 3}
		for _, v := range triangulate(edgeBodyOutline) {
			m.Data = append(m.Data, v[0], v[1], 0)
		}
		for _, v := range triangulate(arrowOutline) {
			m.Data = append(m.Data, v[0], v[1], 1)
		}
		return m
	})
}

// Disk returns a unit-radius disk approximated by a regular polygon with
// the given number of segments.
func (g *Geometry) Disk(segments int) (Mesh, error) {
	if segments < 3 {
		return Mesh{}, fmt.Errorf("%d segments: disk needs at least 3", segments)
	}
	return g.get(meshKey{shape: shapeDisk, segments: segments}, func() Mesh {
		outline := make([][2]float32, segments)
		for i := range outline {
			outline[i] = math.Unit2f(2 * math.Pi() * float32(i) / float32(segments))
		}

		m := Mesh{Floats: 2}
		for _, v := range triangulate(outline) {
			m.Data = append(m.Data, v[0], v[1])
		}
		return m
	}), nil
}

// graph/generate.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package graph

import (
	"fmt"

	"github.com/mmp/vizgl/math"
	"github.com/mmp/vizgl/rand"
)

type GenerateOptions struct {
	Nodes            int
	Edges            int
	DirectedFraction float32
	Seed             int64
	// Radius of the disk the nodes are scattered over.
	Radius float32
}

var palette = []Color{
	RGBA(0x1f, 0x77, 0xb4, 0xff), RGBA(0xff, 0x7f, 0x0e, 0xff), RGBA(0x2c, 0xa0, 0x2c, 0xff),
	RGBA(0xd6, 0x27, 0x28, 0xff), RGBA(0x94, 0x67, 0xbd, 0xff), RGBA(0x8c, 0x56, 0x4b, 0xff),
}

// Generate builds a random graph with a heavy-tailed degree distribution:
// edge targets are chosen with probability proportional to their degree
// so far, and node sizes grow with degree. Node positions cluster
// loosely around a handful of community centers.
func Generate(opt GenerateOptions) (*Graph, error) {
	if opt.Nodes <= 0 || opt.Edges < 0 {
		return nil, fmt.Errorf("%d nodes, %d edges: %w", opt.Nodes, opt.Edges, ErrInvalidCount)
	}
	if opt.Radius <= 0 {
		opt.Radius = 1000
	}

	r := rand.New(opt.Seed)
	g := New()

	communities := make([][2]float32, len(palette))
	for i := range communities {
		communities[i] = math.Scale2f(math.Unit2f(2*math.Pi()*r.Float32()), opt.Radius*0.6*r.Float32())
	}

	for i := range opt.Nodes {
		c := r.Intn(len(communities))
		off := math.Scale2f(math.Unit2f(2*math.Pi()*r.Float32()), opt.Radius*0.4*math.Sqrt(r.Float32()))
		n := &BasicNode{
			Id:  i,
			Pos: math.Add2f(communities[c], off),
			Sz:  2,
			Col: palette[c],
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}

	nodes := g.Nodes()
	degree := make([]int, len(nodes))
	for i := range opt.Edges {
		src := r.Intn(len(nodes))
		tgt := rand.SampleWeighted(r, degree, func(d int) int { return d + 1 })
		if tgt == src {
			tgt = (tgt + 1) % len(nodes)
		}
		degree[src]++
		degree[tgt]++

		col := nodes[src].Col
		e := &BasicEdge{
			Id:         i,
			Src:        nodes[src],
			Tgt:        nodes[tgt],
			W:          1 + 2*r.Float32(),
			Col:        RGBA(col.R(), col.G(), col.B(), 0x80),
			IsDirected: r.Float32() < opt.DirectedFraction,
		}
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}

	for i, n := range nodes {
		n.Sz = 2 + math.Sqrt(float32(degree[i]))
	}
	g.RefreshAll()

	return g, nil
}

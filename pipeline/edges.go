// pipeline/edges.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mmp/vizgl/capture"
	"github.com/mmp/vizgl/renderer"
	"github.com/mmp/vizgl/util"
)

// Edges of each directedness are encoded into their own run, undirected
// first.
var directedness = [2]bool{false, true}

func kindName(directed bool) string { return util.Select(directed, "directed", "undirected") }

// edgeRange returns the sub-range of a run drawn in the given layer:
// unselected edges go in the back layer and selected ones in the middle.
func edgeRange(c *InstanceCounter, layer Layer) (first, n int) {
	switch layer {
	case LayerBack:
		return 0, c.DrawUnselected
	case LayerMiddle:
		return c.DrawUnselected, c.DrawSelected
	default:
		return 0, 0
	}
}

// drawWith runs fn with the program and vertex array in use.
func drawWith(p *renderer.Program, va *renderer.VertexArray, mvp *[16]float32, fn func() error) error {
	p.Use()
	defer p.Stop()

	p.SetMatrix4(uniformMVP, mvp)
	if err := va.Use(); err != nil {
		return err
	}
	err := fn()
	return errors.Join(err, va.StopUsing())
}

// edgeKind holds the device resources for drawing one directedness.
type edgeKind struct {
	directed bool
	mesh     Mesh
	program  *renderer.Program
	model    *renderer.Buffer // unit mesh, instanced only
	vertices *renderer.Buffer // expanded vertices, vertex arrays only
	va       *renderer.VertexArray
}

func newEdgeKind(dev renderer.Device, geo *Geometry, directed bool) (*edgeKind, error) {
	k := &edgeKind{directed: directed, mesh: geo.UndirectedEdge()}
	if directed {
		k.mesh = geo.DirectedEdge()
	}
	var err error
	k.program, err = newEdgeProgram(dev, directed)
	return k, err
}

func (k *edgeKind) slots() []slot {
	return util.Select(k.directed, directedEdgeSlots, undirectedEdgeSlots)
}

func (k *edgeKind) dispose() error {
	var errs []error
	if k.va != nil {
		errs = append(errs, k.va.Destroy())
	}
	for _, b := range []*renderer.Buffer{k.model, k.vertices} {
		if b != nil {
			errs = append(errs, b.Destroy())
		}
	}
	if k.program != nil {
		k.program.Destroy()
	}
	return errors.Join(errs...)
}

func disposeKinds(kinds [2]*edgeKind) error {
	var errs []error
	for _, k := range kinds {
		if k != nil {
			errs = append(errs, k.dispose())
		}
	}
	return errors.Join(errs...)
}

func edgeCounts(counters *[2]InstanceCounter) (unselected, selected int) {
	for _, c := range counters {
		unselected += c.Unselected
		selected += c.Selected
	}
	return
}

///////////////////////////////////////////////////////////////////////////
// edgesInstanced

// edgesInstanced draws one instance of the unit edge mesh per record.
// Records are streamed through a fixed-size staging chunk into a single
// growable buffer holding the undirected run followed by the directed
// one; each draw re-points the per-instance slots at its sub-range.
type edgesInstanced struct {
	descriptor
	env *env
	dev renderer.Device

	staging  []float32
	records  recordPair
	counters [2]InstanceCounter

	// First record of each run, as encoded and as uploaded.
	start, drawStart [2]int

	instances *renderer.Buffer
	kinds     [2]*edgeKind
}

func newEdgesInstanced(e *env) *edgesInstanced {
	return &edgesInstanced{
		descriptor: descriptor{
			name:      "instanced",
			category:  CategoryEdges,
			priority:  priorityInstanced,
			layers:    []Layer{LayerBack, LayerMiddle},
			order:     orderEdges,
			available: needsInstancing,
		},
		env: e,
	}
}

func (s *edgesInstanced) Init(dev renderer.Device, caps renderer.Capabilities) error {
	s.dev = dev

	n := s.env.opt.StagingRecords * EdgeRecordFloats
	var err error
	if s.records, err = newRecordPair(s.env, "edges/instanced", n); err != nil {
		return err
	}
	s.staging = make([]float32, n)

	s.instances = renderer.NewBuffer(dev, renderer.ArrayBuffer)
	if err := s.instances.Init(4*s.records.next.Capacity(), renderer.StreamDraw); err != nil {
		return err
	}

	for i, directed := range directedness {
		k, err := newEdgeKind(dev, s.env.geo, directed)
		s.kinds[i] = k
		if err != nil {
			return err
		}
		k.model = renderer.NewBuffer(dev, renderer.ArrayBuffer)
		if err := k.model.InitWithData(util.ByteView(k.mesh.Data), renderer.StaticDraw); err != nil {
			return err
		}
		k.va = renderer.NewVertexArray(dev, caps,
			instancedLayout(k.model, s.instances, k.mesh, k.slots(), EdgeRecordFloats))
	}
	return nil
}

func (s *edgesInstanced) UpdateWorld(ctx context.Context, w *World) error {
	enc := newEdgeEncoder(w.Selection, s.env.frameOptions(w))

	s.records.begin()
	recs := s.records.next
	recs.Rewind()
	for i, directed := range directedness {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.start[i] = recs.Position() / EdgeRecordFloats
		if _, err := enc.Encode(w.Edges, directed, s.staging, 0, growSink{recs}, &s.counters[i]); err != nil {
			return fmt.Errorf("%s edges: %w", kindName(directed), err)
		}
	}
	s.records.encoded()
	return nil
}

func (s *edgesInstanced) WorldUpdated() error {
	if !s.records.ready {
		return nil
	}
	if err := upload(s.instances, s.records.next.Bytes()); err != nil {
		return err
	}
	for i := range s.counters {
		s.counters[i].Promote()
	}
	s.drawStart = s.start
	s.records.publish()
	return nil
}

func (s *edgesInstanced) Render(layer Layer, cam Camera) error {
	if !s.drawsIn(layer) {
		return nil
	}

	var mvp [16]float32
	cam.ModelViewProjection(&mvp)

	for i, k := range s.kinds {
		first, n := edgeRange(&s.counters[i], layer)
		if n == 0 {
			continue
		}
		first += s.drawStart[i]

		err := drawWith(k.program, k.va, &mvp, func() error {
			if err := k.va.Rebase(4 * first * EdgeRecordFloats); err != nil {
				return err
			}
			s.dev.DrawArraysInstanced(renderer.Triangles, 0, int32(k.mesh.Vertices()), int32(n))
			return nil
		})
		if err != nil {
			return fmt.Errorf("%s edges: %w", kindName(k.directed), err)
		}
	}
	return s.dev.CheckError()
}

func (s *edgesInstanced) encoded() (unselected, selected int) { return edgeCounts(&s.counters) }

func (s *edgesInstanced) capture() []capture.Run {
	recs := s.records.drawn.Written()
	var runs []capture.Run
	for i, directed := range directedness {
		c := s.counters[i]
		start := s.drawStart[i] * EdgeRecordFloats
		runs = append(runs, capture.Run{
			Kind:       kindName(directed),
			Stride:     EdgeRecordFloats,
			Unselected: c.DrawUnselected,
			Selected:   c.DrawSelected,
			Records:    slices.Clone(recs[start : start+c.DrawTotal()*EdgeRecordFloats]),
		})
	}
	return runs
}

func (s *edgesInstanced) Dispose() error {
	err := disposeKinds(s.kinds)
	if s.instances != nil {
		err = errors.Join(err, s.instances.Destroy())
	}
	s.records.destroy()
	return err
}

///////////////////////////////////////////////////////////////////////////
// edgesArray

// edgesArray draws plain triangle lists for contexts without instancing:
// every record is copied once per vertex of the unit edge mesh.
type edgesArray struct {
	descriptor
	env *env
	dev renderer.Device

	records  recordPair
	counters [2]InstanceCounter

	// Number of floats of records encoded and uploaded.
	written, drawWritten int

	vertices [2]*renderer.ManagedBuffer[float32]
	kinds    [2]*edgeKind
}

func newEdgesArray(e *env) *edgesArray {
	return &edgesArray{
		descriptor: descriptor{
			name:      "array",
			category:  CategoryEdges,
			priority:  priorityArray,
			layers:    []Layer{LayerBack, LayerMiddle},
			order:     orderEdges,
			available: alwaysAvailable,
		},
		env: e,
	}
}

func (s *edgesArray) Init(dev renderer.Device, caps renderer.Capabilities) error {
	s.dev = dev

	var err error
	if s.records, err = newRecordPair(s.env, "edges/array", s.env.opt.StagingRecords*EdgeRecordFloats); err != nil {
		return err
	}

	for i, directed := range directedness {
		k, err := newEdgeKind(dev, s.env.geo, directed)
		s.kinds[i] = k
		if err != nil {
			return err
		}

		name := "edges/array/" + kindName(directed)
		if s.vertices[i], err = newManaged[float32](s.env, name, 0); err != nil {
			return err
		}
		k.vertices = renderer.NewBuffer(dev, renderer.ArrayBuffer)
		if err := k.vertices.Init(0, renderer.StreamDraw); err != nil {
			return err
		}
		k.va = renderer.NewVertexArray(dev, caps, expandedLayout(k.vertices, k.mesh, k.slots(), EdgeRecordFloats))
	}
	return nil
}

func (s *edgesArray) UpdateWorld(ctx context.Context, w *World) error {
	enc := newEdgeEncoder(w.Selection, s.env.frameOptions(w))

	s.records.begin()
	recs := s.records.next
	if _, err := recs.EnsureCapacity(len(w.Edges) * EdgeRecordFloats); err != nil {
		return err
	}

	index := 0
	for i, directed := range directedness {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := index

		var err error
		if index, err = enc.Encode(w.Edges, directed, recs.Elements(), index, nil, &s.counters[i]); err != nil {
			return fmt.Errorf("%s edges: %w", kindName(directed), err)
		}

		s.vertices[i].Rewind()
		if err := expand(s.vertices[i], recs.Elements()[start:index], EdgeRecordFloats, s.kinds[i].mesh); err != nil {
			return fmt.Errorf("%s edges: %w", kindName(directed), err)
		}
	}
	s.written = index
	s.records.encoded()
	return nil
}

func (s *edgesArray) WorldUpdated() error {
	if !s.records.ready {
		return nil
	}
	for i, k := range s.kinds {
		if err := upload(k.vertices, s.vertices[i].Bytes()); err != nil {
			return err
		}
		s.counters[i].Promote()
	}
	s.drawWritten = s.written
	s.records.publish()
	return nil
}

func (s *edgesArray) Render(layer Layer, cam Camera) error {
	if !s.drawsIn(layer) {
		return nil
	}

	var mvp [16]float32
	cam.ModelViewProjection(&mvp)

	for i, k := range s.kinds {
		first, n := edgeRange(&s.counters[i], layer)
		if n == 0 {
			continue
		}
		nv := k.mesh.Vertices()

		err := drawWith(k.program, k.va, &mvp, func() error {
			s.dev.DrawArrays(renderer.Triangles, int32(first*nv), int32(n*nv))
			return nil
		})
		if err != nil {
			return fmt.Errorf("%s edges: %w", kindName(k.directed), err)
		}
	}
	return s.dev.CheckError()
}

func (s *edgesArray) encoded() (unselected, selected int) { return edgeCounts(&s.counters) }

func (s *edgesArray) capture() []capture.Run {
	recs := s.records.drawn.Elements()[:s.drawWritten]
	var runs []capture.Run
	start := 0
	for i, directed := range directedness {
		c := s.counters[i]
		end := start + c.DrawTotal()*EdgeRecordFloats
		runs = append(runs, capture.Run{
			Kind:       kindName(directed),
			Stride:     EdgeRecordFloats,
			Unselected: c.DrawUnselected,
			Selected:   c.DrawSelected,
			Records:    slices.Clone(recs[start:end]),
		})
		start = end
	}
	return runs
}

func (s *edgesArray) Dispose() error {
	err := disposeKinds(s.kinds)
	for _, v := range s.vertices {
		if v != nil {
			v.Destroy()
		}
	}
	s.records.destroy()
	return err
}

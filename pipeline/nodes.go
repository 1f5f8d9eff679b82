// pipeline/nodes.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mmp/vizgl/capture"
	"github.com/mmp/vizgl/graph"
	"github.com/mmp/vizgl/renderer"
	"github.com/mmp/vizgl/util"
)

// Nodes are drawn in the middle layer in two passes, unselected then
// selected. The pass sets the color emphasis uniforms.
func setNodePass(p *renderer.Program, opt *Options, selected bool) {
	if selected {
		p.SetFloat(uniformColorBias, 0)
		p.SetFloat(uniformColorMultiplier, 1)
	} else {
		p.SetFloat(uniformColorBias, opt.DimBias)
		p.SetFloat(uniformColorMultiplier, opt.DimMultiplier)
	}
}

// nodePass is a sub-range of node records drawn with one emphasis.
type nodePass struct {
	selected bool
	first, n int
}

func nodePasses(c *InstanceCounter) [2]nodePass {
	return [2]nodePass{
		{selected: false, first: 0, n: c.DrawUnselected},
		{selected: true, first: c.DrawUnselected, n: c.DrawSelected},
	}
}

func nodeRun(kind string, c InstanceCounter, recs []float32) capture.Run {
	return capture.Run{
		Kind:       kind,
		Stride:     NodeRecordFloats,
		Unselected: c.DrawUnselected,
		Selected:   c.DrawSelected,
		Records:    slices.Clone(recs[:c.DrawTotal()*NodeRecordFloats]),
	}
}

// nodeResources is what every node strategy owns on the device.
type nodeResources struct {
	program *renderer.Program
	buffers []*renderer.Buffer
	va      *renderer.VertexArray
}

func (r *nodeResources) buffer(dev renderer.Device, target renderer.BufferTarget) *renderer.Buffer {
	b := renderer.NewBuffer(dev, target)
	r.buffers = append(r.buffers, b)
	return b
}

func (r *nodeResources) dispose() error {
	var errs []error
	if r.va != nil {
		errs = append(errs, r.va.Destroy())
	}
	for _, b := range r.buffers {
		errs = append(errs, b.Destroy())
	}
	if r.program != nil {
		r.program.Destroy()
	}
	return errors.Join(errs...)
}

///////////////////////////////////////////////////////////////////////////
// nodesIndirect

// lodDraw is one indirect command: the records of one (pass, level of
// detail) bucket drawn with that level's disk.
type lodDraw struct {
	selected bool
	start    int // first record
	command  int
}

// nodesIndirect draws nodes with one of several disks depending on their
// on-screen size. Records are grouped by pass and level of detail and
// each non-empty group is drawn by a command stored in a draw-indirect
// buffer.
type nodesIndirect struct {
	descriptor
	env *env
	dev renderer.Device
	nodeResources

	enc      nodeEncoder
	records  recordPair
	commands *renderer.ManagedBuffer[int32]
	counter  InstanceCounter
	buckets  lodBuckets
	draws    []lodDraw
	pending  []lodDraw

	// Where each level's disk lives in the model buffer, in vertices.
	lodFirst, lodCount [numLODs]int

	instances, commandBuffer *renderer.Buffer
}

func newNodesIndirect(e *env) *nodesIndirect {
	return &nodesIndirect{
		descriptor: descriptor{
			name:      "indirect",
			category:  CategoryNodes,
			priority:  priorityIndirect,
			layers:    []Layer{LayerMiddle},
			order:     orderNodes,
			available: needsIndirect,
		},
		env: e,
	}
}

func (s *nodesIndirect) Init(dev renderer.Device, caps renderer.Capabilities) error {
	s.dev = dev

	var err error
	if s.records, err = newRecordPair(s.env, "nodes/indirect", s.env.opt.StagingRecords*NodeRecordFloats); err != nil {
		return err
	}
	if s.commands, err = newManaged[int32](s.env, "nodes/indirect/commands", 4*2*numLODs); err != nil {
		return err
	}

	// All of the disks share one model buffer.
	var mesh []float32
	for l, segments := range s.env.opt.LODSegments {
		disk, err := s.env.geo.Disk(segments)
		if err != nil {
			return fmt.Errorf("level of detail %d: %w", l, err)
		}
		s.lodFirst[l], s.lodCount[l] = len(mesh)/disk.Floats, disk.Vertices()
		mesh = append(mesh, disk.Data...)
	}

	if s.program, err = newNodeProgram(dev); err != nil {
		return err
	}
	model := s.buffer(dev, renderer.ArrayBuffer)
	if err := model.InitWithData(util.ByteView(mesh), renderer.StaticDraw); err != nil {
		return err
	}
	s.instances = s.buffer(dev, renderer.ArrayBuffer)
	if err := s.instances.Init(4*s.records.next.Capacity(), renderer.StreamDraw); err != nil {
		return err
	}
	s.commandBuffer = s.buffer(dev, renderer.DrawIndirectBuffer)
	if err := s.commandBuffer.Init(4*s.commands.Capacity(), renderer.StreamDraw); err != nil {
		return err
	}

	s.va = renderer.NewVertexArray(dev, caps,
		instancedLayout(model, s.instances, Mesh{Floats: 2}, nodeSlots, NodeRecordFloats))
	return nil
}

func (s *nodesIndirect) UpdateWorld(ctx context.Context, w *World) error {
	opt := s.env.frameOptions(w)
	s.enc.begin(w.Selection, opt)
	s.records.begin()

	if _, err := s.records.next.EnsureCapacity(len(w.Nodes) * NodeRecordFloats); err != nil {
		return err
	}
	lod := func(n graph.Node) int { return opt.lod(n.Size(), w.Zoom) }
	if err := s.enc.EncodeLOD(w.Nodes, lod, s.records.next.Elements(), &s.counter, &s.buckets); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.commands.Rewind()
	s.pending = s.pending[:0]
	start := 0
	for pass := range s.buckets {
		for l, n := range s.buckets[pass] {
			if n == 0 {
				continue
			}
			s.pending = append(s.pending, lodDraw{selected: pass == 1, start: start, command: len(s.pending)})
			cmd := []int32{int32(s.lodCount[l]), int32(n), int32(s.lodFirst[l]), 0}
			if _, err := s.commands.EnsureCapacity(s.commands.Position() + len(cmd)); err != nil {
				return err
			}
			if err := s.commands.Put(cmd); err != nil {
				return err
			}
			start += n
		}
	}
	s.records.encoded()
	return nil
}

func (s *nodesIndirect) WorldUpdated() error {
	if !s.records.ready {
		return nil
	}
	recs := s.records.next.Elements()[:s.counter.Total()*NodeRecordFloats]
	if err := upload(s.instances, util.ByteView(recs)); err != nil {
		return err
	}
	if err := upload(s.commandBuffer, s.commands.Bytes()); err != nil {
		return err
	}
	s.counter.Promote()
	s.draws = append(s.draws[:0], s.pending...)
	s.records.publish()
	return nil
}

func (s *nodesIndirect) Render(layer Layer, cam Camera) error {
	if !s.drawsIn(layer) || len(s.draws) == 0 {
		return nil
	}

	var mvp [16]float32
	cam.ModelViewProjection(&mvp)

	err := drawWith(s.program, s.va, &mvp, func() error {
		if err := s.commandBuffer.Bind(); err != nil {
			return err
		}
		var err error
		for _, d := range s.draws {
			setNodePass(s.program, s.env.opt, d.selected)
			if err = s.va.Rebase(4 * d.start * NodeRecordFloats); err != nil {
				break
			}
			s.dev.DrawArraysIndirect(renderer.Triangles, 16*d.command)
		}
		return errors.Join(err, s.commandBuffer.Unbind())
	})
	if err != nil {
		return fmt.Errorf("nodes: %w", err)
	}
	return s.dev.CheckError()
}

func (s *nodesIndirect) encoded() (unselected, selected int) {
	return s.counter.Unselected, s.counter.Selected
}

func (s *nodesIndirect) capture() []capture.Run {
	return []capture.Run{nodeRun("nodes", s.counter, s.records.drawn.Elements())}
}

func (s *nodesIndirect) Dispose() error {
	err := s.dispose()
	s.records.destroy()
	if s.commands != nil {
		s.commands.Destroy()
	}
	return err
}

///////////////////////////////////////////////////////////////////////////
// nodesInstanced

// nodesInstanced draws one instance of the node disk per record, with a
// draw per pass.
type nodesInstanced struct {
	descriptor
	env *env
	dev renderer.Device
	nodeResources

	enc     nodeEncoder
	staging []float32
	records recordPair
	counter InstanceCounter

	disk      Mesh
	instances *renderer.Buffer
}

func newNodesInstanced(e *env) *nodesInstanced {
	return &nodesInstanced{
		descriptor: descriptor{
			name:      "instanced",
			category:  CategoryNodes,
			priority:  priorityInstanced,
			layers:    []Layer{LayerMiddle},
			order:     orderNodes,
			available: needsInstancing,
		},
		env: e,
	}
}

func (s *nodesInstanced) Init(dev renderer.Device, caps renderer.Capabilities) error {
	s.dev = dev

	n := s.env.opt.StagingRecords * NodeRecordFloats
	var err error
	if s.records, err = newRecordPair(s.env, "nodes/instanced", n); err != nil {
		return err
	}
	s.staging = make([]float32, n)

	if s.disk, err = s.env.geo.Disk(s.env.opt.NodeDiskSegments); err != nil {
		return err
	}
	if s.program, err = newNodeProgram(dev); err != nil {
		return err
	}
	model := s.buffer(dev, renderer.ArrayBuffer)
	if err := model.InitWithData(util.ByteView(s.disk.Data), renderer.StaticDraw); err != nil {
		return err
	}
	s.instances = s.buffer(dev, renderer.ArrayBuffer)
	if err := s.instances.Init(4*s.records.next.Capacity(), renderer.StreamDraw); err != nil {
		return err
	}

	s.va = renderer.NewVertexArray(dev, caps, instancedLayout(model, s.instances, s.disk, nodeSlots, NodeRecordFloats))
	return nil
}

func (s *nodesInstanced) UpdateWorld(ctx context.Context, w *World) error {
	s.enc.begin(w.Selection, s.env.frameOptions(w))
	s.records.begin()
	s.records.next.Rewind()
	if _, err := s.enc.Encode(w.Nodes, s.staging, 0, growSink{s.records.next}, &s.counter); err != nil {
		return err
	}
	s.records.encoded()
	return nil
}

func (s *nodesInstanced) WorldUpdated() error {
	if !s.records.ready {
		return nil
	}
	if err := upload(s.instances, s.records.next.Bytes()); err != nil {
		return err
	}
	s.counter.Promote()
	s.records.publish()
	return nil
}

func (s *nodesInstanced) Render(layer Layer, cam Camera) error {
	if !s.drawsIn(layer) || s.counter.DrawTotal() == 0 {
		return nil
	}

	var mvp [16]float32
	cam.ModelViewProjection(&mvp)

	err := drawWith(s.program, s.va, &mvp, func() error {
		for _, p := range nodePasses(&s.counter) {
			if p.n == 0 {
				continue
			}
			setNodePass(s.program, s.env.opt, p.selected)
			if err := s.va.Rebase(4 * p.first * NodeRecordFloats); err != nil {
				return err
			}
			s.dev.DrawArraysInstanced(renderer.Triangles, 0, int32(s.disk.Vertices()), int32(p.n))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("nodes: %w", err)
	}
	return s.dev.CheckError()
}

func (s *nodesInstanced) encoded() (unselected, selected int) {
	return s.counter.Unselected, s.counter.Selected
}

func (s *nodesInstanced) capture() []capture.Run {
	return []capture.Run{nodeRun("nodes", s.counter, s.records.drawn.Written())}
}

func (s *nodesInstanced) Dispose() error {
	err := s.dispose()
	s.records.destroy()
	return err
}

///////////////////////////////////////////////////////////////////////////
// nodesArray

// nodesArray copies every record once per disk vertex and draws plain
// triangle lists.
type nodesArray struct {
	descriptor
	env *env
	dev renderer.Device
	nodeResources

	enc      nodeEncoder
	records  recordPair
	vertices *renderer.ManagedBuffer[float32]
	counter  InstanceCounter

	written, drawWritten int

	disk     Mesh
	expanded *renderer.Buffer
}

func newNodesArray(e *env) *nodesArray {
	return &nodesArray{
		descriptor: descriptor{
			name:      "array",
			category:  CategoryNodes,
			priority:  priorityArray,
			layers:    []Layer{LayerMiddle},
			order:     orderNodes,
			available: alwaysAvailable,
		},
		env: e,
	}
}

func (s *nodesArray) Init(dev renderer.Device, caps renderer.Capabilities) error {
	s.dev = dev

	var err error
	if s.records, err = newRecordPair(s.env, "nodes/array", s.env.opt.StagingRecords*NodeRecordFloats); err != nil {
		return err
	}
	if s.vertices, err = newManaged[float32](s.env, "nodes/array/vertices", 0); err != nil {
		return err
	}
	if s.disk, err = s.env.geo.Disk(s.env.opt.NodeDiskSegments); err != nil {
		return err
	}
	if s.program, err = newNodeProgram(dev); err != nil {
		return err
	}
	s.expanded = s.buffer(dev, renderer.ArrayBuffer)
	if err := s.expanded.Init(0, renderer.StreamDraw); err != nil {
		return err
	}
	s.va = renderer.NewVertexArray(dev, caps, expandedLayout(s.expanded, s.disk, nodeSlots, NodeRecordFloats))
	return nil
}

func (s *nodesArray) UpdateWorld(ctx context.Context, w *World) error {
	s.enc.begin(w.Selection, s.env.frameOptions(w))
	s.records.begin()

	recs := s.records.next
	if _, err := recs.EnsureCapacity(len(w.Nodes) * NodeRecordFloats); err != nil {
		return err
	}
	n, err := s.enc.Encode(w.Nodes, recs.Elements(), 0, nil, &s.counter)
	if err != nil {
		return err
	}
	s.written = n

	if err := ctx.Err(); err != nil {
		return err
	}
	s.vertices.Rewind()
	if err := expand(s.vertices, recs.Elements()[:n], NodeRecordFloats, s.disk); err != nil {
		return err
	}
	s.records.encoded()
	return nil
}

func (s *nodesArray) WorldUpdated() error {
	if !s.records.ready {
		return nil
	}
	if err := upload(s.expanded, s.vertices.Bytes()); err != nil {
		return err
	}
	s.counter.Promote()
	s.drawWritten = s.written
	s.records.publish()
	return nil
}

func (s *nodesArray) Render(layer Layer, cam Camera) error {
	if !s.drawsIn(layer) || s.counter.DrawTotal() == 0 {
		return nil
	}

	var mvp [16]float32
	cam.ModelViewProjection(&mvp)

	nv := s.disk.Vertices()
	err := drawWith(s.program, s.va, &mvp, func() error {
		for _, p := range nodePasses(&s.counter) {
			if p.n == 0 {
				continue
			}
			setNodePass(s.program, s.env.opt, p.selected)
			s.dev.DrawArrays(renderer.Triangles, int32(p.first*nv), int32(p.n*nv))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("nodes: %w", err)
	}
	return s.dev.CheckError()
}

func (s *nodesArray) encoded() (unselected, selected int) {
	return s.counter.Unselected, s.counter.Selected
}

func (s *nodesArray) capture() []capture.Run {
	return []capture.Run{nodeRun("nodes", s.counter, s.records.drawn.Elements()[:s.drawWritten])}
}

func (s *nodesArray) Dispose() error {
	err := s.dispose()
	s.records.destroy()
	if s.vertices != nil {
		s.vertices.Destroy()
	}
	return err
}

// pipeline/strategy.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package pipeline

import (
	"context"
	"slices"

	"github.com/mmp/vizgl/capture"
	"github.com/mmp/vizgl/graph"
	"github.com/mmp/vizgl/log"
	"github.com/mmp/vizgl/metrics"
	"github.com/mmp/vizgl/renderer"
)

// Camera supplies the view transform for a draw.
type Camera interface {
	// ModelViewProjection stores the column-major world to clip space
	// transform in m.
	ModelViewProjection(m *[16]float32)
	// Zoom returns the number of window pixels per world unit.
	Zoom() float32
}

// World is the read-only input to one encoding pass.
type World struct {
	Nodes     []graph.Node
	Edges     []graph.Edge
	Selection graph.Selection
	Zoom      float32

	HideNonSelected bool
}

// Renderer draws one category of elements. Init, WorldUpdated, Render
// and Dispose are called on the rendering thread.
type Renderer interface {
	Name() string
	Category() Category
	// Priority orders the strategies of a category; lower is preferred.
	Priority() int
	// Layers returns the layers the renderer draws in.
	Layers() []Layer
	// Order sorts renderers within a layer; lower draws first.
	Order() int
	IsAvailable(caps renderer.Capabilities) bool

	Init(dev renderer.Device, caps renderer.Capabilities) error
	// WorldUpdated uploads the records encoded by the paired
	// WorldUpdater.
	WorldUpdated() error
	Render(layer Layer, cam Camera) error
	Dispose() error
}

// WorldUpdater encodes the visible world into attribute records for its
// paired Renderer. UpdateWorld only touches CPU memory owned by the
// pair, so the updaters of different categories may run concurrently.
type WorldUpdater interface {
	Name() string
	Category() Category
	IsAvailable(caps renderer.Capabilities) bool
	UpdateWorld(ctx context.Context, w *World) error
}

// capturer is implemented by strategies that can report the records
// they uploaded for the current frame.
type capturer interface {
	capture() []capture.Run
}

// counted is implemented by strategies that report their encode-time
// record counts.
type counted interface {
	encoded() (unselected, selected int)
}

// env is what the pipeline hands every strategy it constructs.
type env struct {
	opt     *Options
	geo     *Geometry
	lg      *log.Logger
	metrics *metrics.Registry
}

// frameOptions returns the options in effect for w.
func (e *env) frameOptions(w *World) *Options {
	o := *e.opt
	o.HideNonSelected = w.HideNonSelected
	return &o
}

func newManaged[T renderer.Element](e *env, name string, capacity int) (*renderer.ManagedBuffer[T], error) {
	mb, err := renderer.NewManagedBuffer[T](name, capacity, e.lg)
	if err != nil {
		return nil, err
	}
	mb.OnGrow(e.metrics.BufferGrew)
	return mb, nil
}

// recordPair holds the buffer records are encoded into alongside the
// one whose records were last uploaded, so that encoding the next frame
// leaves the uploaded records intact. Both share a name for metrics.
type recordPair struct {
	next, drawn *renderer.ManagedBuffer[float32]
	ready       bool
}

func newRecordPair(e *env, name string, capacity int) (recordPair, error) {
	next, err := newManaged[float32](e, name, capacity)
	if err != nil {
		return recordPair{}, err
	}
	drawn, err := newManaged[float32](e, name, 0)
	if err != nil {
		return recordPair{}, err
	}
	return recordPair{next: next, drawn: drawn}, nil
}

// begin is called before encoding into next.
func (rp *recordPair) begin() { rp.ready = false }

// encoded marks next as holding a complete frame.
func (rp *recordPair) encoded() { rp.ready = true }

// publish swaps next and drawn after next has been uploaded. It returns
// false if nothing has been encoded since the last publish.
func (rp *recordPair) publish() bool {
	if !rp.ready {
		return false
	}
	rp.next, rp.drawn = rp.drawn, rp.next
	rp.ready = false
	return true
}

func (rp *recordPair) destroy() {
	for _, mb := range []*renderer.ManagedBuffer[float32]{rp.next, rp.drawn} {
		if mb != nil {
			mb.Destroy()
		}
	}
}

// descriptor holds the static properties shared by every strategy.
type descriptor struct {
	name      string
	category  Category
	priority  int
	layers    []Layer
	order     int
	available func(renderer.Capabilities) bool
}

func (d *descriptor) Name() string       { return d.name }
func (d *descriptor) Category() Category { return d.category }
func (d *descriptor) Priority() int      { return d.priority }
func (d *descriptor) Layers() []Layer    { return d.layers }
func (d *descriptor) Order() int         { return d.order }

func (d *descriptor) IsAvailable(caps renderer.Capabilities) bool {
	return d.available == nil || d.available(caps)
}

func (d *descriptor) drawsIn(layer Layer) bool { return slices.Contains(d.layers, layer) }

func alwaysAvailable(renderer.Capabilities) bool { return true }

func needsInstancing(caps renderer.Capabilities) bool { return caps.Instancing }

func needsIndirect(caps renderer.Capabilities) bool {
	return caps.DrawIndirect && caps.Instancing && caps.VertexArrayObjects
}

// growSink appends streamed records to a ManagedBuffer, growing it as
// needed.
type growSink struct {
	mb *renderer.ManagedBuffer[float32]
}

func (s growSink) Put(v []float32) error {
	if _, err := s.mb.EnsureCapacity(s.mb.Position() + len(v)); err != nil {
		return err
	}
	return s.mb.Put(v)
}

// upload makes buf large enough for data and copies data into it.
func upload(buf *renderer.Buffer, data []byte) error {
	if _, err := buf.Reallocate(len(data)); err != nil {
		return err
	}
	return buf.Update(data)
}

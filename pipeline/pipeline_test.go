// pipeline/pipeline_test.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/mmp/vizgl/capture"
	"github.com/mmp/vizgl/graph"
	"github.com/mmp/vizgl/metrics"
	"github.com/mmp/vizgl/renderer"
	"github.com/mmp/vizgl/renderer/rendertest"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type testCamera struct{ zoom float32 }

func (c testCamera) ModelViewProjection(m *[16]float32) {
	*m = [16]float32{c.zoom, 0, 0, 0, 0, c.zoom, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

func (c testCamera) Zoom() float32 { return c.zoom }

var (
	capsIndirect  = renderer.Capabilities{Major: 4, Minor: 3, Instancing: true, VertexArrayObjects: true, DrawIndirect: true}
	capsInstanced = renderer.Capabilities{Major: 4, Minor: 1, Instancing: true, VertexArrayObjects: true}
	capsNoVAO     = renderer.Capabilities{Major: 3, Minor: 1, Instancing: true}
	capsMinimal   = renderer.Capabilities{Major: 2, Minor: 1}
)

// testWorld has four nodes of sizes 1 through 4, three undirected edges
// 0-2 and two directed edges 3-4. Nodes 1 and 3 and edges 1 and 4 are
// selected.
func testWorld() (graph.Visible, graph.Snapshot) {
	var v graph.Visible
	var nodes []*graph.BasicNode
	for i := range 4 {
		n := &graph.BasicNode{Id: i, Pos: [2]float32{float32(10 * i), float32(i % 2)}, Sz: float32(i + 1),
			Col: graph.RGBA(uint8(40*i), 0x80, 0x80, 0xff)}
		nodes = append(nodes, n)
		v.Nodes = append(v.Nodes, n)
	}
	for i, ends := range [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {0, 2}} {
		v.Edges = append(v.Edges, &graph.BasicEdge{Id: i, Src: nodes[ends[0]], Tgt: nodes[ends[1]], W: float32(i),
			Col: graph.RGBA(0x20, 0x40, 0x60, 0xff), IsDirected: i >= 3})
	}
	return v, graph.Snapshot{Nodes: map[int]bool{1: true, 3: true}, Edges: map[int]bool{1: true, 4: true}}
}

func newTestPipeline(t *testing.T, caps renderer.Capabilities, opt Options, reg *metrics.Registry) (*Pipeline, *rendertest.Device) {
	t.Helper()

	p := New(opt, nil, reg)
	if err := RegisterDefaults(p); err != nil {
		t.Fatal(err)
	}
	d := rendertest.NewDevice()
	if err := p.Init(d, caps); err != nil {
		t.Fatalf("%s: %v", caps, err)
	}
	return p, d
}

func renderFrame(t *testing.T, p *Pipeline, d *rendertest.Device) renderer.Stats {
	t.Helper()

	v, sel := testWorld()
	d.ResetDraws()
	stats, err := p.RenderFrame(context.Background(), v, sel, testCamera{zoom: 10})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.CheckError(); err != nil {
		t.Fatal(err)
	}
	return stats
}

func TestPipelineSelection(t *testing.T) {
	for _, tc := range []struct {
		caps         renderer.Capabilities
		nodes, edges string
	}{
		{caps: capsIndirect, nodes: "indirect", edges: "instanced"},
		{caps: capsInstanced, nodes: "instanced", edges: "instanced"},
		{caps: capsNoVAO, nodes: "instanced", edges: "instanced"},
		{caps: capsMinimal, nodes: "array", edges: "array"},
	} {
		p, _ := newTestPipeline(t, tc.caps, DefaultOptions(), nil)
		active := p.Active()
		if active[CategoryNodes] != tc.nodes || active[CategoryEdges] != tc.edges {
			t.Errorf("%s: active %v, expected nodes %s edges %s", tc.caps, active, tc.nodes, tc.edges)
		}
		if err := p.Dispose(); err != nil {
			t.Error(err)
		}
	}

	opt := DefaultOptions()
	opt.Preferred = map[Category]string{CategoryNodes: "array", CategoryEdges: "array"}
	p, _ := newTestPipeline(t, capsIndirect, opt, nil)
	if active := p.Active(); active[CategoryNodes] != "array" || active[CategoryEdges] != "array" {
		t.Errorf("preferred strategies not used: %v", active)
	}
}

// checkEdgeDraws checks the edge draws of an instanced frame: unselected
// in the back layer and selected in the middle one, undirected first.
func checkEdgeDraws(t *testing.T, draws []rendertest.Draw) {
	t.Helper()

	for i, want := range []struct {
		count, instances int32
		offset           int
	}{
		{count: 6, instances: 2, offset: 0},      // undirected 0 2
		{count: 9, instances: 1, offset: 4 * 30}, // directed 3
		{count: 6, instances: 1, offset: 4 * 20}, // undirected 1
		{count: 9, instances: 1, offset: 4 * 40}, // directed 4
	} {
		dr := draws[i]
		if dr.Kind != rendertest.DrawInstanced || dr.Count != want.count || dr.Instances != want.instances {
			t.Errorf("edge draw %d: kind %d count %d instances %d, expected %d and %d", i, dr.Kind, dr.Count,
				dr.Instances, want.count, want.instances)
		}
		if p := dr.Pointers[locPosition]; p.Offset != want.offset || p.Divisor != 1 || p.Stride != 4*EdgeRecordFloats {
			t.Errorf("edge draw %d: position slot %+v, expected offset %d", i, p, want.offset)
		}
		if p := dr.Pointers[locVert]; p.Offset != 0 || p.Divisor != 0 {
			t.Errorf("edge draw %d: vertex slot %+v", i, p)
		}
	}
}

func TestPipelineInstanced(t *testing.T) {
	for _, caps := range []renderer.Capabilities{capsInstanced, capsNoVAO} {
		p, d := newTestPipeline(t, caps, DefaultOptions(), nil)
		stats := renderFrame(t, p, d)

		if len(d.Draws) != 6 {
			t.Fatalf("%s: %d draws, expected 6", caps, len(d.Draws))
		}
		if stats.DrawCalls != 6 {
			t.Errorf("%s: stats report %d draw calls", caps, stats.DrawCalls)
		}
		checkEdgeDraws(t, d.Draws[:4])

		for i, want := range []struct {
			instances  int32
			offset     int
			bias, mult float32
		}{
			{instances: 2, offset: 0, bias: 0.5, mult: 0.5},
			{instances: 2, offset: 4 * 8, bias: 0, mult: 1},
		} {
			dr := d.Draws[4+i]
			if dr.Kind != rendertest.DrawInstanced || dr.Count != 90 || dr.Instances != want.instances {
				t.Errorf("%s: node draw %d: count %d instances %d", caps, i, dr.Count, dr.Instances)
			}
			if off := dr.Pointers[locPosition].Offset; off != want.offset {
				t.Errorf("%s: node draw %d: position offset %d, expected %d", caps, i, off, want.offset)
			}
			bias, _ := d.UniformValue(dr, uniformColorBias)
			mult, _ := d.UniformValue(dr, uniformColorMultiplier)
			if bias != want.bias || mult != want.mult {
				t.Errorf("%s: node draw %d: bias %f multiplier %f", caps, i, bias, mult)
			}
		}

		// The slot state is restored once drawing is done.
		if caps.VertexArrayObjects {
			if d.BoundVAO() != 0 {
				t.Errorf("%s: vertex array left bound", caps)
			}
		} else {
			for loc, ptr := range d.DefaultArray().Pointers {
				if ptr.Enabled || ptr.Divisor != 0 {
					t.Errorf("%s: slot %d left as %+v", caps, loc, ptr)
				}
			}
		}
		if d.CurrentProgram() != 0 {
			t.Errorf("%s: program left in use", caps)
		}

		if err := p.Dispose(); err != nil {
			t.Error(err)
		}
		if d.LiveBuffers() != 0 || d.LiveArrays() != 0 || d.LivePrograms() != 0 {
			t.Errorf("%s: %d buffers, %d arrays, %d programs left after Dispose", caps, d.LiveBuffers(),
				d.LiveArrays(), d.LivePrograms())
		}
	}
}

func TestPipelineIndirect(t *testing.T) {
	p, d := newTestPipeline(t, capsIndirect, DefaultOptions(), nil)
	renderFrame(t, p, d)

	// At zoom 10 nodes of size 1 through 4 have on-screen radii 10, 20,
	// 30 and 40, which gives levels 2, 1, 1 and 0.
	if len(d.Draws) != 8 {
		t.Fatalf("%d draws, expected 8", len(d.Draws))
	}
	checkEdgeDraws(t, d.Draws[:4])

	opt := DefaultOptions()
	var first [numLODs]int32
	var count [numLODs]int32
	for l := range numLODs {
		count[l] = int32(3 * (opt.LODSegments[l] - 2))
		if l > 0 {
			first[l] = first[l-1] + count[l-1]
		}
	}
	for i, want := range []struct {
		lod, start int
		selected   bool
	}{
		{lod: 1, start: 0},                 // node 2
		{lod: 2, start: 1},                 // node 0
		{lod: 0, start: 2, selected: true}, // node 3
		{lod: 1, start: 3, selected: true}, // node 1
	} {
		dr := d.Draws[4+i]
		if dr.Kind != rendertest.DrawIndirect || dr.IndirectOffset != 16*i {
			t.Errorf("node draw %d: kind %d command offset %d", i, dr.Kind, dr.IndirectOffset)
		}
		if dr.Count != count[want.lod] || dr.First != first[want.lod] || dr.Instances != 1 {
			t.Errorf("node draw %d: count %d first %d instances %d, expected level %d", i, dr.Count, dr.First,
				dr.Instances, want.lod)
		}
		if off := dr.Pointers[locPosition].Offset; off != 4*NodeRecordFloats*want.start {
			t.Errorf("node draw %d: position offset %d", i, off)
		}
		bias, _ := d.UniformValue(dr, uniformColorBias)
		if want.selected != (bias == 0) {
			t.Errorf("node draw %d: bias %f", i, bias)
		}
	}

	f, err := p.Capture()
	if err != nil {
		t.Fatal(err)
	}
	nodes := f.Strategies[1]
	if nodes.Category != string(CategoryNodes) || nodes.Name != "indirect" {
		t.Fatalf("unexpected strategy %+v", nodes)
	}
	var order []int
	for i := range nodes.Runs[0].Len() {
		order = append(order, int(nodes.Runs[0].Record(i)[0]/10))
	}
	if !slices.Equal(order, []int{2, 0, 3, 1}) {
		t.Errorf("node record order %v", order)
	}

	if err := p.Dispose(); err != nil {
		t.Error(err)
	}
	if d.LiveBuffers() != 0 || d.LiveArrays() != 0 || d.LivePrograms() != 0 {
		t.Errorf("%d buffers, %d arrays, %d programs left after Dispose", d.LiveBuffers(), d.LiveArrays(),
			d.LivePrograms())
	}
}

func TestPipelineArray(t *testing.T) {
	p, d := newTestPipeline(t, capsMinimal, DefaultOptions(), nil)
	renderFrame(t, p, d)

	want := []struct{ first, count int32 }{
		{0, 12}, {0, 9}, // back: undirected 0 2, directed 3
		{12, 6}, {9, 9}, // middle: undirected 1, directed 4
		{0, 180}, {180, 180},
	}
	if len(d.Draws) != len(want) {
		t.Fatalf("%d draws, expected %d", len(d.Draws), len(want))
	}
	for i, w := range want {
		dr := d.Draws[i]
		if dr.Kind != rendertest.DrawArrays || dr.First != w.first || dr.Count != w.count {
			t.Errorf("draw %d: kind %d first %d count %d, expected %d %d", i, dr.Kind, dr.First, dr.Count,
				w.first, w.count)
		}
	}

	// Every vertex of the undirected edge buffer carries a copy of its
	// record after the mesh vertex.
	ptr := d.Draws[0].Pointers[locPosition]
	buf := d.Buffers[ptr.Buffer].Floats()
	stride := ptr.Stride / 4
	if stride != 2+EdgeRecordFloats || len(buf) < 3*6*stride {
		t.Fatalf("stride %d with %d floats", stride, len(buf))
	}
	for v, wantWeight := range []float32{0, 0, 0, 0, 0, 0, 2, 2, 2, 2, 2, 2, 1, 1, 1, 1, 1, 1} {
		if w := buf[v*stride+2+4]; w != wantWeight {
			t.Errorf("vertex %d: weight %f, expected %f", v, w, wantWeight)
		}
	}

	if err := p.Dispose(); err != nil {
		t.Error(err)
	}
	if d.LiveBuffers() != 0 || d.LiveArrays() != 0 || d.LivePrograms() != 0 {
		t.Errorf("%d buffers, %d arrays, %d programs left after Dispose", d.LiveBuffers(), d.LiveArrays(),
			d.LivePrograms())
	}
}

func TestPipelineHideNonSelected(t *testing.T) {
	for _, caps := range []renderer.Capabilities{capsIndirect, capsInstanced, capsMinimal} {
		p, d := newTestPipeline(t, caps, DefaultOptions(), nil)
		p.SetHideNonSelected(true)
		renderFrame(t, p, d)

		// Two selected edges and two selected nodes; nothing in the back.
		n := 0
		for _, dr := range d.Draws {
			n += int(dr.Instances)
			// The node draws come last.
			nodeProgram := d.Draws[len(d.Draws)-1].Program
			if bias, ok := d.UniformValue(dr, uniformColorBias); ok && bias != 0 && dr.Program == nodeProgram {
				t.Errorf("%s: dimmed node draw while hiding", caps)
			}
		}
		if caps.Instancing && n != 4 {
			t.Errorf("%s: %d instances drawn, expected 4", caps, n)
		}

		f, err := p.Capture()
		if err != nil {
			t.Fatal(err)
		}
		for _, s := range f.Strategies {
			for _, r := range s.Runs {
				if r.Unselected != 0 {
					t.Errorf("%s: %s/%s %s run has %d unselected records", caps, s.Category, s.Name, r.Kind,
						r.Unselected)
				}
			}
		}
	}
}

func TestPipelineCapture(t *testing.T) {
	for _, caps := range []renderer.Capabilities{capsIndirect, capsInstanced, capsMinimal} {
		p, d := newTestPipeline(t, caps, DefaultOptions(), nil)
		renderFrame(t, p, d)

		f, err := p.Capture()
		if err != nil {
			t.Fatal(err)
		}
		if f.Pipeline != p.ID().String() || len(f.Strategies) != 2 {
			t.Fatalf("%s: unexpected frame %+v", caps, f)
		}
		edges := f.Strategies[0]
		if edges.Category != string(CategoryEdges) || len(edges.Runs) != 2 {
			t.Fatalf("%s: unexpected edge strategy %+v", caps, edges)
		}
		for i, want := range [][]int{{0, 2, 1}, {3, 4}} {
			r := edges.Runs[i]
			var weights []int
			for j := range r.Len() {
				weights = append(weights, weight(r.Record(j)))
			}
			if !slices.Equal(weights, want) || r.Unselected != len(want)-1 || r.Selected != 1 {
				t.Errorf("%s: %s run: weights %v, %d/%d", caps, r.Kind, weights, r.Unselected, r.Selected)
			}
		}

		var buf bytes.Buffer
		if err := capture.Write(&buf, f); err != nil {
			t.Fatal(err)
		}
		g, err := capture.Read(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if g.Records() != f.Records() || f.Records() != 9 {
			t.Errorf("%s: %d records read back, expected %d", caps, g.Records(), f.Records())
		}
	}
}

// sameRuns compares the records of two captures bit for bit; packed
// colors may be NaNs.
func sameRuns(a, b *capture.Frame) bool {
	if len(a.Strategies) != len(b.Strategies) {
		return false
	}
	for i, sa := range a.Strategies {
		sb := b.Strategies[i]
		if sa.Category != sb.Category || sa.Name != sb.Name || len(sa.Runs) != len(sb.Runs) {
			return false
		}
		for j, ra := range sa.Runs {
			rb := sb.Runs[j]
			if ra.Kind != rb.Kind || ra.Unselected != rb.Unselected || ra.Selected != rb.Selected ||
				!slices.EqualFunc(ra.Records, rb.Records, func(x, y float32) bool {
					return math.Float32bits(x) == math.Float32bits(y)
				}) {
				return false
			}
		}
	}
	return true
}

func TestPipelineCaptureBetweenUpdates(t *testing.T) {
	ctx := context.Background()
	g, err := graph.Generate(graph.GenerateOptions{Nodes: 30, Edges: 70, DirectedFraction: 0.5, Seed: 3})
	if err != nil {
		t.Fatal(err)
	}

	for _, caps := range []renderer.Capabilities{capsIndirect, capsInstanced, capsMinimal} {
		p, d := newTestPipeline(t, caps, DefaultOptions(), nil)
		renderFrame(t, p, d)
		uploaded, err := p.Capture()
		if err != nil {
			t.Fatal(err)
		}

		// Encoding a larger world must not disturb what was uploaded.
		if err := p.UpdateWorld(ctx, g, graph.Snapshot{}, testCamera{zoom: 10}); err != nil {
			t.Fatal(err)
		}
		f, err := p.Capture()
		if err != nil {
			t.Fatal(err)
		}
		if !sameRuns(f, uploaded) || f.Records() != 9 {
			t.Errorf("%s: capture after UpdateWorld has %d records, expected the 9 uploaded", caps, f.Records())
		}

		if err := p.WorldUpdated(); err != nil {
			t.Fatal(err)
		}
		next, err := p.Capture()
		if err != nil {
			t.Fatal(err)
		}
		if next.Records() != 100 {
			t.Errorf("%s: %d records after WorldUpdated, expected 100", caps, next.Records())
		}

		// Nothing new has been encoded, so a second upload changes nothing.
		if err := p.WorldUpdated(); err != nil {
			t.Fatal(err)
		}
		if f, err := p.Capture(); err != nil || !sameRuns(f, next) {
			t.Errorf("%s: repeated WorldUpdated changed the capture: %v", caps, err)
		}
		if err := d.CheckError(); err != nil {
			t.Error(err)
		}
		if err := p.Dispose(); err != nil {
			t.Error(err)
		}
	}
}

func TestPipelineLifecycle(t *testing.T) {
	v, sel := testWorld()
	cam := testCamera{zoom: 1}
	ctx := context.Background()

	p := New(DefaultOptions(), nil, nil)
	if err := RegisterDefaults(p); err != nil {
		t.Fatal(err)
	}
	if err := p.UpdateWorld(ctx, v, sel, cam); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("UpdateWorld before Init: %v", err)
	}
	if err := p.WorldUpdated(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("WorldUpdated before Init: %v", err)
	}
	if err := p.Render(LayerMiddle, cam); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Render before Init: %v", err)
	}
	if _, err := p.Capture(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Capture before Init: %v", err)
	}

	d := rendertest.NewDevice()
	if err := p.Init(d, capsInstanced); err != nil {
		t.Fatal(err)
	}
	if err := p.Init(d, capsInstanced); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Init: %v", err)
	}
	s := newNodesArray(p.env)
	if err := p.Register(s, s); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("Register after Init: %v", err)
	}

	// Drawing before anything is uploaded draws nothing.
	for _, layer := range Layers {
		if err := p.Render(layer, cam); err != nil {
			t.Fatal(err)
		}
	}
	if len(d.Draws) != 0 {
		t.Errorf("%d draws before the first upload", len(d.Draws))
	}

	// Draw counts only change once the records are uploaded.
	if err := p.UpdateWorld(ctx, v, sel, cam); err != nil {
		t.Fatal(err)
	}
	if err := p.Render(LayerMiddle, cam); err != nil || len(d.Draws) != 0 {
		t.Errorf("draws before WorldUpdated: %d, %v", len(d.Draws), err)
	}
	if err := p.WorldUpdated(); err != nil {
		t.Fatal(err)
	}
	if err := p.Render(LayerMiddle, cam); err != nil || len(d.Draws) != 4 {
		t.Errorf("draws after WorldUpdated: %d, %v", len(d.Draws), err)
	}

	if err := p.Dispose(); err != nil {
		t.Fatal(err)
	}
	if err := p.Dispose(); !errors.Is(err, ErrAlreadyDisposed) {
		t.Errorf("second Dispose: %v", err)
	}
	if err := p.Render(LayerMiddle, cam); !errors.Is(err, ErrAlreadyDisposed) {
		t.Errorf("Render after Dispose: %v", err)
	}
	if d.LiveBuffers() != 0 || d.LiveArrays() != 0 || d.LivePrograms() != 0 {
		t.Errorf("%d buffers, %d arrays, %d programs left after Dispose", d.LiveBuffers(), d.LiveArrays(),
			d.LivePrograms())
	}
}

func TestPipelineInitFailure(t *testing.T) {
	p := New(DefaultOptions(), nil, nil)
	if err := RegisterDefaults(p); err != nil {
		t.Fatal(err)
	}
	d := rendertest.NewDevice()
	d.FailCompile = true
	if err := p.Init(d, capsInstanced); err == nil {
		t.Fatal("expected Init to fail")
	}
	if d.LiveBuffers() != 0 || d.LivePrograms() != 0 {
		t.Errorf("%d buffers, %d programs left after failed Init", d.LiveBuffers(), d.LivePrograms())
	}
	if err := p.Init(d, capsInstanced); !errors.Is(err, ErrAlreadyDisposed) {
		t.Errorf("Init after failure: %v", err)
	}
}

func TestPipelineGrowth(t *testing.T) {
	opt := DefaultOptions()
	opt.StagingRecords = 2
	reg := metrics.NewRegistry()

	for _, caps := range []renderer.Capabilities{capsIndirect, capsMinimal} {
		p, d := newTestPipeline(t, caps, opt, reg)

		// A larger world than the initial capacity of any buffer.
		g, err := graph.Generate(graph.GenerateOptions{Nodes: 200, Edges: 600, DirectedFraction: 0.5, Seed: 7})
		if err != nil {
			t.Fatal(err)
		}

		d.ResetDraws()
		if _, err := p.RenderFrame(context.Background(), g, graph.Snapshot{}, testCamera{zoom: 1}); err != nil {
			t.Fatal(err)
		}
		if err := d.CheckError(); err != nil {
			t.Fatal(err)
		}

		f, err := p.Capture()
		if err != nil {
			t.Fatal(err)
		}
		total := 0
		for _, s := range f.Strategies {
			for _, r := range s.Runs {
				total += r.Len()
				if r.Unselected != 0 {
					t.Errorf("%s: %s run has unselected records with no selection", caps, r.Kind)
				}
			}
		}
		if total != 800 {
			t.Errorf("%s: captured %d records, expected 800", caps, total)
		}
		if err := p.Dispose(); err != nil {
			t.Error(err)
		}
	}

	if n := testutil.ToFloat64(reg.FramesTotal); n != 2 {
		t.Errorf("%f frames counted, expected 2", n)
	}
	if n := testutil.ToFloat64(reg.BufferGrowthTotal.WithLabelValues("edges/instanced")); n == 0 {
		t.Errorf("edge buffer growth not counted")
	}
}

// pipeline/encoder.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package pipeline

import (
	"fmt"

	"github.com/mmp/vizgl/graph"
)

// Sink receives completed runs of records when encoding streams into a
// growable buffer rather than into a caller-sized array.
type Sink interface {
	Put([]float32) error
}

// recordWriter hands out fixed-stride record slots in attribs. With a
// Sink, attribs is a staging chunk that is flushed whenever it fills
// exactly and once more at the end for whatever remains.
type recordWriter struct {
	attribs []float32
	index   int
	stride  int
	direct  Sink
}

func newRecordWriter(attribs []float32, index, stride int, direct Sink) (*recordWriter, error) {
	if direct != nil {
		if len(attribs)%stride != 0 {
			return nil, fmt.Errorf("%d floats, stride %d: %w", len(attribs), stride, ErrMisalignedStaging)
		}
		if index%stride != 0 {
			return nil, fmt.Errorf("index %d, stride %d: %w", index, stride, ErrMisalignedIndex)
		}
	}
	return &recordWriter{attribs: attribs, index: index, stride: stride, direct: direct}, nil
}

func (w *recordWriter) next() ([]float32, error) {
	if w.index < 0 || w.index+w.stride > len(w.attribs) {
		return nil, fmt.Errorf("record at %d with %d floats: %w", w.index, len(w.attribs), ErrAttribsOverflow)
	}
	r := w.attribs[w.index : w.index+w.stride : w.index+w.stride]
	w.index += w.stride
	return r, nil
}

func (w *recordWriter) written() error {
	if w.direct != nil && w.index == len(w.attribs) {
		if err := w.direct.Put(w.attribs); err != nil {
			return err
		}
		w.index = 0
	}
	return nil
}

func (w *recordWriter) finish() error {
	if w.direct != nil && w.index > 0 {
		if err := w.direct.Put(w.attribs[:w.index]); err != nil {
			return err
		}
		w.index = 0
	}
	return nil
}

// edgeEncoder holds the selection state and color policy for one frame.
type edgeEncoder struct {
	sel       graph.Selection
	someEdges bool
	someNodes bool
	hide      bool

	selectionColor             bool
	bothColor, outColor, inColor float32
	dimBias, dimMultiplier       float32
}

func newEdgeEncoder(sel graph.Selection, opt *Options) *edgeEncoder {
	return &edgeEncoder{
		sel:            sel,
		someEdges:      sel.SomeEdgesSelected(),
		someNodes:      sel.SomeNodesSelected(),
		hide:           opt.HideNonSelected,
		selectionColor: opt.EdgeSelectionColor,
		bothColor:      opt.EdgeBothSelectionColor.Float(),
		outColor:       opt.EdgeOutSelectionColor.Float(),
		inColor:        opt.EdgeInSelectionColor.Float(),
		dimBias:        opt.DimBias,
		dimMultiplier:  opt.DimMultiplier,
	}
}

// Encode writes one record per visible edge of the given directedness into
// attribs starting at index and sets counter's encode-time counts. While
// some edges are selected, unselected edges are written first so that
// selected ones draw on top; with hiding enabled they are skipped. With
// no selection every edge is counted as selected.
//
// If direct is nil, attribs must be large enough for every record and
// the index following the last record is returned. Otherwise attribs is
// a staging chunk streamed into direct and the returned index is 0.
func (enc *edgeEncoder) Encode(edges []graph.Edge, directed bool, attribs []float32, index int, direct Sink,
	counter *InstanceCounter) (int, error) {
	w, err := newRecordWriter(attribs, index, EdgeRecordFloats, direct)
	if err != nil {
		return index, err
	}

	fill := enc.fillUndirected
	if directed {
		fill = enc.fillDirected
	}
	emit := func(e graph.Edge, selected bool) error {
		r, err := w.next()
		if err != nil {
			return err
		}
		fill(r, e, selected)
		return w.written()
	}

	var unselected, selected int
	if !enc.someEdges {
		for _, e := range edges {
			if e.Directed() != directed {
				continue
			}
			selected++
			if err := emit(e, true); err != nil {
				return w.index, err
			}
		}
	} else {
		if !enc.hide {
			for _, e := range edges {
				if e.Directed() != directed || enc.sel.IsEdgeSelected(e) {
					continue
				}
				unselected++
				if err := emit(e, false); err != nil {
					return w.index, err
				}
			}
		}
		for _, e := range edges {
			if e.Directed() != directed || !enc.sel.IsEdgeSelected(e) {
				continue
			}
			selected++
			if err := emit(e, true); err != nil {
				return w.index, err
			}
		}
	}

	if err := w.finish(); err != nil {
		return w.index, err
	}

	counter.Unselected, counter.Selected = unselected, selected
	return w.index, nil
}

// resolveColor returns the packed color, bias and multiplier for an edge.
func (enc *edgeEncoder) resolveColor(e graph.Edge, selected bool) (color, bias, multiplier float32) {
	base := e.Color().Float()
	if !enc.someEdges {
		return base, 0, 1
	} else if !selected {
		return base, enc.dimBias, enc.dimMultiplier
	}

	src, tgt := e.Source(), e.Target()
	if enc.someNodes && enc.selectionColor {
		srcSelected, tgtSelected := enc.sel.IsNodeSelected(src), enc.sel.IsNodeSelected(tgt)
		switch {
		case srcSelected && tgtSelected:
			return enc.bothColor, 0, 1
		case srcSelected:
			return enc.outColor, 0, 1
		case tgtSelected:
			return enc.inColor, 0, 1
		default:
			return base, 0, 1
		}
	}

	// Without selection coloring a selected edge keeps the dim pair. A
	// transparent one next to a selected node takes the color of its
	// other endpoint.
	if enc.someNodes && e.Color().Alpha() <= 0 {
		if enc.sel.IsNodeSelected(src) {
			return tgt.Color().Float(), enc.dimBias, enc.dimMultiplier
		}
		return src.Color().Float(), enc.dimBias, enc.dimMultiplier
	}
	return base, enc.dimBias, enc.dimMultiplier
}

func (enc *edgeEncoder) fillUndirected(r []float32, e graph.Edge, selected bool) {
	src, tgt := e.Source(), e.Target()
	sp, tp := src.Position(), tgt.Position()

	r[0], r[1] = sp[0], sp[1]
	r[2], r[3] = tp[0], tp[1]
	r[4] = e.Weight()
	r[5] = src.Color().Float()
	r[6] = tgt.Color().Float()
	c := r[undirectedColorOffset:]
	c[0], c[1], c[2] = enc.resolveColor(e, selected)
}

func (enc *edgeEncoder) fillDirected(r []float32, e graph.Edge, selected bool) {
	src, tgt := e.Source(), e.Target()
	sp, tp := src.Position(), tgt.Position()

	r[0], r[1] = sp[0], sp[1]
	r[2], r[3] = tp[0], tp[1]
	r[4] = e.Weight()
	r[5] = src.Color().Float()
	c := r[directedColorOffset:]
	c[0], c[1], c[2] = enc.resolveColor(e, selected)
	r[9] = tgt.Size()
}

///////////////////////////////////////////////////////////////////////////
// Nodes

type nodeEncoder struct {
	sel       graph.Selection
	someNodes bool
	hide      bool

	keys []int8 // scratch for EncodeLOD
}

// begin prepares the encoder for a frame; the encoder itself is kept
// across frames so that its scratch memory is reused.
func (enc *nodeEncoder) begin(sel graph.Selection, opt *Options) {
	enc.sel, enc.someNodes, enc.hide = sel, sel.SomeNodesSelected(), opt.HideNonSelected
}

func fillNode(r []float32, n graph.Node) {
	p := n.Position()
	r[0], r[1] = p[0], p[1]
	r[2] = n.Color().Float()
	r[3] = n.Size()
}

// Encode writes one record per visible node, following the same pass
// order and counting rules as edgeEncoder.Encode.
func (enc *nodeEncoder) Encode(nodes []graph.Node, attribs []float32, index int, direct Sink,
	counter *InstanceCounter) (int, error) {
	w, err := newRecordWriter(attribs, index, NodeRecordFloats, direct)
	if err != nil {
		return index, err
	}
	emit := func(n graph.Node) error {
		r, err := w.next()
		if err != nil {
			return err
		}
		fillNode(r, n)
		return w.written()
	}

	var unselected, selected int
	if !enc.someNodes {
		for _, n := range nodes {
			selected++
			if err := emit(n); err != nil {
				return w.index, err
			}
		}
	} else {
		if !enc.hide {
			for _, n := range nodes {
				if !enc.sel.IsNodeSelected(n) {
					unselected++
					if err := emit(n); err != nil {
						return w.index, err
					}
				}
			}
		}
		for _, n := range nodes {
			if enc.sel.IsNodeSelected(n) {
				selected++
				if err := emit(n); err != nil {
					return w.index, err
				}
			}
		}
	}

	if err := w.finish(); err != nil {
		return w.index, err
	}

	counter.Unselected, counter.Selected = unselected, selected
	return w.index, nil
}

// lodBuckets counts the records in each (pass, level of detail) bucket;
// pass 0 holds unselected nodes and pass 1 selected ones.
type lodBuckets [2][numLODs]int

// EncodeLOD is like Encode but additionally groups the records of each
// pass by level of detail, finest first, keeping visibility order within
// a bucket. attribs must hold every record.
func (enc *nodeEncoder) EncodeLOD(nodes []graph.Node, lod func(graph.Node) int, attribs []float32,
	counter *InstanceCounter, buckets *lodBuckets) error {
	*buckets = lodBuckets{}

	if cap(enc.keys) < len(nodes) {
		enc.keys = make([]int8, len(nodes))
	}
	keys := enc.keys[:len(nodes)]

	total := 0
	for i, n := range nodes {
		pass := 1
		if enc.someNodes && !enc.sel.IsNodeSelected(n) {
			if enc.hide {
				keys[i] = -1
				continue
			}
			pass = 0
		}
		l := lod(n)
		keys[i] = int8(pass*numLODs + l)
		buckets[pass][l]++
		total++
	}

	if total*NodeRecordFloats > len(attribs) {
		return fmt.Errorf("%d records with %d floats: %w", total, len(attribs), ErrAttribsOverflow)
	}

	var offsets [2 * numLODs]int
	sum := 0
	for pass := range 2 {
		for l := range numLODs {
			offsets[pass*numLODs+l] = sum
			sum += buckets[pass][l]
		}
	}

	for i, n := range nodes {
		k := keys[i]
		if k < 0 {
			continue
		}
		o := offsets[k] * NodeRecordFloats
		fillNode(attribs[o:o+NodeRecordFloats], n)
		offsets[k]++
	}

	counter.Unselected, counter.Selected = 0, 0
	for l := range numLODs {
		counter.Unselected += buckets[0][l]
		counter.Selected += buckets[1][l]
	}
	return nil
}

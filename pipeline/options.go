// pipeline/options.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package pipeline

import (
	"github.com/mmp/vizgl/graph"
)

// Options controls how the visible graph is encoded and drawn.
type Options struct {
	// HideNonSelected drops unselected elements entirely while a
	// selection is active.
	HideNonSelected bool

	// EdgeSelectionColor enables coloring selected edges by which of
	// their endpoints are selected.
	EdgeSelectionColor bool
	EdgeBothSelectionColor graph.Color
	EdgeOutSelectionColor  graph.Color
	EdgeInSelectionColor   graph.Color

	// Color bias and multiplier applied to unselected elements while a
	// selection is active, and to selected edges when EdgeSelectionColor
	// is off.
	DimBias       float32
	DimMultiplier float32

	// NodeDiskSegments is the number of segments in the node disk used
	// by the instanced and vertex-array node strategies.
	NodeDiskSegments int
	// LODSegments gives the disk segment count for each node level of
	// detail, finest first, and LODThresholds the on-screen radii in
	// pixels at or above which each of the first three is used.
	LODSegments   [numLODs]int
	LODThresholds [numLODs - 1]float32

	// StagingRecords is the number of records encoded between flushes
	// when streaming into a growable buffer.
	StagingRecords int

	// Preferred pins a strategy, by name, for a category. A pinned
	// strategy that is unavailable falls back to priority order.
	Preferred map[Category]string
}

func DefaultOptions() Options {
	return Options{
		EdgeSelectionColor:     false,
		EdgeBothSelectionColor: graph.RGBA(0xff, 0xff, 0x00, 0xff),
		EdgeOutSelectionColor:  graph.RGBA(0xff, 0x00, 0x00, 0xff),
		EdgeInSelectionColor:   graph.RGBA(0x00, 0xa0, 0x00, 0xff),
		DimBias:                0.5,
		DimMultiplier:          0.5,
		NodeDiskSegments:       32,
		LODSegments:            [numLODs]int{64, 32, 16, 8},
		LODThresholds:          [numLODs - 1]float32{40, 12, 4},
		StagingRecords:         4096,
	}
}

// lod returns the level of detail for a node of the given world size at
// the given zoom.
func (o *Options) lod(size, zoom float32) int {
	r := size * zoom
	for i, t := range o.LODThresholds {
		if r >= t {
			return i
		}
	}
	return numLODs - 1
}

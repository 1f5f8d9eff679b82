// pipeline/constants.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package pipeline

// Shader input locations. They are bound by name before linking so every
// program and every vertex layout agrees on them.
const (
	locVert uint32 = iota
	locPosition
	locTargetPosition
	locSize
	locSourceColor
	locTargetColor
	locColor
	locColorBias
	locColorMultiplier
	locTargetSize
)

var attribLocations = map[string]uint32{
	"vert":            locVert,
	"position":        locPosition,
	"targetPosition":  locTargetPosition,
	"size":            locSize,
	"sourceColor":     locSourceColor,
	"targetColor":     locTargetColor,
	"elementColor":    locColor,
	"colorBias":       locColorBias,
	"colorMultiplier": locColorMultiplier,
	"targetSize":      locTargetSize,
}

// Edge attribute records. Both edge kinds use the same stride so that a
// single staging array serves both.
//
//	undirected: sx sy tx ty weight srcColor tgtColor color bias mult
//	directed:   sx sy tx ty weight srcColor color bias mult targetSize
const (
	EdgeRecordFloats = 10

	undirectedColorOffset = 7
	directedColorOffset   = 6
)

// Node attribute records: x y color size. Selection emphasis for nodes is
// applied per draw through uniforms rather than stored per record.
const NodeRecordFloats = 4

// Layer is a draw-order bucket; the frame driver renders the layers in
// increasing order.
type Layer int

const (
	LayerBack Layer = iota
	LayerMiddle
	LayerFront
)

func (l Layer) String() string {
	switch l {
	case LayerBack:
		return "back"
	case LayerMiddle:
		return "middle"
	case LayerFront:
		return "front"
	default:
		return "unknown"
	}
}

// Layers lists every layer in drawing order.
var Layers = []Layer{LayerBack, LayerMiddle, LayerFront}

// Category groups the interchangeable strategies for one element kind.
type Category string

const (
	CategoryNodes Category = "nodes"
	CategoryEdges Category = "edges"
)

// Draw order within a layer.
const (
	orderEdges = 0
	orderNodes = 1
)

// Strategy priorities; lower values are tried first.
const (
	priorityIndirect  = 0
	priorityInstanced = 10
	priorityArray     = 20
)

// Node level-of-detail disks, finest first.
const numLODs = 4

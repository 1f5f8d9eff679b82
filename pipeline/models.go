// pipeline/models.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package pipeline

import (
	"github.com/mmp/vizgl/renderer"
)

// slot describes one record field that feeds a shader input.
type slot struct {
	location   uint32
	components int32
	typ        renderer.DataType
	normalized bool
	offset     int // in floats from the start of the record
}

func floatSlot(loc uint32, components int32, offset int) slot {
	return slot{location: loc, components: components, typ: renderer.Float, offset: offset}
}

// Packed colors are four normalized unsigned bytes stored in the bits of
// one float.
func colorSlot(loc uint32, offset int) slot {
	return slot{location: loc, components: 4, typ: renderer.UnsignedByte, normalized: true, offset: offset}
}

var undirectedEdgeSlots = []slot{
	floatSlot(locPosition, 2, 0),
	floatSlot(locTargetPosition, 2, 2),
	floatSlot(locSize, 1, 4),
	colorSlot(locSourceColor, 5),
	colorSlot(locTargetColor, 6),
	colorSlot(locColor, undirectedColorOffset),
	floatSlot(locColorBias, 1, undirectedColorOffset+1),
	floatSlot(locColorMultiplier, 1, undirectedColorOffset+2),
}

var directedEdgeSlots = []slot{
	floatSlot(locPosition, 2, 0),
	floatSlot(locTargetPosition, 2, 2),
	floatSlot(locSize, 1, 4),
	colorSlot(locSourceColor, 5),
	colorSlot(locColor, directedColorOffset),
	floatSlot(locColorBias, 1, directedColorOffset+1),
	floatSlot(locColorMultiplier, 1, directedColorOffset+2),
	floatSlot(locTargetSize, 1, 9),
}

var nodeSlots = []slot{
	floatSlot(locPosition, 2, 0),
	colorSlot(locColor, 2),
	floatSlot(locSize, 1, 3),
}

// recordAttributes returns the attributes for the record fields in buf.
// Each vertex (or instance) is stride bytes and its record starts base
// bytes into it.
func recordAttributes(buf *renderer.Buffer, slots []slot, base, stride int, perInstance bool) []renderer.Attribute {
	attribs := make([]renderer.Attribute, len(slots))
	for i, s := range slots {
		attribs[i] = renderer.Attribute{
			Location:    s.location,
			Components:  s.components,
			Type:        s.typ,
			Normalized:  s.normalized,
			Buffer:      buf,
			Stride:      stride,
			Offset:      base + 4*s.offset,
			PerInstance: perInstance,
		}
	}
	return attribs
}

// vertAttribute is the unit geometry vertex at the start of each vertex.
func vertAttribute(buf *renderer.Buffer, components int32, stride int) renderer.Attribute {
	return renderer.Attribute{
		Location:   locVert,
		Components: components,
		Type:       renderer.Float,
		Buffer:     buf,
		Stride:     stride,
	}
}

// instancedLayout binds the unit mesh in model to locVert, advancing per
// vertex, and the records in instances, advancing per instance.
func instancedLayout(model, instances *renderer.Buffer, mesh Mesh, slots []slot, recordFloats int) func() []renderer.Attribute {
	return func() []renderer.Attribute {
		return append([]renderer.Attribute{vertAttribute(model, int32(mesh.Floats), 4*mesh.Floats)},
			recordAttributes(instances, slots, 0, 4*recordFloats, true)...)
	}
}

// expandedLayout binds vertices that each carry a mesh vertex followed by
// a copy of its record.
func expandedLayout(vertices *renderer.Buffer, mesh Mesh, slots []slot, recordFloats int) func() []renderer.Attribute {
	stride := 4 * (mesh.Floats + recordFloats)
	return func() []renderer.Attribute {
		return append([]renderer.Attribute{vertAttribute(vertices, int32(mesh.Floats), stride)},
			recordAttributes(vertices, slots, 4*mesh.Floats, stride, false)...)
	}
}

// expand appends each record to dst once per mesh vertex, preceded by
// that vertex.
func expand(dst *renderer.ManagedBuffer[float32], records []float32, recordFloats int, mesh Mesh) error {
	n := len(records) / recordFloats * mesh.Vertices() * (mesh.Floats + recordFloats)
	if _, err := dst.EnsureCapacity(dst.Position() + n); err != nil {
		return err
	}
	for r := 0; r+recordFloats <= len(records); r += recordFloats {
		rec := records[r : r+recordFloats]
		for v := 0; v < len(mesh.Data); v += mesh.Floats {
			if err := dst.Put(mesh.Data[v : v+mesh.Floats]); err != nil {
				return err
			}
			if err := dst.Put(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////
// Shaders

const (
	uniformMVP             = "mvp"
	uniformColorBias       = "globalColorBias"
	uniformColorMultiplier = "globalColorMultiplier"
)

var edgeUniforms = []string{uniformMVP}

var nodeUniforms = []string{uniformMVP, uniformColorBias, uniformColorMultiplier}

const colorFragmentShader = `
#version 410 core

in vec4 fragColor;
out vec4 outColor;

void main() {
    outColor = fragColor;
}
`

const undirectedEdgeVertexShader = `
#version 410 core

in vec2 vert;
in vec2 position;
in vec2 targetPosition;
in float size;
in vec4 sourceColor;
in vec4 targetColor;
in vec4 elementColor;
in float colorBias;
in float colorMultiplier;

uniform mat4 mvp;

out vec4 fragColor;

void main() {
    vec2 dir = targetPosition - position;
    float len = length(dir);
    vec2 d = len > 0.0 ? dir / len : vec2(1.0, 0.0);
    vec2 normal = vec2(-d.y, d.x);

    vec2 p = position + dir * vert.x + normal * vert.y * 0.5 * size;
    gl_Position = mvp * vec4(p, 0.0, 1.0);

    // Transparent edges blend their endpoint colors.
    vec4 color = elementColor.a == 0.0 ? mix(sourceColor, targetColor, vert.x) : elementColor;
    fragColor = vec4(colorBias + color.rgb * colorMultiplier, color.a);
}
`

const directedEdgeVertexShader = `
#version 410 core

in vec3 vert;
in vec2 position;
in vec2 targetPosition;
in float size;
in vec4 sourceColor;
in vec4 elementColor;
in float colorBias;
in float colorMultiplier;
in float targetSize;

uniform mat4 mvp;

out vec4 fragColor;

const float arrowScale = 3.0;

void main() {
    vec2 dir = targetPosition - position;
    float len = length(dir);
    vec2 d = len > 0.0 ? dir / len : vec2(1.0, 0.0);
    vec2 normal = vec2(-d.y, d.x);

    // The arrow tip touches the target's disk.
    float arrowLength = arrowScale * size;
    vec2 tip = targetPosition - d * targetSize;
    vec2 bodyEnd = tip - d * arrowLength;

    vec2 body = position + (bodyEnd - position) * vert.x + normal * vert.y * 0.5 * size;
    vec2 arrow = bodyEnd + d * arrowLength * vert.x + normal * vert.y * 0.5 * arrowLength;
    vec2 p = mix(body, arrow, vert.z);
    gl_Position = mvp * vec4(p, 0.0, 1.0);

    vec4 color = elementColor.a == 0.0 ? sourceColor : elementColor;
    fragColor = vec4(colorBias + color.rgb * colorMultiplier, color.a);
}
`

const nodeVertexShader = `
#version 410 core

in vec2 vert;
in vec2 position;
in vec4 elementColor;
in float size;

uniform mat4 mvp;
uniform float globalColorBias;
uniform float globalColorMultiplier;

out vec4 fragColor;

void main() {
    gl_Position = mvp * vec4(position + vert * size, 0.0, 1.0);
    fragColor = vec4(globalColorBias + elementColor.rgb * globalColorMultiplier, elementColor.a);
}
`

func newEdgeProgram(dev renderer.Device, directed bool) (*renderer.Program, error) {
	vs := undirectedEdgeVertexShader
	if directed {
		vs = directedEdgeVertexShader
	}
	return renderer.NewProgram(dev, vs, colorFragmentShader, attribLocations, edgeUniforms...)
}

func newNodeProgram(dev renderer.Device) (*renderer.Program, error) {
	return renderer.NewProgram(dev, nodeVertexShader, colorFragmentShader, attribLocations, nodeUniforms...)
}

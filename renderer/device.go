// renderer/device.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

// BufferTarget identifies the binding point a Buffer is attached to.
type BufferTarget int

const (
	ArrayBuffer BufferTarget = iota
	DrawIndirectBuffer
)

func (t BufferTarget) String() string {
	switch t {
	case ArrayBuffer:
		return "array"
	case DrawIndirectBuffer:
		return "draw-indirect"
	default:
		return "unknown"
	}
}

// Usage is the hint given to the driver about how often a buffer's
// contents change.
type Usage int

const (
	StaticDraw Usage = iota // uploaded once, e.g. unit geometry
	DynamicDraw
	StreamDraw // re-uploaded every frame
)

// DataType is the component type of a vertex attribute.
type DataType int

const (
	Float DataType = iota
	UnsignedByte
)

type DrawMode int

const (
	Triangles DrawMode = iota
	Lines
)

// Device defines the subset of a graphics API that the rendering pipeline
// needs. There is a single production implementation (the OpenGL 4.1 core
// profile one in renderer/ogl) and a recording implementation for tests;
// keeping all of the driver calls behind this interface means that the
// attribute encoding and strategy logic can be exercised without a GPU.
//
// All methods must be called from the rendering thread.
type Device interface {
	// GenBuffer returns a new buffer handle; no storage is allocated
	// until BufferData is called.
	GenBuffer() uint32
	DeleteBuffer(id uint32)
	BindBuffer(target BufferTarget, id uint32)
	// BoundBuffer returns the buffer currently bound to target, or 0.
	BoundBuffer(target BufferTarget) uint32
	// BufferData (re)allocates storage for the buffer bound to target. If
	// data is non-nil, it is copied into the start of the new storage.
	BufferData(target BufferTarget, size int, data []byte, usage Usage)
	// BufferSubData copies data into the buffer bound to target starting
	// at the given byte offset.
	BufferSubData(target BufferTarget, offset int, data []byte)

	GenVertexArray() uint32
	DeleteVertexArray(id uint32)
	BindVertexArray(id uint32)

	EnableVertexAttribArray(location uint32)
	DisableVertexAttribArray(location uint32)
	// VertexAttribPointer describes where the values for the given shader
	// input location come from in the currently-bound array buffer.
	VertexAttribPointer(location uint32, components int32, typ DataType, normalized bool, stride, offset int)
	// VertexAttribDivisor sets how often the attribute advances: 0 for
	// once per vertex and 1 for once per instance.
	VertexAttribDivisor(location uint32, divisor uint32)

	// CreateProgram compiles and links a program; attribs gives the
	// shader input locations to bind before linking.
	CreateProgram(vertexSource, fragmentSource string, attribs map[string]uint32) (uint32, error)
	DeleteProgram(id uint32)
	UseProgram(id uint32)
	UniformLocation(program uint32, name string) int32
	UniformMatrix4(location int32, m *[16]float32)
	Uniform1f(location int32, v float32)

	DrawArrays(mode DrawMode, first, count int32)
	DrawArraysInstanced(mode DrawMode, first, count, instances int32)
	// DrawArraysIndirect issues the draw described by the command at the
	// given byte offset in the bound draw-indirect buffer.
	DrawArraysIndirect(mode DrawMode, offset int)

	// CheckError returns an error if the device has recorded one since
	// the last call.
	CheckError() error
}

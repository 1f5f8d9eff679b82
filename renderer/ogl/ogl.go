// renderer/ogl/ogl.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package ogl implements renderer.Device using the OpenGL 4.1 core
// profile. A context must be current on the calling thread before New is
// called, and all methods must be called from that thread.
package ogl

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/mmp/vizgl/log"
	"github.com/mmp/vizgl/renderer"

	"github.com/go-gl/gl/v4.1-core/gl"
)

type Device struct {
	lg   *log.Logger
	caps renderer.Capabilities
}

// New initializes the GL function pointers for the current context and
// probes what it supports.
func New(lg *log.Logger) (*Device, error) {
	lg.Info("Starting OpenGL device initialization")
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	d := &Device{lg: lg}
	d.caps = d.probe()
	lg.Info("OpenGL context", "capabilities", d.caps)

	return d, nil
}

func (d *Device) Capabilities() renderer.Capabilities { return d.caps }

func (d *Device) probe() renderer.Capabilities {
	c := renderer.Capabilities{
		Vendor:   gl.GoStr(gl.GetString(gl.VENDOR)),
		Renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
		Version:  gl.GoStr(gl.GetString(gl.VERSION)),
	}

	var major, minor, n int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	c.Major, c.Minor = int(major), int(minor)

	ext := make(map[string]bool)
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	for i := range uint32(n) {
		ext[gl.GoStr(gl.GetStringi(gl.EXTENSIONS, i))] = true
	}
	d.lg.Debugf("%d OpenGL extensions", len(ext))

	c.Instancing = c.AtLeast(3, 3) || ext["GL_ARB_instanced_arrays"]
	c.VertexArrayObjects = c.AtLeast(3, 0) || ext["GL_ARB_vertex_array_object"]
	c.DrawIndirect = c.AtLeast(4, 0) || ext["GL_ARB_draw_indirect"]

	return c
}

func target(t renderer.BufferTarget) uint32 {
	switch t {
	case renderer.ArrayBuffer:
		return gl.ARRAY_BUFFER
	case renderer.DrawIndirectBuffer:
		return gl.DRAW_INDIRECT_BUFFER
	default:
		panic(fmt.Sprintf("%d: unhandled buffer target", t))
	}
}

func usage(u renderer.Usage) uint32 {
	switch u {
	case renderer.StaticDraw:
		return gl.STATIC_DRAW
	case renderer.DynamicDraw:
		return gl.DYNAMIC_DRAW
	case renderer.StreamDraw:
		return gl.STREAM_DRAW
	default:
		panic(fmt.Sprintf("%d: unhandled buffer usage", u))
	}
}

func dataType(t renderer.DataType) uint32 {
	switch t {
	case renderer.Float:
		return gl.FLOAT
	case renderer.UnsignedByte:
		return gl.UNSIGNED_BYTE
	default:
		panic(fmt.Sprintf("%d: unhandled data type", t))
	}
}

func drawMode(m renderer.DrawMode) uint32 {
	if m == renderer.Lines {
		return gl.LINES
	}
	return gl.TRIANGLES
}

func ptr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}

func (d *Device) GenBuffer() uint32 {
	var id uint32
	gl.GenBuffers(1, &id)
	return id
}

func (d *Device) DeleteBuffer(id uint32) { gl.DeleteBuffers(1, &id) }

func (d *Device) BindBuffer(t renderer.BufferTarget, id uint32) { gl.BindBuffer(target(t), id) }

func (d *Device) BoundBuffer(t renderer.BufferTarget) uint32 {
	binding := uint32(gl.ARRAY_BUFFER_BINDING)
	if t == renderer.DrawIndirectBuffer {
		binding = gl.DRAW_INDIRECT_BUFFER_BINDING
	}
	var id int32
	gl.GetIntegerv(binding, &id)
	return uint32(id)
}

func (d *Device) BufferData(t renderer.BufferTarget, size int, data []byte, u renderer.Usage) {
	gl.BufferData(target(t), size, ptr(data), usage(u))
}

func (d *Device) BufferSubData(t renderer.BufferTarget, offset int, data []byte) {
	gl.BufferSubData(target(t), offset, len(data), ptr(data))
}

func (d *Device) GenVertexArray() uint32 {
	var id uint32
	gl.GenVertexArrays(1, &id)
	return id
}

func (d *Device) DeleteVertexArray(id uint32) { gl.DeleteVertexArrays(1, &id) }
func (d *Device) BindVertexArray(id uint32)   { gl.BindVertexArray(id) }

func (d *Device) EnableVertexAttribArray(loc uint32)  { gl.EnableVertexAttribArray(loc) }
func (d *Device) DisableVertexAttribArray(loc uint32) { gl.DisableVertexAttribArray(loc) }

func (d *Device) VertexAttribPointer(loc uint32, components int32, typ renderer.DataType, normalized bool,
	stride, offset int) {
	gl.VertexAttribPointer(loc, components, dataType(typ), normalized, int32(stride), gl.PtrOffset(offset))
}

func (d *Device) VertexAttribDivisor(loc, divisor uint32) { gl.VertexAttribDivisor(loc, divisor) }

func (d *Device) CreateProgram(vertexSource, fragmentSource string, attribs map[string]uint32) (uint32, error) {
	vs, err := compileShader(vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vs)

	fs, err := compileShader(fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fs)

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	for name, loc := range attribs {
		gl.BindAttribLocation(program, loc, gl.Str(name+"\x00"))
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)

		return 0, fmt.Errorf("failed to link program: %v", log)
	}

	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		return 0, fmt.Errorf("failed to compile %v: %v", source, log)
	}

	return shader, nil
}

func (d *Device) DeleteProgram(id uint32) { gl.DeleteProgram(id) }
func (d *Device) UseProgram(id uint32)    { gl.UseProgram(id) }

func (d *Device) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *Device) UniformMatrix4(loc int32, m *[16]float32) { gl.UniformMatrix4fv(loc, 1, false, &m[0]) }
func (d *Device) Uniform1f(loc int32, v float32)           { gl.Uniform1f(loc, v) }

func (d *Device) DrawArrays(mode renderer.DrawMode, first, count int32) {
	gl.DrawArrays(drawMode(mode), first, count)
}

func (d *Device) DrawArraysInstanced(mode renderer.DrawMode, first, count, instances int32) {
	gl.DrawArraysInstanced(drawMode(mode), first, count, instances)
}

func (d *Device) DrawArraysIndirect(mode renderer.DrawMode, offset int) {
	gl.DrawArraysIndirect(drawMode(mode), gl.PtrOffset(offset))
}

// BeginFrame sets the viewport to the framebuffer, clears it to the given
// color and enables the blending the graph shaders expect.
func (d *Device) BeginFrame(width, height int, clearColor [4]float32, multisample bool) {
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(clearColor[0], clearColor[1], clearColor[2], clearColor[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	if multisample {
		gl.Enable(gl.MULTISAMPLE)
	}
}

func (d *Device) CheckError() error {
	if err := gl.GetError(); err != gl.NO_ERROR {
		return fmt.Errorf("GL error 0x%x", err)
	}
	return nil
}

var _ renderer.Device = (*Device)(nil)

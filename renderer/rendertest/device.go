// renderer/rendertest/device.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package rendertest provides a renderer.Device that records the calls
// made to it and models enough buffer and vertex array state that tests
// can check what would have been drawn.
package rendertest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/mmp/vizgl/renderer"
)

type BufferState struct {
	Data    []byte
	Usage   renderer.Usage
	Uploads int
}

// Floats interprets the buffer contents as little-endian float32s.
func (b *BufferState) Floats() []float32 {
	f := make([]float32, len(b.Data)/4)
	for i := range f {
		f[i] = math.Float32frombits(binary.LittleEndian.Uint32(b.Data[4*i:]))
	}
	return f
}

// Int32s interprets the buffer contents as little-endian int32s.
func (b *BufferState) Int32s() []int32 {
	v := make([]int32, len(b.Data)/4)
	for i := range v {
		v[i] = int32(binary.LittleEndian.Uint32(b.Data[4*i:]))
	}
	return v
}

// Pointer is the recorded description of one attribute slot.
type Pointer struct {
	Buffer     uint32
	Components int32
	Type       renderer.DataType
	Normalized bool
	Stride     int
	Offset     int
	Enabled    bool
	Divisor    uint32
}

// ArrayState is the per vertex array object slot state. Slot state set
// while no VAO is bound lives in the Device's default ArrayState.
type ArrayState struct {
	Pointers map[uint32]Pointer
}

func newArrayState() *ArrayState {
	return &ArrayState{Pointers: make(map[uint32]Pointer)}
}

type DrawKind int

const (
	DrawArrays DrawKind = iota
	DrawInstanced
	DrawIndirect
)

// Draw records one draw call along with the state it would have used.
type Draw struct {
	Kind      DrawKind
	Mode      renderer.DrawMode
	First     int32
	Count     int32
	Instances int32
	// IndirectOffset is the byte offset of the command for indirect draws;
	// Count, Instances and First are filled in from that command.
	IndirectOffset int
	Program        uint32
	VAO            uint32
	Pointers       map[uint32]Pointer
	Uniforms       map[int32]float32
}

type DrawIndirectCommand struct {
	Count, InstanceCount, First, BaseInstance int32
}

// Device is a renderer.Device that keeps everything in memory.
type Device struct {
	Buffers  map[uint32]*BufferState
	Arrays   map[uint32]*ArrayState
	Programs map[uint32]map[string]uint32
	Draws    []Draw
	Calls    []string

	// Uniform names recognized by UniformLocation; unknown names return -1
	// unless AllUniforms is set.
	AllUniforms bool
	Uniforms    map[string]int32

	// FailCompile makes CreateProgram fail.
	FailCompile bool

	nextID       uint32
	bound        map[renderer.BufferTarget]uint32
	defaultArray *ArrayState
	vao          uint32
	program      uint32
	uniformVals  map[int32]float32
	matrices     map[int32][16]float32
	err          error
}

func NewDevice() *Device {
	return &Device{
		Buffers:      make(map[uint32]*BufferState),
		Arrays:       make(map[uint32]*ArrayState),
		Programs:     make(map[uint32]map[string]uint32),
		Uniforms:     make(map[string]int32),
		AllUniforms:  true,
		bound:        make(map[renderer.BufferTarget]uint32),
		defaultArray: newArrayState(),
		uniformVals:  make(map[int32]float32),
		matrices:     make(map[int32][16]float32),
	}
}

func (d *Device) gen() uint32 {
	d.nextID++
	return d.nextID
}

func (d *Device) logf(f string, args ...any) {
	d.Calls = append(d.Calls, fmt.Sprintf(f, args...))
}

func (d *Device) fail(f string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf(f, args...)
	}
}

func (d *Device) BoundBuffer(target renderer.BufferTarget) uint32 { return d.bound[target] }

// BoundVAO returns the currently bound vertex array object.
func (d *Device) BoundVAO() uint32 { return d.vao }

// CurrentProgram returns the program in use.
func (d *Device) CurrentProgram() uint32 { return d.program }

// DefaultArray returns the slot state used when no VAO is bound.
func (d *Device) DefaultArray() *ArrayState { return d.defaultArray }

// LiveBuffers returns the number of buffers that have been generated and
// not deleted.
func (d *Device) LiveBuffers() int { return len(d.Buffers) }

func (d *Device) LiveArrays() int { return len(d.Arrays) }

func (d *Device) LivePrograms() int { return len(d.Programs) }

// Matrix returns the last matrix set at the given uniform location.
func (d *Device) Matrix(loc int32) ([16]float32, bool) {
	m, ok := d.matrices[loc]
	return m, ok
}

// UniformValue returns the value the named float uniform had when dr was
// issued.
func (d *Device) UniformValue(dr Draw, name string) (float32, bool) {
	loc, ok := d.Uniforms[name]
	if !ok {
		return 0, false
	}
	v, ok := dr.Uniforms[loc]
	return v, ok
}

// ResetDraws clears the recorded draws and calls.
func (d *Device) ResetDraws() {
	d.Draws = nil
	d.Calls = nil
}

func (d *Device) array() *ArrayState {
	if d.vao == 0 {
		return d.defaultArray
	}
	return d.Arrays[d.vao]
}

func (d *Device) GenBuffer() uint32 {
	id := d.gen()
	d.Buffers[id] = &BufferState{}
	d.logf("GenBuffer %d", id)
	return id
}

func (d *Device) DeleteBuffer(id uint32) {
	if _, ok := d.Buffers[id]; !ok {
		d.fail("DeleteBuffer: %d: unknown buffer", id)
		return
	}
	delete(d.Buffers, id)
	for t, b := range d.bound {
		if b == id {
			d.bound[t] = 0
		}
	}
	d.logf("DeleteBuffer %d", id)
}

func (d *Device) BindBuffer(target renderer.BufferTarget, id uint32) {
	if _, ok := d.Buffers[id]; id != 0 && !ok {
		d.fail("BindBuffer: %d: unknown buffer", id)
		return
	}
	d.bound[target] = id
}

func (d *Device) BufferData(target renderer.BufferTarget, size int, data []byte, usage renderer.Usage) {
	b, ok := d.Buffers[d.bound[target]]
	if !ok {
		d.fail("BufferData: no buffer bound to %s", target)
		return
	}
	b.Data = make([]byte, size)
	copy(b.Data, data)
	b.Usage = usage
	b.Uploads++
	d.logf("BufferData %d %d", d.bound[target], size)
}

func (d *Device) BufferSubData(target renderer.BufferTarget, offset int, data []byte) {
	b, ok := d.Buffers[d.bound[target]]
	if !ok {
		d.fail("BufferSubData: no buffer bound to %s", target)
		return
	}
	if offset < 0 || offset+len(data) > len(b.Data) {
		d.fail("BufferSubData: %d bytes at %d overflows %d byte buffer", len(data), offset, len(b.Data))
		return
	}
	copy(b.Data[offset:], data)
	b.Uploads++
	d.logf("BufferSubData %d %d %d", d.bound[target], offset, len(data))
}

func (d *Device) GenVertexArray() uint32 {
	id := d.gen()
	d.Arrays[id] = newArrayState()
	d.logf("GenVertexArray %d", id)
	return id
}

func (d *Device) DeleteVertexArray(id uint32) {
	if _, ok := d.Arrays[id]; !ok {
		d.fail("DeleteVertexArray: %d: unknown vertex array", id)
		return
	}
	delete(d.Arrays, id)
	if d.vao == id {
		d.vao = 0
	}
	d.logf("DeleteVertexArray %d", id)
}

func (d *Device) BindVertexArray(id uint32) {
	if _, ok := d.Arrays[id]; id != 0 && !ok {
		d.fail("BindVertexArray: %d: unknown vertex array", id)
		return
	}
	d.vao = id
}

func (d *Device) EnableVertexAttribArray(loc uint32) {
	a := d.array()
	p := a.Pointers[loc]
	p.Enabled = true
	a.Pointers[loc] = p
}

func (d *Device) DisableVertexAttribArray(loc uint32) {
	a := d.array()
	p := a.Pointers[loc]
	p.Enabled = false
	a.Pointers[loc] = p
}

func (d *Device) VertexAttribPointer(loc uint32, components int32, typ renderer.DataType, normalized bool,
	stride, offset int) {
	buf := d.bound[renderer.ArrayBuffer]
	if buf == 0 {
		d.fail("VertexAttribPointer: %d: no array buffer bound", loc)
		return
	}
	a := d.array()
	p := a.Pointers[loc]
	p.Buffer, p.Components, p.Type, p.Normalized = buf, components, typ, normalized
	p.Stride, p.Offset = stride, offset
	a.Pointers[loc] = p
	d.logf("VertexAttribPointer %d %d %d %d", loc, components, stride, offset)
}

func (d *Device) VertexAttribDivisor(loc uint32, divisor uint32) {
	a := d.array()
	p := a.Pointers[loc]
	p.Divisor = divisor
	a.Pointers[loc] = p
	d.logf("VertexAttribDivisor %d %d", loc, divisor)
}

func (d *Device) CreateProgram(vs, fs string, attribs map[string]uint32) (uint32, error) {
	if d.FailCompile {
		return 0, errors.New("compile failed")
	}
	if vs == "" || fs == "" {
		return 0, errors.New("empty shader source")
	}
	id := d.gen()
	d.Programs[id] = attribs
	d.logf("CreateProgram %d", id)
	return id, nil
}

func (d *Device) DeleteProgram(id uint32) {
	if _, ok := d.Programs[id]; !ok {
		d.fail("DeleteProgram: %d: unknown program", id)
		return
	}
	delete(d.Programs, id)
	if d.program == id {
		d.program = 0
	}
	d.logf("DeleteProgram %d", id)
}

func (d *Device) UseProgram(id uint32) {
	if _, ok := d.Programs[id]; id != 0 && !ok {
		d.fail("UseProgram: %d: unknown program", id)
		return
	}
	d.program = id
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	if loc, ok := d.Uniforms[name]; ok {
		return loc
	}
	if !d.AllUniforms {
		return -1
	}
	loc := int32(len(d.Uniforms))
	d.Uniforms[name] = loc
	return loc
}

func (d *Device) UniformMatrix4(loc int32, m *[16]float32) {
	if d.program == 0 {
		d.fail("UniformMatrix4: no program in use")
		return
	}
	d.matrices[loc] = *m
}

func (d *Device) Uniform1f(loc int32, v float32) {
	if d.program == 0 {
		d.fail("Uniform1f: no program in use")
		return
	}
	d.uniformVals[loc] = v
}

func (d *Device) record(dr Draw) {
	if d.program == 0 {
		d.fail("draw with no program in use")
	}
	dr.Program = d.program
	dr.VAO = d.vao
	dr.Pointers = make(map[uint32]Pointer)
	for loc, p := range d.array().Pointers {
		dr.Pointers[loc] = p
	}
	dr.Uniforms = make(map[int32]float32)
	for loc, v := range d.uniformVals {
		dr.Uniforms[loc] = v
	}
	d.Draws = append(d.Draws, dr)
}

func (d *Device) DrawArrays(mode renderer.DrawMode, first, count int32) {
	d.record(Draw{Kind: DrawArrays, Mode: mode, First: first, Count: count, Instances: 1})
	d.logf("DrawArrays %d %d", first, count)
}

func (d *Device) DrawArraysInstanced(mode renderer.DrawMode, first, count, instances int32) {
	d.record(Draw{Kind: DrawInstanced, Mode: mode, First: first, Count: count, Instances: instances})
	d.logf("DrawArraysInstanced %d %d %d", first, count, instances)
}

func (d *Device) DrawArraysIndirect(mode renderer.DrawMode, offset int) {
	b, ok := d.Buffers[d.bound[renderer.DrawIndirectBuffer]]
	if !ok {
		d.fail("DrawArraysIndirect: no draw-indirect buffer bound")
		return
	}
	if offset < 0 || offset+16 > len(b.Data) {
		d.fail("DrawArraysIndirect: command at %d outside %d byte buffer", offset, len(b.Data))
		return
	}
	cmd := DecodeCommand(b.Data[offset:])
	if cmd.BaseInstance != 0 {
		d.fail("DrawArraysIndirect: base instance %d unsupported", cmd.BaseInstance)
	}
	d.record(Draw{Kind: DrawIndirect, Mode: mode, IndirectOffset: offset, First: cmd.First,
		Count: cmd.Count, Instances: cmd.InstanceCount})
	d.logf("DrawArraysIndirect %d", offset)
}

// DecodeCommand decodes a draw-arrays-indirect command from b.
func DecodeCommand(b []byte) DrawIndirectCommand {
	v := func(i int) int32 { return int32(binary.LittleEndian.Uint32(b[4*i:])) }
	return DrawIndirectCommand{Count: v(0), InstanceCount: v(1), First: v(2), BaseInstance: v(3)}
}

// CheckError returns the first inconsistency detected since the last call.
func (d *Device) CheckError() error {
	err := d.err
	d.err = nil
	return err
}

var _ renderer.Device = (*Device)(nil)

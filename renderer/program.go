// renderer/program.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
)

// Program is a linked shader program together with the locations of the
// uniforms it is driven with.
type Program struct {
	dev      Device
	id       uint32
	uniforms map[string]int32
}

// NewProgram compiles and links the given sources. attribs fixes the
// locations of the vertex shader inputs so that they agree with the
// VertexArray layouts that feed them.
func NewProgram(dev Device, vertexSource, fragmentSource string, attribs map[string]uint32,
	uniforms ...string) (*Program, error) {
	id, err := dev.CreateProgram(vertexSource, fragmentSource, attribs)
	if err != nil {
		return nil, err
	}

	p := &Program{dev: dev, id: id, uniforms: make(map[string]int32)}
	for _, u := range uniforms {
		loc := dev.UniformLocation(id, u)
		if loc < 0 {
			dev.DeleteProgram(id)
			return nil, fmt.Errorf("%s: uniform not found in program", u)
		}
		p.uniforms[u] = loc
	}
	return p, nil
}

func (p *Program) ID() uint32 { return p.id }

func (p *Program) Use()  { p.dev.UseProgram(p.id) }
func (p *Program) Stop() { p.dev.UseProgram(0) }

func (p *Program) SetMatrix4(name string, m *[16]float32) {
	if loc, ok := p.uniforms[name]; ok {
		p.dev.UniformMatrix4(loc, m)
	}
}

func (p *Program) SetFloat(name string, v float32) {
	if loc, ok := p.uniforms[name]; ok {
		p.dev.Uniform1f(loc, v)
	}
}

func (p *Program) Destroy() {
	if p.id != 0 {
		p.dev.DeleteProgram(p.id)
		p.id = 0
	}
}

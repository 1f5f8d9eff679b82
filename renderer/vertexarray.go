// renderer/vertexarray.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
)

// Attribute describes where one shader input slot gets its values.
type Attribute struct {
	Location   uint32
	Components int32
	Type       DataType
	Normalized bool
	Buffer     *Buffer
	Stride     int // bytes
	Offset     int // bytes
	// PerInstance attributes advance once per instance rather than once
	// per vertex; they are also the ones moved by Rebase.
	PerInstance bool
}

// VertexArray binds a fixed, ordered set of shader input slots to byte
// ranges of one or more Buffers. When the context supports vertex array
// objects, the slot description is issued once and captured in a VAO;
// otherwise it is re-issued on every Use and undone by StopUsing.
//
// The layout function is not called until the first Use, so that nothing
// is done until a capability check has confirmed the owning strategy is
// usable and its buffers exist.
type VertexArray struct {
	dev    Device
	caps   Capabilities
	layout func() []Attribute

	attribs    []Attribute
	vao        uint32
	configured int
	base       int
	inUse      bool
	destroyed  bool
}

func NewVertexArray(dev Device, caps Capabilities, layout func() []Attribute) *VertexArray {
	return &VertexArray{dev: dev, caps: caps, layout: layout}
}

// Attributes returns the resolved layout, or nil before the first Use.
func (va *VertexArray) Attributes() []Attribute { return va.attribs }

// Configurations returns the number of times the slot descriptions have
// been issued.
func (va *VertexArray) Configurations() int { return va.configured }

func (va *VertexArray) Use() error {
	if va.destroyed {
		return ErrVertexArrayDestroyed
	}
	if va.attribs == nil {
		va.attribs = va.layout()
	}

	if va.caps.VertexArrayObjects {
		if va.vao != 0 {
			va.dev.BindVertexArray(va.vao)
			va.inUse = true
			return nil
		}
		va.vao = va.dev.GenVertexArray()
		va.dev.BindVertexArray(va.vao)
	}

	if err := va.configure(); err != nil {
		if va.caps.VertexArrayObjects {
			va.dev.BindVertexArray(0)
			va.dev.DeleteVertexArray(va.vao)
			va.vao = 0
		}
		return err
	}
	va.inUse = true
	return nil
}

// configure issues one pointer description per attribute, in declared
// order, binding each attribute's buffer while its slots are described.
func (va *VertexArray) configure() error {
	var bound *Buffer
	release := func() error {
		if bound == nil {
			return nil
		}
		err := bound.Unbind()
		bound = nil
		return err
	}

	for _, a := range va.attribs {
		if a.Buffer != bound {
			if err := release(); err != nil {
				return err
			}
			if err := a.Buffer.Bind(); err != nil {
				return fmt.Errorf("slot %d: %w", a.Location, err)
			}
			bound = a.Buffer
		}

		va.dev.EnableVertexAttribArray(a.Location)
		va.dev.VertexAttribPointer(a.Location, a.Components, a.Type, a.Normalized, a.Stride, a.Offset)
		if a.PerInstance && va.caps.Instancing {
			va.dev.VertexAttribDivisor(a.Location, 1)
		}
	}
	va.configured++
	va.base = 0

	return release()
}

// Rebase re-points the per-instance slots so that the first instance
// drawn reads its values byteOffset bytes past each slot's declared
// offset. It is how a sub-range of the records in a buffer is drawn
// without base-instance draw support.
func (va *VertexArray) Rebase(byteOffset int) error {
	if !va.inUse {
		return ErrVertexArrayNotInUse
	}
	if byteOffset == va.base {
		return nil
	}

	var bound *Buffer
	for _, a := range va.attribs {
		if !a.PerInstance {
			continue
		}
		if a.Buffer != bound {
			if bound != nil {
				if err := bound.Unbind(); err != nil {
					return err
				}
			}
			if err := a.Buffer.Bind(); err != nil {
				return err
			}
			bound = a.Buffer
		}
		va.dev.VertexAttribPointer(a.Location, a.Components, a.Type, a.Normalized, a.Stride, a.Offset+byteOffset)
	}
	va.base = byteOffset

	if bound != nil {
		return bound.Unbind()
	}
	return nil
}

func (va *VertexArray) StopUsing() error {
	if !va.inUse {
		return ErrVertexArrayNotInUse
	}
	// A VAO retains rebased pointers, so put them back before unbinding.
	if err := va.Rebase(0); err != nil {
		return err
	}

	if va.caps.VertexArrayObjects {
		va.dev.BindVertexArray(0)
	} else {
		for _, a := range va.attribs {
			if a.PerInstance && va.caps.Instancing {
				va.dev.VertexAttribDivisor(a.Location, 0)
			}
			va.dev.DisableVertexAttribArray(a.Location)
		}
	}
	va.inUse = false
	return nil
}

func (va *VertexArray) Destroy() error {
	if va.destroyed {
		return ErrVertexArrayDestroyed
	}
	if va.vao != 0 {
		va.dev.DeleteVertexArray(va.vao)
		va.vao = 0
	}
	va.destroyed = true
	va.inUse = false
	return nil
}

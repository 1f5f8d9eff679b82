// renderer/vertexarray_test.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer_test

import (
	"errors"
	"testing"

	"github.com/mmp/vizgl/renderer"
	"github.com/mmp/vizgl/renderer/rendertest"
)

// layout returns a two-buffer layout: a static per-vertex position slot
// and two per-instance slots interleaved in a 3-float record.
func testLayout(t *testing.T, dev renderer.Device) (func() []renderer.Attribute, *renderer.Buffer, *renderer.Buffer) {
	t.Helper()
	model := renderer.NewBuffer(dev, renderer.ArrayBuffer)
	if err := model.InitWithData(make([]byte, 24), renderer.StaticDraw); err != nil {
		t.Fatal(err)
	}
	inst := renderer.NewBuffer(dev, renderer.ArrayBuffer)
	if err := inst.Init(120, renderer.StreamDraw); err != nil {
		t.Fatal(err)
	}
	return func() []renderer.Attribute {
		return []renderer.Attribute{
			{Location: 0, Components: 2, Type: renderer.Float, Buffer: model, Stride: 8},
			{Location: 1, Components: 2, Type: renderer.Float, Buffer: inst, Stride: 12, PerInstance: true},
			{Location: 2, Components: 1, Type: renderer.Float, Buffer: inst, Stride: 12, Offset: 8, PerInstance: true},
		}
	}, model, inst
}

func TestVertexArrayWithVAO(t *testing.T) {
	dev := rendertest.NewDevice()
	layout, model, inst := testLayout(t, dev)
	calls := 0
	va := renderer.NewVertexArray(dev, renderer.Capabilities{Instancing: true, VertexArrayObjects: true},
		func() []renderer.Attribute { calls++; return layout() })

	if va.Attributes() != nil || calls != 0 {
		t.Errorf("layout resolved before first Use")
	}
	if err := va.StopUsing(); !errors.Is(err, renderer.ErrVertexArrayNotInUse) {
		t.Errorf("StopUsing before Use: expected ErrVertexArrayNotInUse, got %v", err)
	}

	for range 3 {
		if err := va.Use(); err != nil {
			t.Fatal(err)
		}
		if dev.BoundVAO() == 0 {
			t.Errorf("no VAO bound while in use")
		}
		if err := va.StopUsing(); err != nil {
			t.Fatal(err)
		}
		if dev.BoundVAO() != 0 {
			t.Errorf("VAO still bound after StopUsing")
		}
	}
	if calls != 1 || va.Configurations() != 1 {
		t.Errorf("expected one configuration, got layout %d configure %d", calls, va.Configurations())
	}
	if dev.LiveArrays() != 1 {
		t.Errorf("expected 1 VAO, got %d", dev.LiveArrays())
	}

	var vao *rendertest.ArrayState
	for _, a := range dev.Arrays {
		vao = a
	}
	expected := map[uint32]rendertest.Pointer{
		0: {Buffer: model.ID(), Components: 2, Stride: 8, Enabled: true},
		1: {Buffer: inst.ID(), Components: 2, Stride: 12, Enabled: true, Divisor: 1},
		2: {Buffer: inst.ID(), Components: 1, Stride: 12, Offset: 8, Enabled: true, Divisor: 1},
	}
	for loc, p := range expected {
		if vao.Pointers[loc] != p {
			t.Errorf("slot %d: expected %+v, got %+v", loc, p, vao.Pointers[loc])
		}
	}
	if len(dev.DefaultArray().Pointers) != 0 {
		t.Errorf("slot state leaked outside the VAO")
	}
	if model.IsBound() || inst.IsBound() {
		t.Errorf("configuration left buffers bound")
	}

	if err := va.Destroy(); err != nil {
		t.Fatal(err)
	}
	if dev.LiveArrays() != 0 {
		t.Errorf("VAO not deleted")
	}
	if err := va.Use(); !errors.Is(err, renderer.ErrVertexArrayDestroyed) {
		t.Errorf("Use after Destroy: expected ErrVertexArrayDestroyed, got %v", err)
	}
	if err := va.Destroy(); !errors.Is(err, renderer.ErrVertexArrayDestroyed) {
		t.Errorf("second Destroy: expected ErrVertexArrayDestroyed, got %v", err)
	}
	if err := dev.CheckError(); err != nil {
		t.Error(err)
	}
}

func TestVertexArrayWithoutVAO(t *testing.T) {
	dev := rendertest.NewDevice()
	layout, _, _ := testLayout(t, dev)
	va := renderer.NewVertexArray(dev, renderer.Capabilities{Instancing: true}, layout)

	for i := range 2 {
		if err := va.Use(); err != nil {
			t.Fatal(err)
		}
		if va.Configurations() != i+1 {
			t.Errorf("expected pointers re-issued on each Use, got %d configurations", va.Configurations())
		}
		if p := dev.DefaultArray().Pointers[1]; !p.Enabled || p.Divisor != 1 {
			t.Errorf("per-instance slot not set up: %+v", p)
		}
		if err := va.StopUsing(); err != nil {
			t.Fatal(err)
		}
		for loc, p := range dev.DefaultArray().Pointers {
			if p.Enabled || p.Divisor != 0 {
				t.Errorf("slot %d left enabled after StopUsing: %+v", loc, p)
			}
		}
	}
	if dev.LiveArrays() != 0 {
		t.Errorf("VAO created without the capability")
	}
}

func TestVertexArrayWithoutInstancing(t *testing.T) {
	dev := rendertest.NewDevice()
	layout, _, _ := testLayout(t, dev)
	va := renderer.NewVertexArray(dev, renderer.Capabilities{VertexArrayObjects: true}, layout)
	if err := va.Use(); err != nil {
		t.Fatal(err)
	}
	for _, a := range dev.Arrays {
		for loc, p := range a.Pointers {
			if p.Divisor != 0 {
				t.Errorf("slot %d: divisor set without instancing", loc)
			}
		}
	}
}

func TestVertexArrayRebase(t *testing.T) {
	dev := rendertest.NewDevice()
	layout, _, _ := testLayout(t, dev)
	va := renderer.NewVertexArray(dev, renderer.Capabilities{Instancing: true, VertexArrayObjects: true}, layout)

	if err := va.Rebase(12); !errors.Is(err, renderer.ErrVertexArrayNotInUse) {
		t.Errorf("Rebase before Use: expected ErrVertexArrayNotInUse, got %v", err)
	}
	if err := va.Use(); err != nil {
		t.Fatal(err)
	}
	if err := va.Rebase(36); err != nil {
		t.Fatal(err)
	}

	a := dev.Arrays[dev.BoundVAO()]
	if a.Pointers[0].Offset != 0 || a.Pointers[1].Offset != 36 || a.Pointers[2].Offset != 44 {
		t.Errorf("unexpected offsets after Rebase: %d %d %d", a.Pointers[0].Offset, a.Pointers[1].Offset,
			a.Pointers[2].Offset)
	}

	if err := va.StopUsing(); err != nil {
		t.Fatal(err)
	}
	if a.Pointers[1].Offset != 0 || a.Pointers[2].Offset != 8 {
		t.Errorf("StopUsing did not restore offsets: %d %d", a.Pointers[1].Offset, a.Pointers[2].Offset)
	}
}

func TestVertexArrayUninitializedBuffer(t *testing.T) {
	dev := rendertest.NewDevice()
	b := renderer.NewBuffer(dev, renderer.ArrayBuffer)
	va := renderer.NewVertexArray(dev, renderer.Capabilities{VertexArrayObjects: true}, func() []renderer.Attribute {
		return []renderer.Attribute{{Location: 0, Components: 2, Buffer: b, Stride: 8}}
	})
	if err := va.Use(); !errors.Is(err, renderer.ErrBufferNotInitialized) {
		t.Errorf("expected ErrBufferNotInitialized, got %v", err)
	}
	if dev.BoundVAO() != 0 {
		t.Errorf("VAO left bound after failed configuration")
	}
}

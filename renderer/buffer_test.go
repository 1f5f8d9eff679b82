// renderer/buffer_test.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer_test

import (
	"errors"
	"testing"

	"github.com/mmp/vizgl/renderer"
	"github.com/mmp/vizgl/renderer/rendertest"
)

func TestBufferLifecycle(t *testing.T) {
	dev := rendertest.NewDevice()
	b := renderer.NewBuffer(dev, renderer.ArrayBuffer)

	if err := b.Update([]byte{1}); !errors.Is(err, renderer.ErrBufferNotInitialized) {
		t.Errorf("Update before Init: expected ErrBufferNotInitialized, got %v", err)
	}
	if err := b.Bind(); !errors.Is(err, renderer.ErrBufferNotInitialized) {
		t.Errorf("Bind before Init: expected ErrBufferNotInitialized, got %v", err)
	}

	if err := b.Init(16, renderer.StreamDraw); err != nil {
		t.Fatal(err)
	}
	if !b.IsInitialized() || !b.IsMutable() || b.SizeBytes() != 16 {
		t.Errorf("unexpected state after Init: init %v mutable %v size %d", b.IsInitialized(),
			b.IsMutable(), b.SizeBytes())
	}
	if err := b.Init(16, renderer.StreamDraw); !errors.Is(err, renderer.ErrBufferAlreadyInitialized) {
		t.Errorf("second Init: expected ErrBufferAlreadyInitialized, got %v", err)
	}
	if err := b.InitWithData([]byte{1}, renderer.StaticDraw); !errors.Is(err, renderer.ErrBufferAlreadyInitialized) {
		t.Errorf("InitWithData after Init: expected ErrBufferAlreadyInitialized, got %v", err)
	}
	if dev.BoundBuffer(renderer.ArrayBuffer) != 0 {
		t.Errorf("Init left the buffer bound")
	}

	if err := b.UpdateRange([]byte{1, 2, 3, 4}, 12); err != nil {
		t.Errorf("UpdateRange at end: %v", err)
	}
	if err := b.UpdateRange([]byte{1, 2, 3, 4}, 13); !errors.Is(err, renderer.ErrBufferTooSmall) {
		t.Errorf("UpdateRange past end: expected ErrBufferTooSmall, got %v", err)
	}
	if got := dev.Buffers[b.ID()].Data[12:]; got[0] != 1 || got[3] != 4 {
		t.Errorf("unexpected buffer contents %v", got)
	}

	id := b.ID()
	if r, err := b.Reallocate(8); err != nil || r {
		t.Errorf("Reallocate smaller: expected no-op, got %v %v", r, err)
	}
	if r, err := b.Reallocate(64); err != nil || !r {
		t.Errorf("Reallocate larger: expected realloc, got %v %v", r, err)
	}
	if b.ID() != id || len(dev.Buffers[id].Data) != 64 {
		t.Errorf("Reallocate changed id or size: %d %d", b.ID(), len(dev.Buffers[id].Data))
	}

	if err := b.Unbind(); !errors.Is(err, renderer.ErrBufferNotBound) {
		t.Errorf("Unbind without Bind: expected ErrBufferNotBound, got %v", err)
	}
	if err := b.Bind(); err != nil {
		t.Fatal(err)
	}
	if !b.IsBound() || dev.BoundBuffer(renderer.ArrayBuffer) != id {
		t.Errorf("Bind did not bind")
	}
	if err := b.Update([]byte{9}); err != nil {
		t.Fatal(err)
	}
	if dev.BoundBuffer(renderer.ArrayBuffer) != id {
		t.Errorf("Update of a bound buffer unbound it")
	}
	if err := b.Unbind(); err != nil {
		t.Error(err)
	}

	if err := b.Destroy(); err != nil {
		t.Fatal(err)
	}
	if dev.LiveBuffers() != 0 {
		t.Errorf("expected no live buffers, got %d", dev.LiveBuffers())
	}
	if err := b.Destroy(); !errors.Is(err, renderer.ErrBufferDestroyed) {
		t.Errorf("second Destroy: expected ErrBufferDestroyed, got %v", err)
	}
	if err := b.Update([]byte{1}); !errors.Is(err, renderer.ErrBufferDestroyed) {
		t.Errorf("Update after Destroy: expected ErrBufferDestroyed, got %v", err)
	}
	if err := dev.CheckError(); err != nil {
		t.Error(err)
	}
}

func TestBufferBindingPaired(t *testing.T) {
	dev := rendertest.NewDevice()
	a := renderer.NewBuffer(dev, renderer.ArrayBuffer)
	b := renderer.NewBuffer(dev, renderer.ArrayBuffer)
	cmd := renderer.NewBuffer(dev, renderer.DrawIndirectBuffer)
	for _, buf := range []*renderer.Buffer{a, b, cmd} {
		if err := buf.Init(16, renderer.StreamDraw); err != nil {
			t.Fatal(err)
		}
	}

	if err := a.Bind(); err != nil {
		t.Fatal(err)
	}
	if err := a.Bind(); !errors.Is(err, renderer.ErrBufferAlreadyBound) {
		t.Errorf("second Bind: expected ErrBufferAlreadyBound, got %v", err)
	}
	if err := b.Bind(); !errors.Is(err, renderer.ErrTargetBound) {
		t.Errorf("Bind over another buffer: expected ErrTargetBound, got %v", err)
	}
	if err := cmd.Bind(); err != nil {
		t.Errorf("Bind on another target: %v", err)
	}

	// Updating or growing b must leave a bound to the target.
	if err := b.Update([]byte{1, 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Reallocate(64); err != nil {
		t.Fatal(err)
	}
	if got := dev.BoundBuffer(renderer.ArrayBuffer); got != a.ID() || !a.IsBound() {
		t.Errorf("array target holds %d, expected %d", got, a.ID())
	}
	if dev.Buffers[b.ID()].Uploads != 3 || len(dev.Buffers[b.ID()].Data) != 64 {
		t.Errorf("b not updated: %+v", dev.Buffers[b.ID()])
	}

	if err := a.Unbind(); err != nil {
		t.Error(err)
	}
	if err := b.Bind(); err != nil {
		t.Errorf("Bind after Unbind: %v", err)
	}
	if err := errors.Join(b.Unbind(), cmd.Unbind()); err != nil {
		t.Error(err)
	}
	if err := dev.CheckError(); err != nil {
		t.Error(err)
	}
}

func TestBufferStatic(t *testing.T) {
	dev := rendertest.NewDevice()
	b := renderer.NewBuffer(dev, renderer.ArrayBuffer)
	if err := b.InitWithData([]byte{1, 2, 3, 4}, renderer.StaticDraw); err != nil {
		t.Fatal(err)
	}
	if b.IsMutable() {
		t.Errorf("static buffer reported as mutable")
	}
	if st := dev.Buffers[b.ID()]; st.Usage != renderer.StaticDraw || len(st.Data) != 4 || st.Data[3] != 4 {
		t.Errorf("unexpected device state %+v", st)
	}

	// Destroying an uninitialized buffer does not touch the device.
	u := renderer.NewBuffer(dev, renderer.DrawIndirectBuffer)
	if err := u.Destroy(); err != nil {
		t.Error(err)
	}
	if err := u.Init(4, renderer.StreamDraw); !errors.Is(err, renderer.ErrBufferDestroyed) {
		t.Errorf("Init after Destroy: expected ErrBufferDestroyed, got %v", err)
	}
	if dev.LiveBuffers() != 1 {
		t.Errorf("expected 1 live buffer, got %d", dev.LiveBuffers())
	}
}

func TestStatsDevice(t *testing.T) {
	sd := renderer.NewStatsDevice(rendertest.NewDevice())

	b := renderer.NewBuffer(sd, renderer.ArrayBuffer)
	if err := b.InitWithData(make([]byte, 32), renderer.StreamDraw); err != nil {
		t.Fatal(err)
	}
	if err := b.UpdateRange(make([]byte, 8), 8); err != nil {
		t.Fatal(err)
	}
	prog, err := renderer.NewProgram(sd, "vs", "fs", nil)
	if err != nil {
		t.Fatal(err)
	}
	prog.Use()
	sd.DrawArraysInstanced(renderer.Triangles, 0, 6, 10)
	sd.DrawArrays(renderer.Triangles, 0, 12)

	s := sd.Reset()
	expected := renderer.Stats{Buffers: 1, UploadedBytes: 40, DrawCalls: 2, Instances: 10, Vertices: 72}
	if s != expected {
		t.Errorf("expected %+v, got %+v", expected, s)
	}
	if s := sd.Reset(); s.DrawCalls != 0 || s.Buffers != 1 {
		t.Errorf("Reset did not start a new period: %+v", s)
	}

	var total renderer.Stats
	total.Merge(expected)
	total.Merge(expected)
	if total.DrawCalls != 4 || total.Vertices != 144 {
		t.Errorf("unexpected merged stats %+v", total)
	}
}

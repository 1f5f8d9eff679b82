// platform/navigate_test.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package platform

import (
	"testing"

	"github.com/mmp/vizgl/math"
)

func near(a, b [2]float32) bool {
	return math.Distance2f(a, b) < 1e-3
}

func TestNavigate(t *testing.T) {
	cam := math.NewCamera2D(800, 600)
	if Navigate(cam, &MouseState{}, &KeyboardState{}, 1) {
		t.Errorf("no input changed the camera")
	}

	var m MouseState
	m.Dragging[MouseButtonSecondary] = true
	m.DragDelta = [2]float32{10, -5}
	if !Navigate(cam, &m, nil, 2) {
		t.Errorf("drag did not change the camera")
	}
	if !near(cam.Center, [2]float32{-20, -10}) {
		t.Errorf("center after drag %v", cam.Center)
	}

	// The world point under the cursor stays put while zooming.
	cam = math.NewCamera2D(800, 600)
	p := [2]float32{100, 50}
	before := cam.WindowToWorld(p)
	Navigate(cam, &MouseState{Pos: p, Wheel: [2]float32{0, 2}}, nil, 1)
	if z := cam.Zoom(); math.Abs(z-WheelZoom*WheelZoom) > 1e-5 {
		t.Errorf("zoom %f after two notches", z)
	}
	if after := cam.WindowToWorld(p); !near(before, after) {
		t.Errorf("cursor moved from %v to %v", before, after)
	}

	cam = math.NewCamera2D(800, 600)
	k := &KeyboardState{Pressed: map[Key]struct{}{KeyLeftArrow: {}, KeyUpArrow: {}}}
	Navigate(cam, &MouseState{}, k, 1)
	if !near(cam.Center, [2]float32{-80, 60}) {
		t.Errorf("center after arrow keys %v", cam.Center)
	}

	k = &KeyboardState{Pressed: map[Key]struct{}{KeyMinus: {}}}
	Navigate(cam, &MouseState{}, k, 1)
	if z := cam.Zoom(); math.Abs(z-1/WheelZoom) > 1e-5 {
		t.Errorf("zoom %f after zooming out", z)
	}
	if !near(cam.Center, [2]float32{-80, 60}) {
		t.Errorf("zooming about the viewport center moved it to %v", cam.Center)
	}
}

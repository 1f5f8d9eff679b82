// math/camera_test.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"testing"
)

func near(a, b [2]float32) bool {
	return Abs(a[0]-b[0]) < 1e-3 && Abs(a[1]-b[1]) < 1e-3
}

func TestCameraTransform(t *testing.T) {
	c := NewCamera2D(800, 600)
	c.Center = [2]float32{100, 50}
	c.SetZoom(2)

	m := c.Transform()
	for _, tc := range []struct {
		world, ndc [2]float32
	}{
		{world: [2]float32{100, 50}, ndc: [2]float32{0, 0}},
		{world: [2]float32{300, 50}, ndc: [2]float32{1, 0}},
		{world: [2]float32{100, -100}, ndc: [2]float32{0, -1}},
	} {
		if p := m.TransformPoint(tc.world); !near(p, tc.ndc) {
			t.Errorf("%v: expected %v, got %v", tc.world, tc.ndc, p)
		}
	}

	var f [16]float32
	c.ModelViewProjection(&f)
	// Column-major: translation lives in elements 12 and 13.
	if Abs(f[0]-m[0][0]) > 1e-6 || Abs(f[12]-m[0][2]) > 1e-6 || Abs(f[13]-m[1][2]) > 1e-6 || f[15] != 1 {
		t.Errorf("unexpected flattened matrix %v", f)
	}
}

func TestCameraWindowToWorld(t *testing.T) {
	c := NewCamera2D(200, 100)
	if p := c.WindowToWorld([2]float32{100, 50}); !near(p, [2]float32{0, 0}) {
		t.Errorf("window center mapped to %v", p)
	}
	if p := c.WindowToWorld([2]float32{0, 0}); !near(p, [2]float32{-100, 50}) {
		t.Errorf("upper left mapped to %v", p)
	}

	c.ZoomAt([2]float32{150, 25}, 4)
	if c.Zoom() != 4 {
		t.Errorf("expected zoom 4, got %f", c.Zoom())
	}
	if p := c.WindowToWorld([2]float32{150, 25}); !near(p, [2]float32{50, 25}) {
		t.Errorf("zoom did not keep the point fixed: %v", p)
	}

	c.Pan(40, 0)
	if p := c.WindowToWorld([2]float32{190, 25}); !near(p, [2]float32{50, 25}) {
		t.Errorf("pan did not move with the cursor: %v", p)
	}
}

func TestCameraFit(t *testing.T) {
	c := NewCamera2D(100, 100)
	c.Fit([2]float32{-10, 0}, [2]float32{10, 5})
	if !near(c.Center, [2]float32{0, 2.5}) || c.Zoom() != 5 {
		t.Errorf("unexpected fit: center %v zoom %f", c.Center, c.Zoom())
	}

	c.SetZoom(1e9)
	if c.Zoom() != MaxZoom {
		t.Errorf("zoom not clamped: %f", c.Zoom())
	}
}

// math/camera.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

// Camera2D is an orthographic view onto the graph plane. Zoom is the
// number of window pixels per world unit.
type Camera2D struct {
	Center   [2]float32
	zoom     float32
	viewport [2]float32
}

const (
	MinZoom = 1e-4
	MaxZoom = 1e4
)

func NewCamera2D(width, height int) *Camera2D {
	return &Camera2D{zoom: 1, viewport: [2]float32{float32(width), float32(height)}}
}

func (c *Camera2D) Zoom() float32 { return c.zoom }

func (c *Camera2D) SetZoom(z float32) { c.zoom = Clamp(z, MinZoom, MaxZoom) }

func (c *Camera2D) SetViewport(width, height int) {
	c.viewport = [2]float32{float32(width), float32(height)}
}

func (c *Camera2D) Viewport() [2]float32 { return c.viewport }

// Transform returns the matrix taking world coordinates to normalized
// device coordinates.
func (c *Camera2D) Transform() Matrix3 {
	hw, hh := c.viewport[0]/(2*c.zoom), c.viewport[1]/(2*c.zoom)
	return Identity3x3().Ortho(c.Center[0]-hw, c.Center[0]+hw, c.Center[1]-hh, c.Center[1]+hh)
}

// ModelViewProjection stores the flattened column-major transform in m.
func (c *Camera2D) ModelViewProjection(m *[16]float32) {
	c.Transform().Flat4(m)
}

// WindowToWorld maps a window position (origin at the upper left, y down)
// to world coordinates.
func (c *Camera2D) WindowToWorld(p [2]float32) [2]float32 {
	ndc := [2]float32{2*p[0]/c.viewport[0] - 1, 1 - 2*p[1]/c.viewport[1]}
	return c.Transform().Inverse().TransformPoint(ndc)
}

// Pan moves the camera by the given number of window pixels.
func (c *Camera2D) Pan(dx, dy float32) {
	c.Center = Add2f(c.Center, [2]float32{-dx / c.zoom, dy / c.zoom})
}

// ZoomAt scales the zoom by factor while keeping the world point under
// the given window position fixed.
func (c *Camera2D) ZoomAt(p [2]float32, factor float32) {
	before := c.WindowToWorld(p)
	c.SetZoom(c.zoom * factor)
	after := c.WindowToWorld(p)
	c.Center = Add2f(c.Center, Sub2f(before, after))
}

// Fit centers the camera on the given bounds and picks the largest zoom
// that shows all of them.
func (c *Camera2D) Fit(p0, p1 [2]float32) {
	c.Center = Scale2f(Add2f(p0, p1), 0.5)
	ext := Sub2f(p1, p0)
	if ext[0] <= 0 || ext[1] <= 0 {
		c.SetZoom(1)
		return
	}
	c.SetZoom(min(c.viewport[0]/ext[0], c.viewport[1]/ext[1]))
}

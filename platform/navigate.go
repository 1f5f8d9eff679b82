// platform/navigate.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package platform

import "github.com/mmp/vizgl/math"

const (
	// WheelZoom is the zoom factor for one notch of the mouse wheel.
	WheelZoom = 1.15
	// KeyPan is the fraction of the viewport an arrow key pans by.
	KeyPan = 0.1
)

// Navigate applies one frame of input to the camera. Dragging with any
// button pans, while the wheel and the +/- keys zoom about the cursor.
// Mouse positions are in window coordinates and are multiplied by scale
// to get the framebuffer pixels the camera's viewport is measured in. It
// returns true if the camera changed.
func Navigate(cam *math.Camera2D, m *MouseState, k *KeyboardState, scale float32) bool {
	changed := false
	pos := math.Scale2f(m.Pos, scale)

	for b := MouseButtonPrimary; b < MouseButtonCount; b++ {
		if m.Dragging[b] && m.DragDelta != [2]float32{} {
			d := math.Scale2f(m.DragDelta, scale)
			cam.Pan(d[0], d[1])
			changed = true
			break
		}
	}

	if m.Wheel[1] != 0 {
		cam.ZoomAt(pos, math.Pow(WheelZoom, m.Wheel[1]))
		changed = true
	}

	if k == nil {
		return changed
	}
	vp := cam.Viewport()
	for key, f := range map[Key]func(){
		KeyPlus:       func() { cam.ZoomAt(math.Scale2f(vp, 0.5), WheelZoom) },
		KeyMinus:      func() { cam.ZoomAt(math.Scale2f(vp, 0.5), 1/WheelZoom) },
		KeyLeftArrow:  func() { cam.Pan(KeyPan*vp[0], 0) },
		KeyRightArrow: func() { cam.Pan(-KeyPan*vp[0], 0) },
		KeyUpArrow:    func() { cam.Pan(0, KeyPan*vp[1]) },
		KeyDownArrow:  func() { cam.Pan(0, -KeyPan*vp[1]) },
	} {
		if k.WasPressed(key) {
			f()
			changed = true
		}
	}
	return changed
}

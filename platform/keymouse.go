// platform/keymouse.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package platform

import (
	"maps"

	"github.com/go-gl/glfw/v3.3/glfw"
)

type MouseButton int

const (
	MouseButtonPrimary MouseButton = iota
	MouseButtonSecondary
	MouseButtonTertiary
	MouseButtonCount
)

type MouseState struct {
	Pos       [2]float32
	DeltaPos  [2]float32
	Down      [MouseButtonCount]bool
	Clicked   [MouseButtonCount]bool
	Released  [MouseButtonCount]bool
	Dragging  [MouseButtonCount]bool
	DragDelta [2]float32
	Wheel     [2]float32
}

type Key int

const (
	KeyEscape Key = iota
	KeySpace
	KeyF
	KeyH
	KeyC
	KeyS
	KeyPlus
	KeyMinus
	KeyLeftArrow
	KeyRightArrow
	KeyUpArrow
	KeyDownArrow
	KeyF11
)

var glfwKeys = map[glfw.Key]Key{
	glfw.KeyEscape:     KeyEscape,
	glfw.KeySpace:      KeySpace,
	glfw.KeyF:          KeyF,
	glfw.KeyH:          KeyH,
	glfw.KeyC:          KeyC,
	glfw.KeyS:          KeyS,
	glfw.KeyEqual:      KeyPlus,
	glfw.KeyKPAdd:      KeyPlus,
	glfw.KeyMinus:      KeyMinus,
	glfw.KeyKPSubtract: KeyMinus,
	glfw.KeyLeft:       KeyLeftArrow,
	glfw.KeyRight:      KeyRightArrow,
	glfw.KeyUp:         KeyUpArrow,
	glfw.KeyDown:       KeyDownArrow,
	glfw.KeyF11:        KeyF11,
}

type KeyboardState struct {
	// A key shows up here once each time it is pressed (though repeatedly
	// if key repeat kicks in.)
	Pressed map[Key]struct{}
	Shift   bool
}

func (k *KeyboardState) WasPressed(key Key) bool {
	_, ok := k.Pressed[key]
	return ok
}

func (g *glfwPlatform) GetMouse() *MouseState {
	m := g.mouse
	return &m
}

func (g *glfwPlatform) GetKeyboard() *KeyboardState {
	return &KeyboardState{
		Pressed: maps.Clone(g.pressed),
		Shift: g.window.GetKey(glfw.KeyLeftShift) == glfw.Press ||
			g.window.GetKey(glfw.KeyRightShift) == glfw.Press,
	}
}

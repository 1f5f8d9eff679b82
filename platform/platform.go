// platform/platform.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package platform opens the viewer window with an OpenGL 4.1 core
// context and reports the mouse and keyboard input used to navigate the
// graph.
package platform

// Platform is the interface that abstracts platform-specific features like
// creating windows, mouse and keyboard handling, etc.
type Platform interface {
	// ProcessEvents handles all pending window events. Returns true if
	// there were any events and false otherwise.
	ProcessEvents() bool
	// PostRender performs the buffer swap.
	PostRender()
	// Dispose is called when the application is shutting down and is when
	// resources are be freed.
	Dispose()
	// ShouldStop returns true if the window is to be closed.
	ShouldStop() bool
	// SetWindowTitle sets the title of the application window.
	SetWindowTitle(text string)
	// EnableVSync specifies whether v-sync should be used when rendering.
	EnableVSync(sync bool)
	// EnableFullScreen switches between windowed and fullscreen mode.
	EnableFullScreen(fullscreen bool)
	IsFullScreen() bool
	// WindowSize returns the size of the window in screen coordinates.
	WindowSize() [2]int
	// FramebufferSize returns the size of the framebuffer in pixels.
	FramebufferSize() [2]int
	// Scaling factor to account for Retina-style displays
	DPIScale() float32

	// GetMouse returns the mouse state accumulated since the previous
	// call to ProcessEvents.
	GetMouse() *MouseState
	GetKeyboard() *KeyboardState
}

type Config struct {
	InitialWindowSize [2]int
	// Samples is the number of MSAA samples; 0 disables multisampling.
	Samples int
	VSync   bool
	// Hidden keeps the window off screen, for rendering without a viewer.
	Hidden bool

	StartInFullScreen bool
	FullScreenMonitor int
}

// platform/glfw.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package platform

import (
	"fmt"
	"runtime"

	"github.com/mmp/vizgl/log"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwPlatform implements the Platform interface using GLFW.
type glfwPlatform struct {
	window *glfw.Window
	config *Config
	lg     *log.Logger

	mouse       MouseState
	pressed     map[Key]struct{}
	lastCursor  [2]float32
	anyEvents   bool
	windowTitle string
}

// New creates the window, makes its OpenGL 4.1 core context current on
// the calling thread and installs the input callbacks.
func New(config *Config, lg *log.Logger) (Platform, error) {
	lg.Info("Starting GLFW initialization")
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize glfw: %w", err)
	}
	lg.Infof("GLFW: %s", glfw.GetVersionString())

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	// Start with an invisible window so that we can position it first
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.AutoIconify, glfw.False)
	if config.Samples > 0 {
		glfw.WindowHint(glfw.Samples, config.Samples)
	}

	vm := glfw.GetPrimaryMonitor().GetVideoMode()
	if config.InitialWindowSize[0] == 0 || config.InitialWindowSize[1] == 0 {
		config.InitialWindowSize = [2]int{vm.Width - 150, vm.Height - 150}
	}

	monitors := glfw.GetMonitors()
	if config.FullScreenMonitor >= len(monitors) {
		// Monitor saved in config not found, fallback to default
		config.FullScreenMonitor = 0
	}

	var window *glfw.Window
	var err error
	if config.StartInFullScreen {
		m := monitors[config.FullScreenMonitor]
		vm := m.GetVideoMode()
		window, err = glfw.CreateWindow(vm.Width, vm.Height, "vizgl", m, nil)
	} else {
		window, err = glfw.CreateWindow(config.InitialWindowSize[0], config.InitialWindowSize[1], "vizgl", nil, nil)
	}
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	window.SetPos((vm.Width-config.InitialWindowSize[0])/2, (vm.Height-config.InitialWindowSize[1])/2)
	if !config.Hidden {
		window.Show()
	}
	window.MakeContextCurrent()

	g := &glfwPlatform{
		window:  window,
		config:  config,
		lg:      lg,
		pressed: make(map[Key]struct{}),
	}
	g.installCallbacks()
	g.EnableVSync(config.VSync)
	g.lastCursor = g.getCursorPos()

	glfw.SetMonitorCallback(g.monitorCallback)

	lg.Info("Finished GLFW initialization", "samples", config.Samples, "vsync", config.VSync)
	return g, nil
}

func (g *glfwPlatform) DPIScale() float32 {
	if runtime.GOOS == "windows" {
		sx, sy := g.window.GetContentScale()
		return float32(int((sx + sy) / 2))
	}
	fb, ws := g.FramebufferSize(), g.WindowSize()
	if ws[0] == 0 {
		return 1
	}
	return float32(fb[0]) / float32(ws[0])
}

func (g *glfwPlatform) EnableVSync(sync bool) {
	if sync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
}

func (g *glfwPlatform) monitorCallback(monitor *glfw.Monitor, event glfw.PeripheralEvent) {
	if event == glfw.Disconnected {
		g.lg.Info("Monitor disconnected", "name", monitor.GetName())
		g.config.FullScreenMonitor = 0
		g.config.StartInFullScreen = false
	}
}

func (g *glfwPlatform) Dispose() {
	g.window.Destroy()
	glfw.Terminate()
}

func (g *glfwPlatform) ShouldStop() bool {
	return g.window.ShouldClose()
}

func (g *glfwPlatform) ProcessEvents() bool {
	m := &g.mouse
	m.Wheel = [2]float32{}
	m.DragDelta = [2]float32{}
	m.Clicked = [MouseButtonCount]bool{}
	m.Released = [MouseButtonCount]bool{}
	for b := range m.Dragging {
		// A drag is still reported in the frame its button is released.
		m.Dragging[b] = m.Dragging[b] && m.Down[b]
	}
	clear(g.pressed)
	g.anyEvents = false

	glfw.PollEvents()

	pos := g.getCursorPos()
	m.DeltaPos = [2]float32{pos[0] - g.lastCursor[0], pos[1] - g.lastCursor[1]}
	m.Pos = pos
	g.lastCursor = pos

	for b := MouseButtonPrimary; b < MouseButtonCount; b++ {
		m.Down[b] = g.window.GetMouseButton(glfwButton[b]) == glfw.Press
		if m.Down[b] && !m.Clicked[b] && m.DeltaPos != [2]float32{} {
			m.Dragging[b] = true
			m.DragDelta = m.DeltaPos
		}
	}

	return g.anyEvents || m.DeltaPos != [2]float32{}
}

func (g *glfwPlatform) WindowSize() [2]int {
	w, h := g.window.GetSize()
	return [2]int{w, h}
}

func (g *glfwPlatform) FramebufferSize() [2]int {
	w, h := g.window.GetFramebufferSize()
	return [2]int{w, h}
}

func (g *glfwPlatform) getCursorPos() [2]float32 {
	x, y := g.window.GetCursorPos()
	return [2]float32{float32(x), float32(y)}
}

func (g *glfwPlatform) PostRender() {
	g.window.SwapBuffers()
}

func (g *glfwPlatform) SetWindowTitle(text string) {
	if text != g.windowTitle {
		g.window.SetTitle(text)
		g.windowTitle = text
	}
}

func (g *glfwPlatform) installCallbacks() {
	g.window.SetMouseButtonCallback(g.mouseButtonChange)
	g.window.SetScrollCallback(g.mouseScrollChange)
	g.window.SetKeyCallback(g.keyChange)
}

var glfwButton = [MouseButtonCount]glfw.MouseButton{
	MouseButtonPrimary:   glfw.MouseButton1,
	MouseButtonSecondary: glfw.MouseButton2,
	MouseButtonTertiary:  glfw.MouseButton3,
}

func (g *glfwPlatform) mouseButtonChange(window *glfw.Window, rawButton glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	for b, id := range glfwButton {
		if id != rawButton {
			continue
		}
		g.anyEvents = true
		switch action {
		case glfw.Press:
			g.mouse.Clicked[b] = true
			g.mouse.Dragging[b] = false
		case glfw.Release:
			g.mouse.Released[b] = true
		}
	}
}

func (g *glfwPlatform) mouseScrollChange(window *glfw.Window, x, y float64) {
	g.anyEvents = true
	g.mouse.Wheel[0] += float32(x)
	g.mouse.Wheel[1] += float32(y)
}

func (g *glfwPlatform) keyChange(window *glfw.Window, keycode glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	g.anyEvents = true
	if action == glfw.Press || action == glfw.Repeat {
		if k, ok := glfwKeys[keycode]; ok {
			g.pressed[k] = struct{}{}
		}
	}
}

func (g *glfwPlatform) IsFullScreen() bool {
	return g.window.GetMonitor() != nil
}

func (g *glfwPlatform) EnableFullScreen(fullscreen bool) {
	monitors := glfw.GetMonitors()
	if g.config.FullScreenMonitor >= len(monitors) {
		g.config.FullScreenMonitor = 0
	}

	monitor := monitors[g.config.FullScreenMonitor]
	vm := monitor.GetVideoMode()
	if fullscreen {
		g.window.SetMonitor(monitor, 0, 0, vm.Width, vm.Height, vm.RefreshRate)
	} else {
		sz := g.config.InitialWindowSize
		g.window.SetMonitor(nil, (vm.Width-sz[0])/2, (vm.Height-sz[1])/2, sz[0], sz[1], glfw.DontCare)
	}
}

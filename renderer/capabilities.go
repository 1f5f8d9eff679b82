// renderer/capabilities.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"log/slog"
)

// Capabilities records what the active graphics context supports. It is
// probed once after context creation and then treated as immutable.
type Capabilities struct {
	Vendor   string
	Renderer string
	Version  string
	Major    int
	Minor    int

	Instancing         bool // instanced draws and per-instance attribute divisors
	VertexArrayObjects bool
	DrawIndirect       bool // draw commands sourced from a GPU buffer
}

// AtLeast reports whether the context version is at least major.minor.
func (c Capabilities) AtLeast(major, minor int) bool {
	return c.Major > major || (c.Major == major && c.Minor >= minor)
}

func (c Capabilities) String() string {
	return fmt.Sprintf("%s %s (GL %d.%d) instancing=%v vao=%v indirect=%v", c.Vendor, c.Renderer,
		c.Major, c.Minor, c.Instancing, c.VertexArrayObjects, c.DrawIndirect)
}

func (c Capabilities) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("vendor", c.Vendor),
		slog.String("renderer", c.Renderer),
		slog.String("version", c.Version),
		slog.Bool("instancing", c.Instancing),
		slog.Bool("vertex_array_objects", c.VertexArrayObjects),
		slog.Bool("draw_indirect", c.DrawIndirect),
	)
}

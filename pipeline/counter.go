// pipeline/counter.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package pipeline

import "log/slog"

// InstanceCounter tracks how many records of one element kind were
// encoded in each pass. Encoding sets Unselected and Selected; Promote
// copies them to the draw-time counts once the records have been
// uploaded, so that a draw never uses counts that disagree with the
// buffer contents.
type InstanceCounter struct {
	Unselected, Selected         int
	DrawUnselected, DrawSelected int
}

func (c *InstanceCounter) Total() int { return c.Unselected + c.Selected }

func (c *InstanceCounter) DrawTotal() int { return c.DrawUnselected + c.DrawSelected }

func (c *InstanceCounter) Promote() {
	c.DrawUnselected, c.DrawSelected = c.Unselected, c.Selected
}

func (c *InstanceCounter) Reset() {
	*c = InstanceCounter{}
}

func (c InstanceCounter) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("unselected", c.Unselected),
		slog.Int("selected", c.Selected),
		slog.Int("draw_unselected", c.DrawUnselected),
		slog.Int("draw_selected", c.DrawSelected),
	)
}

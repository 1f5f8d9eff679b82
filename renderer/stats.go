// renderer/stats.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"log/slog"
)

// Stats encapsulates assorted statistics from rendering a frame.
type Stats struct {
	Buffers       int
	UploadedBytes int
	DrawCalls     int
	Instances     int
	Vertices      int
}

func (rs *Stats) String() string {
	return fmt.Sprintf("%d buffers, %.2f MB uploaded, %d draw calls: %d instances, %d vertices",
		rs.Buffers, float32(rs.UploadedBytes)/(1024*1024), rs.DrawCalls, rs.Instances, rs.Vertices)
}

func (rs *Stats) Merge(s Stats) {
	rs.Buffers += s.Buffers
	rs.UploadedBytes += s.UploadedBytes
	rs.DrawCalls += s.DrawCalls
	rs.Instances += s.Instances
	rs.Vertices += s.Vertices
}

func (rs Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("buffers", rs.Buffers),
		slog.Int("uploaded_bytes", rs.UploadedBytes),
		slog.Int("draw_calls", rs.DrawCalls),
		slog.Int("instances", rs.Instances),
		slog.Int("vertices", rs.Vertices),
	)
}

// StatsDevice forwards every call to the wrapped Device and accumulates
// Stats for the uploads and draws that pass through it. Indirect draws
// count as a single draw call since their sizes live on the device.
type StatsDevice struct {
	Device
	stats Stats
	live  int
}

func NewStatsDevice(dev Device) *StatsDevice {
	return &StatsDevice{Device: dev}
}

// Reset returns the statistics gathered since the previous Reset and
// starts a new accumulation period.
func (d *StatsDevice) Reset() Stats {
	s := d.stats
	s.Buffers = d.live
	d.stats = Stats{}
	return s
}

func (d *StatsDevice) GenBuffer() uint32 {
	d.live++
	return d.Device.GenBuffer()
}

func (d *StatsDevice) DeleteBuffer(id uint32) {
	d.live--
	d.Device.DeleteBuffer(id)
}

func (d *StatsDevice) BufferData(target BufferTarget, size int, data []byte, usage Usage) {
	d.stats.UploadedBytes += len(data)
	d.Device.BufferData(target, size, data, usage)
}

func (d *StatsDevice) BufferSubData(target BufferTarget, offset int, data []byte) {
	d.stats.UploadedBytes += len(data)
	d.Device.BufferSubData(target, offset, data)
}

func (d *StatsDevice) DrawArrays(mode DrawMode, first, count int32) {
	d.stats.DrawCalls++
	d.stats.Vertices += int(count)
	d.Device.DrawArrays(mode, first, count)
}

func (d *StatsDevice) DrawArraysInstanced(mode DrawMode, first, count, instances int32) {
	d.stats.DrawCalls++
	d.stats.Instances += int(instances)
	d.stats.Vertices += int(count) * int(instances)
	d.Device.DrawArraysInstanced(mode, first, count, instances)
}

func (d *StatsDevice) DrawArraysIndirect(mode DrawMode, offset int) {
	d.stats.DrawCalls++
	d.Device.DrawArraysIndirect(mode, offset)
}

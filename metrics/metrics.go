// metrics/metrics.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package metrics exports rendering pipeline counters to Prometheus. All
// methods may be called on a nil *Registry, in which case they do
// nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Registry struct {
	BufferGrowthTotal *prometheus.CounterVec
	BufferCapacity    *prometheus.GaugeVec

	EncodedRecords *prometheus.GaugeVec
	EncodeDuration *prometheus.HistogramVec
	ActiveStrategy *prometheus.GaugeVec
	StrategyErrors *prometheus.CounterVec
	DrawCallsTotal prometheus.Counter
	UploadedBytes  prometheus.Counter
	FrameDuration  prometheus.Histogram
	FramesTotal    prometheus.Counter

	registry *prometheus.Registry
}

func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	f := promauto.With(r.registry)

	r.BufferGrowthTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vizgl_buffer_growth_total",
			Help: "Number of times a staging buffer was reallocated",
		},
		[]string{"buffer"},
	)
	r.BufferCapacity = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vizgl_buffer_capacity_elements",
			Help: "Current capacity of a staging buffer in elements",
		},
		[]string{"buffer"},
	)

	r.EncodedRecords = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vizgl_encoded_records",
			Help: "Records encoded in the last frame",
		},
		[]string{"category", "pass"},
	)
	r.EncodeDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vizgl_encode_duration_seconds",
			Help:    "Time spent encoding attribute records",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"category"},
	)
	r.ActiveStrategy = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vizgl_active_strategy",
			Help: "Set to 1 for the strategy committed for each category",
		},
		[]string{"category", "strategy"},
	)
	r.StrategyErrors = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vizgl_strategy_errors_total",
			Help: "Frames skipped by a strategy after an error",
		},
		[]string{"category", "strategy"},
	)

	r.DrawCallsTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "vizgl_draw_calls_total",
		Help: "Draw calls issued",
	})
	r.UploadedBytes = f.NewCounter(prometheus.CounterOpts{
		Name: "vizgl_uploaded_bytes_total",
		Help: "Bytes uploaded to device buffers",
	})
	r.FrameDuration = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "vizgl_frame_duration_seconds",
		Help:    "Time from encoding to the last draw of a frame",
		Buckets: []float64{0.001, 0.004, 0.008, 0.016, 0.033, 0.066, 0.1, 0.25},
	})
	r.FramesTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "vizgl_frames_total",
		Help: "Frames rendered",
	})

	return r
}

// Prometheus returns the underlying registry, e.g. for serving with promhttp.
func (r *Registry) Prometheus() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Registry) BufferGrew(name string, from, to int) {
	if r == nil {
		return
	}
	r.BufferGrowthTotal.WithLabelValues(name).Inc()
	r.BufferCapacity.WithLabelValues(name).Set(float64(to))
}

func (r *Registry) Encoded(category string, unselected, selected int, d time.Duration) {
	if r == nil {
		return
	}
	r.EncodedRecords.WithLabelValues(category, "unselected").Set(float64(unselected))
	r.EncodedRecords.WithLabelValues(category, "selected").Set(float64(selected))
	r.EncodeDuration.WithLabelValues(category).Observe(d.Seconds())
}

func (r *Registry) StrategyCommitted(category, name string) {
	if r == nil {
		return
	}
	r.ActiveStrategy.WithLabelValues(category, name).Set(1)
}

func (r *Registry) StrategyFailed(category, name string) {
	if r == nil {
		return
	}
	r.StrategyErrors.WithLabelValues(category, name).Inc()
}

func (r *Registry) Frame(d time.Duration, drawCalls, uploadedBytes int) {
	if r == nil {
		return
	}
	r.FramesTotal.Inc()
	r.FrameDuration.Observe(d.Seconds())
	r.DrawCallsTotal.Add(float64(drawCalls))
	r.UploadedBytes.Add(float64(uploadedBytes))
}

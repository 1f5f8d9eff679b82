// cmd/vizgl/pipeline.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmp/vizgl/graph"
	"github.com/mmp/vizgl/metrics"
	"github.com/mmp/vizgl/pipeline"
	"github.com/mmp/vizgl/renderer"
)

func (a *app) newPipeline(dev renderer.Device, caps renderer.Capabilities, reg *metrics.Registry) (*pipeline.Pipeline, error) {
	p := pipeline.New(a.config.RenderOptions(), a.lg, reg)
	if err := pipeline.RegisterDefaults(p); err != nil {
		return nil, err
	}
	if err := p.Init(dev, caps); err != nil {
		return nil, fmt.Errorf("unable to initialize the rendering pipeline: %w", err)
	}
	a.lg.Info("Pipeline ready", slog.String("id", p.ID().String()), slog.Any("strategies", p.Active()))
	return p, nil
}

func (a *app) generate() (*graph.Graph, error) {
	opt := a.config.GenerateOptions()
	g, err := graph.Generate(opt)
	if err != nil {
		return nil, fmt.Errorf("unable to generate graph: %w", err)
	}
	a.lg.Info("Generated graph", slog.Int("nodes", opt.Nodes), slog.Int("edges", opt.Edges),
		slog.Int64("seed", opt.Seed))
	return g, nil
}

// parseCapabilities builds the capabilities of a headless device from
// feature names.
func parseCapabilities(names []string) (renderer.Capabilities, error) {
	caps := renderer.Capabilities{Vendor: "vizgl", Renderer: "headless", Version: "4.1", Major: 4, Minor: 1}
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "instancing":
			caps.Instancing = true
		case "vao":
			caps.VertexArrayObjects = true
		case "indirect":
			caps.DrawIndirect = true
		case "", "none":
		default:
			return caps, fmt.Errorf("%q: unknown capability; expected instancing, vao or indirect", n)
		}
	}
	return caps, nil
}

// cmd/vizgl/capture.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmp/vizgl/capture"
	"github.com/mmp/vizgl/graph"
	"github.com/mmp/vizgl/math"
	"github.com/mmp/vizgl/pipeline"
	"github.com/mmp/vizgl/platform"
	"github.com/mmp/vizgl/renderer"
	"github.com/mmp/vizgl/renderer/ogl"
	"github.com/mmp/vizgl/renderer/rendertest"

	"github.com/spf13/cobra"
)

type captureOptions struct {
	frames   int
	selected int
	headless bool
	caps     []string
}

func (a *app) captureCommand() *cobra.Command {
	var opt captureOptions
	cmd := &cobra.Command{
		Use:   "capture [flags] output.cap",
		Short: "Render a generated graph and save the records encoded for the last frame",
		Long: `Render a generated graph and save the attribute records each strategy encoded
for the last frame. With --headless no window or GPU is used: the pipeline draws
into an in-memory device that reports the capabilities given by --caps.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.capture(cmd.Context(), opt)
			if err != nil {
				return err
			}
			if err := capture.WriteFile(args[0], f); err != nil {
				return err
			}
			a.lg.Info("Saved capture", slog.String("file", args[0]), slog.Int("records", f.Records()))
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records\n", args[0], f.Records())
			return nil
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&opt.frames, "frames", 1, "number of frames to render before capturing")
	fl.IntVar(&opt.selected, "select", 0, "select this many nodes, along with their edges")
	fl.BoolVar(&opt.headless, "headless", false, "render into an in-memory device instead of an OpenGL context")
	fl.StringSliceVar(&opt.caps, "caps", []string{"instancing", "vao", "indirect"},
		"capabilities of the headless device: instancing, vao, indirect")
	return cmd
}

func (a *app) capture(ctx context.Context, opt captureOptions) (*capture.Frame, error) {
	if opt.frames < 1 {
		return nil, fmt.Errorf("%d: at least one frame must be rendered", opt.frames)
	} else if opt.selected < 0 {
		return nil, fmt.Errorf("%d: invalid number of nodes to select", opt.selected)
	}

	g, err := a.generate()
	if err != nil {
		return nil, err
	}
	g.RefreshAll()

	sel := graph.NewSelectionSet(true)
	nodes := g.Nodes()
	sel.SelectNodes(nodes[:min(opt.selected, len(nodes))]...)

	w := a.config.Window
	var dev renderer.Device
	var caps renderer.Capabilities
	if opt.headless {
		if caps, err = parseCapabilities(opt.caps); err != nil {
			return nil, err
		}
		dev = rendertest.NewDevice()
	} else {
		plat, err := platform.New(&platform.Config{
			InitialWindowSize: [2]int{w.Width, w.Height},
			Samples:           w.MSAA,
			Hidden:            true,
		}, a.lg)
		if err != nil {
			return nil, fmt.Errorf("unable to create OpenGL context: %w", err)
		}
		defer plat.Dispose()

		od, err := ogl.New(a.lg)
		if err != nil {
			return nil, err
		}
		dev, caps = od, od.Capabilities()
	}

	p, err := a.newPipeline(dev, caps, nil)
	if err != nil {
		return nil, err
	}
	defer p.Dispose()

	cam := math.NewCamera2D(w.Width, w.Height)
	cam.Fit(g.Bounds())
	if err := renderFrames(ctx, p, g, sel.Snapshot(), cam, opt.frames); err != nil {
		return nil, err
	}
	return p.Capture()
}

func renderFrames(ctx context.Context, p *pipeline.Pipeline, idx graph.Index, sel graph.Selection,
	cam pipeline.Camera, n int) error {
	for i := range n {
		if _, err := p.RenderFrame(ctx, idx, sel, cam); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

// cmd/vizgl/run.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/mmp/vizgl/capture"
	"github.com/mmp/vizgl/graph"
	"github.com/mmp/vizgl/log"
	"github.com/mmp/vizgl/math"
	"github.com/mmp/vizgl/metrics"
	"github.com/mmp/vizgl/pipeline"
	"github.com/mmp/vizgl/platform"
	"github.com/mmp/vizgl/renderer/ogl"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// maxFailedFrames is the number of consecutive failed frames after which
// the viewer gives up.
const maxFailedFrames = 30

var background = [4]float32{0.08, 0.08, 0.1, 1}

func (a *app) runCommand() *cobra.Command {
	var metricsAddr, captureDir string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open a window and draw a generated graph",
		Long: `Open a window and draw a generated graph. Drag to pan and use the mouse
wheel or +/- to zoom. Click a node to select it and its edges; shift-click
adds to the selection. Keys: c clears the selection, h hides unselected
elements, f fits the graph to the window, s saves a capture of the encoded
records, F11 toggles fullscreen and Escape quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("metrics") {
				a.config.Metrics.Listen = metricsAddr
			}
			return a.run(cmd.Context(), captureDir)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "serve Prometheus metrics on this address (overrides the configuration)")
	cmd.Flags().StringVar(&captureDir, "capture-dir", ".", "directory captures saved with the s key are written to")
	return cmd
}

func (a *app) run(ctx context.Context, captureDir string) error {
	lg := a.lg
	defer lg.CatchAndReportCrash()

	g, err := a.generate()
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	if addr := a.config.Metrics.Listen; addr != "" {
		srv := serveMetrics(addr, reg, lg)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			srv.Shutdown(sctx)
		}()
	}

	w := a.config.Window
	plat, err := platform.New(&platform.Config{
		InitialWindowSize: [2]int{w.Width, w.Height},
		Samples:           w.MSAA,
		VSync:             w.VSync,
	}, lg)
	if err != nil {
		return fmt.Errorf("unable to create application window: %w", err)
	}
	defer plat.Dispose()

	dev, err := ogl.New(lg)
	if err != nil {
		return err
	}
	p, err := a.newPipeline(dev, dev.Capabilities(), reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Dispose(); err != nil {
			lg.Errorf("dispose: %v", err)
		}
	}()

	fb := plat.FramebufferSize()
	v := &viewer{
		graph:      g,
		selection:  graph.NewSelectionSet(true),
		camera:     math.NewCamera2D(fb[0], fb[1]),
		pipeline:   p,
		hide:       a.config.Render.HideNonSelected,
		captureDir: captureDir,
		lg:         lg,
	}
	v.camera.Fit(g.Bounds())

	failed := 0
	for frame := 0; !plat.ShouldStop() && !v.quit; frame++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		plat.ProcessEvents()
		fb := plat.FramebufferSize()
		v.camera.SetViewport(fb[0], fb[1])
		v.handleInput(plat, plat.GetMouse(), plat.GetKeyboard())

		g.Refresh(v.camera.WindowToWorld([2]float32{0, float32(fb[1])}),
			v.camera.WindowToWorld([2]float32{float32(fb[0]), 0}))

		dev.BeginFrame(fb[0], fb[1], background, w.MSAA > 0)
		stats, err := p.RenderFrame(ctx, g, v.selection.Snapshot(), v.camera)
		if err != nil {
			failed++
			lg.Error("frame failed", slog.Int("frame", frame), slog.Any("error", err))
			if failed >= maxFailedFrames {
				return fmt.Errorf("giving up after %d failed frames: %w", failed, err)
			}
		} else {
			failed = 0
		}

		plat.SetWindowTitle(fmt.Sprintf("vizgl: %d/%d nodes, %d/%d edges, %d draw calls",
			len(g.VisibleNodes()), len(g.Nodes()), len(g.VisibleEdges()), len(g.Edges()), stats.DrawCalls))
		plat.PostRender()
	}

	lg.Info("Exiting viewer")
	return nil
}

func serveMetrics(addr string, reg *metrics.Registry, lg *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg.Prometheus(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		lg.Info("Serving metrics", slog.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Errorf("metrics server: %v", err)
		}
	}()
	return srv
}

// viewer holds the interactive state of the run command.
type viewer struct {
	graph     *graph.Graph
	selection *graph.SelectionSet
	selected  []*graph.BasicNode
	camera    *math.Camera2D
	pipeline  *pipeline.Pipeline
	hide      bool
	quit      bool

	captureDir string
	lg         *log.Logger
}

func (v *viewer) handleInput(plat platform.Platform, m *platform.MouseState, k *platform.KeyboardState) {
	scale := plat.DPIScale()
	platform.Navigate(v.camera, m, k, scale)

	if m.Released[platform.MouseButtonPrimary] && !m.Dragging[platform.MouseButtonPrimary] {
		v.click(v.camera.WindowToWorld(math.Scale2f(m.Pos, scale)), k.Shift)
	}

	switch {
	case k.WasPressed(platform.KeyEscape):
		v.quit = true
	case k.WasPressed(platform.KeyC):
		v.selected = nil
		v.selection.Clear()
	case k.WasPressed(platform.KeyH):
		v.hide = !v.hide
		v.pipeline.SetHideNonSelected(v.hide)
	case k.WasPressed(platform.KeyF):
		v.camera.Fit(v.graph.Bounds())
	case k.WasPressed(platform.KeyS):
		v.saveCapture()
	case k.WasPressed(platform.KeyF11):
		plat.EnableFullScreen(!plat.IsFullScreen())
	}
}

// click selects the node at p; with add set it is added to the current
// selection. Clicking empty space clears the selection.
func (v *viewer) click(p [2]float32, add bool) {
	n, ok := v.graph.NodeAt(p)
	switch {
	case !ok && !add:
		v.selected = nil
	case !ok:
		return
	case add:
		v.selected = append(v.selected, n)
	default:
		v.selected = []*graph.BasicNode{n}
	}
	v.selection.SelectNodes(v.selected...)
	v.lg.Debug("selection changed", slog.Int("nodes", len(v.selected)))
}

func (v *viewer) saveCapture() {
	f, err := v.pipeline.Capture()
	if err != nil {
		v.lg.Errorf("capture: %v", err)
		return
	}
	fn := filepath.Join(v.captureDir, "vizgl-"+f.Time.Format("20060102-150405")+".cap")
	if err := capture.WriteFile(fn, f); err != nil {
		v.lg.Errorf("capture: %v", err)
		return
	}
	v.lg.Info("Saved capture", slog.String("file", fn), slog.Int("records", f.Records()))
}

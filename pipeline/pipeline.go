// pipeline/pipeline.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package pipeline turns the visible part of a graph into packed vertex
// attribute records and draws them. For each element category one of
// several interchangeable strategies is chosen once, according to what the
// graphics context supports; each strategy pairs a WorldUpdater, which
// encodes records on the CPU, with a Renderer that uploads and draws them.
//
// A frame is driven in this order, all but UpdateWorld on the rendering
// thread:
//
//	p.UpdateWorld(ctx, index, selection, camera)
//	p.WorldUpdated()
//	for _, layer := range pipeline.Layers {
//		p.Render(layer, camera)
//	}
//
// RenderFrame does all of the above.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/mmp/vizgl/capture"
	"github.com/mmp/vizgl/graph"
	"github.com/mmp/vizgl/log"
	"github.com/mmp/vizgl/metrics"
	"github.com/mmp/vizgl/renderer"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Pipeline struct {
	id       uuid.UUID
	lg       *log.Logger
	env      *env
	selector *Selector

	dev    *renderer.StatsDevice
	caps   renderer.Capabilities
	active []Pair // sorted by Order

	hide atomic.Bool

	initialized bool
	disposed    bool
}

// New returns a pipeline with no strategies registered; see
// RegisterDefaults. reg may be nil.
func New(opt Options, lg *log.Logger, reg *metrics.Registry) *Pipeline {
	if opt.StagingRecords <= 0 {
		opt.StagingRecords = DefaultOptions().StagingRecords
	}

	id := uuid.New()
	lg = lg.With(slog.String("pipeline", id.String()))

	p := &Pipeline{
		id:       id,
		lg:       lg,
		env:      &env{opt: &opt, geo: NewGeometry(), lg: lg, metrics: reg},
		selector: NewSelector(opt.Preferred, lg),
	}
	p.hide.Store(opt.HideNonSelected)
	return p
}

func (p *Pipeline) ID() uuid.UUID { return p.id }

func (p *Pipeline) Options() Options { return *p.env.opt }

// SetHideNonSelected changes whether unselected elements are drawn while
// a selection is active. It may be called from any goroutine and takes
// effect at the next UpdateWorld.
func (p *Pipeline) SetHideNonSelected(hide bool) { p.hide.Store(hide) }

// Register adds a strategy; it must be called before Init.
func (p *Pipeline) Register(r Renderer, u WorldUpdater) error {
	if p.disposed {
		return ErrAlreadyDisposed
	} else if p.initialized {
		return ErrAlreadyInitialized
	}
	return p.selector.Register(r, u)
}

// Init selects a strategy for every registered category and prepares
// their device resources. If any of them fails to initialize, everything
// initialized so far is released.
func (p *Pipeline) Init(dev renderer.Device, caps renderer.Capabilities) error {
	if p.disposed {
		return ErrAlreadyDisposed
	} else if p.initialized {
		return ErrAlreadyInitialized
	}

	p.lg.Info("initializing pipeline", slog.Any("capabilities", caps))

	selected, err := p.selector.Select(caps)
	if err != nil {
		return err
	}

	p.dev = renderer.NewStatsDevice(dev)
	p.caps = caps
	p.active = nil
	for _, c := range p.selector.Categories() {
		p.active = append(p.active, selected[c])
	}
	slices.SortStableFunc(p.active, func(a, b Pair) int { return a.Renderer.Order() - b.Renderer.Order() })

	for i, pr := range p.active {
		r := pr.Renderer
		if err := r.Init(p.dev, caps); err != nil {
			for _, prev := range p.active[:i+1] {
				if derr := prev.Renderer.Dispose(); derr != nil {
					p.lg.Warn("dispose after failed init", slog.String("strategy", prev.Renderer.Name()),
						slog.Any("error", derr))
				}
			}
			p.active = nil
			p.disposed = true
			return fmt.Errorf("%s/%s: %w", r.Category(), r.Name(), err)
		}

		p.lg.Info("committed strategy", slog.String("category", string(r.Category())),
			slog.String("strategy", r.Name()), slog.Int("priority", r.Priority()))
		p.env.metrics.StrategyCommitted(string(r.Category()), r.Name())
	}

	p.initialized = true
	return nil
}

func (p *Pipeline) check() error {
	if p.disposed {
		return ErrAlreadyDisposed
	} else if !p.initialized {
		return ErrNotInitialized
	}
	return nil
}

// Active returns the name of the committed strategy for each category.
func (p *Pipeline) Active() map[Category]string {
	m := make(map[Category]string)
	for _, pr := range p.active {
		m[pr.Renderer.Category()] = pr.Renderer.Name()
	}
	return m
}

// UpdateWorld encodes the elements that idx reports as visible. The
// updaters only touch their own CPU-side memory and run concurrently.
// idx and sel must not change until UpdateWorld returns.
func (p *Pipeline) UpdateWorld(ctx context.Context, idx graph.Index, sel graph.Selection, cam Camera) error {
	if err := p.check(); err != nil {
		return err
	}

	w := &World{
		Nodes:           idx.VisibleNodes(),
		Edges:           idx.VisibleEdges(),
		Selection:       sel,
		Zoom:            cam.Zoom(),
		HideNonSelected: p.hide.Load(),
	}

	eg, ctx := errgroup.WithContext(ctx)
	for _, pr := range p.active {
		eg.Go(func() error {
			u := pr.Updater
			start := time.Now()
			if err := u.UpdateWorld(ctx, w); err != nil {
				return fmt.Errorf("%s/%s: %w", u.Category(), u.Name(), err)
			}
			if c, ok := pr.Renderer.(counted); ok {
				unselected, selected := c.encoded()
				p.env.metrics.Encoded(string(u.Category()), unselected, selected, time.Since(start))
			}
			return nil
		})
	}
	return eg.Wait()
}

// WorldUpdated uploads the records encoded by the last UpdateWorld.
func (p *Pipeline) WorldUpdated() error {
	if err := p.check(); err != nil {
		return err
	}
	for _, pr := range p.active {
		if err := pr.Renderer.WorldUpdated(); err != nil {
			return fmt.Errorf("%s/%s: %w", pr.Renderer.Category(), pr.Renderer.Name(), err)
		}
	}
	return nil
}

// Render draws every active strategy that draws in the given layer. A
// strategy that fails is logged and skipped for this frame; the others
// still draw. The returned error joins all of the failures.
func (p *Pipeline) Render(layer Layer, cam Camera) error {
	if err := p.check(); err != nil {
		return err
	}

	var errs []error
	for _, pr := range p.active {
		r := pr.Renderer
		if !slices.Contains(r.Layers(), layer) {
			continue
		}
		if err := r.Render(layer, cam); err != nil {
			err = fmt.Errorf("%s/%s: %s layer: %w", r.Category(), r.Name(), layer, err)
			p.lg.Error("skipping strategy for frame", slog.Any("error", err))
			p.env.metrics.StrategyFailed(string(r.Category()), r.Name())
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RenderFrame encodes, uploads and draws one frame in every layer and
// returns the device statistics for it.
func (p *Pipeline) RenderFrame(ctx context.Context, idx graph.Index, sel graph.Selection, cam Camera) (renderer.Stats, error) {
	if err := p.check(); err != nil {
		return renderer.Stats{}, err
	}

	start := time.Now()
	p.dev.Reset()

	if err := p.UpdateWorld(ctx, idx, sel, cam); err != nil {
		return renderer.Stats{}, err
	}
	if err := p.WorldUpdated(); err != nil {
		return renderer.Stats{}, err
	}

	var errs []error
	for _, layer := range Layers {
		errs = append(errs, p.Render(layer, cam))
	}

	stats := p.dev.Reset()
	p.env.metrics.Frame(time.Since(start), stats.DrawCalls, stats.UploadedBytes)
	p.lg.Debug("frame", slog.Any("stats", stats))
	return stats, errors.Join(errs...)
}

// Stats returns the device statistics accumulated since the last call
// and resets them.
func (p *Pipeline) Stats() renderer.Stats {
	if p.dev == nil {
		return renderer.Stats{}
	}
	return p.dev.Reset()
}

// Capture returns the records most recently uploaded by each active
// strategy.
func (p *Pipeline) Capture() (*capture.Frame, error) {
	if err := p.check(); err != nil {
		return nil, err
	}

	f := &capture.Frame{
		Version:  capture.Version,
		Pipeline: p.id.String(),
		Time:     time.Now(),
	}
	for _, pr := range p.active {
		r := pr.Renderer
		s := capture.Strategy{Category: string(r.Category()), Name: r.Name()}
		if c, ok := r.(capturer); ok {
			s.Runs = c.capture()
		}
		f.Strategies = append(f.Strategies, s)
	}
	return f, nil
}

// Dispose releases the device resources of every active strategy. It
// may only be called once.
func (p *Pipeline) Dispose() error {
	if p.disposed {
		return ErrAlreadyDisposed
	}
	p.disposed = true

	var errs []error
	for _, pr := range p.active {
		if err := pr.Renderer.Dispose(); err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", pr.Renderer.Category(), pr.Renderer.Name(), err))
		}
	}
	p.active = nil

	p.lg.Info("disposed pipeline")
	return errors.Join(errs...)
}

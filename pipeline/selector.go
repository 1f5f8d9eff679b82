// pipeline/selector.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package pipeline

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/mmp/vizgl/log"
	"github.com/mmp/vizgl/renderer"
)

// Pair is a renderer together with the updater that feeds it.
type Pair struct {
	Renderer Renderer
	Updater  WorldUpdater
}

// Selector chooses one strategy per category. The choice is made once,
// by Select, and is kept for the rest of the session.
type Selector struct {
	lg        *log.Logger
	preferred map[Category]string

	pairs     map[Category][]Pair
	active    map[Category]Pair
	committed bool
}

func NewSelector(preferred map[Category]string, lg *log.Logger) *Selector {
	return &Selector{
		lg:        lg,
		preferred: preferred,
		pairs:     make(map[Category][]Pair),
	}
}

// Register adds a strategy. The renderer and updater must agree on name
// and category, and a name may only be registered once per category.
func (s *Selector) Register(r Renderer, u WorldUpdater) error {
	if s.committed {
		return fmt.Errorf("%s/%s: registered after selection: %w", r.Category(), r.Name(), ErrAlreadyInitialized)
	}
	if r.Name() != u.Name() || r.Category() != u.Category() {
		return fmt.Errorf("renderer %s/%s, updater %s/%s: %w", r.Category(), r.Name(), u.Category(), u.Name(),
			ErrStrategyMismatch)
	}
	c := r.Category()
	if slices.ContainsFunc(s.pairs[c], func(p Pair) bool { return p.Renderer.Name() == r.Name() }) {
		return fmt.Errorf("%s/%s: %w", c, r.Name(), ErrDuplicateStrategy)
	}
	s.pairs[c] = append(s.pairs[c], Pair{Renderer: r, Updater: u})
	return nil
}

// Categories returns the categories with registered strategies, sorted.
func (s *Selector) Categories() []Category {
	var cats []Category
	for c := range s.pairs {
		cats = append(cats, c)
	}
	slices.Sort(cats)
	return cats
}

// Candidates returns the strategies of a category in priority order.
func (s *Selector) Candidates(c Category) []Pair {
	pairs := slices.Clone(s.pairs[c])
	slices.SortStableFunc(pairs, func(a, b Pair) int { return a.Renderer.Priority() - b.Renderer.Priority() })
	return pairs
}

// Select commits to a strategy for every category: the preferred one if
// it is available and otherwise the first available in priority order.
// Once Select has succeeded, later calls return the same choice without
// re-evaluating availability.
func (s *Selector) Select(caps renderer.Capabilities) (map[Category]Pair, error) {
	if s.committed {
		return s.active, nil
	}

	active := make(map[Category]Pair)
	for _, c := range s.Categories() {
		p, err := s.choose(c, caps)
		if err != nil {
			return nil, err
		}
		active[c] = p
	}

	s.active, s.committed = active, true
	return active, nil
}

func (s *Selector) choose(c Category, caps renderer.Capabilities) (Pair, error) {
	candidates := s.Candidates(c)

	if name, ok := s.preferred[c]; ok && name != "" {
		idx := slices.IndexFunc(candidates, func(p Pair) bool { return p.Renderer.Name() == name })
		if idx == -1 {
			return Pair{}, fmt.Errorf("%s/%s: %w", c, name, ErrUnknownStrategy)
		}
		if p := candidates[idx]; p.Renderer.IsAvailable(caps) && p.Updater.IsAvailable(caps) {
			return p, nil
		}
		s.lg.Warn("falling back from preferred strategy",
			slog.Any("error", fmt.Errorf("%s/%s: %w", c, name, ErrStrategyUnavailable)),
			slog.Any("capabilities", caps))
	}

	var skipped []string
	for _, p := range candidates {
		if p.Renderer.IsAvailable(caps) && p.Updater.IsAvailable(caps) {
			return p, nil
		}
		skipped = append(skipped, p.Renderer.Name())
	}
	return Pair{}, fmt.Errorf("%s (tried %s): %w", c, strings.Join(skipped, ", "), ErrNoStrategyAvailable)
}

// Active returns the committed strategy for a category.
func (s *Selector) Active(c Category) (Pair, bool) {
	p, ok := s.active[c]
	return p, ok
}

func (s *Selector) Committed() bool { return s.committed }

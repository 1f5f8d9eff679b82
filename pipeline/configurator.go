// pipeline/configurator.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package pipeline

// strategy is a Renderer and WorldUpdater implemented by one type.
type strategy interface {
	Renderer
	WorldUpdater
}

// RegisterDefaults registers the built-in strategies: level-of-detail
// indirect, instanced and vertex-array drawing for nodes, and instanced
// and vertex-array drawing for edges.
func RegisterDefaults(p *Pipeline) error {
	for _, s := range []strategy{
		newNodesIndirect(p.env),
		newNodesInstanced(p.env),
		newNodesArray(p.env),
		newEdgesInstanced(p.env),
		newEdgesArray(p.env),
	} {
		if err := p.Register(s, s); err != nil {
			return err
		}
	}
	return nil
}

// config/config_test.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mmp/vizgl/graph"
	"github.com/mmp/vizgl/pipeline"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
	if opt := c.RenderOptions(); !reflect.DeepEqual(opt, pipeline.DefaultOptions()) {
		t.Errorf("default render options %+v, expected %+v", opt, pipeline.DefaultOptions())
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "vizgl.toml", `
[log]
level = "debug"

[render]
hide_non_selected = true
edge_selection_color = true
edge_out_selection_color = "#00ff00"
dim_bias = 0.25
lod_thresholds = [50.0, 20.0, 5.0]

[render.preferred]
nodes = "array"

[graph]
nodes = 100
edges = 250
`)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if c.Log.Level != "debug" || c.Graph.Nodes != 100 || c.Graph.Edges != 250 {
		t.Errorf("unexpected values %+v", c)
	}
	// Unset values keep their defaults.
	if c.Window != Default().Window || c.Graph.Radius != 1000 {
		t.Errorf("defaults lost: %+v %+v", c.Window, c.Graph)
	}

	opt := c.RenderOptions()
	if !opt.HideNonSelected || !opt.EdgeSelectionColor || opt.DimBias != 0.25 || opt.DimMultiplier != 0.5 {
		t.Errorf("unexpected options %+v", opt)
	}
	if opt.EdgeOutSelectionColor != graph.RGBA(0, 0xff, 0, 0xff) {
		t.Errorf("out selection color %s", opt.EdgeOutSelectionColor)
	}
	if opt.LODThresholds != [3]float32{50, 20, 5} {
		t.Errorf("thresholds %v", opt.LODThresholds)
	}
	if opt.Preferred[pipeline.CategoryNodes] != "array" || len(opt.Preferred) != 1 {
		t.Errorf("preferred %v", opt.Preferred)
	}

	g := c.GenerateOptions()
	if g.Nodes != 100 || g.Edges != 250 || g.DirectedFraction != Default().Graph.DirectedFraction {
		t.Errorf("generate options %+v", g)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "vizgl.yaml", `
window:
  width: 800
  height: 600
  msaa: 0
render:
  edge_in_selection_color: "#0000ff80"
  lod_segments: [48, 24, 12, 6]
metrics:
  listen: "localhost:9090"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Window.Width != 800 || c.Window.Height != 600 || c.Window.MSAA != 0 || !c.Window.VSync {
		t.Errorf("window %+v", c.Window)
	}
	if c.Metrics.Listen != "localhost:9090" {
		t.Errorf("metrics listen %q", c.Metrics.Listen)
	}
	opt := c.RenderOptions()
	if opt.EdgeInSelectionColor != graph.RGBA(0, 0, 0xff, 0x80) {
		t.Errorf("in selection color %s", opt.EdgeInSelectionColor)
	}
	if opt.LODSegments != [4]int{48, 24, 12, 6} {
		t.Errorf("segments %v", opt.LODSegments)
	}
}

func TestLoadErrors(t *testing.T) {
	for _, tc := range []struct {
		name, contents string
		err            error
	}{
		{name: "a.json", contents: "{}", err: ErrUnknownFormat},
		{name: "a.toml", contents: "[render]\nbogus = 1\n", err: ErrUnknownKey},
		{name: "a.yaml", contents: "render:\n  bogus: 1\n", err: ErrUnknownKey},
		{name: "a.toml", contents: "[log]\nlevel = \"loud\"\n", err: ErrInvalid},
		{name: "a.toml", contents: "[render]\ndim_bias = 2.0\n", err: ErrInvalid},
		{name: "a.toml", contents: "[render]\nlod_thresholds = [1.0, 2.0, 3.0]\n", err: ErrInvalid},
		{name: "a.toml", contents: "[render]\nlod_thresholds = [3.0, 2.0]\n", err: ErrInvalid},
		{name: "a.toml", contents: "[render]\nlod_segments = [8, 16, 32, 64]\n", err: ErrInvalid},
		{name: "a.toml", contents: "[render.preferred]\nedges = \"indirect\"\n", err: ErrInvalid},
		{name: "a.toml", contents: "[render.preferred]\nnodes = \"quads\"\n", err: ErrInvalid},
		{name: "a.toml", contents: "[render.preferred]\nlabels = \"array\"\n", err: ErrInvalid},
		{name: "a.yaml", contents: "window:\n  msaa: 3\n", err: ErrInvalid},
		{name: "a.yaml", contents: "graph:\n  nodes: 0\n", err: ErrInvalid},
		{name: "a.yaml", contents: "metrics:\n  listen: nowhere\n", err: ErrInvalid},
		{name: "a.yaml", contents: "render:\n  edge_both_selection_color: \"red\"\n", err: graph.ErrBadColor},
	} {
		_, err := Load(writeFile(t, tc.name, tc.contents))
		if !errors.Is(err, tc.err) {
			t.Errorf("%s %q: got %v, expected %v", tc.name, tc.contents, err, tc.err)
		}
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: %v", err)
	}
}

func TestWriteTOML(t *testing.T) {
	c := Default()
	c.Render.EdgeSelectionColor = true
	c.Render.Preferred = map[string]string{"edges": "array"}
	c.Graph.Seed = 42

	var buf bytes.Buffer
	if err := c.WriteTOML(&buf); err != nil {
		t.Fatal(err)
	}
	c2, err := Load(writeFile(t, "out.toml", buf.String()))
	if err != nil {
		t.Fatalf("%v\n%s", err, buf.String())
	}
	if !reflect.DeepEqual(c, c2) {
		t.Errorf("read back %+v, expected %+v", c2, c)
	}
}

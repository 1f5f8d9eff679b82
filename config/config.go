// config/config.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package config loads the viewer settings from a TOML or YAML file.
// Anything a file leaves out keeps its default value.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mmp/vizgl/graph"
	"github.com/mmp/vizgl/pipeline"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log     LogConfig     `toml:"log" yaml:"log"`
	Window  WindowConfig  `toml:"window" yaml:"window"`
	Render  RenderConfig  `toml:"render" yaml:"render"`
	Graph   GraphConfig   `toml:"graph" yaml:"graph"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level" validate:"oneof=debug info warn error"`
	// Dir is where the log file is written; empty means the user config
	// directory.
	Dir string `toml:"dir" yaml:"dir"`
}

type WindowConfig struct {
	Width  int  `toml:"width" yaml:"width" validate:"min=64,max=16384"`
	Height int  `toml:"height" yaml:"height" validate:"min=64,max=16384"`
	MSAA   int  `toml:"msaa" yaml:"msaa" validate:"oneof=0 2 4 8 16"`
	VSync  bool `toml:"vsync" yaml:"vsync"`
}

type RenderConfig struct {
	HideNonSelected        bool        `toml:"hide_non_selected" yaml:"hide_non_selected"`
	EdgeSelectionColor     bool        `toml:"edge_selection_color" yaml:"edge_selection_color"`
	EdgeBothSelectionColor graph.Color `toml:"edge_both_selection_color" yaml:"edge_both_selection_color"`
	EdgeOutSelectionColor  graph.Color `toml:"edge_out_selection_color" yaml:"edge_out_selection_color"`
	EdgeInSelectionColor   graph.Color `toml:"edge_in_selection_color" yaml:"edge_in_selection_color"`

	DimBias       float32 `toml:"dim_bias" yaml:"dim_bias" validate:"gte=0,lte=1"`
	DimMultiplier float32 `toml:"dim_multiplier" yaml:"dim_multiplier" validate:"gte=0,lte=1"`

	NodeDiskSegments int `toml:"node_disk_segments" yaml:"node_disk_segments" validate:"min=3,max=1024"`
	StagingRecords   int `toml:"staging_records" yaml:"staging_records" validate:"min=1"`

	// Disk segments for each node level of detail, finest first, and the
	// on-screen radii in pixels at which the first three are used.
	LODSegments   []int     `toml:"lod_segments" yaml:"lod_segments" validate:"len=4,dive,min=3,max=1024"`
	LODThresholds []float32 `toml:"lod_thresholds" yaml:"lod_thresholds" validate:"len=3,dive,gt=0"`

	// Preferred pins a strategy for a category, e.g. nodes = "array".
	Preferred map[string]string `toml:"preferred" yaml:"preferred" validate:"dive,keys,oneof=nodes edges,endkeys,oneof=indirect instanced array"`
}

type GraphConfig struct {
	Nodes            int     `toml:"nodes" yaml:"nodes" validate:"min=1"`
	Edges            int     `toml:"edges" yaml:"edges" validate:"min=0"`
	DirectedFraction float32 `toml:"directed_fraction" yaml:"directed_fraction" validate:"gte=0,lte=1"`
	Seed             int64   `toml:"seed" yaml:"seed"`
	Radius           float32 `toml:"radius" yaml:"radius" validate:"gt=0"`
}

type MetricsConfig struct {
	// Listen is the address the Prometheus handler is served on; empty
	// disables it.
	Listen string `toml:"listen" yaml:"listen" validate:"omitempty,hostname_port"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterStructValidation(validateRender, RenderConfig{})
}

// validateRender checks the constraints that span fields.
func validateRender(sl validator.StructLevel) {
	r := sl.Current().Interface().(RenderConfig)

	for i := 1; i < len(r.LODThresholds); i++ {
		if r.LODThresholds[i] >= r.LODThresholds[i-1] {
			sl.ReportError(r.LODThresholds, "LODThresholds", "lod_thresholds", "decreasing", "")
			break
		}
	}
	for i := 1; i < len(r.LODSegments); i++ {
		if r.LODSegments[i] > r.LODSegments[i-1] {
			sl.ReportError(r.LODSegments, "LODSegments", "lod_segments", "nonincreasing", "")
			break
		}
	}
	if r.Preferred["edges"] == "indirect" {
		sl.ReportError(r.Preferred, "Preferred", "preferred", "edgestrategy", "")
	}
}

func Default() *Config {
	opt := pipeline.DefaultOptions()
	return &Config{
		Log: LogConfig{Level: "info"},
		Window: WindowConfig{
			Width:  1600,
			Height: 1000,
			MSAA:   4,
			VSync:  true,
		},
		Render: RenderConfig{
			HideNonSelected:        opt.HideNonSelected,
			EdgeSelectionColor:     opt.EdgeSelectionColor,
			EdgeBothSelectionColor: opt.EdgeBothSelectionColor,
			EdgeOutSelectionColor:  opt.EdgeOutSelectionColor,
			EdgeInSelectionColor:   opt.EdgeInSelectionColor,
			DimBias:                opt.DimBias,
			DimMultiplier:          opt.DimMultiplier,
			NodeDiskSegments:       opt.NodeDiskSegments,
			StagingRecords:         opt.StagingRecords,
			LODSegments:            slices.Clone(opt.LODSegments[:]),
			LODThresholds:          slices.Clone(opt.LODThresholds[:]),
		},
		Graph: GraphConfig{
			Nodes:            5000,
			Edges:            20000,
			DirectedFraction: 0.3,
			Seed:             1,
			Radius:           1000,
		},
	}
}

// Load reads the configuration file at path, choosing the format by its
// extension. An empty path gives the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = c.decodeTOML(data)
	case ".yaml", ".yml":
		err = c.decodeYAML(data)
	default:
		err = fmt.Errorf("%q: %w", ext, ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c *Config) decodeTOML(data []byte) error {
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		var keys []string
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("%s: %w", strings.Join(keys, ", "), ErrUnknownKey)
	}
	return nil
}

func (c *Config) decodeYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		if strings.Contains(err.Error(), "not found in type") {
			return fmt.Errorf("%v: %w", err, ErrUnknownKey)
		}
		return err
	}
	return nil
}

// Validate checks every field against its constraints and reports the
// first violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	e := verrs[0]
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "min", "gte":
		return fmt.Errorf("%s: must be at least %s: %w", field, e.Param(), ErrInvalid)
	case "max", "lte":
		return fmt.Errorf("%s: must not exceed %s: %w", field, e.Param(), ErrInvalid)
	case "gt":
		return fmt.Errorf("%s: must be greater than %s: %w", field, e.Param(), ErrInvalid)
	case "len":
		return fmt.Errorf("%s: must have %s entries: %w", field, e.Param(), ErrInvalid)
	case "oneof":
		return fmt.Errorf("%s: %v is not one of %s: %w", field, e.Value(), e.Param(), ErrInvalid)
	case "decreasing":
		return fmt.Errorf("%s: must be strictly decreasing: %w", field, ErrInvalid)
	case "nonincreasing":
		return fmt.Errorf("%s: finer levels need at least as many segments: %w", field, ErrInvalid)
	case "edgestrategy":
		return fmt.Errorf("%s: edges have no indirect strategy: %w", field, ErrInvalid)
	default:
		return fmt.Errorf("%s: validation failed (%s): %w", field, e.Tag(), ErrInvalid)
	}
}

// WriteTOML writes c in the format Load reads.
func (c *Config) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// RenderOptions returns the pipeline options the configuration describes.
func (c *Config) RenderOptions() pipeline.Options {
	r := c.Render
	opt := pipeline.DefaultOptions()

	opt.HideNonSelected = r.HideNonSelected
	opt.EdgeSelectionColor = r.EdgeSelectionColor
	opt.EdgeBothSelectionColor = r.EdgeBothSelectionColor
	opt.EdgeOutSelectionColor = r.EdgeOutSelectionColor
	opt.EdgeInSelectionColor = r.EdgeInSelectionColor
	opt.DimBias, opt.DimMultiplier = r.DimBias, r.DimMultiplier
	opt.NodeDiskSegments = r.NodeDiskSegments
	opt.StagingRecords = r.StagingRecords
	copy(opt.LODSegments[:], r.LODSegments)
	copy(opt.LODThresholds[:], r.LODThresholds)

	if len(r.Preferred) > 0 {
		opt.Preferred = make(map[pipeline.Category]string)
		for cat, name := range r.Preferred {
			opt.Preferred[pipeline.Category(cat)] = name
		}
	}
	return opt
}

// GenerateOptions returns the parameters for the generated demo graph.
func (c *Config) GenerateOptions() graph.GenerateOptions {
	return graph.GenerateOptions{
		Nodes:            c.Graph.Nodes,
		Edges:            c.Graph.Edges,
		DirectedFraction: c.Graph.DirectedFraction,
		Seed:             c.Graph.Seed,
		Radius:           c.Graph.Radius,
	}
}

// capture/capture_test.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package capture

import (
	"bytes"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func testFrame() *Frame {
	return &Frame{
		Pipeline: "3f0c2a4e-1b8d-4c1e-9a34-7a2f1f0d5e10",
		Time:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Strategies: []Strategy{
			{
				Category: "edges",
				Name:     "instanced",
				Runs: []Run{
					{Kind: "undirected", Stride: 2, Unselected: 1, Selected: 1, Records: []float32{1, 2, 3, 4}},
					{Kind: "directed", Stride: 2, Selected: 1, Records: []float32{5, 6}},
				},
			},
			{
				Category: "nodes",
				Name:     "array",
				Runs:     []Run{{Kind: "nodes", Stride: 4, Selected: 1, Records: []float32{0, 0, 1, 2}}},
			},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	f := testFrame()
	if err := Write(&buf, f); err != nil {
		t.Fatal(err)
	}

	g, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if g.Pipeline != f.Pipeline || !g.Time.Equal(f.Time) || g.Version != Version {
		t.Errorf("header mismatch: got %+v", g)
	}
	// 2 undirected, 1 directed and 1 node record.
	if g.Records() != 4 {
		t.Errorf("%d records, expected 4", g.Records())
	}
	run := g.Strategies[0].Runs[0]
	if !slices.Equal(run.Record(1), []float32{3, 4}) {
		t.Errorf("record 1 = %v, expected [3 4]", run.Record(1))
	}
	if run.Unselected != 1 || run.Selected != 1 {
		t.Errorf("counts %d/%d, expected 1/1", run.Unselected, run.Selected)
	}
}

func TestMisalignedRun(t *testing.T) {
	f := testFrame()
	f.Strategies[1].Runs[0].Records = []float32{1, 2, 3}

	var buf bytes.Buffer
	if err := Write(&buf, f); !errors.Is(err, ErrMisalignedRun) {
		t.Errorf("expected ErrMisalignedRun, got %v", err)
	}
}

func TestReadGarbage(t *testing.T) {
	if _, err := Read(bytes.NewReader([]byte("not a capture"))); err == nil {
		t.Errorf("expected error reading garbage")
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.vzc")
	if err := WriteFile(path, testFrame()); err != nil {
		t.Fatal(err)
	}
	f, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Strategies) != 2 || f.Strategies[1].Name != "array" {
		t.Errorf("unexpected strategies %+v", f.Strategies)
	}
}

// capture/capture.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package capture saves and loads snapshots of the attribute records a
// pipeline encoded for one frame, so that they can be inspected offline.
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mmp/vizgl/util"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Version is incremented whenever the layout of Frame changes.
const Version = 1

var (
	ErrBadVersion    = errors.New("Unsupported capture version")
	ErrMisalignedRun = errors.New("Run length is not a multiple of its stride")
)

// Frame is the encoded state of every active strategy for one frame.
type Frame struct {
	Version    int
	Pipeline   string // pipeline id
	Time       time.Time
	Strategies []Strategy
}

type Strategy struct {
	Category string
	Name     string
	Runs     []Run
}

// Run is one contiguous sequence of fixed-stride records; the first
// Unselected records are drawn before the Selected ones.
type Run struct {
	Kind       string
	Stride     int
	Unselected int
	Selected   int
	Records    []float32
}

func (r Run) Len() int {
	if r.Stride == 0 {
		return 0
	}
	return len(r.Records) / r.Stride
}

// Record returns the i'th record of the run.
func (r Run) Record(i int) []float32 {
	return r.Records[i*r.Stride : (i+1)*r.Stride]
}

func (r Run) check() error {
	if r.Stride <= 0 || len(r.Records)%r.Stride != 0 {
		return fmt.Errorf("%s: %d floats, stride %d: %w", r.Kind, len(r.Records), r.Stride, ErrMisalignedRun)
	}
	return nil
}

// Records returns the total number of records in the frame.
func (f *Frame) Records() int {
	return util.ReduceSlice(f.Strategies, func(s Strategy, n int) int {
		return util.ReduceSlice(s.Runs, func(r Run, n int) int { return n + r.Len() }, n)
	}, 0)
}

// Write writes the frame to w, msgpack-encoded and zstd-compressed.
func Write(w io.Writer, f *Frame) error {
	for _, s := range f.Strategies {
		for _, r := range s.Runs {
			if err := r.check(); err != nil {
				return err
			}
		}
	}
	f.Version = Version

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer zw.Close()

	if err := msgpack.NewEncoder(zw).Encode(f); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zstd writer: %w", err)
	}
	return nil
}

func Read(r io.Reader) (*Frame, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var f Frame
	if err := msgpack.NewDecoder(zr).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	if f.Version != Version {
		return nil, fmt.Errorf("version %d: %w", f.Version, ErrBadVersion)
	}
	for _, s := range f.Strategies {
		for _, r := range s.Runs {
			if err := r.check(); err != nil {
				return nil, err
			}
		}
	}
	return &f, nil
}

func WriteFile(path string, f *Frame) error {
	fp, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(fp, f); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}

func ReadFile(path string) (*Frame, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return Read(fp)
}

// renderer/managed.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"log/slog"

	"github.com/mmp/vizgl/log"
	"github.com/mmp/vizgl/util"
)

// Element is the set of element types a ManagedBuffer can hold; both are
// 32 bits wide so that byte sizes are always 4*capacity.
type Element interface {
	~float32 | ~int32
}

// ManagedBuffer is a CPU-side staging store for primitive data that is
// handed to the graphics API. Its capacity only ever grows, in powers of
// two, so that once the peak element count has been seen no further
// allocation happens in steady state.
//
// Writes go through Put, which never truncates: callers must call
// EnsureCapacity before writing past the current capacity.
type ManagedBuffer[T Element] struct {
	name   string
	data   []T
	pos    int
	lg     *log.Logger
	onGrow func(name string, from, to int)
}

func NewManagedBuffer[T Element](name string, initialCapacity int, lg *log.Logger) (*ManagedBuffer[T], error) {
	if initialCapacity < 0 {
		return nil, fmt.Errorf("%s: %d: %w", name, initialCapacity, ErrNegativeCapacity)
	}
	return &ManagedBuffer[T]{
		name: name,
		data: make([]T, initialCapacity),
		lg:   lg,
	}, nil
}

// OnGrow registers a function that is called after each reallocation.
func (mb *ManagedBuffer[T]) OnGrow(f func(name string, from, to int)) {
	mb.onGrow = f
}

func (mb *ManagedBuffer[T]) Name() string { return mb.name }

func (mb *ManagedBuffer[T]) Capacity() int { return len(mb.data) }

// EnsureCapacity makes sure that at least n elements can be stored,
// reallocating to the next power of two >= n if needed. Existing contents
// are preserved; the write position is unchanged. It returns true if a
// reallocation happened.
func (mb *ManagedBuffer[T]) EnsureCapacity(n int) (bool, error) {
	if n < 0 {
		return false, fmt.Errorf("%s: %d: %w", mb.name, n, ErrNegativeCapacity)
	}
	if n <= len(mb.data) {
		return false, nil
	}

	to, ok := util.NextPowerOfTwo(n)
	if !ok {
		return false, fmt.Errorf("%s: %d: %w", mb.name, n, ErrCapacityOverflow)
	}
	from := len(mb.data)
	mb.lg.Info("growing managed buffer", slog.String("buffer", mb.name),
		slog.Int("from", from), slog.Int("to", to))

	grown := make([]T, to)
	copy(grown, mb.data)
	mb.data = grown

	if mb.onGrow != nil {
		mb.onGrow(mb.name, from, to)
	}
	return true, nil
}

// Rewind resets the write position to the start of the buffer.
func (mb *ManagedBuffer[T]) Rewind() {
	mb.pos = 0
}

// Position returns the number of elements written since the last Rewind.
func (mb *ManagedBuffer[T]) Position() int { return mb.pos }

// Put copies v at the current write position and advances it.
func (mb *ManagedBuffer[T]) Put(v []T) error {
	if mb.pos+len(v) > len(mb.data) {
		return fmt.Errorf("%s: writing %d at %d with capacity %d: %w", mb.name, len(v), mb.pos,
			len(mb.data), ErrBufferOverflow)
	}
	copy(mb.data[mb.pos:], v)
	mb.pos += len(v)
	return nil
}

// Elements returns a view of the full capacity of the buffer. The view is
// invalidated by EnsureCapacity.
func (mb *ManagedBuffer[T]) Elements() []T { return mb.data }

// Written returns a view of the elements written since the last Rewind.
func (mb *ManagedBuffer[T]) Written() []T { return mb.data[:mb.pos] }

// Bytes returns the written elements as raw bytes, ready for upload.
func (mb *ManagedBuffer[T]) Bytes() []byte { return util.ByteView(mb.data[:mb.pos]) }

// Destroy releases the backing allocation.
func (mb *ManagedBuffer[T]) Destroy() {
	mb.data = nil
	mb.pos = 0
}

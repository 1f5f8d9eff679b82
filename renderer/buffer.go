// renderer/buffer.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
)

// Buffer is a device-side buffer object. It is created empty by NewBuffer;
// storage is allocated by exactly one call to Init or InitWithData.
// Updates must fit in the allocated storage; growing is done explicitly
// via Reallocate, typically sized from the ManagedBuffer that stages the
// data.
//
// A Buffer is owned by a single strategy and must be destroyed by it
// exactly once.
type Buffer struct {
	dev       Device
	target    BufferTarget
	id        uint32
	usage     Usage
	sizeBytes int
	bound     bool
	destroyed bool
}

func NewBuffer(dev Device, target BufferTarget) *Buffer {
	return &Buffer{dev: dev, target: target}
}

func (b *Buffer) checkInit() error {
	if b.destroyed {
		return ErrBufferDestroyed
	} else if b.id != 0 {
		return ErrBufferAlreadyInitialized
	}
	return nil
}

// Init allocates sizeBytes of uninitialized device storage.
func (b *Buffer) Init(sizeBytes int, usage Usage) error {
	if err := b.checkInit(); err != nil {
		return err
	}
	if sizeBytes < 0 {
		return fmt.Errorf("%d bytes: %w", sizeBytes, ErrNegativeCapacity)
	}
	b.allocate(sizeBytes, nil, usage)
	return nil
}

// InitWithData allocates device storage holding exactly data.
func (b *Buffer) InitWithData(data []byte, usage Usage) error {
	if err := b.checkInit(); err != nil {
		return err
	}
	b.allocate(len(data), data, usage)
	return nil
}

func (b *Buffer) allocate(sizeBytes int, data []byte, usage Usage) {
	b.id = b.dev.GenBuffer()
	b.usage = usage
	b.sizeBytes = sizeBytes

	b.with(func() { b.dev.BufferData(b.target, sizeBytes, data, usage) })
}

// with runs f with the buffer bound to its target and then restores
// whichever buffer was bound there before.
func (b *Buffer) with(f func()) {
	if b.bound {
		f()
		return
	}
	prev := b.dev.BoundBuffer(b.target)
	b.dev.BindBuffer(b.target, b.id)
	f()
	b.dev.BindBuffer(b.target, prev)
}

// Reallocate replaces the buffer's storage with sizeBytes of new,
// uninitialized storage if that is larger than the current size. The
// buffer handle is unchanged, so vertex layouts that refer to it remain
// valid. It returns true if the storage was replaced.
func (b *Buffer) Reallocate(sizeBytes int) (bool, error) {
	if b.destroyed {
		return false, ErrBufferDestroyed
	} else if b.id == 0 {
		return false, ErrBufferNotInitialized
	} else if sizeBytes <= b.sizeBytes {
		return false, nil
	}

	b.sizeBytes = sizeBytes
	b.with(func() { b.dev.BufferData(b.target, sizeBytes, nil, b.usage) })
	return true, nil
}

// Update uploads data to the start of the buffer.
func (b *Buffer) Update(data []byte) error {
	return b.UpdateRange(data, 0)
}

// UpdateRange uploads data starting at the given byte offset.
func (b *Buffer) UpdateRange(data []byte, offset int) error {
	if b.destroyed {
		return ErrBufferDestroyed
	} else if b.id == 0 {
		return ErrBufferNotInitialized
	} else if offset < 0 || offset+len(data) > b.sizeBytes {
		return fmt.Errorf("%d bytes at offset %d into %d byte buffer: %w", len(data), offset,
			b.sizeBytes, ErrBufferTooSmall)
	}
	if len(data) == 0 {
		return nil
	}

	b.with(func() { b.dev.BufferSubData(b.target, offset, data) })
	return nil
}

// Bind binds the buffer to its target; Bind and Unbind must be paired.
// Binding fails if the buffer is already bound or if another buffer
// holds the target.
func (b *Buffer) Bind() error {
	if b.destroyed {
		return ErrBufferDestroyed
	} else if b.id == 0 {
		return ErrBufferNotInitialized
	} else if b.bound {
		return ErrBufferAlreadyBound
	} else if other := b.dev.BoundBuffer(b.target); other != 0 {
		return fmt.Errorf("%s target holds buffer %d: %w", b.target, other, ErrTargetBound)
	}
	b.dev.BindBuffer(b.target, b.id)
	b.bound = true
	return nil
}

func (b *Buffer) Unbind() error {
	if !b.bound {
		return ErrBufferNotBound
	}
	b.dev.BindBuffer(b.target, 0)
	b.bound = false
	return nil
}

func (b *Buffer) IsBound() bool       { return b.bound }
func (b *Buffer) IsInitialized() bool { return b.id != 0 && !b.destroyed }

// IsMutable reports whether the buffer is expected to be re-uploaded
// frequently, as opposed to static geometry uploaded once.
func (b *Buffer) IsMutable() bool { return b.usage != StaticDraw }

func (b *Buffer) ID() uint32           { return b.id }
func (b *Buffer) Target() BufferTarget { return b.target }
func (b *Buffer) Usage() Usage         { return b.usage }
func (b *Buffer) SizeBytes() int       { return b.sizeBytes }

// Destroy releases the device storage. Calling it a second time is an
// error.
func (b *Buffer) Destroy() error {
	if b.destroyed {
		return ErrBufferDestroyed
	}
	if b.id != 0 {
		if b.bound {
			b.dev.BindBuffer(b.target, 0)
			b.bound = false
		}
		b.dev.DeleteBuffer(b.id)
	}
	b.destroyed = true
	return nil
}

// renderer/errors.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import "errors"

var (
	ErrBufferAlreadyBound       = errors.New("Buffer is already bound")
	ErrBufferAlreadyInitialized = errors.New("Buffer has already been initialized")
	ErrBufferDestroyed          = errors.New("Buffer has been destroyed")
	ErrBufferNotBound           = errors.New("Buffer is not bound")
	ErrBufferNotInitialized     = errors.New("Buffer has not been initialized")
	ErrBufferOverflow           = errors.New("Write past the end of managed buffer capacity")
	ErrBufferTooSmall           = errors.New("Buffer is too small for update")
	ErrCapacityOverflow         = errors.New("Capacity has no representable power of two")
	ErrNegativeCapacity         = errors.New("Negative buffer capacity")
	ErrTargetBound              = errors.New("Another buffer is bound to the target")
	ErrVertexArrayDestroyed     = errors.New("Vertex array has been destroyed")
	ErrVertexArrayNotInUse      = errors.New("Vertex array is not in use")
)

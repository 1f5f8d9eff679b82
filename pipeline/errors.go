// pipeline/errors.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package pipeline

import "errors"

var (
	ErrAlreadyDisposed     = errors.New("Pipeline has already been disposed")
	ErrAlreadyInitialized  = errors.New("Pipeline has already been initialized")
	ErrAttribsOverflow     = errors.New("Attribute records do not fit in the staging array")
	ErrDuplicateStrategy   = errors.New("Rendering strategy is already registered")
	ErrMisalignedIndex     = errors.New("Staging index is not a multiple of the record stride")
	ErrMisalignedStaging   = errors.New("Staging array length is not a multiple of the record stride")
	ErrNoStrategyAvailable = errors.New("No rendering strategy is available")
	ErrNotInitialized      = errors.New("Pipeline has not been initialized")
	ErrStrategyMismatch    = errors.New("Renderer and updater do not belong to the same strategy")
	ErrStrategyUnavailable = errors.New("Rendering strategy is not available")
	ErrUnknownStrategy     = errors.New("Unknown rendering strategy")
)

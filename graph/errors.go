// graph/errors.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package graph

import "errors"

var (
	ErrBadColor     = errors.New("Invalid color: expected #rrggbb or #rrggbbaa")
	ErrDuplicateID  = errors.New("Duplicate element ID")
	ErrUnknownNode  = errors.New("Unknown node")
	ErrInvalidCount = errors.New("Invalid element count")
)

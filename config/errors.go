// config/errors.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package config

import "errors"

var (
	ErrInvalid       = errors.New("invalid configuration")
	ErrUnknownFormat = errors.New("unknown configuration format")
	ErrUnknownKey    = errors.New("unknown configuration key")
)

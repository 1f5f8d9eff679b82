// graph/color.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package graph

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color is an 8-bit per channel RGBA color packed as r | g<<8 | b<<16 | a<<24,
// which is the byte order a shader sees when it unpacks the value from a
// float attribute's bits.
type Color uint32

func RGBA(r, g, b, a uint8) Color {
	return Color(uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24)
}

func (c Color) R() uint8 { return uint8(c) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c >> 16) }
func (c Color) A() uint8 { return uint8(c >> 24) }

// Alpha returns the alpha channel in [0,1].
func (c Color) Alpha() float32 { return float32(c.A()) / 255 }

// Float returns the packed color reinterpreted as a float32 so that it
// can be stored in a float attribute record without conversion.
func (c Color) Float() float32 { return math.Float32frombits(uint32(c)) }

// ColorFromFloat is the inverse of Color.Float.
func ColorFromFloat(f float32) Color { return Color(math.Float32bits(f)) }

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R(), c.G(), c.B(), c.A())
}

// ParseColor parses "#rrggbb" (opaque) or "#rrggbbaa".
func ParseColor(s string) (Color, error) {
	h, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok || (len(h) != 6 && len(h) != 8) {
		return 0, fmt.Errorf("%q: %w", s, ErrBadColor)
	}
	if len(h) == 6 {
		h += "ff"
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrBadColor)
	}
	return RGBA(uint8(v>>24), uint8(v>>16), uint8(v>>8), uint8(v)), nil
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// util/generic.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Select returns a if sel is true and b otherwise.
func Select[T any](sel bool, a, b T) T {
	if sel {
		return a
	} else {
		return b
	}
}

// ReduceSlice applies the provided reduction function to the given slice,
// starting with the provided initial value. The update rule applied is
// result=reduce( value, result), where the initial value of result is
// given by the initial parameter.
func ReduceSlice[V any, R any](s []V, reduce func(V, R) R, initial R) R {
	result := initial
	for _, v := range s {
		result = reduce(v, result)
	}
	return result
}

// NextPowerOfTwo returns the smallest power of two that is greater than or
// equal to v; values less than one return one. It returns false if that
// power of two does not fit in T.
func NextPowerOfTwo[T constraints.Integer](v T) (T, bool) {
	if v <= 1 {
		return 1, true
	}
	p := T(1)
	for p < v {
		next := p << 1
		if next <= p {
			return 0, false
		}
		p = next
	}
	return p, true
}

// ByteView returns the bytes backing the provided slice without copying.
// The returned slice aliases s and must not outlive it.
func ByteView[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}

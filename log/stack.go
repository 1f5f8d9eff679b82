// log/stack.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// maxStackDepth bounds the number of frames recorded with each message.
const maxStackDepth = 16

type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (f StackFrame) String() string {
	return f.File + ":" + strconv.Itoa(f.Line) + ":" + f.Function
}

// Callstack returns the stack of the code that called the Logger method
// that calls it, innermost frame first, stopping at main.main.
func Callstack() []StackFrame {
	var pcs [maxStackDepth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := make([]StackFrame, 0, n)
	for {
		f, more := frames.Next()
		fn := strings.TrimPrefix(f.Function, "github.com/mmp/vizgl/")
		stack = append(stack, StackFrame{
			File:     filepath.Base(f.File),
			Line:     f.Line,
			Function: strings.TrimPrefix(fn, "main."),
		})
		if !more || f.Function == "main.main" {
			return stack
		}
	}
}

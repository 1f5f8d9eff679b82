// cmd/vizgl/main.go
// Copyright(c) 2022-2026 vizgl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// vizgl draws large generated graphs with the GPU rendering pipeline and
// records and inspects the attribute data it encodes.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
)

func init() {
	// GLFW and the OpenGL context must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

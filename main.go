// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"wfall/cmd"
	applog "wfall/internal/log"
	"wfall/pkg/build"
)

// main wires signals to the command line. The pipeline itself runs inside
// the root command:
//
//  1. Startup: build info, configuration file, environment, flags.
//  2. Running: the decoder and FFT workers feed the TUI or the peak log.
//  3. Shutdown: on SIGINT/SIGTERM or end of stream the engine closes the
//     adapter, the sequencer and the input, in that order.
func main() {
	// Development builds carry no link-time flags.
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		stop()
		applog.Fatal(err)
	}
}

// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/siemens/reachdig/checkpoint"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	osExit(exitCode(err))
}

// exitCode maps the outcome of a command execution to the process exit code.
// A CI checkpoint asking for termination is a regular exit, so that the CI
// job gets restarted.
func exitCode(err error) int {
	if err == nil || errors.Is(err, checkpoint.ErrCheckpointExit) {
		return 0
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}

// For CLI unit tests...
var osExit = os.Exit

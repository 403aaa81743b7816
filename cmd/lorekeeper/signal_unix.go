//go:build !windows

package main

import (
	"os"
	"syscall"
)

// terminationSignals lists the signals that trigger a graceful shutdown.
// Besides Ctrl+C, SIGTERM covers process managers like systemd and kubernetes.
var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

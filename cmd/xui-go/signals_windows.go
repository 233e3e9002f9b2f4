//go:build windows

package main

import (
	"os"
	"syscall"
)

// sceneSignal is unavailable on Windows; use -watch instead.
var sceneSignal os.Signal

var notifySignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

//go:build !windows

package main

import (
	"os"
	"syscall"
)

// sceneSignal asks for a scene reload.
var sceneSignal os.Signal = syscall.SIGUSR1

var notifySignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1}

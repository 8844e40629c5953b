package watcher

import (
	"time"

	"termharness/internal/logging"
)

// Options controls a single wait.
type Options struct {
	Logger *logging.Logger
	// Fallback is the re-check interval used alongside filesystem events.
	Fallback time.Duration
}

// check reports whether the awaited condition holds.
type check func() (bool, error)

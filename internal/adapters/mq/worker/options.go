// Package worker consumes lifecycle events off the queue and drives the
// balancing use cases.
package worker

import (
	"github.com/okian/huddle/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithShutdownSignal attaches an external shutdown channel. The worker stops
// when the channel is closed, in addition to its own Shutdown call.
func WithShutdownSignal(ch <-chan struct{}) Option {
	return func(w *InMemoryWorker) {
		if ch != nil {
			w.poolShutdown = ch
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

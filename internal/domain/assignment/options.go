// Package assignment holds the pure team selection, splitting, and naming
// algorithms.
package assignment

import "math/rand"

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSeed makes the service deterministic for testing.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic seed for reproducible testing
	}
}

// WithRand sets an explicit random source.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}

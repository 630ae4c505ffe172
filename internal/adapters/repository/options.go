package repository

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithAnonymousShooter sets the id credited for hits without a source id.
// An empty name rejects such hits with ErrInvalidShooter.
func WithAnonymousShooter(name string) Option {
	return func(s *TreapStore) {
		s.anonymous = name
	}
}

package service

import (
	"time"

	"github.com/okian/bullseye/internal/config"
	"github.com/okian/bullseye/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the total capacity of the hit queues.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many hit ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRingSegments sets the number of points per ring outline.
func WithRingSegments(n int) Option {
	return func(s *Service) {
		if n >= 3 {
			s.ringSegments = n
		}
	}
}

// WithTickInterval sets the motion ticker period.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithAnonymousShooter sets the id credited for hits without a source.
func WithAnonymousShooter(name string) Option {
	return func(s *Service) {
		s.anonymous = name
	}
}

// WithTargets sets the targets placed on the range.
func WithTargets(targets []config.TargetConfig) Option {
	return func(s *Service) {
		if len(targets) > 0 {
			s.targetConfigs = append([]config.TargetConfig(nil), targets...)
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// FromConfig maps a loaded configuration onto service options.
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithRingSegments(cfg.RingSegments),
		WithTickInterval(time.Duration(cfg.TickIntervalMS) * time.Millisecond),
		WithAnonymousShooter(cfg.AnonymousShooter),
		WithTargets(cfg.Targets),
	}
}

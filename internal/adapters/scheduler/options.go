package scheduler

import (
	"time"

	"github.com/okian/playoffdraft/pkg/logger"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTimeout bounds a single sweep.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

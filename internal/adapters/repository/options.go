package repository

import (
	"github.com/itbasis/go-clock"

	"github.com/okian/playoffdraft/internal/domain/draft"
	"github.com/okian/playoffdraft/pkg/logger"
)

type settings struct {
	totalSlots int
	clock      clock.Clock
	logger     logger.Logger
}

func newSettings(opts []Option) settings {
	s := settings{totalSlots: draft.DefaultTotalSlots}
	for _, opt := range opts {
		opt(&s)
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("repository")
	}
	return s
}

// Option configures a store.
type Option func(*settings)

// WithTotalSlots sets the roster size enforced when picks are committed.
func WithTotalSlots(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.totalSlots = n
		}
	}
}

// WithClock sets the clock stamping row updates.
func WithClock(c clock.Clock) Option {
	return func(s *settings) {
		s.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

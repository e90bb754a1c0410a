package service

import (
	"github.com/itbasis/go-clock"

	"github.com/okian/playoffdraft/internal/domain/realtime"
	"github.com/okian/playoffdraft/internal/domain/rules"
	"github.com/okian/playoffdraft/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPublisher sets where committed changes are broadcast.
func WithPublisher(p realtime.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.pub = p
		}
	}
}

// WithRuleTable shares an existing rule table.
func WithRuleTable(t *rules.Table) Option {
	return func(s *Service) {
		if t != nil {
			s.rules = t
		}
	}
}

// WithClock sets the clock stamping events.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
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

// WithTotalSlots sets the roster size per team.
func WithTotalSlots(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.totalSlots = n
		}
	}
}

// WithDefaultBudget sets the budget of new teams and of a reset draft.
func WithDefaultBudget(b int) Option {
	return func(s *Service) {
		if b >= 0 {
			s.defaultBudget = b
		}
	}
}

// WithRecalcWorkers sets the number of recalculation workers.
func WithRecalcWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRecalcBatchSize sets how many records one recalculation batch carries.
func WithRecalcBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithBootstrapAdmin names the user granted admin while no admin exists.
func WithBootstrapAdmin(userID string) Option {
	return func(s *Service) {
		s.bootstrapAdmin = userID
	}
}

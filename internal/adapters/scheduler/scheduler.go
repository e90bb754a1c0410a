// Package scheduler runs the periodic score recalculation sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/playoffdraft/pkg/logger"
	"github.com/okian/playoffdraft/pkg/metrics"
)

const defaultSweepTimeout = 5 * time.Minute

// Sweeper recalculates every position and reports the rows it rewrote.
type Sweeper interface {
	RecalculateAll(ctx context.Context) (int, error)
}

// Scheduler triggers a Sweeper on a cron schedule. Overlapping runs are skipped.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	spec    string
	timeout time.Duration
	logger  logger.Logger
}

// New parses spec and registers the sweep. spec accepts five or six fields and the
// @every/@hourly descriptors.
func New(spec string, sweeper Sweeper, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		sweeper: sweeper,
		spec:    spec,
		timeout: defaultSweepTimeout,
		logger:  logger.Get().Named("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}

	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	cl := cronLogger{l: s.logger}
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, spec, err)
	}
	return s, nil
}

// Start begins firing the schedule in the background.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info(ctx, "recalculation sweep scheduled", logger.String("schedule", s.spec))
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop timed out: %w", ctx.Err())
	}
}

// Next is when the sweep fires next; zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunOnce performs a single sweep.
func (s *Scheduler) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.sweeper.RecalculateAll(ctx)
	if err != nil {
		metrics.RecordSweep("error")
		metrics.RecordErrorByComponent("scheduler", "sweep_failed")
		s.logger.Error(ctx, "recalculation sweep failed", logger.Error(err))
		return
	}
	metrics.RecordSweep("ok")
	s.logger.Info(ctx, "recalculation sweep finished",
		logger.Int("updated", n),
		logger.Duration("took", time.Since(start)),
	)
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(context.Background(), msg, logger.Any("details", keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(context.Background(), msg, logger.Error(err), logger.Any("details", keysAndValues))
}

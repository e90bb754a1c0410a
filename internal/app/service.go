// Package service is the application layer of the draft: it authorizes callers, validates
// against the domain state machines, commits through storage and broadcasts the
// authoritative deltas.
package service

import (
	"context"
	"sync"

	"github.com/itbasis/go-clock"

	"github.com/okian/playoffdraft/internal/adapters/mq/worker"
	"github.com/okian/playoffdraft/internal/adapters/repository"
	"github.com/okian/playoffdraft/internal/domain/draft"
	"github.com/okian/playoffdraft/internal/domain/errs"
	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/internal/domain/realtime"
	"github.com/okian/playoffdraft/internal/domain/rules"
	"github.com/okian/playoffdraft/internal/domain/scoring"
	"github.com/okian/playoffdraft/pkg/logger"
	"github.com/okian/playoffdraft/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultBudget    = 200
	defaultWorkers   = 4
	defaultBatchSize = 50
)

// Actor is the caller of an operation. UserID comes from the authentication collaborator;
// ClientID names the connection so the caller is not echoed its own events.
type Actor struct {
	UserID   string
	ClientID string
}

type actorKey struct{}

// WithActor attaches a to ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the actor attached to ctx, or the zero Actor.
func ActorFrom(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey{}).(Actor)
	return a
}

// Service implements the operations behind the HTTP surface.
type Service struct {
	store  repository.Store
	pub    realtime.Publisher
	rules  *rules.Table
	calc   *scoring.Calculator
	pool   *worker.Pool
	clock  clock.Clock
	logger logger.Logger

	totalSlots     int
	defaultBudget  int
	workers        int
	batchSize      int
	bootstrapAdmin string

	mu      sync.Mutex
	started bool
}

// New constructs a service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:         store,
		totalSlots:    draft.DefaultTotalSlots,
		defaultBudget: defaultBudget,
		workers:       defaultWorkers,
		batchSize:     defaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.pub == nil {
		s.pub = discard{}
	}
	if s.rules == nil {
		s.rules = rules.NewTable(store, rules.WithLogger(s.logger.Named("rules")))
	}
	s.calc = scoring.NewCalculator(s.rules)
	s.pool = worker.NewPool(s.workers, s.calc, store,
		worker.WithBatchSize(s.batchSize),
		worker.WithPoolLogger(s.logger.Named("recalc")),
	)
	return s
}

// Start launches the recalculation workers and provisions the bootstrap admin.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if err := s.ensureBootstrapAdmin(ctx); err != nil {
		return err
	}
	s.pool.Start(ctx)
	s.started = true
	s.logger.Info(ctx, "draft service started",
		logger.Int("total_slots", s.totalSlots),
		logger.Int("default_budget", s.defaultBudget),
		logger.Int("recalc_workers", s.pool.Size()),
	)
	return nil
}

// Stop drains the recalculation workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false
	err := s.pool.Shutdown(ctx)
	s.logger.Info(ctx, "draft service stopped")
	return err
}

// Rules exposes the rule table.
func (s *Service) Rules() *rules.Table { return s.rules }

// Calculator exposes the score calculator.
func (s *Service) Calculator() *scoring.Calculator { return s.calc }

func (s *Service) permission(ctx context.Context, op string) (model.Permission, error) {
	a := ActorFrom(ctx)
	if a.UserID == "" {
		return model.Permission{}, errs.New(op, errs.ErrUnauthenticated, "sign in required")
	}
	p, err := s.store.GetPermission(ctx, a.UserID)
	if err != nil {
		return model.Permission{}, err
	}
	return p, nil
}

func (s *Service) requireUser(ctx context.Context, op string) error {
	_, err := s.permission(ctx, op)
	return err
}

func (s *Service) requireAdmin(ctx context.Context, op string) error {
	p, err := s.permission(ctx, op)
	if err != nil {
		return err
	}
	if !p.IsAdmin {
		return errs.New(op, errs.ErrAuthorization, "not authorized")
	}
	return nil
}

func (s *Service) requireScorer(ctx context.Context, op string) error {
	p, err := s.permission(ctx, op)
	if err != nil {
		return err
	}
	if !p.CanEditScores() {
		return errs.New(op, errs.ErrAuthorization, "not authorized")
	}
	return nil
}

// publish broadcasts an event built by one of the realtime constructors. The mutation has
// already committed, so failures are logged and counted but not returned.
// publishTo returns a sink for the (event, error) pair of an event constructor.
func (s *Service) publishTo(ctx context.Context) func(realtime.Event, error) {
	return func(ev realtime.Event, err error) { s.publish(ctx, ev, err) }
}

func (s *Service) publish(ctx context.Context, ev realtime.Event, err error) {
	if err == nil {
		err = s.pub.Publish(ctx, ev)
	}
	if err != nil {
		metrics.RecordErrorByComponent("service", "publish_failed")
		s.logger.Error(ctx, "event not published",
			logger.String("type", string(ev.Type)),
			logger.Error(err),
		)
	}
}

func (s *Service) origin(ctx context.Context) string {
	return ActorFrom(ctx).ClientID
}

// discard is the publisher used when none is configured.
type discard struct{}

func (discard) Publish(context.Context, realtime.Event) error { return nil }

// Package worker recalculates stored scores in parallel batches after a rule change.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/pkg/logger"
	"github.com/okian/playoffdraft/pkg/metrics"
)

// Default pool configuration constants.
const (
	defaultBatchSize    = 50
	poolShutdownTimeout = 30 * time.Second
)

// Scorer computes the score of a stat line for a position.
type Scorer interface {
	Compute(ctx context.Context, pos model.Position, data *model.ScoreData) int
}

// Updater persists new score values and reports how many rows changed.
type Updater interface {
	UpdateScoreValues(ctx context.Context, recs []model.PlayerScore) (int, error)
}

// Job is one batch of records of a single position.
type Job struct {
	Position model.Position
	Records  []model.PlayerScore
	result   chan<- Result
}

// Result is the outcome of a job.
type Result struct {
	Updated int
	Err     error
}

// InMemoryWorker processes recalculation jobs from a channel.
type InMemoryWorker struct {
	jobs    <-chan Job
	scorer  Scorer
	updater Updater
	name    string

	done   chan struct{}
	logger logger.Logger
}

// NewInMemoryWorker creates a worker reading from jobs.
func NewInMemoryWorker(jobs <-chan Job, scorer Scorer, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		jobs:    jobs,
		scorer:  scorer,
		updater: updater,
		name:    "worker",
		done:    make(chan struct{}),
		logger:  logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes jobs until the channel closes or ctx is canceled.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			n, err := w.Process(ctx, job.Position, job.Records)
			if err != nil {
				w.logger.Error(ctx, "recalculation batch failed",
					logger.String("position", string(job.Position)),
					logger.Int("records", len(job.Records)),
					logger.Error(err),
				)
			}
			if job.result != nil {
				job.result <- Result{Updated: n, Err: err}
			}
		}
	}
}

// Done is closed once Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Process recomputes every record of the batch and writes only the ones whose score moved.
// Disabled records are skipped. Each write carries the score data it was computed from so
// the store can refuse it when the row changed in between.
func (w *InMemoryWorker) Process(ctx context.Context, pos model.Position, recs []model.PlayerScore) (int, error) { //nolint:gocritic // batch passed by value
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	changed := make([]model.PlayerScore, 0, len(recs))
	for _, rec := range recs {
		if rec.Disabled {
			continue
		}
		score := w.scorer.Compute(ctx, pos, rec.Data)
		if score == rec.Score {
			continue
		}
		rec.Score = score
		changed = append(changed, rec)
	}
	if len(changed) == 0 {
		return 0, nil
	}

	n, err := w.updater.UpdateScoreValues(ctx, changed)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "update_error")
		return 0, fmt.Errorf("update %d %s scores: %w", len(changed), pos, err)
	}
	return n, nil
}

// Pool fans recalculation batches out over a fixed set of workers.
type Pool struct {
	mu        sync.RWMutex
	workers   []*InMemoryWorker
	jobs      chan Job
	batchSize int
	started   bool
	closed    bool
	stopped   chan struct{}
	logger    logger.Logger
}

// NewPool creates a pool of workerCount workers.
func NewPool(workerCount int, scorer Scorer, updater Updater, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers:   make([]*InMemoryWorker, workerCount),
		jobs:      make(chan Job, workerCount),
		batchSize: defaultBatchSize,
		stopped:   make(chan struct{}),
		logger:    logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewInMemoryWorker(p.jobs, scorer, updater, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Start launches the workers.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	var wg sync.WaitGroup
	for _, w := range p.workers {
		wg.Add(1)
		go func(w *InMemoryWorker) {
			defer wg.Done()
			w.Run(ctx)
		}(w)
	}
	go func() {
		wg.Wait()
		close(p.stopped)
		metrics.UpdateWorkerActiveCount(0)
	}()
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Recalculate splits recs into batches, runs them on the workers and returns the number
// of rows whose score changed. Running it twice without a rule change returns 0.
func (p *Pool) Recalculate(ctx context.Context, pos model.Position, recs []model.PlayerScore) (int, error) {
	start := time.Now()
	batches := split(recs, p.batchSize)
	results := make(chan Result, len(batches))

	sent, err := p.submit(ctx, pos, batches, results)

	updated := 0
	for i := 0; i < sent; i++ {
		select {
		case r := <-results:
			updated += r.Updated
			if r.Err != nil && err == nil {
				err = r.Err
			}
		case <-ctx.Done():
			return updated, ctx.Err()
		case <-p.stopped:
			return updated, ErrPoolStopped
		}
	}

	metrics.RecordRecalculation(updated, float64(time.Since(start).Milliseconds()))
	p.logger.Info(ctx, "recalculated scores",
		logger.String("position", string(pos)),
		logger.Int("records", len(recs)),
		logger.Int("batches", len(batches)),
		logger.Int("updated", updated),
	)
	return updated, err
}

func (p *Pool) submit(ctx context.Context, pos model.Position, batches [][]model.PlayerScore, results chan<- Result) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return 0, ErrPoolStopped
	}
	if !p.started {
		return 0, ErrNotStarted
	}
	for i, b := range batches {
		select {
		case p.jobs <- Job{Position: pos, Records: b, result: results}:
		case <-ctx.Done():
			return i, ctx.Err()
		case <-p.stopped:
			return i, ErrPoolStopped
		}
	}
	return len(batches), nil
}

// Shutdown stops accepting work and waits for in-flight batches.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	started := p.started
	p.mu.Unlock()

	if !started {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	select {
	case <-p.stopped:
		return nil
	case <-shutdownCtx.Done():
		p.logger.Warn(ctx, "worker pool shutdown timed out", logger.Int("workers", len(p.workers)))
		return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
	}
}

// Size is the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

func split(recs []model.PlayerScore, size int) [][]model.PlayerScore {
	if size < 1 {
		size = defaultBatchSize
	}
	out := make([][]model.PlayerScore, 0, (len(recs)+size-1)/size)
	for start := 0; start < len(recs); start += size {
		end := start + size
		if end > len(recs) {
			end = len(recs)
		}
		out = append(out, recs[start:end])
	}
	return out
}

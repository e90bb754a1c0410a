// Package rules holds the mutable scoring rule table.
//
// The Table is an explicit cache in front of a Repository. It never expires on its own;
// writers invalidate it, and tests control staleness with Invalidate.
package rules

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/okian/playoffdraft/internal/domain/errs"
	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/pkg/logger"
)

// Repository is the persistent rule store.
type Repository interface {
	ListRules(ctx context.Context, pos model.Position) ([]model.ScoringRule, error)
	// ReplaceRules atomically overwrites the given categories for pos.
	ReplaceRules(ctx context.Context, pos model.Position, rules []model.ScoringRule) error
}

// Input is one row of an admin rule update. Value is the raw text the admin entered.
type Input struct {
	Category    string `json:"category"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// Option applies a configuration option to the Table.
type Option func(*Table)

// WithLogger sets the logger used to report fallbacks.
func WithLogger(l logger.Logger) Option {
	return func(t *Table) {
		if l != nil {
			t.logger = l
		}
	}
}

// Table resolves rule values with a per-position cache over a Repository.
type Table struct {
	repo   Repository
	logger logger.Logger

	mu    sync.RWMutex
	cache map[model.Position]map[string]float64
}

// NewTable creates a Table over repo. A nil repo serves defaults only.
func NewTable(repo Repository, opts ...Option) *Table {
	t := &Table{
		repo:   repo,
		logger: logger.Get().Named("rules"),
		cache:  make(map[model.Position]map[string]float64),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Lookup returns the coefficient for (pos, category). Missing rows and repository
// failures fall back to the default table.
func (t *Table) Lookup(ctx context.Context, pos model.Position, category string) float64 {
	if v, ok := t.load(ctx, pos)[category]; ok {
		return v
	}
	v, _ := Default(pos, category)
	return v
}

// Snapshot returns the effective rules for pos: stored rows merged over the defaults.
func (t *Table) Snapshot(ctx context.Context, pos model.Position) []model.ScoringRule {
	values := t.load(ctx, pos)
	out := Defaults(pos)
	for i := range out {
		if v, ok := values[out[i].Category]; ok {
			out[i].Value = v
		}
	}
	return out
}

// Values returns a copy of the effective category values for pos.
func (t *Table) Values(ctx context.Context, pos model.Position) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range t.Snapshot(ctx, pos) {
		out[r.Category] = r.Value
	}
	return out
}

func (t *Table) load(ctx context.Context, pos model.Position) map[string]float64 {
	t.mu.RLock()
	cached, ok := t.cache[pos]
	t.mu.RUnlock()
	if ok {
		return cached
	}
	if t.repo == nil {
		return nil
	}

	rows, err := t.repo.ListRules(ctx, pos)
	if err != nil {
		// not cached so the next call retries the store
		t.logger.Warn(ctx, "rule store unavailable; using defaults",
			logger.String("position", string(pos)), logger.Error(err))
		return nil
	}
	values := make(map[string]float64, len(rows))
	for _, r := range rows {
		values[r.Category] = r.Value
	}

	t.mu.Lock()
	t.cache[pos] = values
	t.mu.Unlock()
	return values
}

// Invalidate drops the cached rows of the given positions, or of every position when
// none is given.
func (t *Table) Invalidate(positions ...model.Position) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(positions) == 0 {
		t.cache = make(map[model.Position]map[string]float64)
		return
	}
	for _, p := range positions {
		delete(t.cache, p)
	}
}

// Set validates and stores a bulk update for pos. Any invalid row rejects the whole batch.
// On success the cache for pos is invalidated and the stored rules are returned.
func (t *Table) Set(ctx context.Context, pos model.Position, inputs []Input) ([]model.ScoringRule, error) {
	const op = "rules.set"
	rows, err := Parse(pos, inputs)
	if err != nil {
		return nil, err
	}
	if t.repo == nil {
		return nil, errs.New(op, errs.ErrState, "no rule store configured")
	}
	if err := t.repo.ReplaceRules(ctx, pos, rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	t.Invalidate(pos)
	t.logger.Info(ctx, "scoring rules updated",
		logger.String("position", string(pos)), logger.Int("rows", len(rows)))
	return rows, nil
}

// Parse validates raw admin input for pos. Every value must be a finite number, every
// category must be known for the position, and no category may repeat.
func Parse(pos model.Position, inputs []Input) ([]model.ScoringRule, error) {
	const op = "rules.parse"
	if !pos.Valid() {
		return nil, errs.Newf(op, errs.ErrValidation, "unknown position %q", pos)
	}
	if len(inputs) == 0 {
		return nil, errs.New(op, errs.ErrValidation, "no rules given")
	}
	known := Categories(pos)
	seen := make(map[string]struct{}, len(inputs))
	out := make([]model.ScoringRule, 0, len(inputs))
	for _, in := range inputs {
		cat := strings.TrimSpace(in.Category)
		if !slices.Contains(known, cat) {
			return nil, errs.Newf(op, errs.ErrValidation, "unknown category %q for %s", in.Category, pos)
		}
		if _, dup := seen[cat]; dup {
			return nil, errs.Newf(op, errs.ErrValidation, "category %q given twice", cat)
		}
		seen[cat] = struct{}{}
		v, err := strconv.ParseFloat(strings.TrimSpace(in.Value), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errs.Newf(op, errs.ErrValidation, "value for %s must be numeric, got %q", cat, in.Value)
		}
		desc := in.Description
		if desc == "" {
			for _, d := range Defaults(pos) {
				if d.Category == cat {
					desc = d.Description
				}
			}
		}
		out = append(out, model.ScoringRule{Position: pos, Category: cat, Value: v, Description: desc})
	}
	return out, nil
}

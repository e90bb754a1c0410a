package service

import (
	"context"

	"github.com/okian/playoffdraft/internal/domain/errs"
	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/internal/domain/realtime"
	"github.com/okian/playoffdraft/internal/domain/rules"
	"github.com/okian/playoffdraft/internal/domain/scoring"
	"github.com/okian/playoffdraft/internal/domain/status"
	"github.com/okian/playoffdraft/pkg/logger"
	"github.com/okian/playoffdraft/pkg/metrics"
)

// RulesResult is the outcome of a rule update.
type RulesResult struct {
	Rules   []model.ScoringRule `json:"rules"`
	Updated int                 `json:"updated"`
}

// ScoringRules returns the effective rules of pos.
func (s *Service) ScoringRules(ctx context.Context, pos model.Position) ([]model.ScoringRule, error) {
	const op = "service.scoring_rules"
	if !pos.Valid() {
		return nil, errs.Newf(op, errs.ErrValidation, "unknown position %q", pos)
	}
	return s.rules.Snapshot(ctx, pos), nil
}

// SetScoringRules replaces the rules of pos, then recalculates its stored scores and asks
// clients to reload them.
func (s *Service) SetScoringRules(ctx context.Context, pos model.Position, in []rules.Input) (RulesResult, error) {
	const op = "service.set_scoring_rules"
	if err := s.requireAdmin(ctx, op); err != nil {
		return RulesResult{}, err
	}
	if _, err := s.rules.Set(ctx, pos, in); err != nil {
		return RulesResult{}, err
	}
	n, err := s.recalculate(ctx, pos)
	s.publishTo(ctx)(realtime.NewRulesReloadEvent(s.origin(ctx), s.clock.Now(), pos))
	if err != nil {
		return RulesResult{}, err
	}
	return RulesResult{Rules: s.rules.Snapshot(ctx, pos), Updated: n}, nil
}

// Recalculate recomputes the stored scores of the given positions, or of every position
// when none is given. It returns how many records changed; a second run without a rule
// change returns 0.
func (s *Service) Recalculate(ctx context.Context, positions ...model.Position) (int, error) {
	const op = "service.recalculate"
	if err := s.requireAdmin(ctx, op); err != nil {
		return 0, err
	}
	if len(positions) == 0 {
		return s.RecalculateAll(ctx)
	}
	total := 0
	for _, pos := range positions {
		if !pos.Valid() {
			return total, errs.Newf(op, errs.ErrValidation, "unknown position %q", pos)
		}
		s.rules.Invalidate(pos)
		n, err := s.recalculateAndNotify(ctx, pos)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// RecalculateAll drops the rule cache and recalculates every position. The scheduled sweep
// calls it so rule edits made directly in storage converge.
func (s *Service) RecalculateAll(ctx context.Context) (int, error) {
	s.rules.Invalidate()
	total := 0
	for _, pos := range model.Positions() {
		n, err := s.recalculateAndNotify(ctx, pos)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *Service) recalculateAndNotify(ctx context.Context, pos model.Position) (int, error) {
	n, err := s.recalculate(ctx, pos)
	if n > 0 {
		s.publishTo(ctx)(realtime.NewRulesReloadEvent(s.origin(ctx), s.clock.Now(), pos))
	}
	return n, err
}

func (s *Service) recalculate(ctx context.Context, pos model.Position) (int, error) {
	recs, err := s.store.ListScoredByPosition(ctx, pos)
	if err != nil {
		return 0, err
	}
	return s.pool.Recalculate(ctx, pos, recs)
}

// Scores returns the records of round, or every record when round is zero.
func (s *Service) Scores(ctx context.Context, round model.Round) ([]model.PlayerScore, error) {
	if round == 0 {
		return s.store.ListScores(ctx)
	}
	if !round.Valid() {
		return nil, errs.Newf("service.scores", errs.ErrValidation, "unknown round %d", int(round))
	}
	return s.store.ListScoresByRound(ctx, round)
}

// SaveScore validates data, computes the score and stores it for (player, round).
func (s *Service) SaveScore(ctx context.Context, playerID int, round model.Round, data *model.ScoreData) (model.PlayerScore, error) {
	const op = "service.save_score"
	if err := s.requireScorer(ctx, op); err != nil {
		return model.PlayerScore{}, err
	}
	player, snap, err := s.playerSnapshot(ctx, playerID)
	if err != nil {
		return model.PlayerScore{}, err
	}
	if err := scoring.Validate(player.Position, data); err != nil {
		return model.PlayerScore{}, err
	}
	score := s.calc.Compute(ctx, player.Position, data)
	patch, err := status.Save(snap, playerID, round, data, score)
	if err != nil {
		return model.PlayerScore{}, err
	}
	if err := s.commit(ctx, player, patch); err != nil {
		return model.PlayerScore{}, err
	}
	metrics.RecordScoreSaved()
	rec, _ := snap.Apply(patch).Get(playerID, round)
	return rec, nil
}

// ClearScore deletes the Scored record of (player, round).
func (s *Service) ClearScore(ctx context.Context, playerID int, round model.Round) error {
	return s.transition(ctx, "clear", playerID, func(snap status.Snapshot) (status.Patch, error) {
		return status.Clear(snap, playerID, round)
	})
}

// DisableScore marks (player, round) as not scoring. Eliminated cascades to later rounds.
func (s *Service) DisableScore(ctx context.Context, playerID int, round model.Round, reason model.StatusReason) error {
	return s.transition(ctx, "disable", playerID, func(snap status.Snapshot) (status.Patch, error) {
		return status.Disable(snap, playerID, round, reason)
	})
}

// ReactivateScore deletes the Disabled record of (player, round). It is a no-op for an
// Unscored player.
func (s *Service) ReactivateScore(ctx context.Context, playerID int, round model.Round) error {
	return s.transition(ctx, "reactivate", playerID, func(snap status.Snapshot) (status.Patch, error) {
		return status.Reactivate(snap, playerID, round)
	})
}

func (s *Service) transition(ctx context.Context, kind string, playerID int, next func(status.Snapshot) (status.Patch, error)) error {
	op := "service." + kind + "_score"
	if err := s.requireScorer(ctx, op); err != nil {
		return err
	}
	player, snap, err := s.playerSnapshot(ctx, playerID)
	if err != nil {
		return err
	}
	patch, err := next(snap)
	if err != nil {
		return err
	}
	if patch.Empty() {
		return nil
	}
	if err := s.commit(ctx, player, patch); err != nil {
		return err
	}
	metrics.RecordStatusTransition(kind)
	return nil
}

func (s *Service) playerSnapshot(ctx context.Context, playerID int) (model.Player, status.Snapshot, error) {
	player, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		return model.Player{}, status.Snapshot{}, err
	}
	recs, err := s.store.ListPlayerScores(ctx, playerID)
	if err != nil {
		return model.Player{}, status.Snapshot{}, err
	}
	return player, status.NewSnapshot(recs), nil
}

func (s *Service) commit(ctx context.Context, player model.Player, patch status.Patch) error {
	if err := s.store.ApplyScorePatch(ctx, patch); err != nil {
		return err
	}
	origin, now := s.origin(ctx), s.clock.Now()
	for _, o := range patch {
		upd := realtime.ScoreUpdateFrom(o.Record, player.Name)
		if o.Kind == status.Delete {
			upd = realtime.ScoreDeletedFrom(o.Record.PlayerID, o.Record.Round, player.Name)
		}
		s.publishTo(ctx)(realtime.NewPlayerScoreEvent(origin, now, upd))
	}
	s.logger.Debug(ctx, "score patch committed",
		logger.Int("player_id", player.ID),
		logger.Int("ops", len(patch)),
	)
	return nil
}

// Rounds reports which rounds are open for score entry.
func (s *Service) Rounds(ctx context.Context) (map[model.Round]bool, error) {
	picks, err := s.store.ListPicks(ctx)
	if err != nil {
		return nil, err
	}
	scores, err := s.store.ListScores(ctx)
	if err != nil {
		return nil, err
	}
	drafted := make([]int, 0, len(picks))
	for _, pk := range picks {
		drafted = append(drafted, pk.PlayerID)
	}
	return status.Accessible(status.NewSnapshot(scores), drafted), nil
}

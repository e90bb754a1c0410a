// Package mockstore provides a testify mock of repository.Store.
package mockstore

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/internal/domain/status"
)

type Store struct {
	mock.Mock
}

func (s *Store) UpsertPlayers(ctx context.Context, players []model.Player) error {
	args := s.Called(ctx, players)
	return args.Error(0)
}

func (s *Store) ListPlayers(ctx context.Context) ([]model.Player, error) {
	args := s.Called(ctx)
	return slice[model.Player](args, 0), args.Error(1)
}

func (s *Store) GetPlayer(ctx context.Context, id int) (model.Player, error) {
	args := s.Called(ctx, id)
	return args.Get(0).(model.Player), args.Error(1)
}

func (s *Store) ListTeams(ctx context.Context) ([]model.Team, error) {
	args := s.Called(ctx)
	return slice[model.Team](args, 0), args.Error(1)
}

func (s *Store) GetTeam(ctx context.Context, name string) (model.Team, error) {
	args := s.Called(ctx, name)
	return args.Get(0).(model.Team), args.Error(1)
}

func (s *Store) CreateTeam(ctx context.Context, t model.Team) error {
	args := s.Called(ctx, t)
	return args.Error(0)
}

func (s *Store) UpdateTeam(ctx context.Context, name string, t model.Team) (model.Team, error) {
	args := s.Called(ctx, name, t)
	return args.Get(0).(model.Team), args.Error(1)
}

func (s *Store) DeleteTeam(ctx context.Context, name string) error {
	args := s.Called(ctx, name)
	return args.Error(0)
}

func (s *Store) SetAllBudgets(ctx context.Context, budget int) ([]model.Team, error) {
	args := s.Called(ctx, budget)
	return slice[model.Team](args, 0), args.Error(1)
}

func (s *Store) ListPicks(ctx context.Context) ([]model.DraftPick, error) {
	args := s.Called(ctx)
	return slice[model.DraftPick](args, 0), args.Error(1)
}

func (s *Store) CommitPick(ctx context.Context, pk model.DraftPick) (model.Team, error) {
	args := s.Called(ctx, pk)
	return args.Get(0).(model.Team), args.Error(1)
}

func (s *Store) RemovePick(ctx context.Context, team string, slot int) (model.DraftPick, model.Team, error) {
	args := s.Called(ctx, team, slot)
	return args.Get(0).(model.DraftPick), args.Get(1).(model.Team), args.Error(2)
}

func (s *Store) DraftFinished(ctx context.Context) (bool, error) {
	args := s.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (s *Store) SetDraftFinished(ctx context.Context, finished bool) error {
	args := s.Called(ctx, finished)
	return args.Error(0)
}

func (s *Store) ResetDraft(ctx context.Context, budget int) error {
	args := s.Called(ctx, budget)
	return args.Error(0)
}

func (s *Store) ListRules(ctx context.Context, pos model.Position) ([]model.ScoringRule, error) {
	args := s.Called(ctx, pos)
	return slice[model.ScoringRule](args, 0), args.Error(1)
}

func (s *Store) ReplaceRules(ctx context.Context, pos model.Position, rows []model.ScoringRule) error {
	args := s.Called(ctx, pos, rows)
	return args.Error(0)
}

func (s *Store) ListScores(ctx context.Context) ([]model.PlayerScore, error) {
	args := s.Called(ctx)
	return slice[model.PlayerScore](args, 0), args.Error(1)
}

func (s *Store) ListScoresByRound(ctx context.Context, round model.Round) ([]model.PlayerScore, error) {
	args := s.Called(ctx, round)
	return slice[model.PlayerScore](args, 0), args.Error(1)
}

func (s *Store) ListPlayerScores(ctx context.Context, playerID int) ([]model.PlayerScore, error) {
	args := s.Called(ctx, playerID)
	return slice[model.PlayerScore](args, 0), args.Error(1)
}

func (s *Store) GetScore(ctx context.Context, playerID int, round model.Round) (model.PlayerScore, error) {
	args := s.Called(ctx, playerID, round)
	return args.Get(0).(model.PlayerScore), args.Error(1)
}

func (s *Store) ApplyScorePatch(ctx context.Context, p status.Patch) error {
	args := s.Called(ctx, p)
	return args.Error(0)
}

func (s *Store) UpdateScoreValues(ctx context.Context, recs []model.PlayerScore) (int, error) {
	args := s.Called(ctx, recs)
	return args.Int(0), args.Error(1)
}

func (s *Store) ListScoredByPosition(ctx context.Context, pos model.Position) ([]model.PlayerScore, error) {
	args := s.Called(ctx, pos)
	return slice[model.PlayerScore](args, 0), args.Error(1)
}

func (s *Store) GetPermission(ctx context.Context, userID string) (model.Permission, error) {
	args := s.Called(ctx, userID)
	return args.Get(0).(model.Permission), args.Error(1)
}

func (s *Store) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	args := s.Called(ctx)
	return slice[model.Permission](args, 0), args.Error(1)
}

func (s *Store) SetPermission(ctx context.Context, p model.Permission) error {
	args := s.Called(ctx, p)
	return args.Error(0)
}

func (s *Store) CountAdmins(ctx context.Context) (int, error) {
	args := s.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (s *Store) Close() {
	s.Called()
}

func slice[T any](args mock.Arguments, i int) []T {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).([]T)
}

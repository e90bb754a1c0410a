// Package repository is the storage collaborator of the draft service.
//
// Both implementations enforce the draft's shared-resource rules at commit time: a pick is
// accepted only if the player is still unpicked, the slot empty, the roster caps hold and
// the cost fits the remaining budget. Remaining budgets are recomputed from the surviving
// picks on every change.
package repository

import (
	"context"

	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/internal/domain/status"
)

// Store provides transactional access to the draft state.
type Store interface {
	// UpsertPlayers inserts or replaces players by id.
	UpsertPlayers(ctx context.Context, players []model.Player) error
	// ListPlayers returns every player ordered by id.
	ListPlayers(ctx context.Context) ([]model.Player, error)
	// GetPlayer returns errs.ErrNotFound for an unknown id.
	GetPlayer(ctx context.Context, id int) (model.Player, error)

	// ListTeams returns every team ordered by name.
	ListTeams(ctx context.Context) ([]model.Team, error)
	GetTeam(ctx context.Context, name string) (model.Team, error)
	// CreateTeam fails with errs.ErrConflict when the name is taken.
	CreateTeam(ctx context.Context, t model.Team) error
	// UpdateTeam renames a team and sets its original budget. The remaining budget is
	// recomputed from the team's picks.
	UpdateTeam(ctx context.Context, name string, t model.Team) (model.Team, error)
	// DeleteTeam removes a team and its picks.
	DeleteTeam(ctx context.Context, name string) error
	// SetAllBudgets sets every team's original budget and recomputes the remaining one.
	// It fails with errs.ErrConflict if a team has already spent more than budget.
	SetAllBudgets(ctx context.Context, budget int) ([]model.Team, error)

	// ListPicks returns every pick ordered by team then slot.
	ListPicks(ctx context.Context) ([]model.DraftPick, error)
	// CommitPick validates and stores a pick atomically and returns the charged team.
	CommitPick(ctx context.Context, pk model.DraftPick) (model.Team, error)
	// RemovePick clears one cell and returns the removed pick with the refunded team.
	RemovePick(ctx context.Context, team string, slot int) (model.DraftPick, model.Team, error)

	DraftFinished(ctx context.Context) (bool, error)
	SetDraftFinished(ctx context.Context, finished bool) error
	// ResetDraft clears picks and scores, reopens the draft and sets every budget.
	ResetDraft(ctx context.Context, budget int) error

	ListRules(ctx context.Context, pos model.Position) ([]model.ScoringRule, error)
	// ReplaceRules swaps every row of pos in one transaction.
	ReplaceRules(ctx context.Context, pos model.Position, rows []model.ScoringRule) error

	ListScores(ctx context.Context) ([]model.PlayerScore, error)
	ListScoresByRound(ctx context.Context, round model.Round) ([]model.PlayerScore, error)
	// ListPlayerScores returns every record of one player across rounds.
	ListPlayerScores(ctx context.Context, playerID int) ([]model.PlayerScore, error)
	GetScore(ctx context.Context, playerID int, round model.Round) (model.PlayerScore, error)
	// ApplyScorePatch writes every op of p or none of them.
	ApplyScorePatch(ctx context.Context, p status.Patch) error
	// UpdateScoreValues sets the score of each Scored record whose stored value differs and
	// returns how many rows changed. A record is only written while its stored score data
	// still equals rec.Data; rows edited since they were read are left alone.
	UpdateScoreValues(ctx context.Context, recs []model.PlayerScore) (int, error)
	// ListScoredByPosition returns the Scored records of players at pos.
	ListScoredByPosition(ctx context.Context, pos model.Position) ([]model.PlayerScore, error)

	// GetPermission returns a zero permission for unknown users.
	GetPermission(ctx context.Context, userID string) (model.Permission, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	SetPermission(ctx context.Context, p model.Permission) error
	CountAdmins(ctx context.Context) (int, error)

	Close()
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/okian/playoffdraft/internal/domain/draft"
	"github.com/okian/playoffdraft/internal/domain/errs"
	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/internal/domain/realtime"
	"github.com/okian/playoffdraft/pkg/logger"
	"github.com/okian/playoffdraft/pkg/metrics"
)

// TeamInput is the admin form for creating or editing a team. A nil Budget keeps the
// default (create) or the current original budget (update).
type TeamInput struct {
	Name   string `json:"name"`
	Budget *int   `json:"budget,omitempty"`
}

// State returns the authoritative snapshot clients load their replica from.
func (s *Service) State(ctx context.Context) (realtime.State, error) {
	teams, err := s.store.ListTeams(ctx)
	if err != nil {
		return realtime.State{}, err
	}
	picks, err := s.store.ListPicks(ctx)
	if err != nil {
		return realtime.State{}, err
	}
	scores, err := s.store.ListScores(ctx)
	if err != nil {
		return realtime.State{}, err
	}
	finished, err := s.store.DraftFinished(ctx)
	if err != nil {
		return realtime.State{}, err
	}
	return realtime.State{
		TotalSlots: s.totalSlots,
		Teams:      teams,
		Picks:      picks,
		Scores:     scores,
		Finished:   finished,
	}, nil
}

func (s *Service) board(ctx context.Context) (*draft.Board, error) {
	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	return draft.NewBoard(s.totalSlots, players, st.Teams, st.Picks, st.Finished), nil
}

// SeedPlayers loads the player pool.
func (s *Service) SeedPlayers(ctx context.Context, players []model.Player) error {
	if err := s.store.UpsertPlayers(ctx, players); err != nil {
		return err
	}
	s.logger.Info(ctx, "players seeded", logger.Int("count", len(players)))
	return nil
}

// Players returns every player.
func (s *Service) Players(ctx context.Context) ([]model.Player, error) {
	return s.store.ListPlayers(ctx)
}

// EligiblePlayers returns the undrafted players team may still pick, filtered by search.
func (s *Service) EligiblePlayers(ctx context.Context, team, search string) ([]model.Player, error) {
	const op = "service.eligible_players"
	b, err := s.board(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := b.Team(team); !ok {
		return nil, errs.Newf(op, errs.ErrNotFound, "team %q not found", team)
	}
	return b.Eligible(team, search), nil
}

// Teams returns every team.
func (s *Service) Teams(ctx context.Context) ([]model.Team, error) {
	return s.store.ListTeams(ctx)
}

// CreateTeam adds a team with a fresh budget.
func (s *Service) CreateTeam(ctx context.Context, in TeamInput) (model.Team, error) {
	const op = "service.create_team"
	if err := s.requireAdmin(ctx, op); err != nil {
		return model.Team{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Team{}, errs.New(op, errs.ErrValidation, "team name is required")
	}
	budget := s.defaultBudget
	if in.Budget != nil {
		budget = *in.Budget
	}
	if budget < 0 {
		return model.Team{}, errs.New(op, errs.ErrValidation, "budget must not be negative")
	}
	finished, err := s.store.DraftFinished(ctx)
	if err != nil {
		return model.Team{}, err
	}
	if finished {
		return model.Team{}, errs.New(op, errs.ErrState, "the draft is finished")
	}

	team := model.Team{Name: name, Budget: budget, OriginalBudget: budget}
	if err := s.store.CreateTeam(ctx, team); err != nil {
		return model.Team{}, err
	}
	s.publishTo(ctx)(realtime.NewTeamEvent(s.origin(ctx), s.clock.Now(), realtime.TeamUpdate{
		Action: realtime.ActionAdd, Team: &team,
	}))
	return team, nil
}

// UpdateTeam renames a team or changes its original budget. The remaining budget is
// recomputed by storage from the team's picks.
func (s *Service) UpdateTeam(ctx context.Context, name string, in TeamInput) (model.Team, error) {
	const op = "service.update_team"
	if err := s.requireAdmin(ctx, op); err != nil {
		return model.Team{}, err
	}
	current, err := s.store.GetTeam(ctx, name)
	if err != nil {
		return model.Team{}, err
	}
	next := model.Team{Name: strings.TrimSpace(in.Name), OriginalBudget: current.OriginalBudget}
	if next.Name == "" {
		next.Name = current.Name
	}
	if in.Budget != nil {
		if *in.Budget < 0 {
			return model.Team{}, errs.New(op, errs.ErrValidation, "budget must not be negative")
		}
		next.OriginalBudget = *in.Budget
	}

	team, err := s.store.UpdateTeam(ctx, name, next)
	if err != nil {
		return model.Team{}, err
	}
	upd := realtime.TeamUpdate{Action: realtime.ActionUpdate, Team: &team}
	if team.Name != name {
		upd.TeamName = name
	}
	s.publishTo(ctx)(realtime.NewTeamEvent(s.origin(ctx), s.clock.Now(), upd))
	return team, nil
}

// DeleteTeam removes a team. Teams can only be deleted before the first pick.
func (s *Service) DeleteTeam(ctx context.Context, name string) error {
	const op = "service.delete_team"
	if err := s.requireAdmin(ctx, op); err != nil {
		return err
	}
	picks, err := s.store.ListPicks(ctx)
	if err != nil {
		return err
	}
	if len(picks) > 0 {
		return errs.New(op, errs.ErrState, "teams can only be deleted before the draft starts")
	}
	if err := s.store.DeleteTeam(ctx, name); err != nil {
		return err
	}
	s.publishTo(ctx)(realtime.NewTeamEvent(s.origin(ctx), s.clock.Now(), realtime.TeamUpdate{
		Action: realtime.ActionDelete, TeamName: name,
	}))
	return nil
}

// SetBudget sets every team's original budget. Teams that already spent keep their picks
// and have the remaining figure recomputed.
func (s *Service) SetBudget(ctx context.Context, budget int) ([]model.Team, error) {
	const op = "service.set_budget"
	if err := s.requireAdmin(ctx, op); err != nil {
		return nil, err
	}
	if budget < 0 {
		return nil, errs.New(op, errs.ErrValidation, "budget must not be negative")
	}
	teams, err := s.store.SetAllBudgets(ctx, budget)
	if err != nil {
		return nil, err
	}
	origin, now := s.origin(ctx), s.clock.Now()
	s.publishTo(ctx)(realtime.NewTeamEvent(origin, now, realtime.TeamUpdate{
		Action: realtime.ActionUpdateAllBudgets, Budget: &budget,
	}))
	for i := range teams {
		if teams[i].Budget != budget {
			s.publishTo(ctx)(realtime.NewTeamEvent(origin, now, realtime.TeamUpdate{
				Action: realtime.ActionUpdate, Team: &teams[i],
			}))
		}
	}
	return teams, nil
}

// Pick commits pk. Eligibility and budget are checked again by storage at commit time, so
// of two concurrent picks of one player exactly one wins.
func (s *Service) Pick(ctx context.Context, pk model.DraftPick) (model.Team, error) {
	const op = "service.pick"
	if err := s.requireUser(ctx, op); err != nil {
		return model.Team{}, err
	}
	player, err := s.store.GetPlayer(ctx, pk.PlayerID)
	if err != nil {
		return model.Team{}, err
	}
	team, err := s.store.CommitPick(ctx, pk)
	if err != nil {
		metrics.RecordPickConflict(conflictReason(err))
		return model.Team{}, err
	}
	metrics.RecordPickCommitted()

	origin, now := s.origin(ctx), s.clock.Now()
	cost := pk.Cost
	s.publishTo(ctx)(realtime.NewDraftPickEvent(origin, now, realtime.DraftPickUpdate{
		Action: realtime.ActionAdd,
		Team:   pk.Team,
		Slot:   pk.Slot,
		Player: &realtime.PlayerRef{ID: player.ID, Name: player.Name, Position: player.Position},
		Cost:   &cost,
	}))
	s.publishTo(ctx)(realtime.NewTeamEvent(origin, now, realtime.TeamUpdate{Action: realtime.ActionUpdate, Team: &team}))
	return team, nil
}

// Unpick clears one slot and returns the team with its budget recomputed by storage.
func (s *Service) Unpick(ctx context.Context, team string, slot int) (model.Team, error) {
	const op = "service.unpick"
	if err := s.requireUser(ctx, op); err != nil {
		return model.Team{}, err
	}
	removed, t, err := s.store.RemovePick(ctx, team, slot)
	if err != nil {
		return model.Team{}, err
	}
	metrics.RecordPickRemoved()

	origin, now := s.origin(ctx), s.clock.Now()
	s.publishTo(ctx)(realtime.NewDraftPickEvent(origin, now, realtime.DraftPickUpdate{
		Action: realtime.ActionRemove, Team: removed.Team, Slot: removed.Slot,
	}))
	s.publishTo(ctx)(realtime.NewTeamEvent(origin, now, realtime.TeamUpdate{Action: realtime.ActionUpdate, Team: &t}))
	return t, nil
}

// FinishDraft closes the draft once every roster is full.
func (s *Service) FinishDraft(ctx context.Context) error {
	const op = "service.finish_draft"
	if err := s.requireAdmin(ctx, op); err != nil {
		return err
	}
	if err := s.store.SetDraftFinished(ctx, true); err != nil {
		return err
	}
	s.publishTo(ctx)(realtime.NewDraftStatusEvent(s.origin(ctx), s.clock.Now(), true))
	s.logger.Info(ctx, "draft finished", logger.String("by", ActorFrom(ctx).UserID))
	return nil
}

// ResetDraft clears every pick and score and reopens the draft with fresh default budgets.
// confirm must be true.
func (s *Service) ResetDraft(ctx context.Context, confirm bool) error {
	const op = "service.reset_draft"
	if err := s.requireAdmin(ctx, op); err != nil {
		return err
	}
	if !confirm {
		return errs.New(op, errs.ErrValidation, "reset must be confirmed")
	}
	picks, err := s.store.ListPicks(ctx)
	if err != nil {
		return err
	}
	scores, err := s.store.ListScores(ctx)
	if err != nil {
		return err
	}
	players, err := s.playerNames(ctx)
	if err != nil {
		return err
	}
	if err := s.store.ResetDraft(ctx, s.defaultBudget); err != nil {
		return err
	}

	origin, now := s.origin(ctx), s.clock.Now()
	budget := s.defaultBudget
	s.publishTo(ctx)(realtime.NewDraftStatusEvent(origin, now, false))
	s.publishTo(ctx)(realtime.NewTeamEvent(origin, now, realtime.TeamUpdate{
		Action: realtime.ActionUpdateAllBudgets, Budget: &budget,
	}))
	for _, pk := range picks {
		s.publishTo(ctx)(realtime.NewDraftPickEvent(origin, now, realtime.DraftPickUpdate{
			Action: realtime.ActionRemove, Team: pk.Team, Slot: pk.Slot,
		}))
	}
	for _, rec := range scores {
		s.publishTo(ctx)(realtime.NewPlayerScoreEvent(origin, now,
			realtime.ScoreDeletedFrom(rec.PlayerID, rec.Round, players[rec.PlayerID])))
	}
	s.logger.Info(ctx, "draft reset",
		logger.String("by", ActorFrom(ctx).UserID),
		logger.Int("picks", len(picks)),
		logger.Int("scores", len(scores)),
	)
	return nil
}

func (s *Service) playerNames(ctx context.Context) (map[int]string, error) {
	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int]string, len(players))
	for _, p := range players {
		out[p.ID] = p.Name
	}
	return out, nil
}

func conflictReason(err error) string {
	switch {
	case errors.Is(err, draft.ErrInsufficientBudget):
		return "budget"
	case errors.Is(err, draft.ErrSlotOccupiedOrIneligible):
		return "unavailable"
	case errors.Is(err, errs.ErrState):
		return "finished"
	}
	return "other"
}

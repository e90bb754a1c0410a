package realtime

import (
	"context"
	"slices"
	"sync"

	"github.com/okian/playoffdraft/internal/domain/dedupe"
	"github.com/okian/playoffdraft/internal/domain/draft"
	"github.com/okian/playoffdraft/internal/domain/errs"
	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/internal/domain/status"
)

// State is an authoritative snapshot a replica is loaded from.
type State struct {
	TotalSlots int                 `json:"totalSlots"`
	Teams      []model.Team        `json:"teams"`
	Picks      []model.DraftPick   `json:"picks"`
	Scores     []model.PlayerScore `json:"scores"`
	Finished   bool                `json:"isDraftFinished"`
}

// ReplicaOption configures a Replica.
type ReplicaOption func(*Replica)

// WithDeduper replaces the default seen-ID set.
func WithDeduper(d dedupe.Deduper) ReplicaOption {
	return func(r *Replica) {
		r.seen = d
	}
}

// Replica is a client's view of the draft, kept current by applying events.
type Replica struct {
	mu      sync.Mutex
	client  string
	board   *draft.Board
	scores  status.Snapshot
	reloads map[model.Position]struct{}
	seen    dedupe.Deduper
	applied int
}

// NewReplica creates the replica of client loaded from st.
func NewReplica(client string, st State, opts ...ReplicaOption) *Replica {
	r := &Replica{client: client}
	for _, opt := range opts {
		opt(r)
	}
	if r.seen == nil {
		r.seen = dedupe.NewInMemoryDeduper()
	}
	r.load(st)
	return r
}

// Client is the id of the client owning the replica.
func (r *Replica) Client() string { return r.client }

// Load replaces the view with a fresh authoritative snapshot and clears pending reloads.
func (r *Replica) Load(st State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(st)
}

func (r *Replica) load(st State) {
	r.board = draft.NewBoard(st.TotalSlots, nil, st.Teams, st.Picks, st.Finished)
	r.scores = status.NewSnapshot(st.Scores)
	r.reloads = make(map[model.Position]struct{})
}

// Apply folds ev into the view. Redelivered events are skipped. A malformed payload is
// rejected with errs.ErrValidation and leaves the view untouched.
func (r *Replica) Apply(ctx context.Context, ev Event) error {
	const op = "realtime.apply"
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.ID != "" && r.seen.SeenAndRecord(ctx, ev.ID) {
		return nil
	}
	var err error
	switch ev.Type {
	case TypeDraftPick:
		err = r.applyPick(ev)
	case TypePlayerScore:
		err = r.applyScore(ev)
	case TypeDraftStatus:
		err = r.applyStatus(ev)
	case TypeTeam:
		err = r.applyTeam(ev)
	default:
		err = errs.Newf(op, errs.ErrValidation, "unknown event type %q", ev.Type)
	}
	if err != nil {
		if ev.ID != "" {
			r.seen.Unrecord(ctx, ev.ID)
		}
		if errs.KindOf(err) == nil {
			err = errs.Wrap(op, errs.ErrValidation, err)
		}
		return err
	}
	r.applied++
	return nil
}

func (r *Replica) applyPick(ev Event) error {
	p, err := Decode[DraftPickUpdate](ev)
	if err != nil {
		return err
	}
	switch p.Action {
	case ActionAdd, ActionUpdate:
		if p.Player == nil {
			return errs.New("realtime.pick", errs.ErrValidation, "pick event without a player")
		}
		cost := 0
		if p.Cost != nil {
			cost = *p.Cost
		}
		r.board.Place(model.DraftPick{Team: p.Team, Slot: p.Slot, PlayerID: p.Player.ID, Cost: cost})
	case ActionRemove:
		r.board.Clear(p.Team, p.Slot)
	default:
		return errs.Newf("realtime.pick", errs.ErrValidation, "unknown pick action %q", p.Action)
	}
	return nil
}

func (r *Replica) applyScore(ev Event) error {
	p, err := Decode[PlayerScoreUpdate](ev)
	if err != nil {
		return err
	}
	if p.Type == ScoringRulesUpdate {
		if !p.Position.Valid() {
			return errs.Newf("realtime.score", errs.ErrValidation, "reload for unknown position %q", p.Position)
		}
		r.reloads[p.Position] = struct{}{}
		return nil
	}
	if !p.Round.Valid() {
		return errs.Newf("realtime.score", errs.ErrValidation, "unknown round %d", int(p.Round))
	}
	rec := model.PlayerScore{
		PlayerID: p.PlayerID,
		Round:    p.Round,
		Disabled: p.IsDisabled,
		Reason:   p.StatusReason,
		Score:    p.Score,
		Data:     p.ScoreData,
	}
	kind := status.Upsert
	if p.IsDeleted {
		kind = status.Delete
	}
	r.scores = r.scores.Apply(status.Patch{{Kind: kind, Record: rec}})
	return nil
}

func (r *Replica) applyStatus(ev Event) error {
	p, err := Decode[DraftStatusUpdate](ev)
	if err != nil {
		return err
	}
	r.board.SetFinished(p.IsDraftFinished)
	return nil
}

func (r *Replica) applyTeam(ev Event) error {
	p, err := Decode[TeamUpdate](ev)
	if err != nil {
		return err
	}
	switch p.Action {
	case ActionAdd, ActionUpdate:
		if p.Team == nil || p.Team.Name == "" {
			return errs.New("realtime.team", errs.ErrValidation, "team event without a team")
		}
		if p.TeamName != "" && p.TeamName != p.Team.Name {
			r.board.RenameTeam(p.TeamName, *p.Team)
			return nil
		}
		r.board.PutTeam(*p.Team)
	case ActionDelete:
		name := p.TeamName
		if name == "" && p.Team != nil {
			name = p.Team.Name
		}
		r.board.RemoveTeam(name)
	case ActionUpdateAllBudgets:
		if p.Budget == nil {
			return errs.New("realtime.team", errs.ErrValidation, "budget event without a budget")
		}
		for _, t := range r.board.Teams() {
			t.Budget, t.OriginalBudget = *p.Budget, *p.Budget
			r.board.PutTeam(t)
		}
	default:
		return errs.Newf("realtime.team", errs.ErrValidation, "unknown team action %q", p.Action)
	}
	return nil
}

// Teams returns the replica's teams sorted by name.
func (r *Replica) Teams() []model.Team {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board.Teams()
}

// Team returns one team.
func (r *Replica) Team(name string) (model.Team, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board.Team(name)
}

// Picks returns the replica's picks sorted by team then slot.
func (r *Replica) Picks() []model.DraftPick {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board.Picks()
}

// PickAt returns the pick in one cell.
func (r *Replica) PickAt(team string, slot int) (model.DraftPick, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board.PickAt(team, slot)
}

// Score returns the record of (player, round).
func (r *Replica) Score(playerID int, round model.Round) (model.PlayerScore, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scores.Get(playerID, round)
}

// Scores returns every score record.
func (r *Replica) Scores() []model.PlayerScore {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scores.Records()
}

// Finished reports the draft flag as last seen.
func (r *Replica) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board.Finished()
}

// PendingReloads lists positions whose scores must be refetched, sorted.
func (r *Replica) PendingReloads() []model.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Position, 0, len(r.reloads))
	for p := range r.reloads {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Applied counts events that changed or confirmed the view. Skipped duplicates are not
// counted.
func (r *Replica) Applied() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applied
}

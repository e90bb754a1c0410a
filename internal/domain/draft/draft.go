// Package draft implements the draft state machine: per-team slot assignment, the
// budget ledger, and the Open/Finished lifecycle.
//
// A Board is a working copy of the draft. The service loads one from storage to validate
// a mutation before committing it; client replicas keep one up to date from events.
// A Board is not safe for concurrent use.
package draft

import (
	"maps"
	"slices"
	"sort"

	"github.com/okian/playoffdraft/internal/domain/eligibility"
	"github.com/okian/playoffdraft/internal/domain/errs"
	"github.com/okian/playoffdraft/internal/domain/model"
)

// DefaultTotalSlots is the roster size when none is configured.
const DefaultTotalSlots = 6

// Phase is the draft lifecycle state.
type Phase int

// Phases.
const (
	Open Phase = iota
	Finished
)

func (p Phase) String() string {
	if p == Finished {
		return "finished"
	}
	return "open"
}

// Cell addresses one roster slot of one team.
type Cell struct {
	Team string
	Slot int
}

// Ledger is a team's budget position.
type Ledger struct {
	Original  int `json:"originalBudget"`
	Remaining int `json:"budget"`
	Spent     int `json:"spent"`
}

// Balanced reports whether spent + remaining equals the original budget.
func (l Ledger) Balanced() bool {
	return l.Spent+l.Remaining == l.Original
}

// Board is the in-memory draft state.
type Board struct {
	totalSlots int
	phase      Phase
	players    map[int]model.Player
	teams      map[string]model.Team
	picks      map[Cell]model.DraftPick
	owner      map[int]Cell
}

// NewBoard builds a board from a storage snapshot. Picks referencing unknown teams are kept
// so the board mirrors storage exactly.
func NewBoard(totalSlots int, players []model.Player, teams []model.Team, picks []model.DraftPick, finished bool) *Board {
	if totalSlots < 1 {
		totalSlots = DefaultTotalSlots
	}
	b := &Board{
		totalSlots: totalSlots,
		players:    make(map[int]model.Player, len(players)),
		teams:      make(map[string]model.Team, len(teams)),
		picks:      make(map[Cell]model.DraftPick, len(picks)),
		owner:      make(map[int]Cell, len(picks)),
	}
	if finished {
		b.phase = Finished
	}
	for _, p := range players {
		b.players[p.ID] = p
	}
	for _, t := range teams {
		b.teams[t.Name] = t
	}
	for _, pk := range picks {
		if pk.PlayerID == 0 {
			continue
		}
		c := Cell{Team: pk.Team, Slot: pk.Slot}
		b.picks[c] = pk
		b.owner[pk.PlayerID] = c
	}
	return b
}

// TotalSlots is the roster size per team.
func (b *Board) TotalSlots() int { return b.totalSlots }

// Phase returns the current lifecycle state.
func (b *Board) Phase() Phase { return b.phase }

// Finished reports whether the draft is closed.
func (b *Board) Finished() bool { return b.phase == Finished }

// Team returns a team by name.
func (b *Board) Team(name string) (model.Team, bool) {
	t, ok := b.teams[name]
	return t, ok
}

// Teams returns every team sorted by name.
func (b *Board) Teams() []model.Team {
	out := slices.Collect(maps.Values(b.teams))
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Picks returns every non-empty pick sorted by team then slot.
func (b *Board) Picks() []model.DraftPick {
	out := slices.Collect(maps.Values(b.picks))
	sort.Slice(out, func(i, j int) bool {
		if out[i].Team != out[j].Team {
			return out[i].Team < out[j].Team
		}
		return out[i].Slot < out[j].Slot
	})
	return out
}

// PickAt returns the pick in one cell.
func (b *Board) PickAt(team string, slot int) (model.DraftPick, bool) {
	pk, ok := b.picks[Cell{Team: team, Slot: slot}]
	return pk, ok
}

// Owner returns the cell holding player, if any.
func (b *Board) Owner(playerID int) (Cell, bool) {
	c, ok := b.owner[playerID]
	return c, ok
}

// Players returns every known player sorted by id.
func (b *Board) Players() []model.Player {
	out := slices.Collect(maps.Values(b.players))
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Player returns a player by id.
func (b *Board) Player(id int) (model.Player, bool) {
	p, ok := b.players[id]
	return p, ok
}

// Available returns the undrafted players sorted by id.
func (b *Board) Available() []model.Player {
	out := make([]model.Player, 0, len(b.players))
	for _, p := range b.Players() {
		if _, taken := b.owner[p.ID]; !taken {
			out = append(out, p)
		}
	}
	return out
}

// Eligible returns the players team may pick next, filtered by search.
func (b *Board) Eligible(team string, search string) []model.Player {
	return eligibility.FilterEligiblePlayers(b.Players(), team, b.Picks(), search, b.totalSlots)
}

// CanSelect reports whether team still has an empty slot.
func (b *Board) CanSelect(team string) bool {
	return eligibility.CanSelect(team, b.Picks(), b.totalSlots)
}

// Ledger returns the budget position of team.
func (b *Board) Ledger(team string) Ledger {
	t := b.teams[team]
	spent := 0
	for c, pk := range b.picks {
		if c.Team == team {
			spent += pk.Cost
		}
	}
	return Ledger{Original: t.OriginalBudget, Remaining: t.Budget, Spent: spent}
}

// Complete reports whether every team has filled every slot. A board without teams is
// never complete.
func (b *Board) Complete() bool {
	if len(b.teams) == 0 {
		return false
	}
	for name := range b.teams {
		for slot := 1; slot <= b.totalSlots; slot++ {
			if _, ok := b.picks[Cell{Team: name, Slot: slot}]; !ok {
				return false
			}
		}
	}
	return true
}

// CheckPick validates a pick without applying it.
func (b *Board) CheckPick(team string, slot, playerID, cost int) error {
	const op = "draft.pick"
	if b.phase != Open {
		return errs.New(op, errs.ErrState, "the draft is finished")
	}
	if slot < 1 || slot > b.totalSlots {
		return errs.Newf(op, errs.ErrValidation, "slot must be between 1 and %d", b.totalSlots)
	}
	if cost < 0 {
		return errs.New(op, errs.ErrValidation, "cost must not be negative")
	}
	t, ok := b.teams[team]
	if !ok {
		return errs.Newf(op, errs.ErrNotFound, "team %q not found", team)
	}
	p, ok := b.players[playerID]
	if !ok {
		return errs.Newf(op, errs.ErrNotFound, "player %d not found", playerID)
	}
	if _, taken := b.owner[playerID]; taken {
		return &SlotError{Team: team, Slot: slot, Reason: p.Name + " is no longer available"}
	}
	if _, occupied := b.picks[Cell{Team: team, Slot: slot}]; occupied {
		return &SlotError{Team: team, Slot: slot, Reason: "slot is already filled"}
	}
	if !b.CanSelect(team) {
		return &SlotError{Team: team, Slot: slot, Reason: "roster is full"}
	}
	held := eligibility.HeldPositions(team, b.Picks(), b.players)
	if !eligibility.Allows(p.Position, held) {
		return &SlotError{Team: team, Slot: slot, Reason: "no roster spot left for another " + string(p.Position)}
	}
	if cost > t.Budget {
		return &BudgetError{Team: team, Cost: cost, Remaining: t.Budget}
	}
	return nil
}

// Pick assigns player to (team, slot) and charges cost against the team's budget.
func (b *Board) Pick(team string, slot, playerID, cost int) error {
	if err := b.CheckPick(team, slot, playerID, cost); err != nil {
		return err
	}
	b.place(model.DraftPick{Team: team, Slot: slot, PlayerID: playerID, Cost: cost})
	t := b.teams[team]
	t.Budget -= cost
	b.teams[team] = t
	return nil
}

// Place writes a pick without validation or budget changes. Replicas use it to mirror an
// authoritative pick; the budget arrives separately through Reconcile.
func (b *Board) Place(pk model.DraftPick) {
	if old, ok := b.picks[Cell{Team: pk.Team, Slot: pk.Slot}]; ok {
		delete(b.owner, old.PlayerID)
	}
	if prev, ok := b.owner[pk.PlayerID]; ok {
		delete(b.picks, prev)
	}
	b.place(pk)
}

func (b *Board) place(pk model.DraftPick) {
	c := Cell{Team: pk.Team, Slot: pk.Slot}
	b.picks[c] = pk
	b.owner[pk.PlayerID] = c
}

// Unpick clears (team, slot) and returns the player to the pool. The budget is not
// refunded here: the authoritative figure is recomputed by storage and applied with
// Reconcile.
func (b *Board) Unpick(team string, slot int) (model.DraftPick, error) {
	const op = "draft.unpick"
	if b.phase != Open {
		return model.DraftPick{}, errs.New(op, errs.ErrState, "the draft is finished")
	}
	pk, ok := b.picks[Cell{Team: team, Slot: slot}]
	if !ok {
		return model.DraftPick{}, errs.Newf(op, errs.ErrNotFound, "no pick in slot %d for %q", slot, team)
	}
	b.Clear(team, slot)
	return pk, nil
}

// Clear empties a cell without lifecycle checks. It is a no-op on an empty cell.
func (b *Board) Clear(team string, slot int) {
	c := Cell{Team: team, Slot: slot}
	if pk, ok := b.picks[c]; ok {
		delete(b.owner, pk.PlayerID)
		delete(b.picks, c)
	}
}

// Reconcile applies the authoritative remaining budget of team.
func (b *Board) Reconcile(team string, remaining int) {
	if t, ok := b.teams[team]; ok {
		t.Budget = remaining
		b.teams[team] = t
	}
}

// PutTeam inserts or replaces a team.
func (b *Board) PutTeam(t model.Team) {
	b.teams[t.Name] = t
}

// RenameTeam moves team old, and every pick it holds, to t.Name.
func (b *Board) RenameTeam(old string, t model.Team) {
	if old != t.Name {
		for c, pk := range b.picks {
			if c.Team != old {
				continue
			}
			delete(b.picks, c)
			pk.Team = t.Name
			b.place(pk)
		}
		delete(b.teams, old)
	}
	b.teams[t.Name] = t
}

// RemoveTeam deletes a team and its picks.
func (b *Board) RemoveTeam(name string) {
	for c, pk := range b.picks {
		if c.Team == name {
			delete(b.owner, pk.PlayerID)
			delete(b.picks, c)
		}
	}
	delete(b.teams, name)
}

// Finish closes the draft once every team has filled every slot.
func (b *Board) Finish() error {
	const op = "draft.finish"
	if b.phase == Finished {
		return errs.New(op, errs.ErrState, "the draft is already finished")
	}
	if !b.Complete() {
		return errs.New(op, errs.ErrState, "every team must fill every slot before the draft can finish")
	}
	b.phase = Finished
	return nil
}

// SetFinished forces the lifecycle flag. Replicas use it to mirror the server.
func (b *Board) SetFinished(finished bool) {
	if finished {
		b.phase = Finished
		return
	}
	b.phase = Open
}

// Reset reopens the draft, clears every pick and restores every team to budget.
// Confirmation belongs to the caller.
func (b *Board) Reset(budget int) {
	b.picks = make(map[Cell]model.DraftPick)
	b.owner = make(map[int]Cell)
	for name, t := range b.teams {
		t.Budget = budget
		t.OriginalBudget = budget
		b.teams[name] = t
	}
	b.phase = Open
}

// SetGlobalBudget sets every team's original budget to budget. Before any pick both fields
// become budget; afterwards the remaining figure is budget less what the team spent. It is
// rejected once the draft is finished or when a team already spent more than budget.
func (b *Board) SetGlobalBudget(budget int) error {
	const op = "draft.set_global_budget"
	if b.phase == Finished {
		return errs.New(op, errs.ErrState, "budgets cannot change after the draft is finished")
	}
	if budget < 0 {
		return errs.New(op, errs.ErrValidation, "budget must not be negative")
	}
	for name := range b.teams {
		if spent := b.Ledger(name).Spent; spent > budget {
			return errs.Newf(op, errs.ErrConflict, "%s has already spent $%d, more than $%d", name, spent, budget)
		}
	}
	for name, t := range b.teams {
		t.OriginalBudget = budget
		t.Budget = budget - b.Ledger(name).Spent
		b.teams[name] = t
	}
	return nil
}

// RecomputeBudget is the server-authoritative remaining budget: the original budget less
// the cost of every remaining pick.
func RecomputeBudget(original int, picks []model.DraftPick) int {
	remaining := original
	for _, pk := range picks {
		remaining -= pk.Cost
	}
	return remaining
}

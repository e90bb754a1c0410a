// Package eligibility decides which players a team may still draft.
//
// Everything here is a pure function of the current picks. Nothing is cached between
// calls, so evaluating after every pick always reflects the full draft state.
package eligibility

import (
	"strings"

	"github.com/okian/playoffdraft/internal/domain/model"
)

// baseAllowance is the number of dedicated roster spots per position. One extra flex spot
// is shared by every position except QB.
var baseAllowance = map[model.Position]int{
	model.QB:  1,
	model.RB:  1,
	model.WR:  2,
	model.K:   1,
	model.TE:  0,
	model.DST: 0,
}

// Counts is the number of held players per position for one team.
type Counts map[model.Position]int

// CountPositions tallies positions of the given players.
func CountPositions(held []model.Position) Counts {
	c := make(Counts, len(held))
	for _, p := range held {
		c[p]++
	}
	return c
}

// FlexUsed reports whether the single flex spot is already occupied: by any TE or DST, or
// by an RB/WR/K beyond its dedicated allowance.
func (c Counts) FlexUsed() bool {
	if c[model.TE] > 0 || c[model.DST] > 0 {
		return true
	}
	for _, p := range []model.Position{model.RB, model.WR, model.K} {
		if c[p] > baseAllowance[p] {
			return true
		}
	}
	return false
}

// Limit is the maximum number of players of position p the team may hold right now.
func (c Counts) Limit(p model.Position) int {
	limit := baseAllowance[p]
	if p != model.QB && p.Valid() && !c.FlexUsed() {
		limit++
	}
	return limit
}

// Allows reports whether one more player of position p keeps the roster legal.
func (c Counts) Allows(p model.Position) bool {
	if !p.Valid() {
		return false
	}
	return c[p] < c.Limit(p)
}

// Allows reports whether a team holding the given positions may add a player at p.
func Allows(p model.Position, held []model.Position) bool {
	return CountPositions(held).Allows(p)
}

// TeamPicks returns the non-empty picks of team.
func TeamPicks(team string, picks []model.DraftPick) []model.DraftPick {
	out := make([]model.DraftPick, 0, len(picks))
	for _, pk := range picks {
		if pk.Team == team && pk.PlayerID != 0 {
			out = append(out, pk)
		}
	}
	return out
}

// CanSelect is true iff team has fewer non-empty picks than totalSlots.
func CanSelect(team string, picks []model.DraftPick, totalSlots int) bool {
	return len(TeamPicks(team, picks)) < totalSlots
}

// Drafted returns the ids of every player held by any team.
func Drafted(picks []model.DraftPick) map[int]struct{} {
	out := make(map[int]struct{}, len(picks))
	for _, pk := range picks {
		if pk.PlayerID != 0 {
			out[pk.PlayerID] = struct{}{}
		}
	}
	return out
}

// HeldPositions resolves the positions of team's picks. Picks of unknown players are skipped.
func HeldPositions(team string, picks []model.DraftPick, players map[int]model.Player) []model.Position {
	held := make([]model.Position, 0, len(picks))
	for _, pk := range TeamPicks(team, picks) {
		if p, ok := players[pk.PlayerID]; ok {
			held = append(held, p.Position)
		}
	}
	return held
}

// FilterEligiblePlayers returns the players team may pick next. It drops anyone already
// drafted, then anyone not matching search (case-insensitive against name, position and
// NFL team), then anyone whose position cap is reached. A full roster yields no players.
func FilterEligiblePlayers(all []model.Player, team string, picks []model.DraftPick, search string, totalSlots int) []model.Player {
	if !CanSelect(team, picks, totalSlots) {
		return []model.Player{}
	}

	byID := make(map[int]model.Player, len(all))
	for _, p := range all {
		byID[p.ID] = p
	}
	drafted := Drafted(picks)
	counts := CountPositions(HeldPositions(team, picks, byID))
	needle := strings.ToLower(strings.TrimSpace(search))

	out := make([]model.Player, 0, len(all))
	for _, p := range all {
		if _, taken := drafted[p.ID]; taken {
			continue
		}
		if needle != "" && !matches(p, needle) {
			continue
		}
		if !counts.Allows(p.Position) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matches(p model.Player, needle string) bool {
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.ToLower(string(p.Position)) == needle ||
		(p.NFLTeam != "" && strings.Contains(strings.ToLower(p.NFLTeam), needle))
}

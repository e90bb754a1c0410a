// Package realtime defines the broadcast event contract between the server and connected
// clients, and the client-side replica that applies it.
//
// Delivery is at-least-once and broadcast-to-others. Applying an event is idempotent and
// last-write-wins per key, so a replica converges by replaying whatever it receives.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/playoffdraft/internal/domain/model"
)

// Type names an event on the wire.
type Type string

// Event types.
const (
	TypeDraftPick   Type = "draftPickUpdate"
	TypePlayerScore Type = "playerScoreUpdate"
	TypeDraftStatus Type = "draftStatusUpdate"
	TypeTeam        Type = "teamUpdate"
)

// Actions carried by draftPickUpdate and teamUpdate payloads.
const (
	ActionAdd              = "add"
	ActionUpdate           = "update"
	ActionRemove           = "remove"
	ActionDelete           = "delete"
	ActionUpdateAllBudgets = "update_all_budgets"
)

// ScoringRulesUpdate marks a playerScoreUpdate that asks clients to reload every score of
// one position.
const ScoringRulesUpdate = "scoring_rules_update"

// Event is one broadcast message. Origin is the client that caused it and is excluded from
// delivery. Seq is assigned by the event log on publish.
type Event struct {
	ID      string          `json:"id"`
	Seq     uint64          `json:"seq,omitempty"`
	Type    Type            `json:"type"`
	Origin  string          `json:"origin,omitempty"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

// Publisher delivers events to every subscriber except the origin.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// PlayerRef is the player summary embedded in pick events.
type PlayerRef struct {
	ID       int            `json:"id"`
	Name     string         `json:"name"`
	Position model.Position `json:"position"`
}

// DraftPickUpdate upserts or clears one (team, slot) cell.
type DraftPickUpdate struct {
	Action string     `json:"action"`
	Team   string     `json:"team"`
	Slot   int        `json:"slot"`
	Player *PlayerRef `json:"player,omitempty"`
	Cost   *int       `json:"cost,omitempty"`
}

// PlayerScoreUpdate upserts or deletes one (player, round) record. With Type set to
// ScoringRulesUpdate it only names the Position whose scores must be reloaded.
type PlayerScoreUpdate struct {
	Round        model.Round        `json:"round,omitempty"`
	PlayerName   string             `json:"playerName"`
	PlayerID     int                `json:"playerId"`
	ScoreData    *model.ScoreData   `json:"scoreData,omitempty"`
	IsDeleted    bool               `json:"isDeleted"`
	IsDisabled   bool               `json:"isDisabled"`
	StatusReason model.StatusReason `json:"statusReason"`
	Score        int                `json:"score"`
	Type         string             `json:"type,omitempty"`
	Position     model.Position     `json:"position,omitempty"`
}

// DraftStatusUpdate sets the global draft flag.
type DraftStatusUpdate struct {
	IsDraftFinished bool `json:"isDraftFinished"`
}

// TeamUpdate upserts or deletes a team, or sets every team's budget.
type TeamUpdate struct {
	Action   string      `json:"action"`
	Team     *model.Team `json:"team,omitempty"`
	TeamName string      `json:"teamName,omitempty"`
	Budget   *int        `json:"budget,omitempty"`
}

// NewEvent wraps payload in an event with a fresh ID.
func NewEvent(typ Type, origin string, at time.Time, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return Event{
		ID:      uuid.NewString(),
		Type:    typ,
		Origin:  origin,
		At:      at.UTC(),
		Payload: raw,
	}, nil
}

// NewDraftPickEvent builds a draftPickUpdate event.
func NewDraftPickEvent(origin string, at time.Time, p DraftPickUpdate) (Event, error) {
	return NewEvent(TypeDraftPick, origin, at, p)
}

// NewPlayerScoreEvent builds a playerScoreUpdate event.
func NewPlayerScoreEvent(origin string, at time.Time, p PlayerScoreUpdate) (Event, error) {
	return NewEvent(TypePlayerScore, origin, at, p)
}

// NewRulesReloadEvent builds the playerScoreUpdate variant that asks clients to reload the
// scores of pos.
func NewRulesReloadEvent(origin string, at time.Time, pos model.Position) (Event, error) {
	return NewEvent(TypePlayerScore, origin, at, PlayerScoreUpdate{Type: ScoringRulesUpdate, Position: pos})
}

// NewDraftStatusEvent builds a draftStatusUpdate event.
func NewDraftStatusEvent(origin string, at time.Time, finished bool) (Event, error) {
	return NewEvent(TypeDraftStatus, origin, at, DraftStatusUpdate{IsDraftFinished: finished})
}

// NewTeamEvent builds a teamUpdate event.
func NewTeamEvent(origin string, at time.Time, p TeamUpdate) (Event, error) {
	return NewEvent(TypeTeam, origin, at, p)
}

// Decode unmarshals the payload of ev into T.
func Decode[T any](ev Event) (T, error) {
	var out T
	if err := json.Unmarshal(ev.Payload, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", ev.Type, err)
	}
	return out, nil
}

// ScoreUpdateFrom converts a stored record into its broadcast payload.
func ScoreUpdateFrom(rec model.PlayerScore, playerName string) PlayerScoreUpdate {
	return PlayerScoreUpdate{
		Round:        rec.Round,
		PlayerName:   playerName,
		PlayerID:     rec.PlayerID,
		ScoreData:    rec.Data,
		IsDisabled:   rec.Disabled,
		StatusReason: rec.Reason,
		Score:        rec.Score,
	}
}

// ScoreDeletedFrom is the payload announcing that (player, round) has no record.
func ScoreDeletedFrom(playerID int, round model.Round, playerName string) PlayerScoreUpdate {
	return PlayerScoreUpdate{Round: round, PlayerName: playerName, PlayerID: playerID, IsDeleted: true}
}

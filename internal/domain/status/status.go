// Package status implements the per-(player, round) score state machine.
//
// Transitions are pure: they read an immutable Snapshot and return a Patch describing the
// rows to write. Storage applies the patch atomically; Snapshot.Apply produces the next
// snapshot for callers that keep one in memory.
package status

import (
	"maps"
	"slices"
	"sort"

	"github.com/okian/playoffdraft/internal/domain/errs"
	"github.com/okian/playoffdraft/internal/domain/model"
)

// Key addresses one stored score record.
type Key struct {
	PlayerID int
	Round    model.Round
}

// KeyOf returns the key of a record.
func KeyOf(rec model.PlayerScore) Key {
	return Key{PlayerID: rec.PlayerID, Round: rec.Round}
}

// State is the status of one (player, round).
type State int

// States.
const (
	Unscored State = iota
	Scored
	Disabled
)

func (s State) String() string {
	switch s {
	case Scored:
		return "scored"
	case Disabled:
		return "disabled"
	default:
		return "unscored"
	}
}

// StateOf classifies a stored record. A nil record is Unscored.
func StateOf(rec *model.PlayerScore) State {
	switch {
	case rec == nil:
		return Unscored
	case rec.Disabled:
		return Disabled
	default:
		return Scored
	}
}

// Snapshot is an immutable view of stored score records.
type Snapshot struct {
	records map[Key]model.PlayerScore
}

// NewSnapshot indexes records. Later duplicates of a key win.
func NewSnapshot(records []model.PlayerScore) Snapshot {
	m := make(map[Key]model.PlayerScore, len(records))
	for _, r := range records {
		m[KeyOf(r)] = r
	}
	return Snapshot{records: m}
}

// Get returns the record for (player, round).
func (s Snapshot) Get(playerID int, round model.Round) (model.PlayerScore, bool) {
	r, ok := s.records[Key{PlayerID: playerID, Round: round}]
	return r, ok
}

// State returns the state of (player, round).
func (s Snapshot) State(playerID int, round model.Round) State {
	r, ok := s.Get(playerID, round)
	if !ok {
		return Unscored
	}
	return StateOf(&r)
}

// Len is the number of stored records.
func (s Snapshot) Len() int { return len(s.records) }

// Records lists every record ordered by round then player.
func (s Snapshot) Records() []model.PlayerScore {
	out := slices.Collect(maps.Values(s.records))
	sort.Slice(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out
}

// Apply returns the snapshot with patch applied. s is unchanged.
func (s Snapshot) Apply(p Patch) Snapshot {
	next := make(map[Key]model.PlayerScore, len(s.records)+len(p))
	maps.Copy(next, s.records)
	for _, op := range p {
		switch op.Kind {
		case Upsert:
			next[op.Key()] = op.Record
		case Delete:
			delete(next, op.Key())
		}
	}
	return Snapshot{records: next}
}

// OpKind is the kind of a patch operation.
type OpKind int

// Operation kinds.
const (
	Upsert OpKind = iota + 1
	Delete
)

func (k OpKind) String() string {
	if k == Delete {
		return "delete"
	}
	return "upsert"
}

// Op writes or removes one record. Delete ops only use the record's key.
type Op struct {
	Kind   OpKind
	Record model.PlayerScore
}

// Key returns the record key the op touches.
func (o Op) Key() Key { return KeyOf(o.Record) }

// Patch is an ordered list of writes.
type Patch []Op

// Empty reports whether the patch writes nothing.
func (p Patch) Empty() bool { return len(p) == 0 }

// Save stores score data for (player, round). Unscored and Scored records move to Scored;
// a Disabled record must be reactivated first.
func Save(s Snapshot, playerID int, round model.Round, data *model.ScoreData, score int) (Patch, error) {
	const op = "status.save"
	if err := checkRound(op, round); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errs.New(op, errs.ErrValidation, "score data is required")
	}
	if s.State(playerID, round) == Disabled {
		return nil, errs.New(op, errs.ErrState, "player is disabled for this round; reactivate before entering scores")
	}
	return Patch{{Kind: Upsert, Record: model.PlayerScore{
		PlayerID: playerID,
		Round:    round,
		Score:    score,
		Data:     data.Clone(),
	}}}, nil
}

// Clear deletes a Scored record. Clearing an absent record is a no-op; Disabled records
// leave through Reactivate.
func Clear(s Snapshot, playerID int, round model.Round) (Patch, error) {
	const op = "status.clear"
	if err := checkRound(op, round); err != nil {
		return nil, err
	}
	switch s.State(playerID, round) {
	case Unscored:
		return nil, nil
	case Disabled:
		return nil, errs.New(op, errs.ErrState, "player is disabled for this round; reactivate instead")
	}
	return Patch{deleteOp(playerID, round)}, nil
}

// Disable marks (player, round) as not scoring. Only Unscored players can be disabled. In
// the Wild Card round the reason is dropped; later rounds require one, and eliminated
// cascades to every later round, overwriting whatever is stored there.
func Disable(s Snapshot, playerID int, round model.Round, reason model.StatusReason) (Patch, error) {
	const op = "status.disable"
	if err := checkRound(op, round); err != nil {
		return nil, err
	}
	switch s.State(playerID, round) {
	case Scored:
		return nil, errs.New(op, errs.ErrState, "clear the player's scores before disabling")
	case Disabled:
		return nil, errs.New(op, errs.ErrState, "player is already disabled for this round")
	}
	if round == model.WildCard {
		return Patch{disabledOp(playerID, round, model.ReasonNone)}, nil
	}
	switch reason {
	case model.ReasonNotPlaying:
		return Patch{disabledOp(playerID, round, reason)}, nil
	case model.ReasonEliminated:
		p := Patch{disabledOp(playerID, round, reason)}
		for _, later := range round.After() {
			p = append(p, disabledOp(playerID, later, reason))
		}
		return p, nil
	}
	return nil, errs.Newf(op, errs.ErrValidation, "reason must be %q or %q after the wild card round", model.ReasonEliminated, model.ReasonNotPlaying)
}

// Reactivate returns a Disabled player to Unscored by deleting the row. An Unscored player
// yields an empty patch.
func Reactivate(s Snapshot, playerID int, round model.Round) (Patch, error) {
	const op = "status.reactivate"
	if err := checkRound(op, round); err != nil {
		return nil, err
	}
	switch s.State(playerID, round) {
	case Unscored:
		return nil, nil
	case Scored:
		return nil, errs.New(op, errs.ErrState, "player is not disabled for this round")
	}
	return Patch{deleteOp(playerID, round)}, nil
}

// Accessible reports which rounds can be opened. The Wild Card round always can; a later
// round can once the round before it is accessible and every drafted player is Scored or
// Disabled in it.
func Accessible(s Snapshot, drafted []int) map[model.Round]bool {
	out := make(map[model.Round]bool, 4)
	open := true
	for _, r := range model.Rounds() {
		out[r] = open
		if !open {
			continue
		}
		for _, id := range drafted {
			if s.State(id, r) == Unscored {
				open = false
				break
			}
		}
	}
	return out
}

func disabledOp(playerID int, round model.Round, reason model.StatusReason) Op {
	return Op{Kind: Upsert, Record: model.PlayerScore{
		PlayerID: playerID,
		Round:    round,
		Disabled: true,
		Reason:   reason,
	}}
}

func deleteOp(playerID int, round model.Round) Op {
	return Op{Kind: Delete, Record: model.PlayerScore{PlayerID: playerID, Round: round}}
}

func checkRound(op string, r model.Round) error {
	if !r.Valid() {
		return errs.Newf(op, errs.ErrValidation, "unknown round %d", int(r))
	}
	return nil
}

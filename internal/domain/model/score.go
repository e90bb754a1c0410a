package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Round is a playoff round. Values order the fixed sequence.
type Round int

// Playoff rounds in order.
const (
	WildCard Round = iota + 1
	Divisional
	Conference
	Superbowl
)

var roundNames = map[Round]string{
	WildCard:   "wildcard",
	Divisional: "divisional",
	Conference: "conference",
	Superbowl:  "superbowl",
}

// Rounds returns the fixed playoff sequence.
func Rounds() []Round {
	return []Round{WildCard, Divisional, Conference, Superbowl}
}

func (r Round) String() string {
	if n, ok := roundNames[r]; ok {
		return n
	}
	return fmt.Sprintf("round(%d)", int(r))
}

// Valid reports whether r is one of the four playoff rounds.
func (r Round) Valid() bool {
	_, ok := roundNames[r]
	return ok
}

// After returns every round that follows r, in order.
func (r Round) After() []Round {
	out := make([]Round, 0, 3)
	for _, next := range Rounds() {
		if next > r {
			out = append(out, next)
		}
	}
	return out
}

// Previous returns the round before r and false for the Wild Card round.
func (r Round) Previous() (Round, bool) {
	if r <= WildCard || !r.Valid() {
		return 0, false
	}
	return r - 1, true
}

// ParseRound accepts the round name (case and separator insensitive) or its ordinal.
func ParseRound(s string) (Round, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(v)
	for r, n := range roundNames {
		if n == v {
			return r, nil
		}
	}
	if v == "superbowl" || v == "sb" {
		return Superbowl, nil
	}
	if n, err := strconv.Atoi(v); err == nil && Round(n).Valid() {
		return Round(n), nil
	}
	return 0, fmt.Errorf("unknown round %q", s)
}

func (r Round) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Round) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int
		if err2 := json.Unmarshal(b, &n); err2 != nil {
			return fmt.Errorf("round must be a string or number: %w", err)
		}
		s = strconv.Itoa(n)
	}
	parsed, err := ParseRound(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// StatusReason explains why a player is disabled for a round.
type StatusReason string

// Status reasons. ReasonNone is used for Wild Card byes and active players.
const (
	ReasonNone       StatusReason = ""
	ReasonEliminated StatusReason = "eliminated"
	ReasonNotPlaying StatusReason = "notPlaying"
)

// ParseStatusReason validates a reason coming from a client.
func ParseStatusReason(s string) (StatusReason, error) {
	switch StatusReason(strings.TrimSpace(s)) {
	case ReasonNone:
		return ReasonNone, nil
	case ReasonEliminated:
		return ReasonEliminated, nil
	case ReasonNotPlaying:
		return ReasonNotPlaying, nil
	}
	return "", fmt.Errorf("unknown status reason %q", s)
}

// PlayerScore is the stored result for one (player, round).
type PlayerScore struct {
	PlayerID int          `json:"playerId"`
	Round    Round        `json:"round"`
	Disabled bool         `json:"isDisabled"`
	Reason   StatusReason `json:"statusReason,omitempty"`
	Score    int          `json:"score"`
	Data     *ScoreData   `json:"scoreData,omitempty"`
}

// FieldGoalsKey is the JSON key carrying per-kick yardages.
const FieldGoalsKey = "fieldGoals"

// ScoreData is the raw per-round statistics entered for a player. Values are kept as the
// strings the user typed; the calculator coerces them.
type ScoreData struct {
	Fields     map[string]string
	FieldGoals []string
}

// NewScoreData builds score data from alternating key/value pairs.
func NewScoreData(kv ...string) *ScoreData {
	d := &ScoreData{Fields: make(map[string]string, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		d.Fields[kv[i]] = kv[i+1]
	}
	return d
}

// Get returns the raw value of a field and whether it was present.
func (d *ScoreData) Get(field string) (string, bool) {
	if d == nil || d.Fields == nil {
		return "", false
	}
	v, ok := d.Fields[field]
	return v, ok
}

// Clone returns a deep copy.
func (d *ScoreData) Clone() *ScoreData {
	if d == nil {
		return nil
	}
	return &ScoreData{Fields: maps.Clone(d.Fields), FieldGoals: slices.Clone(d.FieldGoals)}
}

// Equal compares two score payloads field by field.
func (d *ScoreData) Equal(o *ScoreData) bool {
	if d == nil || o == nil {
		return d == nil && o == nil
	}
	return maps.Equal(d.Fields, o.Fields) && slices.Equal(d.FieldGoals, o.FieldGoals)
}

// MarshalJSON writes a flat object: {"touchdowns":"3", ..., "fieldGoals":["45"]}.
func (d ScoreData) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+1)
	for k, v := range d.Fields {
		out[k] = v
	}
	if len(d.FieldGoals) > 0 {
		out[FieldGoalsKey] = d.FieldGoals
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts string or number values and normalizes them to strings.
func (d *ScoreData) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("score data must be an object: %w", err)
	}
	d.Fields = make(map[string]string, len(raw))
	d.FieldGoals = nil
	for k, v := range raw {
		if k == FieldGoalsKey {
			var items []json.RawMessage
			if err := json.Unmarshal(v, &items); err != nil {
				return fmt.Errorf("%s must be an array: %w", FieldGoalsKey, err)
			}
			for _, it := range items {
				s, err := scalarString(it)
				if err != nil {
					return fmt.Errorf("%s: %w", FieldGoalsKey, err)
				}
				d.FieldGoals = append(d.FieldGoals, s)
			}
			continue
		}
		s, err := scalarString(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", k, err)
		}
		d.Fields[k] = s
	}
	return nil
}

func scalarString(v json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", fmt.Errorf("value must be a string or number")
	}
	return n.String(), nil
}

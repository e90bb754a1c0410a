// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Position is one of the six roster position tags.
type Position string

// Position tags.
const (
	QB  Position = "QB"
	RB  Position = "RB"
	WR  Position = "WR"
	TE  Position = "TE"
	K   Position = "K"
	DST Position = "DST"
)

// Positions returns every position in display order.
func Positions() []Position {
	return []Position{QB, RB, WR, TE, K, DST}
}

// Valid reports whether p is one of the six known tags.
func (p Position) Valid() bool {
	switch p {
	case QB, RB, WR, TE, K, DST:
		return true
	}
	return false
}

// ParsePosition parses a position tag case-insensitively. "D/ST" and "DEF" map to DST.
func ParsePosition(s string) (Position, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch v {
	case "D/ST", "DEF":
		v = string(DST)
	}
	p := Position(v)
	if !p.Valid() {
		return "", fmt.Errorf("unknown position %q", s)
	}
	return p, nil
}

// Player is an NFL player eligible for the draft. Players are immutable once seeded.
type Player struct {
	ID       int      `json:"id" koanf:"id"`
	Name     string   `json:"name" koanf:"name"`
	Position Position `json:"position" koanf:"position"`
	NFLTeam  string   `json:"teamName,omitempty" koanf:"team"`
}

// Team is a fantasy team. Name is unique and acts as the key.
type Team struct {
	Name           string `json:"name"`
	Budget         int    `json:"budget"`
	OriginalBudget int    `json:"originalBudget"`
}

// DraftPick assigns a player to one roster slot of a team.
type DraftPick struct {
	Team     string `json:"team"`
	Slot     int    `json:"slot"`
	PlayerID int    `json:"playerId"`
	Cost     int    `json:"cost"`
}

// DraftStatus is the single global draft flag.
type DraftStatus struct {
	Finished bool `json:"isDraftFinished"`
}

// ScoringRule is one (position, category) coefficient.
type ScoringRule struct {
	Position    Position `json:"position"`
	Category    string   `json:"category"`
	Value       float64  `json:"value"`
	Description string   `json:"description"`
}

// Permission holds the per-user capability flags.
type Permission struct {
	UserID     string `json:"userId"`
	EditScores bool   `json:"editScores"`
	IsAdmin    bool   `json:"isAdmin"`
}

// CanEditScores reports whether the user may enter or change scores.
func (p Permission) CanEditScores() bool {
	return p.EditScores || p.IsAdmin
}

package config

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/playoffdraft/internal/domain/model"
)

// LoadPlayers reads the player pool from a YAML file of the form
//
//	players:
//	  - {id: 1, name: Patrick Mahomes, position: QB, team: KC}
//
// Positions are normalized; ids must be positive and unique.
func LoadPlayers(_ context.Context, path string) ([]model.Player, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
	}
	var players []model.Player
	if err := k.UnmarshalWithConf("players", &players, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPlayers, path, err)
	}

	seen := make(map[int]bool, len(players))
	for i := range players {
		p := &players[i]
		if p.ID <= 0 || p.Name == "" {
			return nil, fmt.Errorf("%w: %s: player %d needs an id and a name", ErrInvalidPlayers, path, i+1)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: %s: duplicate player id %d", ErrInvalidPlayers, path, p.ID)
		}
		seen[p.ID] = true
		pos, err := model.ParsePosition(string(p.Position))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: player %d: %v", ErrInvalidPlayers, path, p.ID, err)
		}
		p.Position = pos
	}
	return players, nil
}

package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig marks a configuration that loaded but does not validate.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig marks a source (file, env, dotenv) that could not be read.
	ErrLoadConfig = errors.New("load config failed")
	// ErrInvalidPlayers marks a player pool file with bad entries. It is an ErrInvalidConfig.
	ErrInvalidPlayers = fmt.Errorf("%w: player pool", ErrInvalidConfig)
)

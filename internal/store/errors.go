package store

import "errors"

var (
	// ErrNameInUse is returned when a joining player's name already
	// exists in the target game's roster.
	ErrNameInUse = errors.New("NAME_IN_USE")

	// ErrGameNotFound is returned for lookups of unknown game ids.
	ErrGameNotFound = errors.New("game not found")

	// ErrPlayerNotFound is returned when removing a player that is not
	// on the roster.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrGameFull is returned when an add races the game to capacity.
	ErrGameFull = errors.New("game full")
)

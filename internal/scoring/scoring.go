// Package scoring holds the pure score and difficulty math. No I/O.
package scoring

import "github.com/Stackato-Apps/multisweeper/internal/domain"

// BombPenalty is the fixed score amount applied (times the current
// multiplier) when a player reveals a mine, on top of any reveal credit
// earned the same turn.
const BombPenalty = -5

// Adjust adds amount*multiplier to the score of the named player. Unknown
// names are a no-op; a score adjustment never creates a roster entry.
func Adjust(players []*domain.Player, playerName string, amount, multiplier int) {
	for _, p := range players {
		if p.PlayerName == playerName {
			p.Score += amount * multiplier
		}
	}
}

// Multiplier derives the difficulty multiplier from the fraction of the
// board revealed: ceil(revealed*10 / (width*height)).
func Multiplier(revealed, width, height int) int {
	cells := width * height
	if cells <= 0 {
		return 0
	}
	return (revealed*10 + cells - 1) / cells
}

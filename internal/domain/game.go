package domain

import "github.com/Stackato-Apps/multisweeper/internal/board"

// Player is one roster entry of a game. Names are unique within a game.
type Player struct {
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
}

// Game is one multiplayer match: a board plus its roster and the scoring
// multiplier. The store is the single authority for it; handlers fetch,
// mutate locally and write back.
type Game struct {
	GameID     string       `json:"gameId"`
	Players    []*Player    `json:"players"`
	Board      *board.Board `json:"board"`
	Multiplier int          `json:"multiplier"`
	Ended      bool         `json:"ended"`
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Active reports the board status string clients render.
func (g *Game) Active() string {
	if g.Board != nil && g.Board.Started {
		return StatusActive
	}
	return StatusInactive
}

// Player returns the roster entry with the given name, or nil.
func (g *Game) Player(name string) *Player {
	for _, p := range g.Players {
		if p.PlayerName == name {
			return p
		}
	}
	return nil
}

package domain

import "time"

// ScoreEntry is one posted final score.
type ScoreEntry struct {
	ID         int64     `db:"id" json:"id"`
	GameID     string    `db:"game_id" json:"game_id"`
	PlayerName string    `db:"player_name" json:"player_name"`
	Score      int       `db:"score" json:"score"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

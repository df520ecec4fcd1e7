package repository

import (
	"context"

	"github.com/Stackato-Apps/multisweeper/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ScoreRepository struct {
	db *pgxpool.Pool
}

func NewScoreRepository(db *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// PostScores records the final roster of a completed game, one row per
// player.
func (r *ScoreRepository) PostScores(ctx context.Context, gameID string, players []*domain.Player) error {
	for _, p := range players {
		_, err := r.db.Exec(ctx,
			`INSERT INTO scores (game_id, player_name, score)
			 VALUES ($1, $2, $3)`,
			gameID, p.PlayerName, p.Score,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetTop returns the highest posted scores, newest first among ties.
func (r *ScoreRepository) GetTop(ctx context.Context, limit int) ([]*domain.ScoreEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, game_id, player_name, score, created_at
		 FROM scores
		 ORDER BY score DESC, created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.ScoreEntry
	for rows.Next() {
		e := &domain.ScoreEntry{}
		if err := rows.Scan(&e.ID, &e.GameID, &e.PlayerName, &e.Score, &e.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// Package store owns the authoritative game records in Redis. Handlers
// never mutate shared state except through it: roster changes and the end
// flag go through WATCH transactions so concurrent read-modify-write on the
// same game cannot interleave, plain board updates are last-write-wins.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Stackato-Apps/multisweeper/internal/board"
	"github.com/Stackato-Apps/multisweeper/internal/domain"
	"github.com/Stackato-Apps/multisweeper/internal/logger"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const (
	openGamesKey = "games:open"
	gameTTL      = 24 * time.Hour
	txRetries    = 5
)

// Options carry the geometry applied to newly created games.
type Options struct {
	BoardWidth  int
	BoardHeight int
	MineCount   int
	MaxPlayers  int
}

type Redis struct {
	client *redis.Client
	opts   Options
}

func NewRedis(client *redis.Client, opts Options) *Redis {
	return &Redis{client: client, opts: opts}
}

// Connect creates and pings a Redis client.
func Connect(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

func gameKey(id string) string {
	return "game:" + id
}

// AvailableGame returns a game that is not started and not full, creating
// a fresh one when none qualifies. Stale ids in the open set are pruned as
// they are encountered.
func (s *Redis) AvailableGame(ctx context.Context) (*domain.Game, error) {
	ids, err := s.client.SMembers(ctx, openGamesKey).Result()
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		g, err := s.Game(ctx, id)
		if errors.Is(err, ErrGameNotFound) {
			s.client.SRem(ctx, openGamesKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if g.Ended || g.Board.Started || len(g.Players) >= s.opts.MaxPlayers {
			s.client.SRem(ctx, openGamesKey, id)
			continue
		}
		return g, nil
	}

	return s.createGame(ctx)
}

func (s *Redis) createGame(ctx context.Context) (*domain.Game, error) {
	g := &domain.Game{
		GameID:     uuid.NewString(),
		Players:    []*domain.Player{},
		Board:      board.New(s.opts.BoardWidth, s.opts.BoardHeight, s.opts.MineCount),
		Multiplier: 1,
	}

	if err := s.set(ctx, s.client, g); err != nil {
		return nil, err
	}
	if err := s.client.SAdd(ctx, openGamesKey, g.GameID).Err(); err != nil {
		return nil, err
	}

	logger.Info("created game", "game_id", g.GameID, "width", g.Board.Width, "height", g.Board.Height)
	return g, nil
}

// Game fetches a game record by id.
func (s *Redis) Game(ctx context.Context, gameID string) (*domain.Game, error) {
	raw, err := s.client.Get(ctx, gameKey(gameID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}

	var g domain.Game
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// AddPlayer appends a fresh roster entry under a WATCH transaction so the
// unique-name invariant holds against concurrent joins.
func (s *Redis) AddPlayer(ctx context.Context, gameID, playerName string) (*domain.Game, *domain.Player, error) {
	var g *domain.Game
	var p *domain.Player

	err := s.watch(ctx, gameID, func(tx *redis.Tx) error {
		var err error
		g, err = s.getTx(ctx, tx, gameID)
		if err != nil {
			return err
		}

		if g.Player(playerName) != nil {
			return ErrNameInUse
		}
		if len(g.Players) >= s.opts.MaxPlayers {
			return ErrGameFull
		}

		p = &domain.Player{PlayerName: playerName}
		g.Players = append(g.Players, p)

		full := len(g.Players) >= s.opts.MaxPlayers

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if err := s.setPipe(ctx, pipe, g); err != nil {
				return err
			}
			if full {
				pipe.SRem(ctx, openGamesKey, gameID)
			}
			return nil
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return g, p, nil
}

// ReactivatePlayer restores the named player's roster entry for a rejoin,
// re-adding it with a zero score if it no longer exists.
func (s *Redis) ReactivatePlayer(ctx context.Context, gameID, playerName string) (*domain.Game, *domain.Player, error) {
	var g *domain.Game
	var p *domain.Player

	err := s.watch(ctx, gameID, func(tx *redis.Tx) error {
		var err error
		g, err = s.getTx(ctx, tx, gameID)
		if err != nil {
			return err
		}

		p = g.Player(playerName)
		if p == nil {
			p = &domain.Player{PlayerName: playerName}
			g.Players = append(g.Players, p)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return s.setPipe(ctx, pipe, g)
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return g, p, nil
}

// RemovePlayer deletes the named roster entry. A not-started game with
// room again becomes joinable.
func (s *Redis) RemovePlayer(ctx context.Context, gameID, playerName string) (*domain.Game, *domain.Player, error) {
	var g *domain.Game
	var p *domain.Player

	err := s.watch(ctx, gameID, func(tx *redis.Tx) error {
		var err error
		g, err = s.getTx(ctx, tx, gameID)
		if err != nil {
			return err
		}

		idx := -1
		for i, pl := range g.Players {
			if pl.PlayerName == playerName {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrPlayerNotFound
		}

		p = g.Players[idx]
		g.Players = append(g.Players[:idx], g.Players[idx+1:]...)

		reopen := !g.Ended && !g.Board.Started && len(g.Players) < s.opts.MaxPlayers

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if err := s.setPipe(ctx, pipe, g); err != nil {
				return err
			}
			if reopen {
				pipe.SAdd(ctx, openGamesKey, gameID)
			}
			return nil
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return g, p, nil
}

// UpdateGame writes the full record back. Board mutations ride on this;
// per the coordinator's contract the last write wins.
func (s *Redis) UpdateGame(ctx context.Context, g *domain.Game) error {
	return s.set(ctx, s.client, g)
}

// EndGame flips the ended flag under WATCH and reports whether this caller
// made the transition. Only the first caller gets true, so end-of-game side
// effects can run exactly once even when final moves race.
func (s *Redis) EndGame(ctx context.Context, gameID string) (bool, error) {
	first := false

	err := s.watch(ctx, gameID, func(tx *redis.Tx) error {
		g, err := s.getTx(ctx, tx, gameID)
		if err != nil {
			return err
		}

		if g.Ended {
			first = false
			return nil
		}

		g.Ended = true
		first = true

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if err := s.setPipe(ctx, pipe, g); err != nil {
				return err
			}
			pipe.SRem(ctx, openGamesKey, gameID)
			return nil
		})
		return err
	})
	if err != nil {
		return false, err
	}
	return first, nil
}

func (s *Redis) watch(ctx context.Context, gameID string, fn func(tx *redis.Tx) error) error {
	var err error
	for i := 0; i < txRetries; i++ {
		err = s.client.Watch(ctx, fn, gameKey(gameID))
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func (s *Redis) getTx(ctx context.Context, tx *redis.Tx, gameID string) (*domain.Game, error) {
	raw, err := tx.Get(ctx, gameKey(gameID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}

	var g domain.Game
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Redis) set(ctx context.Context, c redis.Cmdable, g *domain.Game) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return c.Set(ctx, gameKey(g.GameID), raw, gameTTL).Err()
}

func (s *Redis) setPipe(ctx context.Context, pipe redis.Pipeliner, g *domain.Game) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	pipe.Set(ctx, gameKey(g.GameID), raw, gameTTL)
	return nil
}

// Package session is the coordinator between live connections and the
// authoritative game store. Each inbound event is handled to completion:
// one store read, zero or more store writes, then a direct emit to the
// acting connection and a broadcast to the rest of its room. Failures
// degrade to a silent drop or an explicit failure event, never a crash.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Stackato-Apps/multisweeper/internal/domain"
	"github.com/Stackato-Apps/multisweeper/internal/logger"
	"github.com/Stackato-Apps/multisweeper/internal/metrics"
	"github.com/Stackato-Apps/multisweeper/internal/scoring"
	"github.com/Stackato-Apps/multisweeper/internal/store"
)

// GameStore is the single authority for game records. The coordinator
// re-reads before every mutation and writes the full record back.
type GameStore interface {
	AvailableGame(ctx context.Context) (*domain.Game, error)
	Game(ctx context.Context, gameID string) (*domain.Game, error)
	AddPlayer(ctx context.Context, gameID, playerName string) (*domain.Game, *domain.Player, error)
	ReactivatePlayer(ctx context.Context, gameID, playerName string) (*domain.Game, *domain.Player, error)
	RemovePlayer(ctx context.Context, gameID, playerName string) (*domain.Game, *domain.Player, error)
	UpdateGame(ctx context.Context, g *domain.Game) error
	EndGame(ctx context.Context, gameID string) (bool, error)
}

// Conn is one connected client: a direct emit channel plus the room
// fan-out capability the transport provides.
type Conn interface {
	Emit(event string, data any)
	JoinRoom(gameID string)
	LeaveRoom(gameID string)
	Broadcast(gameID, event string, data any)
}

// ScorePoster receives the final roster of a completed game.
type ScorePoster interface {
	PostScores(ctx context.Context, gameID string, players []*domain.Player) error
}

type Coordinator struct {
	store  GameStore
	scores ScorePoster // nil disables score posting
}

func New(gs GameStore, scores ScorePoster) *Coordinator {
	return &Coordinator{store: gs, scores: scores}
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Dispatch routes one raw inbound message to its handler. Malformed
// messages and unknown events are dropped.
func (c *Coordinator) Dispatch(ctx context.Context, conn Conn, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Debug("dropping malformed message", "error", err)
		return
	}

	switch env.Event {
	case EventJoin:
		c.handleJoin(ctx, conn, env.Data)
	case EventRejoin:
		c.handleRejoin(ctx, conn, env.Data)
	case EventLeave:
		c.handleLeave(ctx, conn, env.Data)
	case EventChat:
		c.handleChat(ctx, conn, env.Data)
	case EventStart:
		c.handleStart(ctx, conn, env.Data)
	case EventFlag:
		c.handleFlag(ctx, conn, env.Data)
	case EventTurn:
		c.handleTurn(ctx, conn, env.Data)
	default:
		logger.Debug("dropping unknown event", "event", env.Event)
	}
}

type joinPayload struct {
	PlayerName string `json:"playerName"`
}

func (c *Coordinator) handleJoin(ctx context.Context, conn Conn, raw json.RawMessage) {
	var p joinPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.PlayerName == "" {
		logger.Debug("dropping join with bad payload", "error", err)
		return
	}

	avail, err := c.store.AvailableGame(ctx)
	if err != nil {
		logger.Error("available game lookup failed", "error", err)
		return
	}

	g, player, err := c.store.AddPlayer(ctx, avail.GameID, p.PlayerName)
	if errors.Is(err, store.ErrNameInUse) {
		conn.Emit(EventNameInUse, p.PlayerName)
		return
	}
	if err != nil {
		logger.Error("add player failed", "game_id", avail.GameID, "player", p.PlayerName, "error", err)
		return
	}

	metrics.PlayersJoined.Inc()
	c.assign(conn, g, player, false)
}

type rejoinPayload struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
}

func (c *Coordinator) handleRejoin(ctx context.Context, conn Conn, raw json.RawMessage) {
	var p rejoinPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		conn.Emit(EventRejoinFailed, ReasonError)
		return
	}

	g, err := c.store.Game(ctx, p.GameID)
	if err != nil {
		conn.Emit(EventRejoinFailed, ReasonError)
		return
	}

	if g.Ended || g.Board.Over() {
		conn.Emit(EventRejoinFailed, ReasonGameOver)
		return
	}

	g, player, err := c.store.ReactivatePlayer(ctx, p.GameID, p.PlayerName)
	if err != nil {
		conn.Emit(EventRejoinFailed, ReasonError)
		return
	}

	c.assign(conn, g, player, true)
}

// assign joins the connection to the game's room, sends the full snapshot
// to the requester and announces it to everyone else.
func (c *Coordinator) assign(conn Conn, g *domain.Game, player *domain.Player, rejoin bool) {
	conn.JoinRoom(g.GameID)

	snap := map[string]any{
		"gameId":     g.GameID,
		"players":    g.Players,
		"player":     player,
		"board":      g.Board.State(),
		"active":     g.Active(),
		"multiplier": g.Multiplier,
	}

	conn.Emit(EventGameAssignment, snap)

	event := EventNewPlayer
	if rejoin {
		event = EventPlayerRejoined
	}
	conn.Broadcast(g.GameID, event, snap)
}

type leavePayload struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
}

func (c *Coordinator) handleLeave(ctx context.Context, conn Conn, raw json.RawMessage) {
	var p leavePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		conn.Emit(EventLeftGame, ReasonError)
		return
	}

	if _, err := c.store.Game(ctx, p.GameID); err != nil {
		conn.Emit(EventLeftGame, ReasonError)
		return
	}

	g, player, err := c.store.RemovePlayer(ctx, p.GameID, p.PlayerName)
	if err != nil {
		conn.Emit(EventLeftGame, ReasonError)
		return
	}

	conn.Broadcast(g.GameID, EventPlayerLeft, map[string]any{
		"gameId":     g.GameID,
		"players":    g.Players,
		"board":      g.Board.State(),
		"player":     player,
		"active":     g.Active(),
		"multiplier": g.Multiplier,
	})

	conn.Emit(EventLeftGame, nil)
	conn.LeaveRoom(g.GameID)
}

func (c *Coordinator) handleChat(ctx context.Context, conn Conn, raw json.RawMessage) {
	data, gameID, ok := c.decodeLoose(raw)
	if !ok {
		return
	}

	g, err := c.store.Game(ctx, gameID)
	if err != nil {
		return
	}

	conn.Emit(EventChat, data)
	conn.Broadcast(g.GameID, EventChat, data)
}

func (c *Coordinator) handleStart(ctx context.Context, conn Conn, raw json.RawMessage) {
	data, gameID, ok := c.decodeLoose(raw)
	if !ok {
		return
	}

	g, err := c.store.Game(ctx, gameID)
	if err != nil {
		return
	}
	if g.Ended || g.Board.Over() {
		return
	}

	wasStarted := g.Board.Started
	g.Board.Start()

	if err := c.store.UpdateGame(ctx, g); err != nil {
		logger.Error("game start persist failed", "game_id", g.GameID, "error", err)
		return
	}
	if !wasStarted {
		metrics.GamesStarted.Inc()
	}

	logger.Info("game started", "game_id", g.GameID, "players", len(g.Players))

	data["board"] = g.Board.State()
	data["players"] = g.Players

	conn.Emit(EventGameStart, data)
	conn.Broadcast(g.GameID, EventGameStart, data)
}

type movePayload struct {
	GameID     string `json:"game"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	PlayerName string `json:"playerName"`
}

func (c *Coordinator) handleFlag(ctx context.Context, conn Conn, raw json.RawMessage) {
	var p movePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	data, _, ok := c.decodeLoose(raw)
	if !ok {
		return
	}

	g, err := c.store.Game(ctx, p.GameID)
	if err != nil {
		return
	}
	if !g.Board.Started || g.Ended || g.Board.Over() {
		return
	}

	g.Board.ToggleFlag(p.X, p.Y)

	if err := c.store.UpdateGame(ctx, g); err != nil {
		logger.Error("flag persist failed", "game_id", g.GameID, "error", err)
		return
	}

	c.emitMove(conn, g, data)

	if g.Board.Over() {
		c.finishGame(ctx, conn, g, data)
	}
}

func (c *Coordinator) handleTurn(ctx context.Context, conn Conn, raw json.RawMessage) {
	var p movePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	data, _, ok := c.decodeLoose(raw)
	if !ok {
		return
	}

	g, err := c.store.Game(ctx, p.GameID)
	if err != nil {
		return
	}
	if !g.Board.Started || g.Ended || g.Board.Over() {
		return
	}

	before := g.Board.Revealed
	safe := g.Board.Reveal(p.X, p.Y)
	delta := g.Board.Revealed - before

	// reveal credit at the multiplier in force when the turn was made
	scoring.Adjust(g.Players, p.PlayerName, delta, g.Multiplier)
	data["players"] = g.Players

	if !safe {
		metrics.MinesHit.Inc()
		scoring.Adjust(g.Players, p.PlayerName, scoring.BombPenalty, g.Multiplier)

		conn.Emit(EventMineHit, data)
		conn.Broadcast(g.GameID, EventMineHit, data)

		logger.Info("mine hit", "game_id", g.GameID, "player", p.PlayerName, "x", p.X, "y", p.Y)
	}

	g.Multiplier = scoring.Multiplier(g.Board.Revealed, g.Board.Width, g.Board.Height)

	if err := c.store.UpdateGame(ctx, g); err != nil {
		logger.Error("turn persist failed", "game_id", g.GameID, "error", err)
		return
	}

	c.emitMove(conn, g, data)

	if g.Board.Over() {
		c.finishGame(ctx, conn, g, data)
	}
}

func (c *Coordinator) emitMove(conn Conn, g *domain.Game, data map[string]any) {
	data["board"] = g.Board.State()
	data["players"] = g.Players
	data["active"] = g.Active()
	data["multiplier"] = g.Multiplier

	conn.Emit(EventMoveMade, data)
	conn.Broadcast(g.GameID, EventMoveMade, data)
}

// finishGame runs the one-time end-of-game side effects. The store's
// EndGame is a compare-and-set on the ended flag; only the caller that
// made the transition broadcasts and posts scores, so racing final moves
// cannot double-fire.
func (c *Coordinator) finishGame(ctx context.Context, conn Conn, g *domain.Game, data map[string]any) {
	first, err := c.store.EndGame(ctx, g.GameID)
	if err != nil {
		logger.Error("end game failed", "game_id", g.GameID, "error", err)
		return
	}
	if !first {
		return
	}

	conn.Emit(EventEndGame, data)
	conn.Broadcast(g.GameID, EventEndGame, data)

	metrics.GamesCompleted.Inc()
	logger.Info("game over", "game_id", g.GameID)

	c.postScores(g)
}

func (c *Coordinator) postScores(g *domain.Game) {
	if c.scores == nil {
		return
	}

	players := g.Players
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := c.scores.PostScores(ctx, g.GameID, players); err != nil {
			logger.Error("score post failed", "game_id", g.GameID, "error", err)
		}
	}()
}

// decodeLoose unmarshals an event payload into a generic map so handlers
// can merge server fields into it and echo unknown client fields back.
func (c *Coordinator) decodeLoose(raw json.RawMessage) (map[string]any, string, bool) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		logger.Debug("dropping message with bad payload", "error", err)
		return nil, "", false
	}

	gameID, _ := data["game"].(string)
	if gameID == "" {
		logger.Debug("dropping message without game id")
		return nil, "", false
	}
	return data, gameID, true
}

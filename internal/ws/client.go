package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Stackato-Apps/multisweeper/internal/logger"
	"github.com/Stackato-Apps/multisweeper/internal/metrics"
	"github.com/Stackato-Apps/multisweeper/internal/session"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second

	maxMessageSize = 8192
	sendBuffer     = 256
)

// Dispatcher consumes raw inbound messages; the session coordinator
// implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, conn session.Conn, raw []byte)
}

// Message is the wire envelope in both directions.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Client is one websocket connection. It implements session.Conn: direct
// emits go down its own send queue, broadcasts fan out through the hub.
type Client struct {
	PlayerName string

	conn       *websocket.Conn
	send       chan []byte
	hub        *Hub
	dispatcher Dispatcher
}

func NewClient(playerName string, conn *websocket.Conn, hub *Hub, d Dispatcher) *Client {
	return &Client{
		PlayerName: playerName,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		hub:        hub,
		dispatcher: d,
	}
}

// Run drives the connection until it closes.
func (c *Client) Run() {
	metrics.Connections.Inc()
	defer metrics.Connections.Dec()

	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("read error", "player", c.PlayerName, "error", err)
			}
			return
		}
		c.dispatcher.Dispatch(context.Background(), c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("write error", "player", c.PlayerName, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue queues an already-marshaled frame, dropping it if the client
// cannot keep up.
func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		logger.Warn("send buffer full, dropping frame", "player", c.PlayerName)
	}
}

// Emit sends an event to this connection only.
func (c *Client) Emit(event string, data any) {
	raw, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		logger.Error("marshal outbound message", "event", event, "error", err)
		return
	}
	c.enqueue(raw)
}

// JoinRoom subscribes this connection to a game's fan-out set.
func (c *Client) JoinRoom(gameID string) {
	c.hub.Join(c, gameID)
}

// LeaveRoom unsubscribes this connection from a game's fan-out set.
func (c *Client) LeaveRoom(gameID string) {
	c.hub.Leave(c, gameID)
}

// Broadcast sends an event to every other member of the game's room.
func (c *Client) Broadcast(gameID, event string, data any) {
	raw, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		logger.Error("marshal broadcast message", "event", event, "error", err)
		return
	}
	c.hub.Broadcast(gameID, c, raw)
}

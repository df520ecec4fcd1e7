package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	redis "github.com/redis/go-redis/v9"

	"github.com/Stackato-Apps/multisweeper/internal/config"
	httpserver "github.com/Stackato-Apps/multisweeper/internal/http"
	"github.com/Stackato-Apps/multisweeper/internal/service"
	"github.com/Stackato-Apps/multisweeper/internal/store"
	wspkg "github.com/Stackato-Apps/multisweeper/internal/ws"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	os.Setenv("JWT_SECRET", "test-secret")
	service.InitJWT()

	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD"), DB: 10})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	client.FlushDB(context.Background())
	t.Cleanup(func() { client.Close() })

	gameStore := store.NewRedis(client, store.Options{
		BoardWidth:  8,
		BoardHeight: 8,
		MineCount:   10,
		MaxPlayers:  4,
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	httpserver.RegisterRoutes(r, httpserver.Deps{
		Cfg: &config.Config{
			APIRateLimit:  1000,
			APIRateWindow: 60,
		},
		Redis:   client,
		Store:   gameStore,
		Version: "test",
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, playerName string) *websocket.Conn {
	t.Helper()

	token, err := service.GenerateSessionToken(playerName)
	if err != nil {
		t.Fatalf("token for %s: %v", playerName, err)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", playerName, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	raw, _ := json.Marshal(wspkg.Message{Event: event, Data: data})
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("send %s: %v", event, err)
	}
}

// waitEvent reads frames until the wanted event arrives, skipping others.
func waitEvent(t *testing.T, conn *websocket.Conn, want string) map[string]any {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}

		var env struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("bad frame %s: %v", raw, err)
		}
		if env.Event != want {
			continue
		}

		var data map[string]any
		if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
			if err := json.Unmarshal(env.Data, &data); err != nil {
				t.Fatalf("bad %s payload: %v", want, err)
			}
		}
		return data
	}
}

func TestE2EJoinStartChat(t *testing.T) {
	srv := testServer(t)

	ada := dial(t, srv, "ada")
	send(t, ada, "join", map[string]any{"playerName": "ada"})
	assignment := waitEvent(t, ada, "game-assignment")

	gameID, _ := assignment["gameId"].(string)
	if gameID == "" {
		t.Fatalf("assignment missing gameId: %v", assignment)
	}
	if assignment["active"] != "inactive" {
		t.Fatalf("fresh game active = %v", assignment["active"])
	}

	// second player lands in the same open game; first one is told
	grace := dial(t, srv, "grace")
	send(t, grace, "join", map[string]any{"playerName": "grace"})
	graceAssignment := waitEvent(t, grace, "game-assignment")
	if graceAssignment["gameId"] != gameID {
		t.Fatalf("grace assigned to %v; want %s", graceAssignment["gameId"], gameID)
	}

	newPlayer := waitEvent(t, ada, "new-player")
	players, _ := newPlayer["players"].([]any)
	if len(players) != 2 {
		t.Fatalf("new-player roster size = %d; want 2", len(players))
	}

	// start reaches both sides
	send(t, ada, "start", map[string]any{"game": gameID})
	waitEvent(t, ada, "game-start")
	waitEvent(t, grace, "game-start")

	// chat is echoed to the sender and relayed to the room
	send(t, grace, "chat", map[string]any{"game": gameID, "message": "good luck"})
	echo := waitEvent(t, grace, "chat")
	if echo["message"] != "good luck" {
		t.Fatalf("chat echo mangled: %v", echo)
	}
	relayed := waitEvent(t, ada, "chat")
	if relayed["message"] != "good luck" {
		t.Fatalf("chat relay mangled: %v", relayed)
	}
}

func TestE2EDuplicateName(t *testing.T) {
	srv := testServer(t)

	ada := dial(t, srv, "ada")
	send(t, ada, "join", map[string]any{"playerName": "ada"})
	waitEvent(t, ada, "game-assignment")

	imposter := dial(t, srv, "ada")
	send(t, imposter, "join", map[string]any{"playerName": "ada"})

	imposter.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, raw, err := imposter.ReadMessage()
	if err != nil {
		t.Fatalf("waiting for rejection: %v", err)
	}
	var env wspkg.Message
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("bad frame: %v", err)
	}
	if env.Event != "name-in-use" || env.Data != "ada" {
		t.Fatalf("got %s/%v; want name-in-use/ada", env.Event, env.Data)
	}
}

func TestE2EMoveFlow(t *testing.T) {
	srv := testServer(t)

	ada := dial(t, srv, "ada")
	send(t, ada, "join", map[string]any{"playerName": "ada"})
	assignment := waitEvent(t, ada, "game-assignment")
	gameID := assignment["gameId"].(string)

	send(t, ada, "start", map[string]any{"game": gameID})
	waitEvent(t, ada, "game-start")

	send(t, ada, "flag", map[string]any{"game": gameID, "x": 7, "y": 7})
	flagMove := waitEvent(t, ada, "move-made")
	if flagMove["active"] != "active" {
		t.Fatalf("move-made active = %v", flagMove["active"])
	}

	send(t, ada, "turn", map[string]any{"game": gameID, "x": 0, "y": 0, "playerName": "ada"})
	move := waitEvent(t, ada, "move-made")
	if _, ok := move["multiplier"]; !ok {
		t.Fatal("move-made missing multiplier")
	}
	if _, ok := move["board"]; !ok {
		t.Fatal("move-made missing board snapshot")
	}
}

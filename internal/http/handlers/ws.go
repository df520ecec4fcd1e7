package handlers

import (
	"net/http"

	"github.com/Stackato-Apps/multisweeper/internal/logger"
	"github.com/Stackato-Apps/multisweeper/internal/service"
	"github.com/Stackato-Apps/multisweeper/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WS upgrades the connection and hands it to the coordinator. The token
// comes from the session endpoint; its subject names the player.
func WS(hub *ws.Hub, dispatcher ws.Dispatcher, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		playerName, err := service.ParseSessionToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", "error", err)
			return
		}

		client := ws.NewClient(playerName, conn, hub, dispatcher)
		go client.Run()
	}
}

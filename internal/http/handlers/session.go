package handlers

import (
	"net/http"
	"strings"

	"github.com/Stackato-Apps/multisweeper/internal/service"

	"github.com/gin-gonic/gin"
)

type sessionRequest struct {
	PlayerName string `json:"playerName" binding:"required"`
}

// CreateSession mints the websocket token for a player name.
func CreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "playerName required"})
		return
	}

	name := strings.TrimSpace(req.PlayerName)
	if name == "" || len(name) > 32 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid playerName"})
		return
	}

	token, err := service.GenerateSessionToken(name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"playerName": name,
		"token":      token,
	})
}

package handlers

import (
	"net/http"

	"github.com/Stackato-Apps/multisweeper/internal/repository"

	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	scores *repository.ScoreRepository
}

func NewLeaderboardHandler(scores *repository.ScoreRepository) *LeaderboardHandler {
	return &LeaderboardHandler{scores: scores}
}

// GetLeaderboard returns the top posted final scores.
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	if h.scores == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "leaderboard not configured"})
		return
	}

	top, err := h.scores.GetTop(c.Request.Context(), 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard": top,
	})
}

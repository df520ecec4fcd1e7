package http

import (
	"time"

	"github.com/Stackato-Apps/multisweeper/internal/config"
	"github.com/Stackato-Apps/multisweeper/internal/http/handlers"
	"github.com/Stackato-Apps/multisweeper/internal/http/middleware"
	"github.com/Stackato-Apps/multisweeper/internal/repository"
	"github.com/Stackato-Apps/multisweeper/internal/session"
	"github.com/Stackato-Apps/multisweeper/internal/store"
	"github.com/Stackato-Apps/multisweeper/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
)

// Deps carries everything the route tree needs. DB may be nil; score
// posting and the leaderboard degrade accordingly.
type Deps struct {
	Cfg     *config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Store   *store.Redis
	Version string
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	var scores *repository.ScoreRepository
	var poster session.ScorePoster
	if deps.DB != nil {
		scores = repository.NewScoreRepository(deps.DB)
		poster = scores
	}

	coordinator := session.New(deps.Store, poster)
	hub := ws.NewHub()

	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis, deps.Version)
	leaderboardHandler := handlers.NewLeaderboardHandler(scores)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	apiRateWindow := time.Duration(deps.Cfg.APIRateWindow) * time.Second

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(deps.Cfg.APIRateLimit, apiRateWindow))
	v1.POST("/session", handlers.CreateSession)
	v1.GET("/leaderboard", leaderboardHandler.GetLeaderboard)

	// the game socket itself
	r.GET("/ws", handlers.WS(hub, coordinator, deps.Cfg.AllowedOrigin))
}

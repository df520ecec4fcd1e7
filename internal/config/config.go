package config

import (
	"os"
	"strconv"

	"github.com/Stackato-Apps/multisweeper/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DatabaseURL   string // optional; empty disables score posting
	JWTSecret     string
	AllowedOrigin string

	// Board geometry for newly created games
	BoardWidth  int
	BoardHeight int
	MineCount   int
	MaxPlayers  int

	// API rate limits
	APIRateLimit  int
	APIRateWindow int // seconds

	LogLevel string
	LogJSON  bool
}

// Load reads configuration from the environment, falling back to a .env
// file in development. Missing required values are fatal.
func Load() *Config {
	_ = godotenv.Load()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		logger.Fatal("REDIS_ADDR is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	return &Config{
		AppPort:       port,
		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     jwtSecret,
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),
		BoardWidth:    envInt("BOARD_WIDTH", 16),
		BoardHeight:   envInt("BOARD_HEIGHT", 16),
		MineCount:     envInt("MINE_COUNT", 40),
		MaxPlayers:    envInt("MAX_PLAYERS", 4),
		APIRateLimit:  envInt("API_RATE_LIMIT", 10),
		APIRateWindow: envInt("API_RATE_WINDOW_SECONDS", 60),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		LogJSON:       os.Getenv("LOG_JSON") == "true",
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

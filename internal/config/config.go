package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// MaxFrameRate is the highest frame loop rate a board may run at.
const MaxFrameRate = 240

type Config struct {
	// Environment
	Environment string

	// Database (optional; launch log, admin accounts, runtime config)
	DatabaseURL    string
	MigrateOnStart bool

	// Redis (optional; board events and viewer presence)
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Board Settings
	FrameRate        int
	BroadcastEvery   int
	BoardIdleMinutes int
	MaxBoards        int
	LayoutFile       string
	PresenceTTLSecs  int
	IdleCheckSeconds int

	// Security
	JWTSecret         string
	SessionTTLMinutes int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnv("MIGRATE_ON_START", "false") == "true",

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Board Settings
		FrameRate:        clamp(getEnvInt("FRAME_RATE", 60), 1, MaxFrameRate),
		BroadcastEvery:   getEnvInt("BROADCAST_EVERY", 2),
		BoardIdleMinutes: getEnvInt("BOARD_IDLE_MINUTES", 30),
		MaxBoards:        getEnvInt("MAX_BOARDS", 200),
		LayoutFile:       getEnv("BOARD_LAYOUT_FILE", ""),
		PresenceTTLSecs:  getEnvInt("PRESENCE_TTL_SECONDS", 90),
		IdleCheckSeconds: getEnvInt("IDLE_CHECK_SECONDS", 30),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 120),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

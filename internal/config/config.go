package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP API
	APIHost string
	APIPort int

	// MLB Stats API
	MLBStatsBaseURL    string
	MLBStatsRatePerSec float64
	MLBStatsTimeout    time.Duration

	// Live tracker
	TrackerEnabled  bool
	TrackerInterval time.Duration
	TrackerDBPath   string

	// Model
	DefaultRunsPerGame float64
	ScenariosPath      string // optional extra presets

	// livecheck / livewatch
	LivecheckAPIURL string
	FanoutAddr      string

	// Telemetry
	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIHost: envStr("API_HOST", "0.0.0.0"),
		APIPort: envInt("API_PORT", 8001),

		MLBStatsBaseURL:    envStr("MLB_STATS_BASE_URL", "https://statsapi.mlb.com/api"),
		MLBStatsRatePerSec: envFloat("MLB_STATS_RATE_PER_SEC", 5),
		MLBStatsTimeout:    time.Duration(envInt("MLB_STATS_TIMEOUT_SEC", 10)) * time.Second,

		TrackerEnabled:  envStr("TRACKER_ENABLED", "false") == "true",
		TrackerInterval: time.Duration(envInt("TRACKER_INTERVAL_SEC", 300)) * time.Second,
		TrackerDBPath:   envStr("TRACKER_DB_PATH", "data/live_wp.db"),

		DefaultRunsPerGame: envFloat("DEFAULT_RUNS_PER_GAME", 4.5),
		ScenariosPath:      envStr("SCENARIOS_PATH", ""),

		LivecheckAPIURL: envStr("LIVECHECK_API_URL", "http://localhost:8001"),
		FanoutAddr:      envStr("FANOUT_ADDR", "ws://localhost:8001/ws/live"),

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Instrument
	Symbol       string // namespace symbol, e.g. "BTCUSDT"
	MarketSymbol string // KuCoin symbol, e.g. "BTC-USDT"
	Timeframe    string // e.g. "1h"

	// Classifier
	OracleBaseURL string
	Threshold     float64
	TPPct         float64
	SLPct         float64

	// Pipeline
	CandleLimit        int
	SupervisorInterval time.Duration
	AskCooldown        time.Duration // 0 disables per-symbol ask dedup
	PriceFeedEnabled   bool

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	APIAddr       string
	MetricsAddr   string
	LogLevel      string

	// Notifications (empty = disabled)
	TelegramToken  string
	TelegramChatID string
	WebhookURL     string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Symbol:       getEnv("SYMBOL", "BTCUSDT"),
		MarketSymbol: getEnv("KU_SYMBOL", "BTC-USDT"),
		Timeframe:    getEnv("TIMEFRAME", "1h"),

		OracleBaseURL: mustEnv("ORACLE_BASE_URL"),
		Threshold:     getEnvFloat("THRESHOLD", 0.7),
		TPPct:         getEnvFloat("TP_PCT", 0.01),
		SLPct:         getEnvFloat("SL_PCT", 0.02),

		CandleLimit:        getEnvInt("CANDLE_LIMIT", 300),
		SupervisorInterval: getEnvDuration("SUPERVISOR_INTERVAL", 60*time.Second),
		AskCooldown:        getEnvDuration("ASK_COOLDOWN", 0),
		PriceFeedEnabled:   getEnvBool("PRICE_FEED_ENABLED", true),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/signals.db"),
		APIAddr:       getEnv("API_ADDR", ":8080"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		TelegramToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID: getEnv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:     getEnv("WEBHOOK_URL", ""),
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[config] invalid int for %s, using default %d", key, fallback)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("[config] invalid float for %s, using default %v", key, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("[config] invalid bool for %s, using default %v", key, fallback)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("[config] invalid duration for %s, using default %v", key, fallback)
	}
	return fallback
}

package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port           int
	DatabaseURL    string
	NatsURL        string
	NatsToken      string
	LogLevel       string
	Locale         string
	APIToken       string
	MaxUploadBytes int64
}

func Load() Config {
	return Config{
		Port:           envInt("CHATNOTE_PORT", 8760),
		DatabaseURL:    envStr("DATABASE_URL", ""),
		NatsURL:        envStr("NATS_URL", ""),
		NatsToken:      envStr("NATS_TOKEN", ""),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		Locale:         envStr("CHATNOTE_LOCALE", "en"),
		APIToken:       envStr("CHATNOTE_API_TOKEN", ""),
		MaxUploadBytes: int64(envInt("CHATNOTE_MAX_UPLOAD_MB", 32)) << 20,
	}
}

func envStr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

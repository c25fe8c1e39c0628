// Package config holds process configuration and the tuning constants of
// the roulette engine.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config збирає налаштування процесу з оточення.
type Config struct {
	HTTPAddr  string
	DBDSN     string
	RedisAddr string
	RedisDB   int
	JWTSecret string

	// Telegram moderation notifier; empty token disables it.
	TelegramBotToken         string
	TelegramModerationChatID int64
}

// FromEnv reads configuration from environment variables, applying the
// same defaults the docker-compose setup uses.
func FromEnv() Config {
	cfg := Config{
		HTTPAddr:  getenv("HTTP_ADDR", ":8080"),
		RedisAddr: getenv("REDIS_ADDR", "localhost:6380"),
		JWTSecret: getenv("JWT_SECRET", ""),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		cfg.DBDSN = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			getenv("DB_HOST", "localhost"),
			getenv("DB_USER", "user"),
			getenv("DB_PASSWORD", "password"),
			getenv("DB_NAME", "commongrounddb"),
			getenv("DB_PORT", "5432"),
		)
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RedisDB = n
		}
	}
	if v := os.Getenv("TELEGRAM_MODERATION_CHAT_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramModerationChatID = n
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

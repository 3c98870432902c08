package config

import (
	"fmt"
	"os"
	"strconv"
)

// Defaults for the optional settings.
const (
	DefaultGeminiModel  = "gemini-2.0-flash"
	DefaultDatabasePath = "data/recipe33.db"
	DefaultListenAddr   = ":8080"
)

// Config holds the configuration for the application.
type Config struct {
	GeminiAPIKey string
	GeminiModel  string

	// Groq is optional; when a key is present refinement calls are
	// routed there and Gemini keeps the image-capable analysis calls.
	GroqAPIKey string

	DatabasePath string

	// Telegram config (optional for the CLI, required for the bot).
	TelegramBotToken    string
	TelegramWebhookURL  string
	TelegramAllowUserID int64
	ListenAddr          string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	geminiModel := os.Getenv("GEMINI_MODEL")
	if geminiModel == "" {
		geminiModel = DefaultGeminiModel
	}

	databasePath := os.Getenv("DATABASE_PATH")
	if databasePath == "" {
		databasePath = DefaultDatabasePath
	}

	listenAddr := os.Getenv("WEBHOOK_LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = DefaultListenAddr
	}

	var telegramAllowUserID int64
	if raw := os.Getenv("TELEGRAM_ALLOW_USER_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_ALLOW_USER_ID must be an integer, got %q", raw)
		}
		telegramAllowUserID = id
	}

	return &Config{
		GeminiAPIKey:        geminiAPIKey,
		GeminiModel:         geminiModel,
		GroqAPIKey:          os.Getenv("GROQ_API_KEY"),
		DatabasePath:        databasePath,
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:  os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowUserID: telegramAllowUserID,
		ListenAddr:          listenAddr,
	}, nil
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petervd13-web/Recipe33/internal/clipper"
	"github.com/petervd13-web/Recipe33/internal/config"
	"github.com/petervd13-web/Recipe33/internal/database"
	"github.com/petervd13-web/Recipe33/internal/llm"
	"github.com/petervd13-web/Recipe33/internal/metrics"
	"github.com/petervd13-web/Recipe33/internal/session"
	"github.com/petervd13-web/Recipe33/internal/storage"
	"github.com/petervd13-web/Recipe33/internal/telegram"
)

func main() {
	ctx := context.Background()

	// 1. Load configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TelegramBotToken == "" || cfg.TelegramWebhookURL == "" {
		log.Fatalf("TELEGRAM_BOT_TOKEN and TELEGRAM_WEBHOOK_URL must be set for the bot")
	}
	if cfg.TelegramAllowUserID == 0 {
		log.Fatalf("TELEGRAM_ALLOW_USER_ID must be set; the bot serves exactly one user")
	}

	// 2. Initialize the AI gateway. Gemini handles everything; with a
	// Groq key the text-only refinement calls are routed there.
	gemini, err := llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}
	defer gemini.Close()

	var gateway llm.Gateway = gemini
	if cfg.GroqAPIKey != "" {
		gateway = llm.Split{
			Analyzer: gemini,
			Refiner:  llm.NewGroq(cfg.GroqAPIKey, ""),
		}
		log.Println("Refinement routed to Groq")
	}

	// 3. Initialize the SQLite database
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	store := storage.NewStore(db.SQL)
	telemetry := metrics.NewStore(db.SQL)

	// 4. Restore the session and wire the bot
	ctrl := session.New(store, gateway, telemetry)
	if err := ctrl.Load(ctx); err != nil {
		log.Fatalf("Failed to load session state: %v", err)
	}

	bot, err := telegram.NewBot(cfg, ctrl, clipper.New(), telemetry)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}
	bot.RegisterHandlers()

	// 5. Start the server with graceful shutdown
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: nil,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pubbot/internal/bot"
	"pubbot/internal/config"
	"pubbot/internal/metrics"
	"pubbot/internal/session"
	"pubbot/internal/storage"
	"pubbot/internal/storage/file"
	"pubbot/internal/storage/sqlite"
	"pubbot/internal/storage/stubs"
)

// App represents the application
type App struct {
	config   *config.Config
	logger   *zap.Logger
	store    storage.Store
	sessions *session.Manager
	bot      *bot.Bot
	server   *http.Server
}

// New creates and initializes a new application instance
func New() (*App, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	app := &App{config: cfg, logger: logger}

	logger.Info("Starting channel publishing bot",
		zap.String("storage", cfg.Storage),
		zap.Bool("webhook_mode", cfg.WebhookMode),
	)

	if err := app.initStore(); err != nil {
		return nil, err
	}

	if err := app.initBot(); err != nil {
		return nil, err
	}

	app.initHTTPServer()

	return app, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// initStore selects and initializes the configured store backend.
func (a *App) initStore() error {
	var store storage.Store
	switch a.config.Storage {
	case "mock":
		a.logger.Info("Using in-memory mock store")
		store = stubs.NewMockStore()
	case "file":
		a.logger.Info("Using JSON file store", zap.String("path", a.config.DataFile))
		store = file.New(a.config.DataFile)
	default:
		a.logger.Info("Using sqlite store", zap.String("path", a.config.SQLitePath))
		sqliteStore, err := sqlite.New(a.config.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open sqlite store: %w", err)
		}
		store = sqliteStore
	}

	if err := store.Initialize(context.Background()); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	a.logger.Info("Store initialized successfully")

	a.store = store
	return nil
}

// initBot initializes the Telegram bot
func (a *App) initBot() error {
	a.sessions = session.NewManager(a.config.SessionTimeout)

	m := metrics.New(func() float64 {
		return float64(a.sessions.Len())
	})

	telegramBot, err := bot.NewBot(bot.Config{
		Token:     a.config.TelegramToken,
		AdminID:   a.config.AdminID,
		ChannelID: a.config.ChannelID,
		Cooldown:  a.config.PublishCooldown,
		Debug:     a.config.Debug,
	}, a.store, a.sessions, m, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	a.bot = telegramBot
	return nil
}

// initHTTPServer initializes the HTTP server for webhook, health and metrics
func (a *App) initHTTPServer() {
	mux := http.NewServeMux()
	httpServer := bot.NewHTTPServer(a.bot, a.config.WebhookMode)
	httpServer.RegisterRoutes(mux)

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		a.logger.Info("Starting HTTP server", zap.Int("port", a.config.Port))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
}

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if a.config.WebhookMode {
		a.logger.Info("Starting bot in WEBHOOK mode", zap.String("webhook_url", a.config.WebhookURL))
		if err := a.bot.StartWebhook(a.config.WebhookURL); err != nil {
			return fmt.Errorf("failed to setup webhook: %w", err)
		}
	} else {
		go func() {
			a.logger.Info("Starting bot in POLLING mode")
			if err := a.bot.Start(); err != nil {
				a.logger.Fatal("Failed to start bot", zap.Error(err))
			}
		}()
	}

	<-sigChan

	a.logger.Info("Shutting down...")
	return a.Shutdown()
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := a.store.Close(); err != nil {
		a.logger.Error("Error closing store", zap.Error(err))
		return err
	}

	a.logger.Info("Shutdown complete")
	_ = a.logger.Sync()
	return nil
}

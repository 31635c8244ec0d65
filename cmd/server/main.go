package main

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/xaenox/taskmind/internal/ai"
	"github.com/xaenox/taskmind/internal/analyzer"
	"github.com/xaenox/taskmind/internal/bot"
	"github.com/xaenox/taskmind/internal/server"
	"github.com/xaenox/taskmind/internal/storage"
	"github.com/xaenox/taskmind/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		dbConfig := storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}
		store, err = storage.NewPostgresStorage(dbConfig)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	// Initialize the AI gateway and analyzers
	gateway := ai.NewGateway(ai.Config{
		BaseURL:     cfg.AI.BaseURL,
		Timeout:     cfg.AI.Timeout(),
		OpenAIKey:   cfg.AI.OpenAIAPIKey,
		Model:       cfg.AI.Model,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
	}, logger)

	contextAnalyzer := analyzer.NewContextAnalyzer(gateway, logger)
	taskAnalyzer := analyzer.NewTaskAnalyzer(gateway, logger)

	// Optionally run the Telegram ingestion bot alongside the API
	if cfg.Telegram.Enabled && cfg.Telegram.Token != "" {
		b, err := bot.New(cfg.Telegram.Token, store, contextAnalyzer, logger)
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}
		go func() {
			if err := b.Start(); err != nil {
				logger.Error("Bot error", zap.Error(err))
			}
		}()
		logger.Info("Telegram ingestion bot started")
	}

	// Start the HTTP server
	srv := server.New(store, contextAnalyzer, taskAnalyzer, cfg.Analyzer, logger)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting HTTP server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}

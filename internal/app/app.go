package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"persona-chat/internal/api"
	"persona-chat/internal/config"
	"persona-chat/internal/llm"
	"persona-chat/internal/persona"
	"persona-chat/internal/retry"
	"persona-chat/internal/service"
)

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	setupLogger(cfg.LogLevel)

	logConfigSource()

	hasCredential := cfg.OpenRouterAPIKey != ""
	if !hasCredential {
		// Requests will fail fast with a server error until the credential
		// is supplied; the process still serves health probes.
		slog.Error("OPENROUTER_API_KEY is not set, chat requests will be rejected")
	}

	provider := llm.NewOpenRouterProvider(cfg.OpenRouterURL, cfg.OpenRouterAPIKey, cfg.HTTPReferer, cfg.AppTitle)
	chatService := service.NewChatService(
		provider,
		persona.Default(),
		retry.Default(),
		service.Generation{
			Model:       cfg.ChatModel,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
		hasCredential,
	)

	chatHandler := api.NewChatHandler(chatService)
	router := api.NewRouter(chatHandler, cfg.Origins())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("Starting relay server", "port", cfg.AppPort, "model", cfg.ChatModel)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		return 1
	}

	return 0
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func setupLogger(logLevel string) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

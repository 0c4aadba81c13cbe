package main

import (
	"log"
	"log/slog"
	"os"
	"strings"

	"session-service/logger"
	"session-service/src/config"
	"session-service/src/server"
)

// @title Session Service API
// @version 1.0
// @description Session-request assignment and lifecycle state machine

func main() {
	cfg := loadConfig()
	setupLogging(cfg.LogLevel)
	logger.Init(cfg.LogLevel)

	srv, err := server.NewServer(&cfg)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	if err := srv.Run(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}

func loadConfig() config.GlobalConfig {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))
	slog.SetDefault(handler)
}

// Package main is the entry point for the code optimizer server.
//
// main stays minimal: read configuration, create the logger and the LLM
// client, hand everything to internal/server. All actual logic lives in the
// imported packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/code-optimizer/internal/config"
	"github.com/sakif/code-optimizer/internal/llm"
	"github.com/sakif/code-optimizer/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.JWT.Secret == "" {
		// Without a signing secret no token can ever validate.
		logger.Error("JWT_SECRET_KEY is not set")
		os.Exit(1)
	}

	if cfg.LLM.APIKey == "" {
		logger.Warn("OPENAI_API_KEY not set; /optimize will fail until it is configured")
	}

	// Ensure the database directory exists before sqlite tries to create the file.
	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	llmClient := llm.NewOpenAIClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLMTimeout(),
	}, logger)

	srv, err := server.New(cfg, logger, llmClient)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down via SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"solexplorer/internal/config"
	"solexplorer/internal/server"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	envPath := flag.String("env", ".env", "path to dotenv file")
	flag.Parse()

	// Basic logger for startup errors
	startLog := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := config.LoadEnvFile(*envPath); err != nil {
		startLog.Fatal().Err(err).Msg("failed to load env file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		startLog.Fatal().Err(err).Msg("failed to load config")
	}

	logger := setupLogger(cfg.LogLevel)
	logger.Info().
		Str("config", *configPath).
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("cluster", cfg.Cluster).
		Bool("names", cfg.IsNamesEnabled()).
		Bool("price", cfg.IsPriceEnabled()).
		Msg("starting explorerd")

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create server")
	}

	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
}

// setupLogger configures the zerolog logger
func setupLogger(level string) zerolog.Logger {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || logLevel == zerolog.NoLevel {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

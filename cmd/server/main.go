// Package main is the entry point for the social-post server.
//
// main stays minimal on purpose: read configuration, build the logger, start
// the server. Everything else lives in internal/ packages so it can be
// constructed and tested without going through main.
package main

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/girishsaivarma/WebForm/internal/server"
)

// Configuration comes from environment variables, with a .env file as an
// optional convenience for local development:
//
//	PORT             listen port            (default 8080)
//	LOG_LEVEL        debug|info|warn|error  (default info)
//	RATE_LIMIT_RPS   sustained req/s        (default 50)
//	RATE_LIMIT_BURST token bucket size      (default 100)
func main() {
	// Load .env if present. A missing file is not an error — production
	// deployments set real environment variables instead.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
	}))

	cfg := server.Config{
		Port:           envInt(logger, "PORT", 8080),
		RateLimitRPS:   float64(envInt(logger, "RATE_LIMIT_RPS", 50)),
		RateLimitBurst: envInt(logger, "RATE_LIMIT_BURST", 100),
	}

	srv := server.New(cfg, logger)

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envInt(logger *slog.Logger, name string, def int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logger.Error("invalid "+name+" value", slog.String("value", raw))
		os.Exit(1)
	}
	return v
}

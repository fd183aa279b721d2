package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tooldeck/tooldeck/api"
	"github.com/tooldeck/tooldeck/config"
	"github.com/tooldeck/tooldeck/converter"
	"github.com/tooldeck/tooldeck/email"
)

// Logger environment variables.
const (
	envLogFormat = "TOOLDECK_LOG_FORMAT" // "json" or text
	envLogLevel  = "TOOLDECK_LOG_LEVEL"  // debug, info, warn, error
)

func main() {
	mode := flag.String("mode", "http", "Run mode: 'http' or 'mcp'")
	flag.Parse()

	logger := newLogger(os.Getenv(envLogFormat), os.Getenv(envLogLevel))
	slog.SetDefault(logger)

	if err := run(*mode, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(mode string, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	reg := converter.New(cfg, converter.WithLogger(logger))

	switch mode {
	case "mcp":
		return serveMCP(reg, cfg, logger)
	case "http":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		drafter, closeDrafter, err := email.NewDrafterFromConfig(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeDrafter()
		mailer := email.NewMailerFromConfig(cfg, logger)
		if drafter.Mock() {
			logger.Warn("GEMINI_API_KEY not configured, email drafts use the template")
		}
		if mailer.Mock() {
			logger.Warn("email credentials not configured, sends are simulated")
		}

		srv := api.NewServer(cfg, reg, drafter, mailer, api.WithLogger(logger))
		return srv.ListenAndServe(ctx)
	default:
		return fmt.Errorf("unknown mode %q (expected http or mcp)", mode)
	}
}

// newLogger writes to stderr so stdout stays free for the MCP transport.
func newLogger(format, level string) *slog.Logger {
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
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

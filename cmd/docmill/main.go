// Entry point for the docmill HTTP service: chi router, sqlite event log,
// optional MCP over stdio.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docmill/docmill/docserve"
	"github.com/docmill/docmill/procpipe"
	"github.com/docmill/docmill/vision"
)

func main() {
	configPath := env("CONFIG", "")
	logLevel := env("LOG_LEVEL", "info")
	mcpTransport := env("MCP_TRANSPORT", "")

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Configuration: file if given, defaults otherwise, env always wins.
	var cfg *docserve.Config
	var err error
	if configPath != "" {
		cfg, err = docserve.LoadConfig(configPath)
		if err != nil {
			slog.Error("config", "error", err)
			os.Exit(1)
		}
	} else {
		cfg = docserve.DefaultConfig()
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Event log.
	events, err := docserve.OpenEventStore(cfg.EventsDB)
	if err != nil {
		slog.Error("event store", "error", err)
		os.Exit(1)
	}
	defer events.Close()

	srv, err := docserve.NewServer(cfg, logger, docserve.WithEventStore(events))
	if err != nil {
		slog.Error("server", "error", err)
		os.Exit(1)
	}

	// Optional MCP over stdio: expose the processors as tools and skip HTTP.
	if mcpTransport == "stdio" {
		var vc procpipe.VisionClient
		if cfg.Vision.APIKey != "" {
			client, err := vision.New(vision.Config{
				BaseURL: cfg.Vision.BaseURL,
				APIKey:  cfg.Vision.APIKey,
				Model:   cfg.Vision.Model,
				Timeout: cfg.VisionTimeout(),
				Logger:  logger,
			})
			if err != nil {
				slog.Error("vision client", "error", err)
				os.Exit(1)
			}
			vc = client
		}
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "docmill",
			Version: "1.0.0",
		}, nil)
		proc := cfg.Processing
		proc.Model = cfg.Vision.Model
		proc.Logger = logger
		procpipe.RegisterMCP(mcpSrv, proc, vc)

		slog.Info("MCP stdio starting")
		if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			slog.Error("MCP", "error", err)
			os.Exit(1)
		}
		return
	}

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Minute, // scanned extraction can take minutes
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "listen", cfg.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cozy-corner/y-junctions/pkg/api"
	"github.com/cozy-corner/y-junctions/pkg/config"
	"github.com/cozy-corner/y-junctions/pkg/db"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (overrides config)")
	flag.Parse()

	if err := run(context.Background(), *configPath, *port, *corsOrigin); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, port int, corsOrigin string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})))

	if port != 0 {
		cfg.Port = port
	}
	if corsOrigin != "" {
		cfg.CORSOrigin = corsOrigin
	}

	store, err := db.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	slog.Info("connected to database")

	addr := fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port)
	srvCfg := api.DefaultConfig(addr)
	srvCfg.CORSOrigin = cfg.CORSOrigin

	handlers := api.NewHandlers(store)
	srv := api.NewServer(srvCfg, handlers)

	return api.ListenAndServe(srv)
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

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cozy-corner/y-junctions/pkg/config"
	"github.com/cozy-corner/y-junctions/pkg/db"
	"github.com/cozy-corner/y-junctions/pkg/dem"
	"github.com/cozy-corner/y-junctions/pkg/importer"
)

func main() {
	elevationDir := flag.String("elevation-dir", "", "Directory containing DEM XML files")
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if *elevationDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: import-elevation --elevation-dir <dir> [--config <file>]")
		os.Exit(1)
	}

	if err := run(context.Background(), *elevationDir, *configPath); err != nil {
		slog.Error("elevation import failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, elevationDir, configPath string) error {
	elevations, err := dem.NewStore(elevationDir)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store, err := db.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer store.Close()

	updated, err := importer.BackfillElevations(ctx, store, elevations)
	if err != nil {
		return err
	}

	slog.Info("done", "updated", updated)
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cozy-corner/y-junctions/pkg/config"
	"github.com/cozy-corner/y-junctions/pkg/db"
	"github.com/cozy-corner/y-junctions/pkg/dem"
	"github.com/cozy-corner/y-junctions/pkg/importer"
	"github.com/cozy-corner/y-junctions/pkg/osm"
)

func main() {
	input := flag.String("input", "", "Path to .osm.pbf file")
	bboxArg := flag.String("bbox", "", "Bounding box filter: minLon,minLat,maxLon,maxLat (e.g. 139.5,35.5,140.0,36.0)")
	elevationDir := flag.String("elevation-dir", "", "Directory containing DEM XML files (optional)")
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if *input == "" || *bboxArg == "" {
		fmt.Fprintln(os.Stderr, "Usage: import --input <file.osm.pbf> --bbox minLon,minLat,maxLon,maxLat [--elevation-dir <dir>] [--config <file>]")
		os.Exit(1)
	}

	if err := run(context.Background(), *input, *bboxArg, *elevationDir, *configPath); err != nil {
		slog.Error("import failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, input, bboxArg, elevationDir, configPath string) error {
	start := time.Now()

	bbox, err := importer.ParseBBox(bboxArg)
	if err != nil {
		return err
	}
	slog.Info("parsed bbox",
		"min_lon", bbox.MinLon, "min_lat", bbox.MinLat,
		"max_lon", bbox.MaxLon, "max_lat", bbox.MaxLat)

	src, err := osm.NewPBFSource(input)
	if err != nil {
		return err
	}

	var elevations importer.ElevationSource
	if elevationDir != "" {
		store, err := dem.NewStore(elevationDir)
		if err != nil {
			return err
		}
		elevations = store
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

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	stats, err := importer.Import(ctx, src, bbox, elevations, store)
	if err != nil {
		return err
	}

	slog.Info("done",
		"features", stats.FeaturesEmitted,
		"elapsed", time.Since(start).Round(time.Second))
	return nil
}

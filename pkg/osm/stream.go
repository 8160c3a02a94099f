package osm

import (
	"context"
	"fmt"
	"os"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
)

// Source streams the elements of an OSM extract. Each method performs one
// full pass and may be called any number of times; the callback returning
// an error aborts the pass with that error.
type Source interface {
	Ways(ctx context.Context, fn func(*osm.Way) error) error
	Nodes(ctx context.Context, fn func(*osm.Node) error) error
}

// PBFSource streams a .osm.pbf file from disk, reopening it for every
// pass. Relations are always skipped.
type PBFSource struct {
	path string
}

// NewPBFSource verifies the file exists and returns a multi-pass source
// over it.
func NewPBFSource(path string) (*PBFSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening PBF file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("opening PBF file: %s is a directory", path)
	}
	return &PBFSource{path: path}, nil
}

// Ways streams every way in the file.
func (s *PBFSource) Ways(ctx context.Context, fn func(*osm.Way) error) error {
	return s.scan(ctx, func(sc *osmpbf.Scanner) {
		sc.SkipNodes = true
		sc.SkipRelations = true
	}, func(obj osm.Object) error {
		if w, ok := obj.(*osm.Way); ok {
			return fn(w)
		}
		return nil
	})
}

// Nodes streams every node in the file.
func (s *PBFSource) Nodes(ctx context.Context, fn func(*osm.Node) error) error {
	return s.scan(ctx, func(sc *osmpbf.Scanner) {
		sc.SkipWays = true
		sc.SkipRelations = true
	}, func(obj osm.Object) error {
		if n, ok := obj.(*osm.Node); ok {
			return fn(n)
		}
		return nil
	})
}

func (s *PBFSource) scan(ctx context.Context, configure func(*osmpbf.Scanner), visit func(osm.Object) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("opening PBF file: %w", err)
	}
	defer f.Close()

	scanner := osmpbf.New(ctx, f, 1)
	defer scanner.Close()
	configure(scanner)

	for scanner.Scan() {
		if err := visit(scanner.Object()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning %s: %w", s.path, err)
	}
	return nil
}

// TagTruthy interprets an OSM boolean-ish tag value: yes, true and 1 are
// true, anything else (including a bare "no") is false.
func TagTruthy(value string) bool {
	switch value {
	case "yes", "true", "1":
		return true
	}
	return false
}

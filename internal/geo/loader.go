package geo

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Reference is the loaded reference data. Either part may be nil when its
// fetch failed.
type Reference struct {
	Boundaries *Boundaries
	Catalog    *Catalog
}

// Loader fetches boundaries and metadata together.
type Loader struct {
	Boundaries *BoundaryClient
	Metadata   *MetadataClient
	Logger     *slog.Logger
}

// NewLoader creates a loader with the default sources.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		Boundaries: NewBoundaryClient(),
		Metadata:   NewMetadataClient(),
		Logger:     logger,
	}
}

// Load fetches both datasets concurrently. A failed fetch is logged and
// leaves its part of the Reference nil; it never fails the other.
func (l *Loader) Load(ctx context.Context) Reference {
	var ref Reference
	var g errgroup.Group

	if l.Boundaries != nil {
		g.Go(func() error {
			b, err := l.Boundaries.Fetch(ctx)
			if err != nil {
				l.Logger.Warn("country boundaries unavailable", "err", err)
				return nil
			}
			ref.Boundaries = b
			return nil
		})
	}

	if l.Metadata != nil {
		g.Go(func() error {
			c, err := l.Metadata.Fetch(ctx)
			if err != nil {
				l.Logger.Warn("country metadata unavailable", "err", err)
				return nil
			}
			ref.Catalog = c
			return nil
		})
	}

	_ = g.Wait()
	return ref
}

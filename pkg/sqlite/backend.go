// Package sqlite exposes the shelf storage engine while keeping its
// implementation internal.
package sqlite

import (
	"log/slog"
	"time"

	"github.com/mesh-intelligence/shelf/internal/sqlite"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

// Store is an open package: the source ring, the staging ring and the
// overlay views over both.
type Store = sqlite.Store

// Querier is the statement surface repository methods run against.
type Querier = sqlite.Querier

// Option configures a Store.
type Option = sqlite.Option

// CommitReport describes the outcome of a commit.
type CommitReport = sqlite.CommitReport

// CSVError reports a malformed CSV resource with its file and line.
type CSVError = sqlite.CSVError

// Open loads the package at cfg.PackageDir.
//
// Example:
//
//	store, err := sqlite.Open(types.Config{PackageDir: "./links"})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
func Open(cfg types.Config, opts ...Option) (*Store, error) {
	return sqlite.Open(cfg, opts...)
}

// WithLogger sets the logger used by the store.
func WithLogger(l *slog.Logger) Option { return sqlite.WithLogger(l) }

// WithClock sets the time source for changelog timestamps.
func WithClock(now func() time.Time) Option { return sqlite.WithClock(now) }

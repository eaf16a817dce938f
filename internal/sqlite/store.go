// Package sqlite implements the layered storage engine for shelf packages.
//
// A Store owns one SQLite connection with two attached schemas. The source
// ring mirrors the package's CSV files. The staging ring holds rows that are
// not yet durable plus the changelog that records how they got there. Temp
// views overlay the two so that staged rows shadow source rows by key.
// Repositories read the views and write only to staging; Commit replays the
// changelog into the CSV files.
package sqlite

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/shelf/internal/datapackage"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

// Querier is the statement surface shared by *sql.DB and *sql.Tx. Every
// repository method takes one so callers decide the transaction boundary.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// Store is the storage handle for one package directory.
//
// The connection pool is pinned to a single connection: attached in-memory
// schemas and temp views belong to the connection that created them. While
// a transaction from Begin is open, every statement must go through it.
type Store struct {
	mu       sync.Mutex
	closed   bool
	db       *sql.DB
	dir      string
	pkg      *datapackage.Package
	strategy types.Strategy
	logger   *slog.Logger
	now      func() time.Time

	tags      *TagStore
	things    *ThingStore
	thingTags *ThingTagStore
	changes   *ChangeStore
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source used for changelog timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open loads the package at cfg.PackageDir: it reads the descriptor,
// attaches both rings, loads the CSV files into the source ring and builds
// the overlay views.
func Open(cfg types.Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dir, err := canonicalDir(cfg.PackageDir)
	if err != nil {
		return nil, err
	}
	cfg.PackageDir = dir

	pkg, err := datapackage.Load(dir)
	if err != nil {
		return nil, err
	}

	s := &Store{
		dir:      dir,
		pkg:      pkg,
		strategy: cfg.Strategy(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening engine: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	s.db = db

	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	s.tags = &TagStore{store: s}
	s.things = &ThingStore{store: s}
	s.thingTags = &ThingTagStore{store: s}
	s.changes = &ChangeStore{store: s}

	s.logger.Info("opened package", "dir", dir, "name", pkg.Name, "staging", s.strategy.String())
	return s, nil
}

// init applies pragmas, attaches the rings, creates their relations, loads
// the source ring and builds the overlay.
func (s *Store) init() error {
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("executing %q: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec("ATTACH DATABASE ':memory:' AS " + sourceSchema); err != nil {
		return fmt.Errorf("attaching source ring: %w", err)
	}
	if _, err := s.db.Exec("ATTACH DATABASE ? AS "+stagingSchema, s.strategy.DSN()); err != nil {
		return fmt.Errorf("attaching staging ring %s: %w", s.strategy, err)
	}

	for _, ddl := range sourceDDL {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("creating source relations: %w", err)
		}
	}
	for _, ddl := range stagingDDL {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("creating staging relations: %w", err)
		}
	}

	if err := s.loadSource(); err != nil {
		return err
	}
	return s.buildOverlay()
}

// buildOverlay (re)creates the temp views over both rings.
func (s *Store) buildOverlay() error {
	for _, ddl := range overlayDDL {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("building overlay: %w", err)
		}
	}
	return nil
}

// canonicalDir makes dir absolute and resolves symlinks.
func canonicalDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", abs, err)
	}
	return resolved, nil
}

// Close releases the connection. Staged work survives only with the disk
// strategy. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing engine: %w", err)
	}
	return nil
}

// DB returns the connection for reads and single-statement writes outside a
// transaction.
func (s *Store) DB() Querier { return s.db }

// Begin starts a transaction on the store connection.
func (s *Store) Begin() (*sql.Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return tx, nil
}

// Update runs fn in a transaction and commits when fn returns nil.
func (s *Store) Update(fn func(q Querier) error) error {
	tx, err := s.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Dir returns the canonical package directory.
func (s *Store) Dir() string { return s.dir }

// Package returns the loaded descriptor.
func (s *Store) Package() *datapackage.Package { return s.pkg }

// Strategy returns where the staging ring lives.
func (s *Store) Strategy() types.Strategy { return s.strategy }

func (s *Store) Tags() *TagStore           { return s.tags }
func (s *Store) Things() *ThingStore       { return s.things }
func (s *Store) ThingTags() *ThingTagStore { return s.thingTags }
func (s *Store) Changes() *ChangeStore     { return s.changes }

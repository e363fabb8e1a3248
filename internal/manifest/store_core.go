package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"clipset/internal/config"
)

// Store is the ledger of build runs and split outcomes.
type Store struct {
	db   *sql.DB
	path string
}

// Connection pragmas go in the DSN so every pooled connection gets them;
// foreign keys in particular are per connection in SQLite.
var connectionPragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"foreign_keys(1)",
}

const (
	sqliteBusy     = 5
	sqliteLocked   = 6
	busyAttempts   = 5
	busyBackoff    = 10 * time.Millisecond
	busyBackoffMax = 200 * time.Millisecond
)

// Open opens the manifest in the configured state directory, creating the
// directory and the tables on first use.
func Open(cfg *config.Config) (*Store, error) {
	return OpenPath(cfg.ManifestPath())
}

// OpenPath opens the manifest database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create manifest directory: %w", err)
	}
	params := make([]string, 0, len(connectionPragmas))
	for _, p := range connectionPragmas {
		params = append(params, "_pragma="+p)
	}
	db, err := sql.Open("sqlite", dbPath+"?"+strings.Join(params, "&"))
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", dbPath, err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Exists reports whether a manifest has been created at the configured path.
// Read-only callers use it to avoid creating state as a side effect.
func Exists(cfg *config.Config) bool {
	info, err := os.Stat(cfg.ManifestPath())
	return err == nil && info.Mode().IsRegular()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	return withBusyRetry(ctx, func() (sql.Result, error) {
		return s.db.ExecContext(ctx, query, args...)
	})
}

// withBusyRetry repeats op with exponential backoff while another process
// (a concurrent stats or status call) holds the write lock past busy_timeout.
func withBusyRetry[T any](ctx context.Context, op func() (T, error)) (T, error) {
	delay := busyBackoff
	for attempt := 1; ; attempt++ {
		v, err := op()
		if err == nil || !isBusy(err) || attempt == busyAttempts {
			return v, err
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
		delay = min(delay*2, busyBackoffMax)
	}
}

func isBusy(err error) bool {
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		// Extended result codes keep the primary code in the low byte.
		code := coder.Code() & 0xff
		return code == sqliteBusy || code == sqliteLocked
	}
	return strings.Contains(err.Error(), "database is locked")
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

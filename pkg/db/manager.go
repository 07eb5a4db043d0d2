package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/unowned-ai/daybook/pkg/logging"
)

// ErrNotInitialized is returned by DB before Initialize has succeeded.
var ErrNotInitialized = errors.New("database not initialized: call Initialize first")

// Options describe how the Manager opens its database.
type Options struct {
	Driver string // DriverModernc (default) or DriverMattn
	Path   string // file path or ":memory:"
	WAL    bool
	Sync   string // OFF, NORMAL, FULL or EXTRA
}

// Manager owns the on-disk schema and hands out the connection once the
// schema is ready. Construct one per process and share it.
type Manager struct {
	opts Options
	log  logging.Logger
	now  func() time.Time

	initMu sync.Mutex
	db     atomic.Pointer[sql.DB]
	fts    atomic.Bool
}

func NewManager(opts Options, log logging.Logger) *Manager {
	if log == nil {
		log = logging.Nop()
	}
	return &Manager{
		opts: opts,
		log:  log.With("component", "db"),
		now:  time.Now,
	}
}

// Initialize opens the database, applies migrations, creates the search
// index and seeds default categories. It is safe to call repeatedly and
// concurrently; once it has succeeded further calls return nil immediately.
func (m *Manager) Initialize(ctx context.Context) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	if m.db.Load() != nil {
		return nil
	}

	conn, err := OpenDBConnection(m.opts.Driver, m.opts.Path, m.opts.WAL, m.opts.Sync)
	if err != nil {
		return err
	}

	if err := m.prepare(ctx, conn); err != nil {
		conn.Close()
		return fmt.Errorf("failed to initialize database '%s': %w", m.opts.Path, err)
	}

	m.db.Store(conn)
	return nil
}

func (m *Manager) prepare(ctx context.Context, conn *sql.DB) error {
	if err := UpgradeDB(ctx, conn, m.opts.Path, TargetSchemaVersion, m.log); err != nil {
		return err
	}

	fts, err := ensureSearchIndex(ctx, conn)
	if err != nil {
		return err
	}
	m.fts.Store(fts)
	if !fts {
		m.log.Warn(ctx, "sqlite driver lacks FTS5; search uses substring matching", "driver", m.opts.Driver)
	}

	seeded, err := SeedDefaultCategories(ctx, conn, m.now())
	if err != nil {
		return err
	}
	if seeded > 0 {
		m.log.Info(ctx, "seeded default categories", "count", seeded)
	}

	m.log.Info(ctx, "database ready", "path", m.opts.Path, "schema_version", TargetSchemaVersion, "fts", fts)
	return nil
}

// DB returns the live connection or ErrNotInitialized.
func (m *Manager) DB() (*sql.DB, error) {
	conn := m.db.Load()
	if conn == nil {
		return nil, ErrNotInitialized
	}
	return conn, nil
}

// SearchIndexAvailable reports whether the FTS5 index exists.
func (m *Manager) SearchIndexAvailable() bool {
	return m.fts.Load()
}

// RebuildSearchIndex repopulates the FTS index from the entries table.
func (m *Manager) RebuildSearchIndex(ctx context.Context) error {
	conn, err := m.DB()
	if err != nil {
		return err
	}
	if !m.SearchIndexAvailable() {
		return errors.New("search index is not available with this sqlite driver")
	}
	if _, err := conn.ExecContext(ctx, rebuildSearchIndexSQL); err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}
	m.log.Info(ctx, "search index rebuilt")
	return nil
}

// Path returns the configured database location.
func (m *Manager) Path() string {
	return m.opts.Path
}

// Close checkpoints the WAL and releases the connection. The Manager can be
// initialized again afterwards.
func (m *Manager) Close() error {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	conn := m.db.Swap(nil)
	if conn == nil {
		return nil
	}
	m.fts.Store(false)

	if m.opts.WAL {
		// TRUNCATE mode waits for transactions and writes the WAL back to the main DB.
		if _, err := conn.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
			m.log.Warn(context.Background(), "WAL checkpoint failed during close", "error", err)
		}
	}
	return conn.Close()
}

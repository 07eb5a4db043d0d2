package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unowned-ai/daybook/pkg/logging"
)

const (
	// TargetSchemaVersion is the highest schema version this version of the code supports for the journaldb component.
	TargetSchemaVersion int64 = 2
	// JournalDBComponent is the name for the main journal database component.
	JournalDBComponent = "journaldb"
)

// migration moves the journaldb component from version-1 to version.
type migration struct {
	version     int64
	description string
	apply       func(ctx context.Context, tx DBTX) error
}

var migrations = []migration{
	{
		version:     1,
		description: "entries, tags and entry_tags",
		apply: func(ctx context.Context, tx DBTX) error {
			_, err := tx.ExecContext(ctx, SchemaV1)
			return err
		},
	},
	{
		version:     2,
		description: "categories and entries.category_id",
		apply: func(ctx context.Context, tx DBTX) error {
			if _, err := tx.ExecContext(ctx, SchemaV2); err != nil {
				return err
			}
			if err := ensureColumn(ctx, tx, "entries", "category_id", addCategoryColumnSQL); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, categoryIndexSQL)
			return err
		},
	},
}

// GetComponentSchemaVersion retrieves the schema version for a given component.
// Returns 0 if the component is not found, the versions table is uninitialized, or the table doesn't exist.
func GetComponentSchemaVersion(ctx context.Context, db DBTX, componentName string) (int64, error) {
	query := `SELECT version FROM daybook_versions WHERE component = ?;`

	var version int64
	err := db.QueryRowContext(ctx, query, componentName).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		if strings.Contains(err.Error(), "no such table") && strings.Contains(err.Error(), "daybook_versions") {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan version for component '%s': %w", componentName, err)
	}
	return version, nil
}

func setComponentSchemaVersion(ctx context.Context, db DBTX, componentName string, version int64) error {
	insertVersionSQL := `
INSERT INTO daybook_versions (component, version) VALUES (?, ?)
ON CONFLICT(component) DO UPDATE SET version = excluded.version, created_at = unixepoch();`

	if _, err := db.ExecContext(ctx, insertVersionSQL, componentName, version); err != nil {
		return fmt.Errorf("failed to insert/update version for component %s to %d: %w", componentName, version, err)
	}
	return nil
}

// InitializeSchema creates the journaldb schema on a fresh database, applying
// every migration up to schemaVersionToSet.
func InitializeSchema(ctx context.Context, db *sql.DB, schemaVersionToSet int64) error {
	return migrate(ctx, db, 0, schemaVersionToSet)
}

func migrate(ctx context.Context, db *sql.DB, from, to int64) error {
	if _, err := db.ExecContext(ctx, versionsTableSQL); err != nil {
		return fmt.Errorf("failed to create versions table: %w", err)
	}

	for _, m := range migrations {
		if m.version <= from || m.version > to {
			continue
		}
		err := WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
			if err := m.apply(ctx, tx); err != nil {
				return fmt.Errorf("failed to apply schema v%d (%s): %w", m.version, m.description, err)
			}
			return setComponentSchemaVersion(ctx, tx, JournalDBComponent, m.version)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// UpgradeDB applies necessary migrations to bring the database, represented by the *sql.DB connection,
// for the JournalDBComponent to the appTargetSchemaVersion.
// dbIdentifierForLog is used for logging purposes only.
func UpgradeDB(ctx context.Context, db *sql.DB, dbIdentifierForLog string, appTargetSchemaVersion int64, log logging.Logger) error {
	if log == nil {
		log = logging.Nop()
	}

	currentDBVersion, err := GetComponentSchemaVersion(ctx, db, JournalDBComponent)
	if err != nil {
		return err
	}

	switch {
	case currentDBVersion == appTargetSchemaVersion:
		log.Debug(ctx, "schema up to date", "component", JournalDBComponent, "db", dbIdentifierForLog, "version", currentDBVersion)
		return nil
	case currentDBVersion > appTargetSchemaVersion:
		return fmt.Errorf("component %s in database '%s' has schema version %d, which is newer than application's target schema version %d. Please upgrade the application", JournalDBComponent, dbIdentifierForLog, currentDBVersion, appTargetSchemaVersion)
	}

	log.Info(ctx, "upgrading schema", "component", JournalDBComponent, "db", dbIdentifierForLog, "from", currentDBVersion, "to", appTargetSchemaVersion)
	if err := migrate(ctx, db, currentDBVersion, appTargetSchemaVersion); err != nil {
		return fmt.Errorf("failed to upgrade component %s in database '%s': %w", JournalDBComponent, dbIdentifierForLog, err)
	}
	return nil
}

// ensureColumn runs ddl only when table lacks column.
func ensureColumn(ctx context.Context, db DBTX, table, column, ddl string) error {
	var exists int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM pragma_table_info(?) WHERE name = ? LIMIT 1", table, column).Scan(&exists)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check %s.%s column: %w", table, column, err)
	}

	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("add %s.%s column: %w", table, column, err)
	}
	return nil
}

// SeedDefaultCategories inserts DefaultCategories when the categories table is
// empty and reports how many rows were written.
func SeedDefaultCategories(ctx context.Context, db DBTX, now time.Time) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	seeded := 0
	for _, c := range DefaultCategories {
		res, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO categories (id, name, icon, color, sort_order, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Icon, c.Color, c.SortOrder, now.UnixMilli(),
		)
		if err != nil {
			return seeded, fmt.Errorf("seed category %s: %w", c.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return seeded, err
		}
		seeded += int(n)
	}
	return seeded, nil
}

// ensureSearchIndex creates the FTS table and its triggers. It reports false
// when the driver was built without FTS5; callers then rely on substring search.
//
// A database created by an FTS5-capable driver keeps its index and triggers
// when reopened by one without FTS5. The triggers are dropped in that case so
// writes keep working, and the index is rebuilt on the next FTS5-capable open.
func ensureSearchIndex(ctx context.Context, db *sql.DB) (bool, error) {
	var tables, triggers int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'entries_fts'").Scan(&tables)
	if err != nil {
		return false, fmt.Errorf("check search index: %w", err)
	}
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'trigger' AND name IN ('entries_ai', 'entries_ad', 'entries_au')").Scan(&triggers)
	if err != nil {
		return false, fmt.Errorf("check search index triggers: %w", err)
	}

	if _, err := db.ExecContext(ctx, searchIndexSQL); err != nil {
		if isMissingFTSModule(err) {
			return false, dropSearchTriggers(ctx, db)
		}
		return false, fmt.Errorf("create search index: %w", err)
	}
	// CREATE ... IF NOT EXISTS is a no-op for an existing table, even one
	// whose module this driver lacks.
	if _, err := db.ExecContext(ctx, checkSearchIndexSQL); err != nil {
		if isMissingFTSModule(err) {
			return false, dropSearchTriggers(ctx, db)
		}
		return false, fmt.Errorf("query search index: %w", err)
	}
	if _, err := db.ExecContext(ctx, searchTriggersSQL); err != nil {
		return false, fmt.Errorf("create search index triggers: %w", err)
	}

	if tables == 0 || triggers < len(searchTriggerNames) {
		// The index is new or missed writes while its triggers were absent.
		if _, err := db.ExecContext(ctx, rebuildSearchIndexSQL); err != nil {
			return false, fmt.Errorf("populate search index: %w", err)
		}
	}
	return true, nil
}

func dropSearchTriggers(ctx context.Context, db *sql.DB) error {
	for _, name := range searchTriggerNames {
		if _, err := db.ExecContext(ctx, "DROP TRIGGER IF EXISTS "+name); err != nil {
			return fmt.Errorf("drop search trigger %s: %w", name, err)
		}
	}
	return nil
}

func isMissingFTSModule(err error) bool {
	return strings.Contains(err.Error(), "no such module")
}

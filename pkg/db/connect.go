package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3" // cgo SQLite driver ("sqlite3"); FTS5 needs the sqlite_fts5 build tag
	_ "modernc.org/sqlite"          // pure-Go SQLite driver ("sqlite"); FTS5 built in
)

const (
	// DriverModernc is the default, pure-Go driver.
	DriverModernc = "sqlite"
	// DriverMattn is the cgo driver.
	DriverMattn = "sqlite3"

	busyTimeoutMillis = 5000
)

// validSyncModes lists the allowed values for the synchronous pragma.
var validSyncModes = map[string]bool{
	"OFF":    true,
	"NORMAL": true,
	"FULL":   true,
	"EXTRA":  true, // SQLite also supports EXTRA
}

// OpenDBConnection establishes a connection to a SQLite database with specified options.
// driver selects the database/sql driver (DriverModernc or DriverMattn, empty means DriverModernc).
// baseDSN is the initial data source name (e.g., file path or ":memory:").
// enableWAL sets the journal_mode to WAL if true.
// syncPragma sets the synchronous pragma (e.g., "OFF", "NORMAL", "FULL", "EXTRA").
//
// The pool is pinned to one connection: daybook has a single writer, and
// per-connection pragmas and :memory: databases must stay on that connection.
func OpenDBConnection(driver, baseDSN string, enableWAL bool, syncPragma string) (*sql.DB, error) {
	if driver == "" {
		driver = DriverModernc
	}
	if driver != DriverModernc && driver != DriverMattn {
		return nil, fmt.Errorf("unsupported sqlite driver %q (want %q or %q)", driver, DriverModernc, DriverMattn)
	}

	ucSyncPragma := strings.ToUpper(syncPragma)
	if syncPragma != "" && !validSyncModes[ucSyncPragma] {
		return nil, fmt.Errorf("invalid sync pragma value: %s. Must be one of OFF, NORMAL, FULL, EXTRA", syncPragma)
	}

	params := dsnParams(driver, enableWAL, ucSyncPragma)

	constructedDSN := baseDSN
	if len(params) > 0 {
		if strings.Contains(baseDSN, "?") {
			constructedDSN += "&" + params.Encode()
		} else {
			constructedDSN += "?" + params.Encode()
		}
	}

	db, err := sql.Open(driver, constructedDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database with DSN '%s': %w", constructedDSN, err)
	}
	db.SetMaxOpenConns(1)

	// Ping the database to ensure the connection is alive and the DSN is valid.
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database with DSN '%s': %w", constructedDSN, err)
	}

	// ON DELETE CASCADE / SET NULL depend on this.
	if _, err = db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign key support for DSN '%s': %w", constructedDSN, err)
	}

	return db, nil
}

// dsnParams renders the pragmas in the dialect each driver understands.
func dsnParams(driver string, enableWAL bool, syncPragma string) url.Values {
	params := url.Values{}

	switch driver {
	case DriverMattn:
		params.Add("_foreign_keys", "on")
		params.Add("_busy_timeout", fmt.Sprint(busyTimeoutMillis))
		if enableWAL {
			params.Add("_journal_mode", "WAL")
		}
		if syncPragma != "" {
			params.Add("_synchronous", syncPragma)
		}
	default:
		params.Add("_pragma", "foreign_keys(1)")
		params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMillis))
		if enableWAL {
			params.Add("_pragma", "journal_mode(WAL)")
		}
		if syncPragma != "" {
			params.Add("_pragma", fmt.Sprintf("synchronous(%s)", syncPragma))
		}
	}

	return params
}

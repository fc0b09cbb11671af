package gateway

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "modernc.org/sqlite"             // cgo-free sqlite driver
)

// SQLConfig selects the database/sql backend for the SQL gateway.
type SQLConfig struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string
	// DSN is the driver connection string; ":memory:" works for sqlite.
	DSN string
}

// OpenSQL opens the configured database and reports the normalized driver
// name. The driver set is a fixed registry rather than whatever happens to be
// linked in, so config errors are caught here and not at first query.
func OpenSQL(cfg SQLConfig) (*sql.DB, string, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "sqlite", "sqlite3":
		driver = "sqlite"
	case "postgres", "pgx":
		driver = "pgx"
	default:
		return nil, "", fmt.Errorf("unsupported sql driver %q (want sqlite or postgres)", cfg.Driver)
	}
	dsn := cfg.DSN
	if dsn == "" && driver == "sqlite" {
		dsn = ":memory:"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" && strings.Contains(dsn, ":memory:") {
		// Each pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}
	return db, driver, nil
}

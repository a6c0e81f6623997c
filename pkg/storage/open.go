package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrDSNRequired signals an Open call without a connection string.
	ErrDSNRequired = errors.New("press storage: dsn is required")

	// ErrUnsupportedDriver signals a driver name Open cannot map to a sql
	// driver and bun dialect.
	ErrUnsupportedDriver = errors.New("press storage: unsupported driver")
)

// Open connects to the database named by cfg and wraps it in a bun handle
// with the matching dialect. SQLite is the default driver; postgres goes
// through lib/pq. Pool settings come from cfg.Options; in-memory SQLite
// databases are pinned to a single connection afterwards, since each new
// connection to one would otherwise see an empty schema.
func Open(cfg Config) (*bun.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, ErrDSNRequired
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = "sqlite"
	}

	var driverName string
	switch driver {
	case "sqlite", "sqlite3":
		driverName = "sqlite3"
	case "postgres", "postgresql", "pg":
		driverName = "postgres"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("press storage: open %s: %w", driverName, err)
	}

	applyPoolOptions(sqlDB, cfg.Options)
	if driverName == "sqlite3" && isMemoryDSN(dsn) {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	if driverName == "postgres" {
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	}
	return bun.NewDB(sqlDB, sqlitedialect.New()), nil
}

func applyPoolOptions(db *sql.DB, options map[string]any) {
	if n, ok := intOption(options, "max_open_conns"); ok && n >= 0 {
		db.SetMaxOpenConns(n)
	}
	if n, ok := intOption(options, "max_idle_conns"); ok && n >= 0 {
		db.SetMaxIdleConns(n)
	}
	if d, ok := durationOption(options, "conn_max_lifetime"); ok && d >= 0 {
		db.SetConnMaxLifetime(d)
	}
	if d, ok := durationOption(options, "conn_max_idle_time"); ok && d >= 0 {
		db.SetConnMaxIdleTime(d)
	}
}

// intOption tolerates the numeric types yaml and json decoders produce for
// untyped option maps.
func intOption(options map[string]any, key string) (int, bool) {
	raw, ok := options[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func durationOption(options map[string]any, key string) (time.Duration, bool) {
	raw, ok := options[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return d, true
	case time.Duration:
		return v, true
	default:
		return 0, false
	}
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

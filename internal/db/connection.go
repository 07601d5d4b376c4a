package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Connection holds the database connection and the SQL dialect it speaks.
type Connection struct {
	DB      *sql.DB
	Dialect Dialect
}

// Open opens a store connection. For sqlite the DSN is a file path whose
// parent directory is created if needed.
func Open(ctx context.Context, driver, dsn string) (*Connection, error) {
	var dialect Dialect
	switch driver {
	case DriverSQLite:
		dialect = SQLite{}
		if dir := filepath.Dir(dsn); dir != "." && dsn != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create store directory: %w", err)
			}
		}
	case DriverPostgres:
		dialect = Postgres{}
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// sqlite has one writer; ":memory:" is per connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{DB: db, Dialect: dialect}, nil
}

// PostgresDSN builds a lib/pq DSN from the PG* environment variables.
func PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnvOrDefault("PGHOST", "localhost"),
		getEnvOrDefault("PGPORT", "5432"),
		getEnvOrDefault("PGUSER", "itbi"),
		getEnvOrDefault("PGPASSWORD", "itbi"),
		getEnvOrDefault("PGDATABASE", "itbi"))
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.DB.Close()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

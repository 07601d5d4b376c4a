package db

import (
	"strconv"
	"strings"
)

// ColumnType is a portable column type.
type ColumnType int

const (
	Text ColumnType = iota
	Integer
	Real
)

// Dialect renders the SQL fragments that differ between backends.
type Dialect interface {
	Name() string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
	TypeName(t ColumnType) string
	// TableExistsQuery takes the table name as its single argument and
	// returns one integer row.
	TableExistsQuery() string
}

// SQLite is the modernc.org/sqlite dialect.
type SQLite struct{}

func (SQLite) Name() string { return DriverSQLite }

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) TypeName(t ColumnType) string {
	switch t {
	case Integer:
		return "INTEGER"
	case Real:
		return "REAL"
	default:
		return "TEXT"
	}
}

func (SQLite) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
}

// Postgres is the lib/pq dialect.
type Postgres struct{}

func (Postgres) Name() string { return DriverPostgres }

func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Postgres) TypeName(t ColumnType) string {
	switch t {
	case Integer:
		return "BIGINT"
	case Real:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

func (Postgres) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`
}

// QuoteIdent quotes an identifier for either backend.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Placeholders returns n comma-separated bind markers starting at from.
func Placeholders(d Dialect, from, n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = d.Placeholder(from + i)
	}
	return strings.Join(marks, ", ")
}

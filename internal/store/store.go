// Package store persists typed rows in named tables on SQLite or PostgreSQL
// and reads them back in insertion order.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/itbi-consulta/internal/db"
)

var (
	// ErrTableNotFound is returned when reading or appending to a table
	// that has never been written.
	ErrTableNotFound = errors.New("table not found")
	// ErrSchemaMismatch is returned when appending rows whose layout differs
	// from the table's.
	ErrSchemaMismatch = errors.New("row layout does not match table")
	// ErrUnknownColumn is returned for predicates on columns the codec does
	// not define.
	ErrUnknownColumn = errors.New("unknown column")
)

// seqColumn records source order; every scan orders by it.
const seqColumn = "seq"

// Column is one stored field.
type Column struct {
	Name string
	Type db.ColumnType
}

// Scanner is implemented by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Codec maps a row type onto table columns.
type Codec[T any] interface {
	Columns() []Column
	// Indexes lists columns that get a single-column index.
	Indexes() []string
	Values(row T) []any
	Scan(sc Scanner) (T, error)
}

// Store is a tabular store over a database connection. Reads take a shared
// per-table lock; writers serialise with Exclusive.
type Store struct {
	db      *sql.DB
	dialect db.Dialect

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// New creates a store over an open connection.
func New(conn *db.Connection) *Store {
	return &Store{
		db:      conn.DB,
		dialect: conn.Dialect,
		locks:   make(map[string]*sync.RWMutex),
	}
}

// DB exposes the underlying handle for metadata tables.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect returns the SQL dialect of the backend.
func (s *Store) Dialect() db.Dialect { return s.dialect }

func (s *Store) lock(name string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[name]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[name] = l
	}
	return l
}

// Exclusive blocks until no reader or writer holds the table and returns
// the release func. Replace and Append do not lock on their own, so an
// ingest run holds Exclusive across all of its batches.
func (s *Store) Exclusive(name string) (release func()) {
	l := s.lock(name)
	l.Lock()
	return l.Unlock
}

func (s *Store) shared(name string) (release func()) {
	l := s.lock(name)
	l.RLock()
	return l.RUnlock
}

// TableExists reports whether the table has been created.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.dialect.TableExistsQuery(), name).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return n > 0, nil
}

// Count returns the number of rows in a table.
func (s *Store) Count(ctx context.Context, name string) (int, error) {
	release := s.shared(name)
	defer release()

	if err := s.requireTable(ctx, name); err != nil {
		return 0, err
	}

	var n int
	query := "SELECT COUNT(*) FROM " + db.QuoteIdent(name)
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", name, err)
	}
	return n, nil
}

func (s *Store) requireTable(ctx context.Context, name string) error {
	ok, err := s.TableExists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return nil
}

// Replace drops and recreates the table, then inserts rows in order.
func Replace[T any](ctx context.Context, s *Store, name string, codec Codec[T], rows []T) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	table := db.QuoteIdent(name)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("failed to drop %s: %w", name, err)
	}

	defs := []string{db.QuoteIdent(seqColumn) + " " + s.dialect.TypeName(db.Integer)}
	for _, c := range codec.Columns() {
		defs = append(defs, db.QuoteIdent(c.Name)+" "+s.dialect.TypeName(c.Type))
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}

	for _, col := range append([]string{seqColumn}, codec.Indexes()...) {
		idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			db.QuoteIdent("idx_"+name+"_"+col), table, db.QuoteIdent(col))
		if _, err := tx.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to index %s.%s: %w", name, col, err)
		}
	}

	if err := insertRows(ctx, tx, s.dialect, name, codec, rows, 0); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", name, err)
	}
	return nil
}

// Append inserts rows after the existing ones. The table must exist with
// the codec's layout.
func Append[T any](ctx context.Context, s *Store, name string, codec Codec[T], rows []T) error {
	if err := s.requireTable(ctx, name); err != nil {
		return err
	}
	if err := checkLayout(ctx, s, name, codec); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int64
	query := fmt.Sprintf("SELECT COALESCE(MAX(%s) + 1, 0) FROM %s", db.QuoteIdent(seqColumn), db.QuoteIdent(name))
	if err := tx.QueryRowContext(ctx, query).Scan(&next); err != nil {
		return fmt.Errorf("failed to read next sequence of %s: %w", name, err)
	}

	if err := insertRows(ctx, tx, s.dialect, name, codec, rows, next); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", name, err)
	}
	return nil
}

func checkLayout[T any](ctx context.Context, s *Store, name string, codec Codec[T]) error {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+db.QuoteIdent(name)+" LIMIT 0")
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", name, err)
	}
	defer rows.Close()

	have, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", name, err)
	}

	want := []string{seqColumn}
	for _, c := range codec.Columns() {
		want = append(want, c.Name)
	}
	if len(have) != len(want) {
		return fmt.Errorf("%w: %s has %d columns, rows have %d", ErrSchemaMismatch, name, len(have), len(want))
	}
	for i := range want {
		if !strings.EqualFold(have[i], want[i]) {
			return fmt.Errorf("%w: %s column %d is %s, rows have %s", ErrSchemaMismatch, name, i, have[i], want[i])
		}
	}
	return nil
}

func insertRows[T any](ctx context.Context, tx *sql.Tx, d db.Dialect, name string, codec Codec[T], rows []T, seq int64) error {
	if len(rows) == 0 {
		return nil
	}

	cols := []string{db.QuoteIdent(seqColumn)}
	for _, c := range codec.Columns() {
		cols = append(cols, db.QuoteIdent(c.Name))
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		db.QuoteIdent(name), strings.Join(cols, ", "), db.Placeholders(d, 1, len(cols)))

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", name, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		args := append([]any{seq + int64(i)}, codec.Values(row)...)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", seq+int64(i), name, err)
		}
	}
	return nil
}

// LoadAll returns every row of the table in store order.
func LoadAll[T any](ctx context.Context, s *Store, name string, codec Codec[T]) ([]T, error) {
	return Query(ctx, s, name, codec, Where())
}

// Query returns the rows matching pred in store order.
func Query[T any](ctx context.Context, s *Store, name string, codec Codec[T], pred Predicate) ([]T, error) {
	release := s.shared(name)
	defer release()

	if err := s.requireTable(ctx, name); err != nil {
		return nil, err
	}

	known := make(map[string]bool)
	names := make([]string, 0, len(codec.Columns()))
	for _, c := range codec.Columns() {
		known[c.Name] = true
		names = append(names, db.QuoteIdent(c.Name))
	}

	where, args, err := pred.render(s.dialect, known)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(names, ", "), db.QuoteIdent(name), where, db.QuoteIdent(seqColumn))
	if pred.limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", pred.limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		row, err := codec.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", name, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return out, nil
}

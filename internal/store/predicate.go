package store

import (
	"fmt"
	"strings"

	"github.com/itbi-consulta/internal/db"
)

type condKind int

const (
	condContains condKind = iota
	condEquals
	condBetween
)

type cond struct {
	kind condKind
	col  string
	args []any
}

// Predicate is an immutable conjunction of column conditions. Each builder
// method returns a new Predicate.
type Predicate struct {
	conds []cond
	limit int
}

// Where starts an empty predicate that matches every row.
func Where() Predicate { return Predicate{} }

func (p Predicate) with(c cond) Predicate {
	conds := make([]cond, len(p.conds), len(p.conds)+1)
	copy(conds, p.conds)
	return Predicate{conds: append(conds, c), limit: p.limit}
}

// Contains matches rows whose column holds text as a case-insensitive
// substring. LIKE wildcards in text match literally.
func (p Predicate) Contains(col, text string) Predicate {
	return p.with(cond{kind: condContains, col: col, args: []any{"%" + escapeLike(strings.ToUpper(text)) + "%"}})
}

// Equals matches rows whose column equals v.
func (p Predicate) Equals(col string, v any) Predicate {
	return p.with(cond{kind: condEquals, col: col, args: []any{v}})
}

// Between matches rows whose column lies in [lo, hi].
func (p Predicate) Between(col string, lo, hi any) Predicate {
	return p.with(cond{kind: condBetween, col: col, args: []any{lo, hi}})
}

// Limit caps the number of rows returned; n <= 0 means no cap.
func (p Predicate) Limit(n int) Predicate {
	return Predicate{conds: p.conds, limit: n}
}

// Len returns the number of conditions.
func (p Predicate) Len() int { return len(p.conds) }

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// render returns the WHERE clause (with a leading space, or "") and its
// bind arguments.
func (p Predicate) render(d db.Dialect, known map[string]bool) (string, []any, error) {
	if len(p.conds) == 0 {
		return "", nil, nil
	}

	var (
		parts []string
		args  []any
	)
	n := 1
	for _, c := range p.conds {
		if !known[c.col] {
			return "", nil, fmt.Errorf("%w: %s", ErrUnknownColumn, c.col)
		}
		col := db.QuoteIdent(c.col)

		switch c.kind {
		case condContains:
			parts = append(parts, fmt.Sprintf(`UPPER(%s) LIKE %s ESCAPE '\'`, col, d.Placeholder(n)))
		case condEquals:
			parts = append(parts, fmt.Sprintf("%s = %s", col, d.Placeholder(n)))
		case condBetween:
			parts = append(parts, fmt.Sprintf("%s >= %s AND %s <= %s", col, d.Placeholder(n), col, d.Placeholder(n+1)))
		}
		n += len(c.args)
		args = append(args, c.args...)
	}

	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

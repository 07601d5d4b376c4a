// Package query filters ITBI transactions by street, house number and
// built area.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/itbi-consulta/internal/config"
	"github.com/itbi-consulta/internal/model"
	"github.com/itbi-consulta/internal/store"
)

// ErrInvalidFilter is returned for filters that cannot be evaluated.
var ErrInvalidFilter = errors.New("invalid filter")

// NumberMode selects how the house number is filtered.
type NumberMode int

const (
	// NumberExact keeps rows whose number equals Exact. It is the zero
	// value, so an unset filter keeps only number 0.
	NumberExact NumberMode = iota
	// NumberRange keeps rows whose number lies in [Min, Max].
	NumberRange
)

func (m NumberMode) String() string {
	if m == NumberRange {
		return "range"
	}
	return "exact"
}

// MarshalText encodes the mode as "exact" or "range".
func (m NumberMode) MarshalText() ([]byte, error) {
	if m != NumberExact && m != NumberRange {
		return nil, fmt.Errorf("%w: number mode %d", ErrInvalidFilter, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText accepts "exact", "range" or an empty string (exact).
func (m *NumberMode) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "", "exact":
		*m = NumberExact
	case "range":
		*m = NumberRange
	default:
		return fmt.Errorf("%w: number mode %q", ErrInvalidFilter, b)
	}
	return nil
}

// NumberFilter is the house number condition.
type NumberFilter struct {
	Mode  NumberMode `json:"mode"`
	Exact int        `json:"exact"`
	Min   int        `json:"min"`
	Max   int        `json:"max"`
}

// Exact builds an exact number filter.
func Exact(n int) NumberFilter { return NumberFilter{Mode: NumberExact, Exact: n} }

// Between builds an inclusive number range filter.
func Between(lo, hi int) NumberFilter { return NumberFilter{Mode: NumberRange, Min: lo, Max: hi} }

// Matches reports whether n satisfies the filter.
func (f NumberFilter) Matches(n int) bool {
	if f.Mode == NumberRange {
		return n >= f.Min && n <= f.Max
	}
	return n == f.Exact
}

// AreaRange is an inclusive built area range.
type AreaRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Filter is an immutable transaction search request. Copy it to change it.
type Filter struct {
	StreetContains string       `json:"street_contains"`
	Number         NumberFilter `json:"number"`
	Area           *AreaRange   `json:"area,omitempty"`
}

// WithArea returns a copy of f restricted to built area in [lo, hi].
func (f Filter) WithArea(lo, hi float64) Filter {
	f.Area = &AreaRange{Min: lo, Max: hi}
	return f
}

// Validate rejects unknown number modes and inverted ranges.
func (f Filter) Validate() error {
	switch f.Number.Mode {
	case NumberExact:
	case NumberRange:
		if f.Number.Min > f.Number.Max {
			return fmt.Errorf("%w: number range %d > %d", ErrInvalidFilter, f.Number.Min, f.Number.Max)
		}
	default:
		return fmt.Errorf("%w: number mode %d", ErrInvalidFilter, int(f.Number.Mode))
	}
	if f.Area != nil && f.Area.Min > f.Area.Max {
		return fmt.Errorf("%w: area range %.2f > %.2f", ErrInvalidFilter, f.Area.Min, f.Area.Max)
	}
	return nil
}

// Matches evaluates the filter against one row. It agrees with Predicate
// for rows whose text fields are stored upper-cased.
func (f Filter) Matches(t model.Transaction) bool {
	if f.StreetContains != "" &&
		!strings.Contains(strings.ToUpper(t.StreetName), strings.ToUpper(f.StreetContains)) {
		return false
	}
	if !f.Number.Matches(t.HouseNumber) {
		return false
	}
	if f.Area != nil && (t.BuiltArea < f.Area.Min || t.BuiltArea > f.Area.Max) {
		return false
	}
	return true
}

// Predicate renders the filter as a store predicate.
func (f Filter) Predicate() store.Predicate {
	pred := store.Where()
	if f.StreetContains != "" {
		pred = pred.Contains(config.FieldStreetName, f.StreetContains)
	}
	if f.Number.Mode == NumberRange {
		pred = pred.Between(config.FieldHouseNumber, f.Number.Min, f.Number.Max)
	} else {
		pred = pred.Equals(config.FieldHouseNumber, f.Number.Exact)
	}
	if f.Area != nil {
		pred = pred.Between(config.FieldBuiltArea, f.Area.Min, f.Area.Max)
	}
	return pred
}

// Describe lists the filter as human-readable lines for reports.
func (f Filter) Describe() []string {
	street := f.StreetContains
	if street == "" {
		street = "(qualquer)"
	}
	lines := []string{"Logradouro contém: " + street}

	if f.Number.Mode == NumberRange {
		lines = append(lines, fmt.Sprintf("Número: de %d a %d", f.Number.Min, f.Number.Max))
	} else {
		lines = append(lines, fmt.Sprintf("Número: %d", f.Number.Exact))
	}

	if f.Area != nil {
		lines = append(lines, fmt.Sprintf("Área construída: de %.2f a %.2f m²", f.Area.Min, f.Area.Max))
	}
	return lines
}

// ErrBadSelection is returned for selection indexes outside a result.
var ErrBadSelection = errors.New("selection out of range")

// Select picks rows by index, keeping the order of indexes.
func Select(rows []model.Transaction, indexes []int) ([]model.Transaction, error) {
	out := make([]model.Transaction, 0, len(indexes))
	for _, i := range indexes {
		if i < 0 || i >= len(rows) {
			return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrBadSelection, i, len(rows))
		}
		out = append(out, rows[i])
	}
	return out, nil
}

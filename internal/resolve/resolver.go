// Package resolve looks up the built area of a property in the IPTU roll
// from its street, number and complement.
package resolve

import (
	"context"
	"errors"
	"strings"

	"github.com/itbi-consulta/internal/addrparse"
	"github.com/itbi-consulta/internal/config"
	"github.com/itbi-consulta/internal/logger"
	"github.com/itbi-consulta/internal/metrics"
	"github.com/itbi-consulta/internal/model"
	"github.com/itbi-consulta/internal/store"
)

// Notices returned with unresolved lookups.
const (
	NoticeNotLoaded   = "property table not loaded"
	NoticeUnavailable = "property lookup unavailable"
	NoticeNoAddress   = "no address given"
	NoticeNotFound    = "property not found"
)

// Lookup identifies a property. Number 0 means the number was not given.
type Lookup struct {
	Street     string `json:"street"`
	Number     int    `json:"number"`
	Complement string `json:"complement,omitempty"`
}

func (l Lookup) empty() bool {
	return strings.TrimSpace(l.Street) == "" && l.Number <= 0 && strings.TrimSpace(l.Complement) == ""
}

// Resolution is the outcome of a lookup. It is never an error: failures
// come back as Found=false with a Notice.
type Resolution struct {
	Found     bool               `json:"found"`
	BuiltArea float64            `json:"built_area"`
	Property  *model.Property    `json:"property,omitempty"`
	Parsed    *addrparse.Address `json:"parsed,omitempty"`
	Notice    string             `json:"notice,omitempty"`
}

// Resolver queries the property table.
type Resolver struct {
	store   *store.Store
	table   string
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewResolver creates a resolver over the property table. m may be nil.
func NewResolver(s *store.Store, table string, log *logger.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{store: s, table: table, log: log, metrics: m}
}

// Predicate renders a lookup: street and complement are case-insensitive
// substrings, the number is exact and only applied when positive. Only the
// first row in store order is consulted.
func (l Lookup) Predicate() store.Predicate {
	pred := store.Where()
	if street := strings.TrimSpace(l.Street); street != "" {
		pred = pred.Contains(config.FieldStreetName, street)
	}
	if l.Number > 0 {
		pred = pred.Equals(config.FieldHouseNumber, l.Number)
	}
	if complement := strings.TrimSpace(l.Complement); complement != "" {
		pred = pred.Contains(config.FieldComplement, complement)
	}
	return pred.Limit(1)
}

// Resolve returns the built area of the first property matching l.
func (r *Resolver) Resolve(ctx context.Context, l Lookup) Resolution {
	if l.empty() {
		return Resolution{Notice: NoticeNoAddress}
	}

	rows, err := store.Query(ctx, r.store, r.table, store.Properties, l.Predicate())
	switch {
	case errors.Is(err, store.ErrTableNotFound):
		r.log.Warn("property lookup without data", "table", r.table)
		r.metrics.Resolution("unavailable")
		return Resolution{Notice: NoticeNotLoaded}
	case err != nil:
		r.log.Warn("property lookup failed", "table", r.table, "street", l.Street, "number", l.Number, "error", err)
		r.metrics.Resolution("unavailable")
		return Resolution{Notice: NoticeUnavailable}
	case len(rows) == 0:
		r.metrics.Resolution("not_found")
		return Resolution{Notice: NoticeNotFound}
	}

	r.metrics.Resolution("found")
	p := rows[0]
	return Resolution{Found: true, BuiltArea: p.BuiltArea, Property: &p}
}

// ResolveText parses a free-text address and resolves it.
func (r *Resolver) ResolveText(ctx context.Context, text string) Resolution {
	addr := addrparse.Parse(text)
	if addr.Empty() {
		return Resolution{Notice: NoticeNoAddress}
	}

	res := r.Resolve(ctx, Lookup{Street: addr.Street, Number: addr.Number, Complement: addr.Complement})
	res.Parsed = &addr
	return res
}

package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itbi-consulta/internal/audit"
	"github.com/itbi-consulta/internal/cache"
	"github.com/itbi-consulta/internal/config"
	"github.com/itbi-consulta/internal/logger"
	"github.com/itbi-consulta/internal/metrics"
	"github.com/itbi-consulta/internal/model"
	"github.com/itbi-consulta/internal/store"
)

// NoticeNotLoaded is reported when the transaction table has not been
// ingested yet.
const NoticeNotLoaded = "transaction table not loaded"

// Result is the outcome of a search. Rows keep store order.
type Result struct {
	Rows   []model.Transaction `json:"rows"`
	Notice string              `json:"notice,omitempty"`
}

// Engine searches the transaction table.
type Engine struct {
	store   *store.Store
	table   string
	log     *logger.Logger
	metrics *metrics.Metrics

	cache   cache.Cache[model.Transaction]
	tracker *audit.Tracker
}

// NewEngine creates a search engine over table. m may be nil.
func NewEngine(s *store.Store, table string, log *logger.Logger, m *metrics.Metrics) *Engine {
	return &Engine{store: s, table: table, log: log, metrics: m}
}

// WithCache makes the engine load the whole table once per ingest run and
// filter in memory. The tracker supplies the last run; the cache is used only
// while that run succeeded.
func (e *Engine) WithCache(c cache.Cache[model.Transaction], tracker *audit.Tracker) *Engine {
	e.cache = c
	e.tracker = tracker
	return e
}

// Search returns the transactions matching f. A missing table yields an
// empty result with a notice.
func (e *Engine) Search(ctx context.Context, f Filter) (Result, error) {
	if err := f.Validate(); err != nil {
		return Result{}, err
	}

	if e.cache != nil && e.tracker != nil {
		rows, ok, err := e.searchCached(ctx, f)
		if err == nil && ok {
			return Result{Rows: rows}, nil
		}
		if err != nil && !errors.Is(err, store.ErrTableNotFound) {
			e.log.Warn("cached search failed, querying store", "table", e.table, "error", err)
		}
	}

	start := time.Now()
	defer e.metrics.ObserveQuery("sql", start)

	rows, err := store.Query(ctx, e.store, e.table, store.Transactions, f.Predicate())
	if errors.Is(err, store.ErrTableNotFound) {
		return Result{Notice: NoticeNotLoaded}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("search %s: %w", e.table, err)
	}
	return Result{Rows: rows}, nil
}

// searchCached reports ok=false unless the latest ingest run on the table
// succeeded, so the caller falls back to SQL. A table left by a running or
// failed run is never cached.
func (e *Engine) searchCached(ctx context.Context, f Filter) ([]model.Transaction, bool, error) {
	start := time.Now()

	run, err := e.tracker.Latest(ctx, e.table)
	if err != nil || run == nil {
		return nil, false, err
	}
	if run.Status != audit.StatusSucceeded {
		e.log.Debug("latest ingest run did not succeed, bypassing cache", "table", e.table, "run", run.ID, "status", run.Status)
		return nil, false, nil
	}

	key := cache.Key{Dataset: run.Dataset, Signature: run.Signature + ":" + run.ID}
	all, hit, err := e.cache.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	e.metrics.CacheLookup(run.Dataset, hit)

	if !hit {
		all, err = store.LoadAll(ctx, e.store, e.table, store.Transactions)
		if err != nil {
			return nil, false, err
		}
		if err := e.cache.Set(ctx, key, all); err != nil {
			e.log.Warn("failed to cache dataset", "key", key.String(), "error", err)
		}
	}

	var out []model.Transaction
	for _, t := range all {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	e.metrics.ObserveQuery("cache", start)
	return out, true, nil
}

// Invalidate drops the cached snapshot of the transaction dataset.
func (e *Engine) Invalidate(ctx context.Context) error {
	if e.cache == nil {
		return nil
	}
	return e.cache.Invalidate(ctx, config.DatasetTransactions)
}

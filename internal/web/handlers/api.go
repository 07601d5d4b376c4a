// Package handlers implements the HTTP endpoints of the consultation API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/itbi-consulta/internal/audit"
	"github.com/itbi-consulta/internal/logger"
	"github.com/itbi-consulta/internal/resolve"
	"github.com/itbi-consulta/internal/store"
	"github.com/itbi-consulta/internal/valuation"
)

// Config represents the handler feature switches
type Config struct {
	Features struct {
		ReportsEnabled bool `json:"reports_enabled"`
	} `json:"features"`
}

// Searcher runs transaction searches.
type Searcher = valuation.Searcher

// Resolver resolves property addresses.
type Resolver = valuation.Resolver

// Invalidator drops cached datasets.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Pinger checks the store connection.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// APIHandler handles the status and maintenance endpoints
type APIHandler struct {
	Store   *store.Store
	Tracker *audit.Tracker
	Cache   Invalidator
	DB      Pinger
	// Tables maps dataset names to their store tables.
	Tables map[string]string
	Log    *logger.Logger
}

// TableStats describes one dataset table.
type TableStats struct {
	Dataset string     `json:"dataset"`
	Table   string     `json:"table"`
	Loaded  bool       `json:"loaded"`
	Rows    int        `json:"rows"`
	LastRun *audit.Run `json:"last_run,omitempty"`
}

// StatsResponse represents the dataset overview
type StatsResponse struct {
	Tables []TableStats `json:"tables"`
	Runs   []audit.Run  `json:"runs"`
	Notice string       `json:"notice,omitempty"`
}

// GetStats returns row counts and recent ingest runs
func (h *APIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := parseIntParam(r.URL.Query().Get("runs"), 10)

	datasets := make([]string, 0, len(h.Tables))
	for name := range h.Tables {
		datasets = append(datasets, name)
	}
	sort.Strings(datasets)

	resp := StatsResponse{Tables: []TableStats{}, Runs: []audit.Run{}}
	for _, name := range datasets {
		ts := TableStats{Dataset: name, Table: h.Tables[name]}
		n, err := h.Store.Count(ctx, ts.Table)
		switch {
		case errors.Is(err, store.ErrTableNotFound):
		case err != nil:
			h.Log.Error("failed to count table", "table", ts.Table, "error", err)
			resp.Notice = "statistics unavailable"
		default:
			ts.Loaded = true
			ts.Rows = n
		}

		if h.Tracker != nil {
			if run, err := h.Tracker.LatestSucceeded(ctx, ts.Table); err == nil {
				ts.LastRun = run
			}
		}
		resp.Tables = append(resp.Tables, ts)
	}

	if h.Tracker != nil {
		runs, err := h.Tracker.History(ctx, limit)
		if err != nil {
			h.Log.Error("failed to read ingest runs", "error", err)
			resp.Notice = "statistics unavailable"
		} else if runs != nil {
			resp.Runs = runs
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// InvalidateCache drops cached datasets so the next search reloads them
func (h *APIHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if h.Cache == nil {
		writeJSON(w, http.StatusOK, map[string]any{"invalidated": false, "notice": "cache disabled"})
		return
	}
	if err := h.Cache.Invalidate(r.Context()); err != nil {
		h.Log.Error("cache invalidation failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "cache unavailable")
		return
	}
	h.Log.Info("dataset cache invalidated")
	writeJSON(w, http.StatusOK, map[string]any{"invalidated": true})
}

// Health reports whether the store connection is usable
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		if err := h.DB.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PropertyHandler handles property lookups
type PropertyHandler struct {
	Resolver Resolver
}

// Resolve looks up a property's built area by street, number and
// complement, or by a free-text address in q
func (h *PropertyHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if text := q.Get("q"); text != "" {
		writeJSON(w, http.StatusOK, h.Resolver.ResolveText(r.Context(), text))
		return
	}

	number := 0
	if s := q.Get("number"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "number must be a non-negative integer")
			return
		}
		number = n
	}

	lookup := resolve.Lookup{Street: q.Get("street"), Number: number, Complement: q.Get("complement")}
	writeJSON(w, http.StatusOK, h.Resolver.Resolve(r.Context(), lookup))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return defaultVal
}

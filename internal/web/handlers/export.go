package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/itbi-consulta/internal/logger"
	"github.com/itbi-consulta/internal/query"
	"github.com/itbi-consulta/internal/report"
)

// ReportHandler builds printable reports from a search and a selection
type ReportHandler struct {
	Engine Searcher
	Config *Config
	Log    *logger.Logger
	Now    func() time.Time
}

// ReportRequest represents a report request
type ReportRequest struct {
	Filter   query.Filter `json:"filter"`
	Selected []int        `json:"selected"`
}

// CreateReport runs the search and returns the report as JSON, or as the
// printable HTML page with ?format=html
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	if h.Config != nil && !h.Config.Features.ReportsEnabled {
		writeError(w, http.StatusForbidden, "reports disabled")
		return
	}

	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request")
		return
	}

	res, err := query.Degraded(h.Engine, h.Log).Search(r.Context(), req.Filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	rep, err := report.Build(res.Rows, req.Selected, req.Filter, now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := report.RenderHTML(w, rep); err != nil {
			h.Log.Error("failed to render report", "report_id", rep.ID, "error", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, struct {
		report.Report
		Notice string `json:"notice,omitempty"`
	}{rep, res.Notice})
}

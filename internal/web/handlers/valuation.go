package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/itbi-consulta/internal/logger"
	"github.com/itbi-consulta/internal/query"
	"github.com/itbi-consulta/internal/resolve"
	"github.com/itbi-consulta/internal/valuation"
)

// ValuationHandler handles comparative valuation
type ValuationHandler struct {
	Engine   Searcher
	Resolver Resolver
	Log      *logger.Logger
}

// EstimateRequest is a direct estimate from a known price per area
type EstimateRequest struct {
	ReferencePricePerArea float64 `json:"reference_price_per_area"`
	Area                  float64 `json:"area"`
}

// CompareRequest picks reference transactions and the target property
type CompareRequest struct {
	Filter     query.Filter `json:"filter"`
	Selected   []int        `json:"selected"`
	Street     string       `json:"street"`
	Number     int          `json:"number"`
	Complement string       `json:"complement"`
	Address    string       `json:"address"`
	Area       float64      `json:"area"`
}

// Estimate multiplies an area by a reference price per area
func (h *ValuationHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request")
		return
	}

	est, err := valuation.Estimate(req.ReferencePricePerArea, req.Area)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, est)
}

// Compare averages the selected transactions and applies the price to the
// resolved target property
func (h *ValuationHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request")
		return
	}

	cmp, err := valuation.Compare(r.Context(), query.Degraded(h.Engine, h.Log), h.Resolver, valuation.Request{
		Filter:     req.Filter,
		Selected:   req.Selected,
		Target:     resolve.Lookup{Street: req.Street, Number: req.Number, Complement: req.Complement},
		TargetText: req.Address,
		Area:       req.Area,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, cmp)
	case errors.Is(err, valuation.ErrInvalidComparisonInput), errors.Is(err, valuation.ErrNoReferenceRows):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, query.ErrInvalidFilter), errors.Is(err, query.ErrBadSelection):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.Log.Error("valuation failed", "error", err)
		writeJSON(w, http.StatusOK, valuation.Comparison{Notice: query.NoticeUnavailable})
	}
}

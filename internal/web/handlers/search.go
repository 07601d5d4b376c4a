package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/itbi-consulta/internal/logger"
	"github.com/itbi-consulta/internal/model"
	"github.com/itbi-consulta/internal/query"
)

// SearchHandler handles transaction searches
type SearchHandler struct {
	Engine Searcher
	Log    *logger.Logger
}

// SearchTransactions filters ITBI transactions by street, number and area
func (h *SearchHandler) SearchTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := query.Degraded(h.Engine, h.Log).Search(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if res.Rows == nil {
		res.Rows = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, res)
}

// parseFilter reads street, number, number_min/number_max and
// area_min/area_max. Without any number parameter the filter is exact 0.
func parseFilter(q url.Values) (query.Filter, error) {
	f := query.Filter{StreetContains: q.Get("street")}

	minS, maxS := q.Get("number_min"), q.Get("number_max")
	switch {
	case minS != "" || maxS != "":
		if q.Get("number") != "" {
			return f, fmt.Errorf("%w: number and number range are exclusive", query.ErrInvalidFilter)
		}
		lo, err1 := strconv.Atoi(minS)
		hi, err2 := strconv.Atoi(maxS)
		if err1 != nil || err2 != nil {
			return f, fmt.Errorf("%w: number_min and number_max must both be integers", query.ErrInvalidFilter)
		}
		f.Number = query.Between(lo, hi)
	case q.Get("number") != "":
		n, err := strconv.Atoi(q.Get("number"))
		if err != nil {
			return f, fmt.Errorf("%w: number must be an integer", query.ErrInvalidFilter)
		}
		f.Number = query.Exact(n)
	}

	areaMin, areaMax := q.Get("area_min"), q.Get("area_max")
	if areaMin != "" || areaMax != "" {
		lo, err1 := strconv.ParseFloat(areaMin, 64)
		hi, err2 := strconv.ParseFloat(areaMax, 64)
		if err1 != nil || err2 != nil {
			return f, fmt.Errorf("%w: area_min and area_max must both be numbers", query.ErrInvalidFilter)
		}
		f = f.WithArea(lo, hi)
	}

	return f, f.Validate()
}

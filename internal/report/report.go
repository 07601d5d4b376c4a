// Package report builds the printable summary of a transaction search.
package report

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/itbi-consulta/internal/model"
	"github.com/itbi-consulta/internal/normalize"
	"github.com/itbi-consulta/internal/query"
)

// Statistic scopes.
const (
	ScopeSelected = "selected"
	ScopeAll      = "all"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Currency formats v as Brazilian reais, e.g. "R$ 1.234,56".
func Currency(v float64) string {
	return printer.Sprintf("R$ %v", number.Decimal(v, number.Scale(2)))
}

// Area formats a built area with two decimals, e.g. "1.234,50".
func Area(v float64) string {
	return printer.Sprintf("%v", number.Decimal(v, number.Scale(2)))
}

// Row is one transaction formatted for display.
type Row struct {
	Street       string `json:"street"`
	Number       int    `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Value        string `json:"value"`
	Date         string `json:"date"`
	BuiltArea    string `json:"built_area"`
	ValuePerArea string `json:"value_per_area"`
}

// DisplayRow formats a transaction.
func DisplayRow(t model.Transaction) Row {
	return Row{
		Street:       t.StreetName,
		Number:       t.HouseNumber,
		Complement:   t.Complement,
		Value:        Currency(t.TransactionValue),
		Date:         normalize.DisplayDate(t.TransactionDate),
		BuiltArea:    Area(t.BuiltArea),
		ValuePerArea: Currency(t.ValuePerArea()),
	}
}

// Stats are the means over the rows in Scope.
type Stats struct {
	Scope                string  `json:"scope"`
	Count                int     `json:"count"`
	MeanValue            float64 `json:"mean_value"`
	MeanValuePerArea     float64 `json:"mean_value_per_area"`
	MeanValueText        string  `json:"mean_value_text"`
	MeanValuePerAreaText string  `json:"mean_value_per_area_text"`
}

// Compute averages value and value per area over rows.
func Compute(rows []model.Transaction, scope string) Stats {
	st := Stats{Scope: scope, Count: len(rows)}
	if len(rows) > 0 {
		var value, perArea float64
		for _, t := range rows {
			value += t.TransactionValue
			perArea += t.ValuePerArea()
		}
		st.MeanValue = value / float64(len(rows))
		st.MeanValuePerArea = perArea / float64(len(rows))
	}
	st.MeanValueText = Currency(st.MeanValue)
	st.MeanValuePerAreaText = Currency(st.MeanValuePerArea)
	return st
}

// Report is the data behind the printable page.
type Report struct {
	ID             string    `json:"id"`
	GeneratedAt    time.Time `json:"generated_at"`
	Parameters     []string  `json:"parameters"`
	ShowComplement bool      `json:"show_complement"`
	Rows           []Row     `json:"rows"`
	Stats          Stats     `json:"stats"`
	// Total is the size of the search result the rows were picked from.
	Total int `json:"total"`
}

// Build creates a report from a search result. With a selection the report
// lists and averages only the selected rows; without one it covers every row.
func Build(rows []model.Transaction, selected []int, f query.Filter, now time.Time) (Report, error) {
	picked := rows
	scope := ScopeAll
	if len(selected) > 0 {
		var err error
		if picked, err = query.Select(rows, selected); err != nil {
			return Report{}, err
		}
		scope = ScopeSelected
	}

	r := Report{
		ID:          uuid.NewString(),
		GeneratedAt: now,
		Parameters:  f.Describe(),
		Rows:        make([]Row, 0, len(picked)),
		Stats:       Compute(picked, scope),
		Total:       len(rows),
	}
	for _, t := range picked {
		if strings.TrimSpace(t.Complement) != "" {
			r.ShowComplement = true
		}
		r.Rows = append(r.Rows, DisplayRow(t))
	}
	return r, nil
}

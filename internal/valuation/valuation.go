// Package valuation estimates a property's value from the price per square
// metre of comparable ITBI transactions.
package valuation

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/itbi-consulta/internal/model"
	"github.com/itbi-consulta/internal/query"
	"github.com/itbi-consulta/internal/resolve"
)

var (
	// ErrInvalidComparisonInput is returned when the reference price or the
	// target area is not positive.
	ErrInvalidComparisonInput = errors.New("reference price and area must be positive")
	// ErrNoReferenceRows is returned when no transaction was selected as
	// reference.
	ErrNoReferenceRows = errors.New("no reference transactions selected")
)

// Result is an estimated property value.
type Result struct {
	PricePerArea decimal.Decimal `json:"price_per_area"`
	Area         decimal.Decimal `json:"area"`
	Value        decimal.Decimal `json:"value"`
}

// ReferencePrice is the mean value per built area over rows. Rows without
// built area count as 0.
func ReferencePrice(rows []model.Transaction) (float64, error) {
	if len(rows) == 0 {
		return 0, ErrNoReferenceRows
	}

	sum := decimal.Zero
	for _, t := range rows {
		sum = sum.Add(decimal.NewFromFloat(t.ValuePerArea()))
	}
	mean, _ := sum.Div(decimal.NewFromInt(int64(len(rows)))).Float64()
	return mean, nil
}

// Estimate multiplies area by the reference price, rounded to centavos.
func Estimate(pricePerArea, area float64) (Result, error) {
	if pricePerArea <= 0 || area <= 0 {
		return Result{}, fmt.Errorf("%w: price %.2f, area %.2f", ErrInvalidComparisonInput, pricePerArea, area)
	}

	price := decimal.NewFromFloat(pricePerArea)
	a := decimal.NewFromFloat(area)
	return Result{
		PricePerArea: price.Round(2),
		Area:         a,
		Value:        price.Mul(a).Round(2),
	}, nil
}

// Request is a full comparison: a search, the reference rows picked from
// its result, and the target property.
type Request struct {
	Filter     query.Filter   `json:"filter"`
	Selected   []int          `json:"selected"`
	Target     resolve.Lookup `json:"target"`
	TargetText string         `json:"target_text,omitempty"`
	// Area overrides the resolved built area when positive.
	Area float64 `json:"area,omitempty"`
}

// Comparison is the outcome of Compare. Estimate is nil when the target
// area could not be determined.
type Comparison struct {
	ReferenceRows  []model.Transaction `json:"reference_rows"`
	ReferencePrice float64             `json:"reference_price_per_area"`
	Resolution     resolve.Resolution  `json:"resolution"`
	Estimate       *Result             `json:"estimate,omitempty"`
	Notice         string              `json:"notice,omitempty"`
}

// Searcher runs transaction searches.
type Searcher = query.Searcher

// Resolver looks up property built areas.
type Resolver interface {
	Resolve(ctx context.Context, l resolve.Lookup) resolve.Resolution
	ResolveText(ctx context.Context, text string) resolve.Resolution
}

// Compare searches reference transactions, averages their price per area,
// resolves the target's built area and estimates its value.
func Compare(ctx context.Context, search Searcher, resolver Resolver, req Request) (Comparison, error) {
	res, err := search.Search(ctx, req.Filter)
	if err != nil {
		return Comparison{}, err
	}
	if res.Notice != "" {
		return Comparison{Notice: res.Notice}, nil
	}

	selected := res.Rows
	if len(req.Selected) > 0 {
		if selected, err = query.Select(res.Rows, req.Selected); err != nil {
			return Comparison{}, err
		}
	}

	price, err := ReferencePrice(selected)
	if err != nil {
		return Comparison{}, err
	}
	cmp := Comparison{ReferenceRows: selected, ReferencePrice: price}

	if req.TargetText != "" {
		cmp.Resolution = resolver.ResolveText(ctx, req.TargetText)
	} else {
		cmp.Resolution = resolver.Resolve(ctx, req.Target)
	}

	area := cmp.Resolution.BuiltArea
	if req.Area > 0 {
		area = req.Area
	}
	if !cmp.Resolution.Found && req.Area <= 0 {
		cmp.Notice = cmp.Resolution.Notice
		return cmp, nil
	}

	est, err := Estimate(price, area)
	if err != nil {
		return cmp, err
	}
	cmp.Estimate = &est
	return cmp, nil
}

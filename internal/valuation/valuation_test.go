package valuation

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itbi-consulta/internal/model"
	"github.com/itbi-consulta/internal/query"
	"github.com/itbi-consulta/internal/resolve"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name    string
		price   float64
		area    float64
		want    string
		wantErr bool
	}{
		{"whole numbers", 2500, 100, "250000", false},
		{"rounded to centavos", 3333.333, 3, "9999.999", false},
		{"zero area", 2500, 0, "", true},
		{"negative price", -1, 100, "", true},
		{"zero price", 0, 100, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Estimate(tt.price, tt.area)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidComparisonInput)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Round(2).Equal(got.Value), "got %s", got.Value)
		})
	}
}

func TestReferencePrice(t *testing.T) {
	rows := []model.Transaction{
		{TransactionValue: 500000, BuiltArea: 100},
		{TransactionValue: 300000, BuiltArea: 100},
		{TransactionValue: 100000, BuiltArea: 0},
	}
	price, err := ReferencePrice(rows)
	require.NoError(t, err)
	assert.InDelta(t, (5000.0+3000.0+0)/3, price, 1e-9)

	_, err = ReferencePrice(nil)
	assert.ErrorIs(t, err, ErrNoReferenceRows)
}

func TestCompareBadSelection(t *testing.T) {
	_, err := Compare(context.Background(), fakeSearcher{result: reference()}, &fakeResolver{}, Request{Selected: []int{5}})
	assert.ErrorIs(t, err, query.ErrBadSelection)
}

type fakeSearcher struct {
	result query.Result
	err    error
}

func (f fakeSearcher) Search(context.Context, query.Filter) (query.Result, error) {
	return f.result, f.err
}

type fakeResolver struct {
	res     resolve.Resolution
	lookups []resolve.Lookup
	texts   []string
}

func (f *fakeResolver) Resolve(_ context.Context, l resolve.Lookup) resolve.Resolution {
	f.lookups = append(f.lookups, l)
	return f.res
}

func (f *fakeResolver) ResolveText(_ context.Context, text string) resolve.Resolution {
	f.texts = append(f.texts, text)
	return f.res
}

func reference() query.Result {
	return query.Result{Rows: []model.Transaction{
		{StreetName: "RUA A", HouseNumber: 10, TransactionValue: 250000, BuiltArea: 100},
		{StreetName: "RUA A", HouseNumber: 12, TransactionValue: 900000, BuiltArea: 100},
	}}
}

func TestCompare(t *testing.T) {
	ctx := context.Background()
	resolver := &fakeResolver{res: resolve.Resolution{Found: true, BuiltArea: 100}}

	cmp, err := Compare(ctx, fakeSearcher{result: reference()}, resolver, Request{
		Selected: []int{0},
		Target:   resolve.Lookup{Street: "RUA B", Number: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, 2500.0, cmp.ReferencePrice)
	require.NotNil(t, cmp.Estimate)
	assert.True(t, decimal.NewFromInt(250000).Equal(cmp.Estimate.Value))
	assert.Equal(t, []resolve.Lookup{{Street: "RUA B", Number: 5}}, resolver.lookups)
}

func TestCompareAllRowsWhenNothingSelected(t *testing.T) {
	resolver := &fakeResolver{res: resolve.Resolution{Found: true, BuiltArea: 10}}
	cmp, err := Compare(context.Background(), fakeSearcher{result: reference()}, resolver, Request{TargetText: "Rua B, 5"})
	require.NoError(t, err)
	assert.Len(t, cmp.ReferenceRows, 2)
	assert.Equal(t, 5750.0, cmp.ReferencePrice)
	assert.Equal(t, []string{"Rua B, 5"}, resolver.texts)
}

func TestCompareUnresolvedTarget(t *testing.T) {
	resolver := &fakeResolver{res: resolve.Resolution{Notice: resolve.NoticeNotFound}}
	cmp, err := Compare(context.Background(), fakeSearcher{result: reference()}, resolver, Request{Target: resolve.Lookup{Street: "X"}})
	require.NoError(t, err)
	assert.Nil(t, cmp.Estimate)
	assert.Equal(t, resolve.NoticeNotFound, cmp.Notice)

	cmp, err = Compare(context.Background(), fakeSearcher{result: reference()}, resolver, Request{Target: resolve.Lookup{Street: "X"}, Area: 50})
	require.NoError(t, err)
	require.NotNil(t, cmp.Estimate)
	assert.True(t, decimal.NewFromInt(287500).Equal(cmp.Estimate.Value))
}

func TestCompareResolvedWithoutArea(t *testing.T) {
	resolver := &fakeResolver{res: resolve.Resolution{Found: true, BuiltArea: 0}}
	_, err := Compare(context.Background(), fakeSearcher{result: reference()}, resolver, Request{Target: resolve.Lookup{Street: "X"}})
	assert.ErrorIs(t, err, ErrInvalidComparisonInput)
}

func TestCompareSearchNotice(t *testing.T) {
	cmp, err := Compare(context.Background(), fakeSearcher{result: query.Result{Notice: query.NoticeNotLoaded}}, &fakeResolver{}, Request{})
	require.NoError(t, err)
	assert.Equal(t, query.NoticeNotLoaded, cmp.Notice)

	boom := errors.New("boom")
	_, err = Compare(context.Background(), fakeSearcher{err: boom}, &fakeResolver{}, Request{})
	assert.ErrorIs(t, err, boom)
}

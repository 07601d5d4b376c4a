package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itbi-consulta/internal/model"
)

func TestFilterMatches(t *testing.T) {
	tx := model.Transaction{StreetName: "RUA AUGUSTA", HouseNumber: 100, BuiltArea: 80}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"exact zero does not match 100", Filter{}, false},
		{"exact", Filter{Number: Exact(100)}, true},
		{"street is case insensitive", Filter{StreetContains: "augusta", Number: Exact(100)}, true},
		{"street mismatch", Filter{StreetContains: "PAULISTA", Number: Exact(100)}, false},
		{"range lower bound", Filter{Number: Between(100, 200)}, true},
		{"range upper bound", Filter{Number: Between(0, 100)}, true},
		{"range outside", Filter{Number: Between(101, 200)}, false},
		{"area inclusive", Filter{Number: Exact(100)}.WithArea(80, 80), true},
		{"area outside", Filter{Number: Exact(100)}.WithArea(81, 90), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tx))
		})
	}
}

func TestWithAreaLeavesReceiverUntouched(t *testing.T) {
	base := Filter{Number: Exact(1)}
	narrowed := base.WithArea(1, 2)
	assert.Nil(t, base.Area)
	assert.NotNil(t, narrowed.Area)
}

func TestFilterValidate(t *testing.T) {
	assert.NoError(t, Filter{}.Validate())
	assert.NoError(t, Filter{Number: Between(5, 5)}.Validate())
	assert.ErrorIs(t, Filter{Number: Between(6, 5)}.Validate(), ErrInvalidFilter)
	assert.ErrorIs(t, Filter{}.WithArea(10, 1).Validate(), ErrInvalidFilter)
	assert.ErrorIs(t, Filter{Number: NumberFilter{Mode: 3}}.Validate(), ErrInvalidFilter)
}

func TestFilterJSON(t *testing.T) {
	var f Filter
	require.NoError(t, json.Unmarshal([]byte(`{"street_contains":"rua a","number":{"mode":"range","min":1,"max":9}}`), &f))
	assert.Equal(t, Filter{StreetContains: "rua a", Number: Between(1, 9)}, f)

	out, err := json.Marshal(Filter{Number: Exact(3)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"street_contains":"","number":{"mode":"exact","exact":3,"min":0,"max":0}}`, string(out))

	assert.ErrorIs(t, json.Unmarshal([]byte(`{"number":{"mode":"fuzzy"}}`), &f), ErrInvalidFilter)
}

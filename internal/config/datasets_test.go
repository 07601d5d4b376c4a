package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDatasetsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datasets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validDatasetsYAML = `
datasets:
  iptu:
    table: imoveis_sp
    sources: ["iptu.csv"]
    columns:
      "NUMERO DO CONTRIBUINTE": taxpayer_id
      "NOME DE LOGRADOURO DO IMOVEL": street_name
      "NUMERO DO IMOVEL": house_number
      "COMPLEMENTO DO IMOVEL": complement
      "AREA CONSTRUIDA": built_area
`

func TestLoadDatasetsAppliesDefaults(t *testing.T) {
	cfg, err := LoadDatasets(writeDatasetsFile(t, validDatasetsYAML))
	require.NoError(t, err)

	ds, err := cfg.Dataset(DatasetProperties)
	require.NoError(t, err)
	assert.Equal(t, "imoveis_sp", ds.Table)
	assert.Equal(t, FormatCSV, ds.Format)
	assert.Equal(t, ';', ds.SeparatorRune())
	assert.Equal(t, DefaultBatchSize, ds.BatchSize)
	assert.Equal(t, []string{"utf-8", "latin-1"}, ds.Encodings)
}

func TestLoadDatasetsEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadDatasets("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	itbi, err := cfg.Dataset(DatasetTransactions)
	require.NoError(t, err)
	assert.Equal(t, "itbi_data", itbi.Table)
	assert.Contains(t, itbi.IgnoreSheets, "LEGENDA")
}

func TestDatasetsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DatasetConfig)
		want   error
	}{
		{"missing table", func(d *DatasetConfig) { d.Table = "" }, ErrMissingTable},
		{"missing sources", func(d *DatasetConfig) { d.Sources = nil }, ErrMissingSources},
		{"bad format", func(d *DatasetConfig) { d.Format = "parquet" }, ErrInvalidFormat},
		{"long separator", func(d *DatasetConfig) { d.Separator = ";;" }, ErrInvalidSeparator},
		{"zero batch", func(d *DatasetConfig) { d.BatchSize = 0 }, ErrInvalidBatchSize},
		{"no encodings", func(d *DatasetConfig) { d.Encodings = nil }, ErrNoEncodings},
		{"unmapped field", func(d *DatasetConfig) { delete(d.Columns, "AREA CONSTRUIDA") }, ErrMissingFieldColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDatasets()
			ds := cfg.Datasets[DatasetProperties]
			tt.mutate(&ds)
			cfg.Datasets[DatasetProperties] = ds

			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestValidateRejectsEmptyFile(t *testing.T) {
	_, err := LoadDatasets(writeDatasetsFile(t, "datasets: {}\n"))
	assert.ErrorIs(t, err, ErrNoDatasets)
}

func TestUnknownDataset(t *testing.T) {
	_, err := DefaultDatasets().Dataset("nope")
	assert.Error(t, err)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("ITBI_TEST_INT", "42")
	t.Setenv("ITBI_TEST_BOOL", "yes")
	t.Setenv("ITBI_TEST_FLOAT", "not-a-number")

	assert.Equal(t, 42, GetEnvInt("ITBI_TEST_INT", 1))
	assert.True(t, GetEnvBool("ITBI_TEST_BOOL", false))
	assert.Equal(t, 1.5, GetEnvFloat("ITBI_TEST_FLOAT", 1.5))
	assert.Equal(t, "fallback", GetEnv("ITBI_TEST_UNSET", "fallback"))
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("ITBI_STORE_DRIVER", "")
	t.Setenv("WEB_PORT", "9090")

	s := FromEnv()
	assert.Equal(t, "sqlite", s.StoreDriver)
	assert.Equal(t, 9090, s.WebPort)
	assert.True(t, s.Reports)
}

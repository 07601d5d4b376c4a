// Package config loads process settings from the environment and dataset
// layouts from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Dataset validation errors.
var (
	ErrNoDatasets         = errors.New("at least one dataset is required")
	ErrMissingTable       = errors.New("table is required")
	ErrMissingSources     = errors.New("at least one source path is required")
	ErrInvalidFormat      = errors.New("format must be 'csv' or 'xlsx'")
	ErrInvalidSeparator   = errors.New("separator must be a single character")
	ErrInvalidBatchSize   = errors.New("batch_size must be at least 1")
	ErrNoEncodings        = errors.New("at least one encoding is required for csv sources")
	ErrMissingColumns     = errors.New("columns mapping is required")
	ErrMissingFieldColumn = errors.New("columns mapping lacks a required field")
)

// Dataset names.
const (
	DatasetProperties   = "iptu"
	DatasetTransactions = "itbi"
)

// Source formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// DefaultBatchSize is the number of source rows normalised and written per batch.
const DefaultBatchSize = 100000

// Datasets is the root of the datasets YAML file.
type Datasets struct {
	Datasets map[string]DatasetConfig `yaml:"datasets"`
}

// DatasetConfig describes where a dataset comes from and how its columns map
// onto stored fields.
type DatasetConfig struct {
	Table        string            `yaml:"table"`
	Format       string            `yaml:"format"`
	Sources      []string          `yaml:"sources"`
	Separator    string            `yaml:"separator"`
	Encodings    []string          `yaml:"encodings"`
	BatchSize    int               `yaml:"batch_size"`
	DecimalComma bool              `yaml:"decimal_comma"`
	Columns      map[string]string `yaml:"columns"`
	IgnoreSheets []string          `yaml:"ignore_sheets"`
}

// SeparatorRune returns the field separator as a rune, ';' when unset.
func (d DatasetConfig) SeparatorRune() rune {
	r := []rune(d.Separator)
	if len(r) == 0 {
		return ';'
	}
	return r[0]
}

// Field names shared by both datasets.
const (
	FieldTaxpayerID  = "taxpayer_id"
	FieldStreetName  = "street_name"
	FieldHouseNumber = "house_number"
	FieldComplement  = "complement"
	FieldBuiltArea   = "built_area"
	FieldValue       = "transaction_value"
	FieldDate        = "transaction_date"
	FieldSharePct    = "transferred_share_pct"
)

var requiredFields = map[string][]string{
	DatasetProperties: {FieldTaxpayerID, FieldStreetName, FieldHouseNumber, FieldComplement, FieldBuiltArea},
	DatasetTransactions: {FieldStreetName, FieldHouseNumber, FieldComplement, FieldBuiltArea,
		FieldValue, FieldDate, FieldSharePct},
}

// DefaultDatasets returns the layouts of the municipal IPTU roll and the
// yearly ITBI guide workbooks.
func DefaultDatasets() *Datasets {
	return &Datasets{Datasets: map[string]DatasetConfig{
		DatasetProperties: {
			Table:     "imoveis_sp",
			Format:    FormatCSV,
			Sources:   []string{"data/IPTU_2025.csv"},
			Separator: ";",
			Encodings: []string{"utf-8", "latin-1"},
			BatchSize: DefaultBatchSize,
			Columns: map[string]string{
				"NUMERO DO CONTRIBUINTE":       FieldTaxpayerID,
				"NOME DE LOGRADOURO DO IMOVEL": FieldStreetName,
				"NUMERO DO IMOVEL":             FieldHouseNumber,
				"COMPLEMENTO DO IMOVEL":        FieldComplement,
				"AREA CONSTRUIDA":              FieldBuiltArea,
			},
		},
		DatasetTransactions: {
			Table:  "itbi_data",
			Format: FormatXLSX,
			Sources: []string{
				"data/GUIAS DE ITBI PAGAS (2021).xlsx",
				"data/GUIAS DE ITBI PAGAS (2022).xlsx",
				"data/GUIAS DE ITBI PAGAS (2023).xlsx",
				"data/GUIAS DE ITBI PAGAS (2024).xlsx",
				"data/GUIAS DE ITBI PAGAS (2025).xlsx",
			},
			Separator: ";",
			Encodings: []string{"utf-8", "latin-1"},
			BatchSize: DefaultBatchSize,
			Columns: map[string]string{
				"Nome do Logradouro": FieldStreetName,
				"Número":             FieldHouseNumber,
				"Complemento":        FieldComplement,
				"Valor de Transação (declarado pelo contribuinte)": FieldValue,
				"Data de Transação":         FieldDate,
				"Área Construída (m2)":      FieldBuiltArea,
				"Proporção Transmitida (%)": FieldSharePct,
			},
			IgnoreSheets: []string{"LEGENDA", "EXPLICAÇÕES", "Tabela de USOS", "Tabela de PADRÕES"},
		},
	}}
}

// LoadDatasets reads the datasets file. An empty path yields DefaultDatasets.
func LoadDatasets(path string) (*Datasets, error) {
	if path == "" {
		return DefaultDatasets(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read datasets file: %w", err)
	}

	var cfg Datasets
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("datasets validation failed: %w", err)
	}

	return &cfg, nil
}

func (d *Datasets) applyDefaults() {
	for name, ds := range d.Datasets {
		if ds.Format == "" {
			ds.Format = FormatCSV
		}
		if ds.Separator == "" {
			ds.Separator = ";"
		}
		if ds.BatchSize == 0 {
			ds.BatchSize = DefaultBatchSize
		}
		if len(ds.Encodings) == 0 {
			ds.Encodings = []string{"utf-8", "latin-1"}
		}
		d.Datasets[name] = ds
	}
}

// Validate checks every dataset entry.
func (d *Datasets) Validate() error {
	if len(d.Datasets) == 0 {
		return ErrNoDatasets
	}

	for name, ds := range d.Datasets {
		if ds.Table == "" {
			return fmt.Errorf("%w: %s", ErrMissingTable, name)
		}
		if len(ds.Sources) == 0 {
			return fmt.Errorf("%w: %s", ErrMissingSources, name)
		}
		if ds.Format != FormatCSV && ds.Format != FormatXLSX {
			return fmt.Errorf("%w: %s", ErrInvalidFormat, name)
		}
		if len([]rune(ds.Separator)) != 1 {
			return fmt.Errorf("%w: %s", ErrInvalidSeparator, name)
		}
		if ds.BatchSize < 1 {
			return fmt.Errorf("%w: %s", ErrInvalidBatchSize, name)
		}
		if ds.Format == FormatCSV && len(ds.Encodings) == 0 {
			return fmt.Errorf("%w: %s", ErrNoEncodings, name)
		}
		if len(ds.Columns) == 0 {
			return fmt.Errorf("%w: %s", ErrMissingColumns, name)
		}

		mapped := make(map[string]bool, len(ds.Columns))
		for _, field := range ds.Columns {
			mapped[field] = true
		}
		for _, field := range requiredFields[name] {
			if !mapped[field] {
				return fmt.Errorf("%w: %s.%s", ErrMissingFieldColumn, name, field)
			}
		}
	}

	return nil
}

// Dataset returns the named dataset.
func (d *Datasets) Dataset(name string) (DatasetConfig, error) {
	ds, ok := d.Datasets[name]
	if !ok {
		return DatasetConfig{}, fmt.Errorf("unknown dataset %q", name)
	}
	return ds, nil
}

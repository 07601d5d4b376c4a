package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itbi-consulta/internal/config"
)

var propertyColumns = ColumnMap{
	"NUMERO DO CONTRIBUINTE":       config.FieldTaxpayerID,
	"NOME DE LOGRADOURO DO IMOVEL": config.FieldStreetName,
	"NUMERO DO IMOVEL":             config.FieldHouseNumber,
	"COMPLEMENTO DO IMOVEL":        config.FieldComplement,
	"AREA CONSTRUIDA":              config.FieldBuiltArea,
}

var transactionColumns = ColumnMap{
	"Nome do Logradouro": config.FieldStreetName,
	"Número":             config.FieldHouseNumber,
	"Complemento":        config.FieldComplement,
	"Valor":              config.FieldValue,
	"Data":               config.FieldDate,
	"Área":               config.FieldBuiltArea,
	"Proporção":          config.FieldSharePct,
}

func TestPropertiesCleansCells(t *testing.T) {
	batch := []RawRecord{
		{
			"NUMERO DO CONTRIBUINTE":       " 0010010001 ",
			"NOME DE LOGRADOURO DO IMOVEL": "  rua a ",
			"NUMERO DO IMOVEL":             "10",
			"COMPLEMENTO DO IMOVEL":        "apto 5",
			"AREA CONSTRUIDA":              "120",
			"UNRELATED":                    "ignored",
		},
		{
			"NUMERO DO CONTRIBUINTE":       "2",
			"NOME DE LOGRADOURO DO IMOVEL": "Rua B",
			"NUMERO DO IMOVEL":             "abc",
			"COMPLEMENTO DO IMOVEL":        "nan",
			"AREA CONSTRUIDA":              "",
		},
	}

	got := Properties(batch, propertyColumns, NumberFormat{})
	require.Len(t, got, 2)

	assert.Equal(t, "0010010001", got[0].TaxpayerID)
	assert.Equal(t, "RUA A", got[0].StreetName)
	assert.Equal(t, 10, got[0].HouseNumber)
	assert.Equal(t, "APTO 5", got[0].Complement)
	assert.Equal(t, 120.0, got[0].BuiltArea)
	assert.Equal(t, "RUA A, 10 APTO 5", got[0].FormattedAddress)

	assert.Equal(t, 0, got[1].HouseNumber)
	assert.Equal(t, "", got[1].Complement)
	assert.Equal(t, 0.0, got[1].BuiltArea)
	assert.Equal(t, "RUA B, 0", got[1].FormattedAddress)
}

func TestPropertiesNeverNegative(t *testing.T) {
	batch := []RawRecord{{
		"NOME DE LOGRADOURO DO IMOVEL": "RUA C",
		"NUMERO DO IMOVEL":             "-4",
		"AREA CONSTRUIDA":              "-12.5",
	}}

	got := Properties(batch, propertyColumns, NumberFormat{})
	assert.Equal(t, 0, got[0].HouseNumber)
	assert.Equal(t, 0.0, got[0].BuiltArea)
}

func TestPropertiesMissingColumnsTakeDefaults(t *testing.T) {
	got := Properties([]RawRecord{{}}, propertyColumns, NumberFormat{})
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].StreetName)
	assert.Equal(t, ", 0", got[0].FormattedAddress)
}

func TestTransactionsKeepsOnlyFullTransfers(t *testing.T) {
	batch := []RawRecord{
		{"Nome do Logradouro": "rua a", "Número": "10", "Valor": "500000", "Data": "2024-03-05", "Área": "100", "Proporção": "100"},
		{"Nome do Logradouro": "rua a", "Número": "12", "Valor": "250000", "Data": "2024-03-05", "Área": "100", "Proporção": "50"},
		{"Nome do Logradouro": "rua b", "Número": "s/n", "Valor": "1", "Área": "1", "Proporção": "100"},
		{"Nome do Logradouro": "rua c", "Número": "7.0", "Complemento": "NaN", "Valor": "x", "Data": "garbage", "Área": "0", "Proporção": "100.0"},
	}

	res := Transactions(batch, transactionColumns, NumberFormat{})
	require.Len(t, res.Kept, 2)
	assert.Equal(t, 1, res.PartialShare)
	assert.Equal(t, 1, res.NonNumeric)

	first := res.Kept[0]
	assert.Equal(t, "RUA A", first.StreetName)
	assert.Equal(t, 10, first.HouseNumber)
	assert.Equal(t, "2024-03-05", first.TransactionDate)
	assert.Equal(t, 5000.0, first.ValuePerArea())

	second := res.Kept[1]
	assert.Equal(t, 7, second.HouseNumber)
	assert.Equal(t, "", second.Complement)
	assert.Equal(t, 0.0, second.TransactionValue)
	assert.Equal(t, "", second.TransactionDate)
	assert.Equal(t, 0.0, second.ValuePerArea())
}

func TestSelectRenames(t *testing.T) {
	out := Select([]RawRecord{{"AREA CONSTRUIDA": "1", "X": "y"}}, propertyColumns)
	assert.Equal(t, "1", out[0][config.FieldBuiltArea])
	_, hasX := out[0]["X"]
	assert.False(t, hasX)
	assert.Len(t, out[0], len(propertyColumns))
}

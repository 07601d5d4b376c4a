// Package normalize cleans raw source rows into typed property and
// transaction records.
package normalize

import (
	"strings"

	"github.com/itbi-consulta/internal/config"
	"github.com/itbi-consulta/internal/model"
)

// RawRecord is one source row keyed by source column name.
type RawRecord map[string]string

// ColumnMap maps source column names onto field names.
type ColumnMap map[string]string

// SourceColumns returns the source column names in the map.
func (c ColumnMap) SourceColumns() []string {
	cols := make([]string, 0, len(c))
	for src := range c {
		cols = append(cols, src)
	}
	return cols
}

// Select keeps only mapped columns and renames them to field names. Mapped
// columns absent from a row come out empty.
func Select(batch []RawRecord, cols ColumnMap) []RawRecord {
	out := make([]RawRecord, len(batch))
	for i, raw := range batch {
		rec := make(RawRecord, len(cols))
		for src, field := range cols {
			rec[field] = raw[src]
		}
		out[i] = rec
	}
	return out
}

// Properties cleans a batch of property roll rows. It never fails: a cell
// that cannot be read takes its field's default.
func Properties(batch []RawRecord, cols ColumnMap, nf NumberFormat) []model.Property {
	selected := Select(batch, cols)
	out := make([]model.Property, len(selected))

	for i, rec := range selected {
		p := model.Property{
			TaxpayerID:  strings.TrimSpace(rec[config.FieldTaxpayerID]),
			StreetName:  CleanText(rec[config.FieldStreetName]),
			HouseNumber: CoerceInt(rec[config.FieldHouseNumber], nf, 0),
			Complement:  CleanText(rec[config.FieldComplement]),
			BuiltArea:   CoerceFloat(rec[config.FieldBuiltArea], nf, 0),
		}
		p.FormattedAddress = FormatAddress(p.StreetName, p.HouseNumber, p.Complement)
		out[i] = p
	}

	return out
}

// TransactionBatch is the outcome of cleaning a batch of transfer guides.
type TransactionBatch struct {
	Kept []model.Transaction
	// NonNumeric counts rows dropped because the house number was not numeric.
	NonNumeric int
	// PartialShare counts rows dropped because less than the whole property
	// was transferred.
	PartialShare int
}

// Transactions cleans a batch of ITBI guide rows and keeps only full
// transfers with a numeric house number.
func Transactions(batch []RawRecord, cols ColumnMap, nf NumberFormat) TransactionBatch {
	selected := Select(batch, cols)
	res := TransactionBatch{Kept: make([]model.Transaction, 0, len(selected))}

	for _, rec := range selected {
		number, ok := ParseInt(rec[config.FieldHouseNumber], nf)
		if !ok {
			res.NonNumeric++
			continue
		}
		if number < 0 {
			number = 0
		}

		share, _ := ParseNumber(rec[config.FieldSharePct], nf)
		tx := model.Transaction{
			StreetName:          CleanText(rec[config.FieldStreetName]),
			HouseNumber:         number,
			Complement:          CleanText(rec[config.FieldComplement]),
			TransactionValue:    CoerceFloat(rec[config.FieldValue], nf, 0),
			TransactionDate:     ParseDate(rec[config.FieldDate]),
			BuiltArea:           CoerceFloat(rec[config.FieldBuiltArea], nf, 0),
			TransferredSharePct: share,
		}
		if !tx.FullTransfer() {
			res.PartialShare++
			continue
		}
		res.Kept = append(res.Kept, tx)
	}

	return res
}

package store

import (
	"github.com/itbi-consulta/internal/config"
	"github.com/itbi-consulta/internal/db"
	"github.com/itbi-consulta/internal/model"
)

// PropertyCodec stores model.Property rows.
type PropertyCodec struct{}

func (PropertyCodec) Columns() []Column {
	return []Column{
		{Name: config.FieldTaxpayerID, Type: db.Text},
		{Name: config.FieldStreetName, Type: db.Text},
		{Name: config.FieldHouseNumber, Type: db.Integer},
		{Name: config.FieldComplement, Type: db.Text},
		{Name: config.FieldBuiltArea, Type: db.Real},
		{Name: "formatted_address", Type: db.Text},
	}
}

func (PropertyCodec) Indexes() []string {
	return []string{config.FieldStreetName, config.FieldHouseNumber}
}

func (PropertyCodec) Values(p model.Property) []any {
	return []any{p.TaxpayerID, p.StreetName, p.HouseNumber, p.Complement, p.BuiltArea, p.FormattedAddress}
}

func (PropertyCodec) Scan(sc Scanner) (model.Property, error) {
	var p model.Property
	err := sc.Scan(&p.TaxpayerID, &p.StreetName, &p.HouseNumber, &p.Complement, &p.BuiltArea, &p.FormattedAddress)
	return p, err
}

// TransactionCodec stores model.Transaction rows.
type TransactionCodec struct{}

func (TransactionCodec) Columns() []Column {
	return []Column{
		{Name: config.FieldStreetName, Type: db.Text},
		{Name: config.FieldHouseNumber, Type: db.Integer},
		{Name: config.FieldComplement, Type: db.Text},
		{Name: config.FieldValue, Type: db.Real},
		{Name: config.FieldDate, Type: db.Text},
		{Name: config.FieldBuiltArea, Type: db.Real},
		{Name: config.FieldSharePct, Type: db.Real},
	}
}

func (TransactionCodec) Indexes() []string {
	return []string{config.FieldStreetName, config.FieldHouseNumber}
}

func (TransactionCodec) Values(t model.Transaction) []any {
	return []any{t.StreetName, t.HouseNumber, t.Complement, t.TransactionValue,
		t.TransactionDate, t.BuiltArea, t.TransferredSharePct}
}

func (TransactionCodec) Scan(sc Scanner) (model.Transaction, error) {
	var t model.Transaction
	err := sc.Scan(&t.StreetName, &t.HouseNumber, &t.Complement, &t.TransactionValue,
		&t.TransactionDate, &t.BuiltArea, &t.TransferredSharePct)
	return t, err
}

// Codec values typed for inference at call sites.
var (
	Properties   Codec[model.Property]    = PropertyCodec{}
	Transactions Codec[model.Transaction] = TransactionCodec{}
)

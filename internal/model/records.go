// Package model holds the typed records stored in the property and
// transaction tables.
package model

// Property is one cleaned row of the IPTU property roll.
type Property struct {
	TaxpayerID       string  `json:"taxpayer_id"`
	StreetName       string  `json:"street_name"`
	HouseNumber      int     `json:"house_number"`
	Complement       string  `json:"complement"`
	BuiltArea        float64 `json:"built_area"`
	FormattedAddress string  `json:"formatted_address"`
}

// Transaction is one ITBI transfer guide. TransactionDate is ISO formatted
// (2006-01-02) or empty when the source date could not be parsed.
type Transaction struct {
	StreetName          string  `json:"street_name"`
	HouseNumber         int     `json:"house_number"`
	Complement          string  `json:"complement"`
	TransactionValue    float64 `json:"transaction_value"`
	TransactionDate     string  `json:"transaction_date"`
	BuiltArea           float64 `json:"built_area"`
	TransferredSharePct float64 `json:"transferred_share_pct"`
}

// ValuePerArea is the declared value divided by built area, or 0 when the
// area is not positive.
func (t Transaction) ValuePerArea() float64 {
	if t.BuiltArea > 0 {
		return t.TransactionValue / t.BuiltArea
	}
	return 0
}

// FullTransfer reports whether the whole property changed hands.
func (t Transaction) FullTransfer() bool {
	return t.TransferredSharePct == 100
}

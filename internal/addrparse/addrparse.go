// Package addrparse splits a free-text Brazilian street address into the
// street, house number and complement used by the property lookup.
//
// Builds tagged libpostal use the libpostal parser through gopostal; other
// builds use a pattern-based parser.
package addrparse

import (
	"strconv"
	"strings"

	"github.com/itbi-consulta/internal/normalize"
)

// Address is a parsed street address. Street excludes the street type so it
// can be matched as a substring of stored names in either form ("R AUGUSTA",
// "RUA AUGUSTA").
type Address struct {
	StreetType string `json:"street_type,omitempty"`
	Street     string `json:"street"`
	Number     int    `json:"number"`
	Complement string `json:"complement,omitempty"`
}

// Empty reports whether nothing usable was parsed.
func (a Address) Empty() bool {
	return a.Street == "" && a.Number == 0 && a.Complement == ""
}

// Parse parses text with the backend compiled into the binary.
func Parse(text string) Address {
	text = strings.TrimSpace(text)
	if text == "" {
		return Address{}
	}
	return parse(text)
}

// Backend names the parser compiled into the binary.
func Backend() string { return backend }

// fromComponents builds an Address from labelled parts.
func fromComponents(road, number, complement string) Address {
	var a Address
	a.StreetType, a.Street = normalize.SplitStreetType(road)
	a.Number = parseNumber(number)
	a.Complement = strings.Join(strings.Fields(normalize.UpperTrim(complement)), " ")
	return a
}

// parseNumber keeps the leading digits of a house number ("120A" -> 120,
// "1.500" -> 1500).
func parseNumber(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

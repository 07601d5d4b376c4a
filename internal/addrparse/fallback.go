//go:build !libpostal

package addrparse

import (
	"regexp"
	"strings"
)

const backend = "pattern"

// numberPattern matches a house number with an optional "nº" prefix and a
// trailing letter, followed by the complement.
var numberPattern = regexp.MustCompile(`(?i)^(?:N[º°O]?\.?\s*)?(\d[\d.]*)[A-Z]?\b[\s,\-]*(.*)$`)

// streetNumberPattern is used without a comma: the first standalone number
// ends the street.
var streetNumberPattern = regexp.MustCompile(`(?i)^(.*?)\s+(?:N[º°O]?\.?\s*)?(\d[\d.]*)[A-Z]?\b[\s,\-]*(.*)$`)

func parse(text string) Address {
	// "RUA 25 DE MARCO, 300 LOJA 2": the comma separates street from number.
	if street, rest, ok := strings.Cut(text, ","); ok {
		rest = strings.TrimSpace(rest)
		if m := numberPattern.FindStringSubmatch(rest); m != nil {
			return fromComponents(street, m[1], trimComplement(m[2]))
		}
		return fromComponents(street, "", trimComplement(rest))
	}

	if m := streetNumberPattern.FindStringSubmatch(text); m != nil {
		return fromComponents(m[1], m[2], trimComplement(m[3]))
	}
	return fromComponents(text, "", "")
}

func trimComplement(s string) string {
	return strings.Trim(s, " ,-")
}

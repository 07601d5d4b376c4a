package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldAccents removes diacritics: "PRAÇA DA SÉ" becomes "PRACA DA SE".
func FoldAccents(s string) string {
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		return s
	}
	return out
}

// AbbrevRules expands street type abbreviations found in free-text
// addresses.
type AbbrevRules struct {
	rules []abbrevRule
}

type abbrevRule struct {
	re          *regexp.Regexp
	replacement string
}

// streetTypeAbbrevs maps abbreviations to the street type they stand for.
var streetTypeAbbrevs = map[string]string{
	"R":    "RUA",
	"AV":   "AVENIDA",
	"AVN":  "AVENIDA",
	"AL":   "ALAMEDA",
	"PC":   "PRACA",
	"PCA":  "PRACA",
	"PR":   "PRACA",
	"TV":   "TRAVESSA",
	"TRAV": "TRAVESSA",
	"EST":  "ESTRADA",
	"ESTR": "ESTRADA",
	"ROD":  "RODOVIA",
	"VD":   "VIADUTO",
	"LGO":  "LARGO",
	"LG":   "LARGO",
	"PQ":   "PARQUE",
	"VL":   "VILA",
	"PSG":  "PASSAGEM",
	"PTE":  "PONTE",
}

// StreetTypes lists the full street type words.
var StreetTypes = map[string]bool{
	"RUA": true, "AVENIDA": true, "ALAMEDA": true, "PRACA": true, "TRAVESSA": true,
	"ESTRADA": true, "RODOVIA": true, "VIADUTO": true, "LARGO": true, "PARQUE": true,
	"VILA": true, "VIA": true, "PASSAGEM": true, "PONTE": true, "LADEIRA": true,
	"BECO": true, "VIELA": true, "PATIO": true,
}

// NewAbbrevRules builds the default street type rules.
func NewAbbrevRules() *AbbrevRules {
	rules := make([]abbrevRule, 0, len(streetTypeAbbrevs))
	for abbrev, full := range streetTypeAbbrevs {
		rules = append(rules, abbrevRule{
			re:          regexp.MustCompile(`^` + abbrev + `\b`),
			replacement: full,
		})
	}
	return &AbbrevRules{rules: rules}
}

// Expand rewrites a leading street type abbreviation.
func (ar *AbbrevRules) Expand(text string) string {
	for _, r := range ar.rules {
		if r.re.MatchString(text) {
			return r.re.ReplaceAllString(text, r.replacement)
		}
	}
	return text
}

var defaultRules = NewAbbrevRules()

// CanonicalStreet upper-cases a street, folds accents, replaces punctuation
// with spaces and collapses whitespace.
func CanonicalStreet(raw string) string {
	s := FoldAccents(UpperTrim(raw))

	b := strings.Builder{}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// SplitStreetType separates a leading street type ("R.", "AV", "RUA") from
// the street name. The type comes back canonical. The name keeps the stored
// spelling of a cleaned cell (upper case, accents kept, single spaces) so it
// matches street names as ingested. streetType is "" when the text has no
// recognised type or nothing follows it.
func SplitStreetType(raw string) (streetType, name string) {
	s := strings.Trim(strings.Join(strings.Fields(UpperTrim(raw)), " "), " ,;-")

	first, rest, found := strings.Cut(s, " ")
	key := defaultRules.Expand(CanonicalStreet(first))
	if !found || !StreetTypes[key] {
		return "", s
	}
	return key, strings.TrimSpace(rest)
}

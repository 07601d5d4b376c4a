package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// NumberFormat describes how numeric text is written in a source.
type NumberFormat struct {
	// DecimalComma selects the pt-BR convention: "1.234,5" is 1234.5.
	DecimalComma bool
}

// missingMarkers are the textual renderings of a missing cell.
var missingMarkers = map[string]bool{
	"NAN":  true,
	"NONE": true,
	"NULL": true,
	"NAT":  true,
}

// UpperTrim upper-cases and trims a text cell.
func UpperTrim(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// CollapseMissing maps missing-value markers to the empty string. It expects
// upper-cased input.
func CollapseMissing(s string) string {
	if missingMarkers[s] {
		return ""
	}
	return s
}

// CleanText is UpperTrim followed by CollapseMissing.
func CleanText(s string) string {
	return CollapseMissing(UpperTrim(s))
}

// ParseNumber parses numeric text. ok is false for empty, non-numeric,
// NaN and infinite input.
func ParseNumber(s string, nf NumberFormat) (v float64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if nf.DecimalComma {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// CoerceFloat parses numeric text, falling back to def when the text is not
// numeric or the value is negative.
func CoerceFloat(s string, nf NumberFormat, def float64) float64 {
	v, ok := ParseNumber(s, nf)
	if !ok || v < 0 {
		return def
	}
	return v
}

// ParseInt parses numeric text and truncates it to an integer, so "12.0"
// yields 12.
func ParseInt(s string, nf NumberFormat) (int, bool) {
	v, ok := ParseNumber(s, nf)
	if !ok || v > math.MaxInt32 || v < math.MinInt32 {
		return 0, false
	}
	return int(v), true
}

// CoerceInt is ParseInt with a fallback for non-numeric or negative values.
func CoerceInt(s string, nf NumberFormat, def int) int {
	v, ok := ParseInt(s, nf)
	if !ok || v < 0 {
		return def
	}
	return v
}

// FormatAddress renders "{street}, {number}" plus " {complement}" when the
// complement is present, upper-cased and trimmed.
func FormatAddress(street string, number int, complement string) string {
	addr := street + ", " + strconv.Itoa(number)
	if complement != "" {
		addr += " " + complement
	}
	return strings.ToUpper(strings.TrimSpace(addr))
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02/01/06",
	"2/1/2006",
}

// Excel serial day numbers for 1900-01-01 and 9999-12-31.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// ParseDate converts a source date cell into ISO form (2006-01-02). Text
// dates in ISO or dd/mm/yyyy order and Excel serial day numbers are
// accepted; anything else yields "".
func ParseDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= minExcelSerial && serial <= maxExcelSerial {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Format("2006-01-02")
		}
	}

	return ""
}

// DisplayDate renders an ISO date as dd/mm/yyyy, or "" when it is not a date.
func DisplayDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return ""
	}
	return t.Format("02/01/2006")
}

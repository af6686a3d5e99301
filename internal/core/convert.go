package core

// convert.go holds the permissive parsers shared by the transformer, the
// validator and the loader.
//
// They handle the messy reality of exported spreadsheets:
//   - Many date formats (ISO, day-first dotted, month-first slashed, textual)
//   - Excel serial day numbers in date columns
//   - Currency symbols, thousands separators and accounting negatives
//   - Localised boolean tokens

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/xuri/excelize/v2"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Excel serial day numbers accepted in date columns. Serials up to 61 sit
// around the 1900 leap-year bug and are more likely small counts than dates.
const (
	minExcelSerial = 62      // 1900-03-02
	maxExcelSerial = 2958465 // 9999-12-31
)

var (
	dateTimeLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006/01/02 15:04:05",
		"2.1.2006 15:04:05",
		"2.1.2006 15:04",
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
		"2/1/2006 15:04:05",
		"2/1/2006 15:04",
	}
	twoDigitYearLayouts = []string{
		"1/2/06", "2/1/06", "2.1.06", "1-2-06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"2.1.2006", "1/2/2006", "2/1/2006", "1-2-2006",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "2 January 2006", "02-Jan-2006",
		"20060102",
		"2006-01", "2006",
	}
)

var (
	truthyTokens = map[string]bool{
		"true": true, "yes": true, "on": true, "1": true, "+": true, "✓": true, "да": true,
	}
	falsyTokens = map[string]bool{
		"false": true, "no": true, "off": true, "0": true, "-": true, "✗": true, "нет": true,
	}
)

// IsDateColumn reports whether a column holds dates by name.
func IsDateColumn(name string) bool {
	return strings.Contains(strings.ToLower(name), "date")
}

// ParseDate parses s under the permissive date grammar. Slashed dates are
// read month-first and fall back to day-first when that is impossible.
// Bare numbers in the Excel serial range are read as spreadsheet day numbers.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return parseExcelSerial(s)
}

func parseExcelSerial(s string) (time.Time, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < minExcelSerial || f > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseNumber parses s as a float after stripping currency symbols,
// thousands separators and accounting parentheses.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = numberCleaner.Replace(s)
	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// numberCleaner drops currency symbols and grouping characters.
var numberCleaner = strings.NewReplacer(
	"$", "",
	"\u20ac", "", // Euro
	"\u00a3", "", // Pound
	"\u20bd", "", // Ruble
	",", "",
	" ", "",
	"\u00a0", "",
	"\u202f", "",
)

// ParseBool maps s through the truthy/falsy vocabulary. ok is false for any
// other token.
func ParseBool(s string) (value bool, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if truthyTokens[s] {
		return true, true
	}
	if falsyTokens[s] {
		return false, true
	}
	return false, false
}

// valueAsTime coerces a transformed cell to a date.
func valueAsTime(v Value) (time.Time, bool) {
	switch v.Kind {
	case KindTime:
		return v.Time, true
	case KindText:
		return ParseDate(v.Text)
	case KindNumber:
		return parseExcelSerial(strconv.FormatFloat(v.Num, 'f', -1, 64))
	}
	return time.Time{}, false
}

// valueAsNumber coerces a transformed cell to a float.
func valueAsNumber(v Value) (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindText:
		return ParseNumber(v.Text)
	}
	return 0, false
}

// valueAsInt32 coerces a cell to a whole number that fits in int32.
func valueAsInt32(v Value) (int32, bool) {
	f, ok := valueAsNumber(v)
	if !ok || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int32(f), true
}

// valueAsBool coerces a cell through the boolean vocabulary.
func valueAsBool(v Value) (bool, bool) {
	switch v.Kind {
	case KindBool:
		return v.Bool, true
	case KindNumber:
		switch v.Num {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	case KindText:
		return ParseBool(v.Text)
	}
	return false, false
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgUUID converts a string to pgtype.UUID.
// Returns invalid if the string is empty or not a valid UUID.
func ToPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// PgUUIDToString converts a pgtype.UUID to its string representation.
// Returns empty string if the UUID is invalid.
func PgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Phone numbers are valid when they carry between 10 and 15 digits.
const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// requiredFields lists, per entity kind, the columns whose missing values
// are reported. Only restaurants are checked today.
var requiredFields = map[EntityKind][]string{
	EntityRestaurant: {"name", "address", "opening_date", "seats_count"},
}

// Validator produces a read-only data-quality report for a table.
type Validator struct {
	// PositiveColumns must parse as numbers greater than zero.
	PositiveColumns []string

	// MaxRowNumbers caps how many offending row numbers a missing-value
	// finding lists. Zero omits row numbers entirely.
	MaxRowNumbers int
}

// NewValidator returns a validator for the restaurant column set.
func NewValidator() *Validator {
	return &Validator{
		PositiveColumns: []string{"seats_count"},
		MaxRowNumbers:   10,
	}
}

// Validate inspects t and returns every finding. It never modifies t and
// never fails.
func (v *Validator) Validate(t *RawTable, kind EntityKind) ValidationReport {
	report := NewValidationReport()

	v.checkRequired(t, kind, report)
	for _, col := range t.Columns {
		switch {
		case isEmailColumn(col):
			checkEmails(t, col, report)
		case isPhoneColumn(col):
			checkPhones(t, col, report)
		case IsDateColumn(col):
			checkDates(t, col, report)
		}
	}
	for _, col := range v.PositiveColumns {
		if t.HasColumn(col) {
			checkPositive(t, col, report)
		}
	}

	return report
}

func (v *Validator) checkRequired(t *RawTable, kind EntityKind, report ValidationReport) {
	for _, field := range requiredFields[kind] {
		if !t.HasColumn(field) {
			continue
		}
		var rows []int
		for i, row := range t.Rows {
			if row.Get(field).IsMissing() {
				rows = append(rows, i+1)
			}
		}
		if len(rows) == 0 {
			continue
		}
		finding := fmt.Sprintf("%s: %d missing values", field, len(rows))
		if v.MaxRowNumbers > 0 {
			finding += " (rows " + formatRowNumbers(rows, v.MaxRowNumbers) + ")"
		}
		report.Add(IssueMissingValues, finding)
	}
}

func checkEmails(t *RawTable, col string, report ValidationReport) {
	invalid := 0
	seen := make(map[string]int)
	for _, row := range t.Rows {
		val := row.Get(col)
		if val.IsMissing() {
			continue
		}
		email := strings.TrimSpace(val.String())
		seen[email]++
		if !IsValidEmail(email) {
			invalid++
		}
	}

	if invalid > 0 {
		report.Add(IssueInvalidEmails, fmt.Sprintf("%s: %d invalid email addresses", col, invalid))
	}

	// Every occurrence of a repeated address counts, so two rows sharing
	// one address report 2.
	dupes := 0
	for _, n := range seen {
		if n > 1 {
			dupes += n
		}
	}
	if dupes > 0 {
		report.Add(IssueDuplicateEmails, fmt.Sprintf("%s: %d duplicate email addresses", col, dupes))
	}
}

func checkPhones(t *RawTable, col string, report ValidationReport) {
	invalid := 0
	for _, row := range t.Rows {
		val := row.Get(col)
		if val.IsMissing() {
			continue
		}
		if !IsValidPhone(val.String()) {
			invalid++
		}
	}
	if invalid > 0 {
		report.Add(IssueInvalidPhones, fmt.Sprintf("%s: %d invalid phone numbers", col, invalid))
	}
}

func checkDates(t *RawTable, col string, report ValidationReport) {
	invalid := 0
	for _, row := range t.Rows {
		val := row.Get(col)
		if val.IsMissing() {
			continue
		}
		if _, ok := valueAsTime(val); !ok {
			invalid++
		}
	}
	if invalid > 0 {
		report.Add(IssueInvalidDates, fmt.Sprintf("%s: %d invalid dates", col, invalid))
	}
}

func checkPositive(t *RawTable, col string, report ValidationReport) {
	invalid := 0
	for _, row := range t.Rows {
		val := row.Get(col)
		if val.IsMissing() {
			continue
		}
		if f, ok := valueAsNumber(val); !ok || f <= 0 {
			invalid++
		}
	}
	if invalid > 0 {
		report.Add(IssueInvalidNumbers, fmt.Sprintf("%s: %d non-positive or non-numeric values", col, invalid))
	}
}

// IsValidEmail applies a strict grammar: exactly one '@', non-empty local
// and domain parts, and a domain holding a '.' that is neither first nor last.
func IsValidEmail(s string) bool {
	if strings.Count(s, "@") != 1 || strings.ContainsAny(s, " \t") {
		return false
	}
	local, domain, _ := strings.Cut(s, "@")
	if local == "" || domain == "" {
		return false
	}
	dot := strings.Index(domain, ".")
	if dot < 0 {
		return false
	}
	return !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

// IsValidPhone reports whether s holds 10 to 15 digits once every other
// character is removed.
func IsValidPhone(s string) bool {
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= minPhoneDigits && digits <= maxPhoneDigits
}

func isEmailColumn(col string) bool {
	return col == "email" || strings.HasSuffix(col, "_email")
}

func isPhoneColumn(col string) bool {
	return col == "phone" || strings.HasSuffix(col, "_phone")
}

func formatRowNumbers(rows []int, max int) string {
	var b strings.Builder
	for i, r := range rows {
		if i == max {
			fmt.Fprintf(&b, ", +%d more", len(rows)-max)
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(r))
	}
	return b.String()
}

package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindMissing ValueKind = iota
	KindText
	KindNumber
	KindBool
	KindTime
)

func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "missing"
	}
}

// Value is a single cell. The zero Value is the one canonical missing marker;
// every blank token, unparsable coercion and absent cell collapses to it.
type Value struct {
	Kind ValueKind
	Text string
	Num  float64
	Bool bool
	Time time.Time
}

// Missing is the canonical absent value.
var Missing = Value{}

func TextValue(s string) Value    { return Value{Kind: KindText, Text: s} }
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Num: f} }
func BoolValue(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func TimeValue(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// IsMissing reports whether v is the missing marker.
func (v Value) IsMissing() bool { return v.Kind == KindMissing }

// String renders the value as text. Missing renders as "".
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindTime:
		if isDateOnly(v.Time) {
			return v.Time.Format(time.DateOnly)
		}
		return v.Time.Format(time.RFC3339)
	default:
		return ""
	}
}

// JSONSafe returns nil for Missing and the text rendering otherwise, so error
// records never carry a non-finite number or a bare timestamp struct.
func (v Value) JSONSafe() *string {
	if v.IsMissing() {
		return nil
	}
	s := v.String()
	return &s
}

func isDateOnly(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// Row maps a normalized column name to its cell.
type Row map[string]Value

// Get returns the cell for column, or Missing when the column is absent.
func (r Row) Get(column string) Value {
	if v, ok := r[column]; ok {
		return v
	}
	return Missing
}

// Record converts the row into a JSON-safe map for error reporting.
func (r Row) Record() map[string]*string {
	out := make(map[string]*string, len(r))
	for k, v := range r {
		out[k] = v.JSONSafe()
	}
	return out
}

// RawTable is an ordered set of columns plus rows keyed by those columns.
// Column names are unique, trimmed and lower-cased.
type RawTable struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of data rows.
func (t *RawTable) Len() int { return len(t.Rows) }

// HasColumn reports whether the table carries the named column.
func (t *RawTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so transformations never touch the source table.
func (t *RawTable) Clone() *RawTable {
	out := &RawTable{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// EntityKind names the business entity a table represents.
type EntityKind string

const (
	EntityUnknown          EntityKind = "unknown"
	EntitySupplier         EntityKind = "supplier"
	EntityEmployee         EntityKind = "employee"
	EntityCustomerOrder    EntityKind = "customer_order"
	EntityIngredientSupply EntityKind = "ingredient_supply"
	EntityDish             EntityKind = "dish"
	EntityMenu             EntityKind = "menu"
	EntityRestaurant       EntityKind = "restaurant"
)

// ErrUnknownEntityKind is returned when no loader exists for an entity kind.
var ErrUnknownEntityKind = errors.New("unknown entity kind")

var entityKinds = []EntityKind{
	EntitySupplier,
	EntityEmployee,
	EntityCustomerOrder,
	EntityIngredientSupply,
	EntityDish,
	EntityMenu,
	EntityRestaurant,
	EntityUnknown,
}

// ParseEntityKind resolves a caller-supplied entity name. The empty string
// parses to "" so callers can fall back to classification.
func ParseEntityKind(s string) (EntityKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	for _, k := range entityKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntityKind, s)
}

// IssueCategory groups validation findings.
type IssueCategory string

const (
	IssueMissingValues   IssueCategory = "missing_values"
	IssueInvalidEmails   IssueCategory = "invalid_emails"
	IssueInvalidPhones   IssueCategory = "invalid_phones"
	IssueInvalidDates    IssueCategory = "invalid_dates"
	IssueInvalidNumbers  IssueCategory = "invalid_numbers"
	IssueDuplicateEmails IssueCategory = "duplicate_emails"
)

// IssueCategories lists every category in report order.
var IssueCategories = []IssueCategory{
	IssueMissingValues,
	IssueInvalidEmails,
	IssueInvalidPhones,
	IssueInvalidDates,
	IssueInvalidNumbers,
	IssueDuplicateEmails,
}

// ValidationReport maps each category to its human-readable findings.
// Every category is always present, possibly with an empty list.
type ValidationReport map[IssueCategory][]string

// NewValidationReport returns a report with all categories initialised.
func NewValidationReport() ValidationReport {
	r := make(ValidationReport, len(IssueCategories))
	for _, c := range IssueCategories {
		r[c] = []string{}
	}
	return r
}

// Add appends a finding to a category.
func (r ValidationReport) Add(cat IssueCategory, finding string) {
	r[cat] = append(r[cat], finding)
}

// Count returns the total number of findings across categories.
func (r ValidationReport) Count() int {
	n := 0
	for _, f := range r {
		n += len(f)
	}
	return n
}

// RowStatus is the terminal state of one row in a load.
type RowStatus string

const (
	RowInserted RowStatus = "inserted"
	RowSkipped  RowStatus = "skipped"
	RowFailed   RowStatus = "failed"
)

// RowError describes a row that did not end up inserted.
type RowError struct {
	Row    int                `json:"row"` // 1-based data row number
	Status RowStatus          `json:"status"`
	Error  string             `json:"error"`
	Record map[string]*string `json:"record"`
}

// LoadOutcome summarises a load. Total always equals
// Successful + Failed + Skipped.
type LoadOutcome struct {
	Total      int        `json:"total_records"`
	Successful int        `json:"successful"`
	Failed     int        `json:"failed"`
	Skipped    int        `json:"skipped"`
	Errors     []RowError `json:"errors"`

	// ErrorsTruncated counts row records dropped past the configured cap.
	ErrorsTruncated int `json:"errors_truncated,omitempty"`

	// FatalError is set when the load as a whole was aborted, either by a
	// batch commit failure or cancellation.
	FatalError string `json:"fatal_error,omitempty"`
}

func newLoadOutcome(total int) *LoadOutcome {
	return &LoadOutcome{Total: total, Errors: []RowError{}}
}

// CommitMode selects the transaction granularity of a load.
type CommitMode string

const (
	// CommitPerRow runs each row in its own transaction.
	CommitPerRow CommitMode = "row"
	// CommitBatch runs the whole load in one transaction with a savepoint
	// per row; a failed final commit rolls back every insert.
	CommitBatch CommitMode = "batch"
)

// ParseCommitMode parses "row" or "batch".
func ParseCommitMode(s string) (CommitMode, error) {
	switch CommitMode(strings.ToLower(strings.TrimSpace(s))) {
	case CommitPerRow:
		return CommitPerRow, nil
	case CommitBatch:
		return CommitBatch, nil
	}
	return "", fmt.Errorf("invalid commit mode %q: must be row or batch", s)
}

// BoolFallback decides what the loader does with an unrecognised flag.
type BoolFallback string

const (
	// FallbackTrue treats an unrecognised or missing flag as true.
	FallbackTrue BoolFallback = "true"
	// FallbackReject fails rows whose flag is present but unrecognised.
	FallbackReject BoolFallback = "reject"
)

// ParseBoolFallback parses "true" or "reject".
func ParseBoolFallback(s string) (BoolFallback, error) {
	switch BoolFallback(strings.ToLower(strings.TrimSpace(s))) {
	case FallbackTrue:
		return FallbackTrue, nil
	case FallbackReject:
		return FallbackReject, nil
	}
	return "", fmt.Errorf("invalid bool fallback %q: must be true or reject", s)
}

// LoadOptions tunes how rows are persisted.
type LoadOptions struct {
	CommitMode              CommitMode
	BoolFallback            BoolFallback
	DefaultRestaurantTypeID int32
	// MaxErrorRecords caps RowError entries kept in the outcome. Zero keeps all.
	MaxErrorRecords int
}

// DefaultLoadOptions returns per-row commits, a true fallback and type id 1.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		CommitMode:              CommitPerRow,
		BoolFallback:            FallbackTrue,
		DefaultRestaurantTypeID: 1,
		MaxErrorRecords:         1000,
	}
}

// Restaurant is a persisted restaurant.
type Restaurant struct {
	ID               int64
	Name             string
	Address          string
	Phone            pgtype.Text
	Email            pgtype.Text
	OpeningDate      time.Time
	SeatsCount       int32
	RestaurantTypeID int32
	IsActive         bool
	CreatedAt        time.Time
}

// NewRestaurant holds the fields of a restaurant about to be inserted.
type NewRestaurant struct {
	Name             string
	Address          string
	Phone            pgtype.Text
	Email            pgtype.Text
	OpeningDate      time.Time
	SeatsCount       int32
	RestaurantTypeID int32
	IsActive         bool
}

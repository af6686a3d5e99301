package core

import "strings"

// Transformer normalises a working copy of a table: trimmed text, typed
// dates, numbers and booleans. Unparsable values collapse to Missing.
type Transformer struct {
	NumericColumns []string
	BoolColumns    []string

	// StrictBools keeps unrecognised boolean tokens as text instead of
	// collapsing them to Missing, so a rejecting loader can see them.
	StrictBools bool
}

// NewTransformer returns a transformer for the restaurant column set.
func NewTransformer() *Transformer {
	return &Transformer{
		NumericColumns: []string{"seats_count", "restaurant_type_id"},
		BoolColumns:    []string{"is_active"},
	}
}

// Transform returns a transformed copy of t. The input table is not modified.
func (tr *Transformer) Transform(t *RawTable) *RawTable {
	out := t.Clone()

	numeric := toSet(tr.NumericColumns)
	boolean := toSet(tr.BoolColumns)

	for _, row := range out.Rows {
		for _, col := range out.Columns {
			v := trimValue(row.Get(col))

			switch {
			case v.IsMissing():
			case IsDateColumn(col):
				v = toDate(v)
			case numeric[col]:
				v = toNumber(v)
			case boolean[col]:
				v = toBool(v, tr.StrictBools)
			}

			if v.IsMissing() {
				v = Missing
			}
			row[col] = v
		}
	}

	return out
}

func trimValue(v Value) Value {
	if v.Kind != KindText {
		return v
	}
	s := strings.TrimSpace(v.Text)
	if s == "" || strings.EqualFold(s, "nan") {
		return Missing
	}
	return TextValue(s)
}

func toDate(v Value) Value {
	if t, ok := valueAsTime(v); ok {
		return TimeValue(t)
	}
	return Missing
}

func toNumber(v Value) Value {
	if f, ok := valueAsNumber(v); ok {
		return NumberValue(f)
	}
	return Missing
}

func toBool(v Value, keepUnknown bool) Value {
	if b, ok := valueAsBool(v); ok {
		return BoolValue(b)
	}
	if keepUnknown {
		return v
	}
	return Missing
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}

package core

// classificationRule maps a set of required columns to an entity kind.
type classificationRule struct {
	kind     EntityKind
	requires []string
}

// classificationRules are evaluated in order; the first rule whose columns
// are all present wins. Signatures overlap, so {name, category, season}
// is a dish and never a menu.
var classificationRules = []classificationRule{
	{EntitySupplier, []string{"company_name", "inn"}},
	{EntityEmployee, []string{"first_name", "last_name"}},
	{EntityCustomerOrder, []string{"table_number", "customer_name"}},
	{EntityIngredientSupply, []string{"invoice_number", "supply_date"}},
	{EntityDish, []string{"name", "category"}},
	{EntityMenu, []string{"name", "season"}},
	{EntityRestaurant, []string{"name", "address", "seats_count"}},
}

// Classify returns the entity kind implied by a table's column names, or
// EntityUnknown when no rule matches.
func Classify(columns []string) EntityKind {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	for _, rule := range classificationRules {
		if hasAll(present, rule.requires) {
			return rule.kind
		}
	}
	return EntityUnknown
}

func hasAll(present map[string]struct{}, cols []string) bool {
	for _, c := range cols {
		if _, ok := present[c]; !ok {
			return false
		}
	}
	return true
}

// Package rowfields resolves spreadsheet columns to canonical fields using
// ranked alias lists. Header names arrive already lower-cased and trimmed.
package rowfields

import (
	"strings"
)

// Field is a canonical field a spreadsheet column can map to
type Field string

const (
	FieldClient      Field = "client"
	FieldGrossProfit Field = "gross_profit"
	FieldEmployee    Field = "employee"
	FieldHours       Field = "hours"
	FieldStatus      Field = "status"
	FieldRate        Field = "rate"
	FieldDate        Field = "date"
)

// Aliases maps each canonical field to its ranked candidate column names.
// Earlier entries win over later ones.
type Aliases map[Field][]string

// DefaultAliases returns the built-in alias table. Callers may copy and
// extend it per tenant.
func DefaultAliases() Aliases {
	return Aliases{
		FieldClient:      {"client", "client name", "customer", "account", "company"},
		FieldGrossProfit: {"gp", "gross profit", "gross_profit", "profit", "margin", "fee"},
		FieldEmployee:    {"employee", "employee name", "rep", "recruiter", "consultant", "owner", "salesperson"},
		FieldHours:       {"hours", "hours worked", "qty", "quantity"},
		FieldStatus:      {"status", "type", "placement type", "employment type"},
		FieldRate:        {"rate", "commission rate", "comm rate", "commission %", "split"},
		FieldDate:        {"date", "invoice date", "start date", "week ending", "period"},
	}
}

// sentinels are values treated the same as an absent cell
var sentinels = map[string]struct{}{
	"":     {},
	"n/a":  {},
	"na":   {},
	"-":    {},
	"none": {},
	"null": {},
}

// Find returns the first present, non-sentinel value among the candidate
// columns. A column that exists but holds a sentinel does not stop the scan;
// later candidates are still consulted.
func Find(row map[string]any, candidates []string) (any, bool) {
	for _, name := range candidates {
		value, exists := row[name]
		if !exists {
			continue
		}
		if IsSentinel(value) {
			continue
		}
		return value, true
	}
	return nil, false
}

// FindField resolves a canonical field against the alias table
func (a Aliases) FindField(row map[string]any, field Field) (any, bool) {
	return Find(row, a[field])
}

// IsSentinel reports whether a cell value means "no value". Only strings can
// be sentinels; numeric zero is a real value.
func IsSentinel(value any) bool {
	str, isString := value.(string)
	if !isString {
		return value == nil
	}
	_, found := sentinels[strings.ToLower(strings.TrimSpace(str))]
	return found
}

// Package identity computes the stable dedup key that makes imports
// re-runnable. Re-uploading a spreadsheet or re-running a sync updates
// existing ledger rows instead of inserting duplicates.
package identity

import (
	"fmt"
	"strings"
)

// Fact is the subset of a commission record the key derives from
type Fact struct {
	PlacementID  *string
	Status       string
	Year         int
	Month        string
	Day          int
	EmployeeName string
	Client       string
	GrossProfit  float64
}

// KeyFor returns the dedup key for a fact. Placement-sourced facts key on
// the ATS id, prefixed by kind so a permanent placement and a contract
// engagement with the same upstream id never collide. Everything else keys
// on a composite of the business fields; gross profit is fixed to two
// decimals so float noise cannot split identities.
func KeyFor(fact Fact) string {
	if fact.PlacementID != nil && *fact.PlacementID != "" {
		return fmt.Sprintf("%s:%s", kindPrefix(fact.Status), *fact.PlacementID)
	}

	return strings.Join([]string{
		fmt.Sprintf("%d", fact.Year),
		fact.Month,
		fmt.Sprintf("%d", fact.Day),
		fact.EmployeeName,
		fact.Client,
		fact.Status,
		fmt.Sprintf("%.2f", fact.GrossProfit),
	}, "|")
}

// kindPrefix distinguishes permanent from contract placements in the key
func kindPrefix(status string) string {
	if strings.Contains(strings.ToLower(status), "contract") {
		return "contract"
	}
	return "perm"
}

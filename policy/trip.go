package policy

import (
	"fmt"

	"github.com/byteness/travelgate/employee"
)

// TripValidation is the outcome of validating a proposed trip.
type TripValidation struct {
	Valid            bool     `json:"valid"`
	Issues           []string `json:"issues"`
	BudgetSufficient bool     `json:"budget_sufficient"`
}

// ValidateTrip checks a proposed trip against the employee's remaining budget,
// the duration ceiling for their grade and the high-risk destination list.
// Every check runs; issues accumulate. Valid is true only with no issues.
func (p *TravelPolicy) ValidateTrip(emp *employee.Employee, destination string, days int, cost float64) TripValidation {
	issues := []string{}

	budgetOK := cost <= emp.TravelBudgetRemaining
	if !budgetOK {
		issues = append(issues, fmt.Sprintf("Insufficient budget: %s remaining, %s requested",
			formatAmount(emp.TravelBudgetRemaining), formatAmount(cost)))
	}

	if limit := lookup(p, p.DurationLimits, emp.Grade); days > limit {
		issues = append(issues, fmt.Sprintf("Duration exceeds limit for %s grade: %d days requested, %d allowed",
			emp.Grade, days, limit))
	}

	if containsString(p.HighRiskDestinations, destination) {
		issues = append(issues, fmt.Sprintf("Destination %s requires special approval", destination))
	}

	return TripValidation{
		Valid:            len(issues) == 0,
		Issues:           issues,
		BudgetSufficient: budgetOK,
	}
}

package policy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/byteness/travelgate/catalog"
	"github.com/byteness/travelgate/employee"
)

// ReasonEligible is the reason reported for a bookable offering.
const ReasonEligible = "Eligible for booking"

// Eligibility is the outcome of an eligibility check.
type Eligibility struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason"`
	// Violations lists every failed rule in evaluation order.
	// Reason is the last entry when the offering is ineligible.
	Violations []string `json:"violations,omitempty"`
}

// EvaluateEligibility decides whether an employee of the given grade may book
// an offering of the given kind, tier and unit price.
//
// The tier rule runs first, then the price cap. Both always run; the reported
// reason is the last failing rule. A price equal to the cap is allowed.
func (p *TravelPolicy) EvaluateEligibility(grade employee.Grade, kind catalog.Kind, tier string, price float64) Eligibility {
	var violations []string

	switch catalog.Rank(tier) {
	case catalog.TierMiddle:
		if !containsGrade(p.MiddleTierGrades, grade) {
			violations = append(violations, tierReason(p.MiddleTierGrades, kind, tier))
		}
	case catalog.TierTop:
		if !containsGrade(p.TopTierGrades, grade) {
			violations = append(violations, tierReason(p.TopTierGrades, kind, tier))
		}
	}

	caps := p.FlightPriceCaps
	noun := "Flight"
	if kind == catalog.KindHotel {
		caps = p.HotelPriceCaps
		noun = "Hotel"
	}
	if limit := lookup(p, caps, grade); price > limit {
		violations = append(violations, fmt.Sprintf("%s price exceeds the limit for %s grade (%s)", noun, grade, formatAmount(limit)))
	}

	if len(violations) == 0 {
		return Eligibility{Eligible: true, Reason: ReasonEligible}
	}
	return Eligibility{
		Eligible:   false,
		Reason:     violations[len(violations)-1],
		Violations: violations,
	}
}

func tierReason(allowed []employee.Grade, kind catalog.Kind, tier string) string {
	what := tier + " class"
	if kind == catalog.KindHotel {
		what = tier + " category hotels"
	}
	return fmt.Sprintf("Only %s employees are eligible for %s", joinGrades(allowed), what)
}

// joinGrades renders ["Senior", "Executive"] as "Senior and Executive".
func joinGrades(grades []employee.Grade) string {
	if len(grades) == 0 {
		return "no"
	}
	names := make([]string, len(grades))
	for i, g := range grades {
		names[i] = string(g)
	}
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

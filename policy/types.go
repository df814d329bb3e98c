// Package policy implements the corporate travel policy: which offerings an
// employee may book, whether a proposed trip fits budget and duration limits,
// which approval level a request needs, and whether a passport is travel-ready.
//
// All thresholds live in a TravelPolicy, loaded as YAML from SSM Parameter
// Store (see Loader) or taken from DefaultPolicy. Evaluation is pure: callers
// fetch employee and offering records and pass them in.
package policy

import (
	"github.com/byteness/travelgate/employee"
)

// TravelPolicy holds every threshold used by policy evaluation.
// Grades missing from a per-grade table are evaluated as FallbackGrade.
type TravelPolicy struct {
	// Version is the policy schema version. Required.
	Version string `yaml:"version" json:"version"`

	// FallbackGrade is used for grade-keyed lookups when the employee's grade
	// has no entry. Defaults to Junior, the most restrictive grade.
	FallbackGrade employee.Grade `yaml:"fallback_grade" json:"fallback_grade"`

	// FlightPriceCaps is the maximum ticket price per grade.
	FlightPriceCaps map[employee.Grade]float64 `yaml:"flight_price_caps" json:"flight_price_caps"`

	// HotelPriceCaps is the maximum nightly rate per grade.
	HotelPriceCaps map[employee.Grade]float64 `yaml:"hotel_price_caps" json:"hotel_price_caps"`

	// MiddleTierGrades may book Business class and Premium hotels.
	MiddleTierGrades []employee.Grade `yaml:"middle_tier_grades" json:"middle_tier_grades"`

	// TopTierGrades may book First class and Luxury hotels.
	TopTierGrades []employee.Grade `yaml:"top_tier_grades" json:"top_tier_grades"`

	// DurationLimits is the longest trip, in days, per grade.
	DurationLimits map[employee.Grade]int `yaml:"duration_limits" json:"duration_limits"`

	// ApprovalCostThresholds is the trip cost per grade above which a
	// request escalates to Director.
	ApprovalCostThresholds map[employee.Grade]float64 `yaml:"approval_cost_thresholds" json:"approval_cost_thresholds"`

	// VPCostThreshold is the grade-independent cost above which a request needs VP approval.
	VPCostThreshold float64 `yaml:"vp_cost_threshold" json:"vp_cost_threshold"`

	// DirectorDurationDays is the trip length above which a request escalates to Director.
	DirectorDurationDays int `yaml:"director_duration_days" json:"director_duration_days"`

	// HighRiskDestinations fail trip validation.
	HighRiskDestinations []string `yaml:"high_risk_destinations" json:"high_risk_destinations"`

	// InternationalDestinations escalate Manager-level requests to Director.
	InternationalDestinations []string `yaml:"international_destinations" json:"international_destinations"`

	// PassportWarningDays is how far ahead an expiring passport is flagged.
	PassportWarningDays int `yaml:"passport_warning_days" json:"passport_warning_days"`
}

// DefaultPolicy returns the built-in corporate travel policy.
// Each call returns a fresh copy that callers may modify.
func DefaultPolicy() *TravelPolicy {
	return &TravelPolicy{
		Version:       "1",
		FallbackGrade: employee.GradeJunior,
		FlightPriceCaps: map[employee.Grade]float64{
			employee.GradeJunior:    1000,
			employee.GradeMidLevel:  2000,
			employee.GradeSenior:    5000,
			employee.GradeExecutive: 10000,
		},
		HotelPriceCaps: map[employee.Grade]float64{
			employee.GradeJunior:    200,
			employee.GradeMidLevel:  300,
			employee.GradeSenior:    500,
			employee.GradeExecutive: 1000,
		},
		MiddleTierGrades: []employee.Grade{employee.GradeSenior, employee.GradeExecutive},
		TopTierGrades:    []employee.Grade{employee.GradeExecutive},
		DurationLimits: map[employee.Grade]int{
			employee.GradeJunior:    5,
			employee.GradeMidLevel:  7,
			employee.GradeSenior:    10,
			employee.GradeExecutive: 14,
		},
		ApprovalCostThresholds: map[employee.Grade]float64{
			employee.GradeJunior:    1000,
			employee.GradeMidLevel:  2000,
			employee.GradeSenior:    5000,
			employee.GradeExecutive: 10000,
		},
		VPCostThreshold:           10000,
		DirectorDurationDays:      7,
		HighRiskDestinations:      []string{"Country A", "Country B", "Country C"},
		InternationalDestinations: []string{"Country X", "Country Y", "Country Z"},
		PassportWarningDays:       180,
	}
}

// lookup returns m[g], or m[p.FallbackGrade] when g has no entry.
func lookup[V any](p *TravelPolicy, m map[employee.Grade]V, g employee.Grade) V {
	if v, ok := m[g]; ok {
		return v
	}
	return m[p.FallbackGrade]
}

func containsGrade(grades []employee.Grade, g employee.Grade) bool {
	for _, candidate := range grades {
		if candidate == g {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}

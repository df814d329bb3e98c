package policy_test

import (
	"strings"
	"testing"

	"github.com/byteness/travelgate/catalog"
	"github.com/byteness/travelgate/employee"
	"github.com/byteness/travelgate/policy"
)

var bookingGrades = []employee.Grade{
	employee.GradeJunior,
	employee.GradeMidLevel,
	employee.GradeSenior,
	employee.GradeExecutive,
}

func TestEvaluateEligibility_TierGating(t *testing.T) {
	p := policy.DefaultPolicy()

	tiers := []struct {
		kind    catalog.Kind
		tier    string
		allowed map[employee.Grade]bool
	}{
		{catalog.KindFlight, catalog.ClassEconomy, map[employee.Grade]bool{"Junior": true, "Mid-level": true, "Senior": true, "Executive": true}},
		{catalog.KindFlight, catalog.ClassBusiness, map[employee.Grade]bool{"Senior": true, "Executive": true}},
		{catalog.KindFlight, catalog.ClassFirst, map[employee.Grade]bool{"Executive": true}},
		{catalog.KindHotel, catalog.CategoryStandard, map[employee.Grade]bool{"Junior": true, "Mid-level": true, "Senior": true, "Executive": true}},
		{catalog.KindHotel, catalog.CategoryPremium, map[employee.Grade]bool{"Senior": true, "Executive": true}},
		{catalog.KindHotel, catalog.CategoryLuxury, map[employee.Grade]bool{"Executive": true}},
	}

	for _, tt := range tiers {
		for _, g := range bookingGrades {
			// Price well below every cap isolates the tier rule.
			got := p.EvaluateEligibility(g, tt.kind, tt.tier, 1)
			if got.Eligible != tt.allowed[g] {
				t.Errorf("EvaluateEligibility(%s, %s %s) eligible = %v, want %v (reason %q)",
					g, tt.kind, tt.tier, got.Eligible, tt.allowed[g], got.Reason)
			}
		}
	}
}

func TestEvaluateEligibility_PriceCapBoundary(t *testing.T) {
	p := policy.DefaultPolicy()

	caps := []struct {
		kind catalog.Kind
		tier string
		caps map[employee.Grade]float64
	}{
		{catalog.KindFlight, catalog.ClassEconomy, map[employee.Grade]float64{"Junior": 1000, "Mid-level": 2000, "Senior": 5000, "Executive": 10000}},
		{catalog.KindHotel, catalog.CategoryStandard, map[employee.Grade]float64{"Junior": 200, "Mid-level": 300, "Senior": 500, "Executive": 1000}},
	}

	for _, tt := range caps {
		for g, limit := range tt.caps {
			if got := p.EvaluateEligibility(g, tt.kind, tt.tier, limit); !got.Eligible {
				t.Errorf("%s %s at cap %v: eligible = false, want true (%q)", g, tt.kind, limit, got.Reason)
			}
			if got := p.EvaluateEligibility(g, tt.kind, tt.tier, limit+1); got.Eligible {
				t.Errorf("%s %s at cap+1 %v: eligible = true, want false", g, tt.kind, limit+1)
			}
		}
	}
}

func TestEvaluateEligibility_JuniorScenarios(t *testing.T) {
	p := policy.DefaultPolicy()

	// Business class at 1500: both rules fail; tier restriction is recorded,
	// the price cap (evaluated last) is the reported reason.
	got := p.EvaluateEligibility(employee.GradeJunior, catalog.KindFlight, catalog.ClassBusiness, 1500)
	if got.Eligible {
		t.Fatal("Junior Business 1500 should be ineligible")
	}
	if len(got.Violations) != 2 {
		t.Fatalf("Violations = %v, want 2 entries", got.Violations)
	}
	if got.Violations[0] != "Only Senior and Executive employees are eligible for Business class" {
		t.Errorf("Violations[0] = %q", got.Violations[0])
	}
	if got.Reason != "Flight price exceeds the limit for Junior grade (1000)" {
		t.Errorf("Reason = %q", got.Reason)
	}

	// Business class within cap: only the tier rule fails.
	got = p.EvaluateEligibility(employee.GradeJunior, catalog.KindFlight, catalog.ClassBusiness, 800)
	if got.Eligible || got.Reason != "Only Senior and Executive employees are eligible for Business class" {
		t.Errorf("Junior Business 800 = %+v", got)
	}

	// Economy at 1500: tier passes, price cap fails.
	got = p.EvaluateEligibility(employee.GradeJunior, catalog.KindFlight, catalog.ClassEconomy, 1500)
	if got.Eligible {
		t.Fatal("Junior Economy 1500 should be ineligible")
	}
	if !strings.Contains(got.Reason, "Junior") || !strings.Contains(got.Reason, "1000") {
		t.Errorf("Reason = %q, want Junior cap 1000", got.Reason)
	}
	if len(got.Violations) != 1 {
		t.Errorf("Violations = %v, want 1 entry", got.Violations)
	}
}

func TestEvaluateEligibility_HotelReasons(t *testing.T) {
	p := policy.DefaultPolicy()

	tests := []struct {
		grade employee.Grade
		tier  string
		price float64
		want  string
	}{
		{employee.GradeMidLevel, catalog.CategoryPremium, 250, "Only Senior and Executive employees are eligible for Premium category hotels"},
		{employee.GradeSenior, catalog.CategoryLuxury, 400, "Only Executive employees are eligible for Luxury category hotels"},
		{employee.GradeSenior, catalog.CategoryStandard, 501, "Hotel price exceeds the limit for Senior grade (500)"},
		{employee.GradeExecutive, catalog.CategoryLuxury, 1000, policy.ReasonEligible},
	}

	for _, tt := range tests {
		got := p.EvaluateEligibility(tt.grade, catalog.KindHotel, tt.tier, tt.price)
		if got.Reason != tt.want {
			t.Errorf("EvaluateEligibility(%s, %s, %v).Reason = %q, want %q", tt.grade, tt.tier, tt.price, got.Reason, tt.want)
		}
	}
}

func TestEvaluateEligibility_UnrecognizedGradeUsesJuniorCap(t *testing.T) {
	p := policy.DefaultPolicy()

	for _, g := range []employee.Grade{"Intern", "", employee.GradeDirector} {
		if got := p.EvaluateEligibility(g, catalog.KindFlight, catalog.ClassEconomy, 1000); !got.Eligible {
			t.Errorf("grade %q at 1000: eligible = false, want true", g)
		}
		if got := p.EvaluateEligibility(g, catalog.KindFlight, catalog.ClassEconomy, 1001); got.Eligible {
			t.Errorf("grade %q at 1001: eligible = true, want false", g)
		}
		if got := p.EvaluateEligibility(g, catalog.KindHotel, catalog.CategoryStandard, 201); got.Eligible {
			t.Errorf("grade %q hotel at 201: eligible = true, want false", g)
		}
	}
}

func TestEvaluateEligibility_CustomTierGrades(t *testing.T) {
	p := policy.DefaultPolicy()
	p.TopTierGrades = []employee.Grade{employee.GradeSenior, employee.GradeMidLevel, employee.GradeExecutive}

	got := p.EvaluateEligibility(employee.GradeJunior, catalog.KindFlight, catalog.ClassFirst, 100)
	want := "Only Senior, Mid-level and Executive employees are eligible for First class"
	if got.Reason != want {
		t.Errorf("Reason = %q, want %q", got.Reason, want)
	}
}

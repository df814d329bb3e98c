package policy

import (
	"fmt"

	"github.com/byteness/travelgate/employee"
)

// Validate checks that the policy thresholds are usable.
func (p *TravelPolicy) Validate() error {
	if !p.FallbackGrade.IsValid() {
		return fmt.Errorf("invalid fallback_grade: %q", p.FallbackGrade)
	}

	if err := validateAmounts("flight_price_caps", p.FlightPriceCaps, p.FallbackGrade); err != nil {
		return err
	}
	if err := validateAmounts("hotel_price_caps", p.HotelPriceCaps, p.FallbackGrade); err != nil {
		return err
	}
	if err := validateAmounts("approval_cost_thresholds", p.ApprovalCostThresholds, p.FallbackGrade); err != nil {
		return err
	}

	if _, ok := p.DurationLimits[p.FallbackGrade]; !ok {
		return fmt.Errorf("duration_limits: missing entry for fallback grade %s", p.FallbackGrade)
	}
	for grade, days := range p.DurationLimits {
		if days <= 0 {
			return fmt.Errorf("duration_limits: %s must be positive", grade)
		}
	}

	if p.VPCostThreshold <= 0 {
		return fmt.Errorf("vp_cost_threshold must be positive")
	}
	if p.DirectorDurationDays <= 0 {
		return fmt.Errorf("director_duration_days must be positive")
	}
	if p.PassportWarningDays < 0 {
		return fmt.Errorf("passport_warning_days must not be negative")
	}

	return nil
}

func validateAmounts(name string, m map[employee.Grade]float64, fallback employee.Grade) error {
	if _, ok := m[fallback]; !ok {
		return fmt.Errorf("%s: missing entry for fallback grade %s", name, fallback)
	}
	for grade, v := range m {
		if v < 0 {
			return fmt.Errorf("%s: %s must not be negative", name, grade)
		}
	}
	return nil
}

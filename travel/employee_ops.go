package travel

import (
	"context"
)

// NotSpecified is reported for an empty travel preference.
const NotSpecified = "Not specified"

// TravelPreferences is the Data of GetTravelPreferences.
type TravelPreferences struct {
	PreferredAirlines   string `json:"preferred_airlines"`
	DietaryRestrictions string `json:"dietary_restrictions"`
	AccessibilityNeeds  string `json:"accessibility_needs"`
}

// GetEmployeeInfo returns the directory record. Sensitive fields such as the
// emergency contact never serialize.
func (s *Service) GetEmployeeInfo(ctx context.Context, empID string) Result {
	if err := requireParams("emp_id", empID); err != nil {
		return s.errorResult("get_employee_info", err)
	}
	emp, err := s.employee(ctx, empID)
	if err != nil {
		return s.errorResult("get_employee_info", err)
	}
	emp.EmergencyContact = ""
	return success("", emp)
}

// GetTravelPreferences returns the employee's travel preferences.
func (s *Service) GetTravelPreferences(ctx context.Context, empID string) Result {
	if err := requireParams("emp_id", empID); err != nil {
		return s.errorResult("get_travel_preferences", err)
	}
	emp, err := s.employee(ctx, empID)
	if err != nil {
		return s.errorResult("get_travel_preferences", err)
	}
	return success("", TravelPreferences{
		PreferredAirlines:   orNotSpecified(emp.PreferredAirlines),
		DietaryRestrictions: orNotSpecified(emp.DietaryRestrictions),
		AccessibilityNeeds:  orNotSpecified(emp.AccessibilityNeeds),
	})
}

func orNotSpecified(s string) string {
	if s == "" {
		return NotSpecified
	}
	return s
}

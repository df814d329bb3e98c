// Package employee defines the read-only employee directory consumed by the
// travel policy engine. The directory is owned by HR; the engine only reads
// grade, manager, approval floor, budget and passport attributes.
package employee

import (
	"context"
	"errors"
)

// Grade is an employee's seniority tier. It drives class/category access,
// price caps, duration ceilings and approval thresholds.
type Grade string

const (
	GradeJunior    Grade = "Junior"
	GradeMidLevel  Grade = "Mid-level"
	GradeSenior    Grade = "Senior"
	GradeExecutive Grade = "Executive"
	// GradeDirector appears on approver records; it is not a booking grade.
	GradeDirector Grade = "Director"
)

// IsValid returns true if the Grade is a known value.
func (g Grade) IsValid() bool {
	switch g {
	case GradeJunior, GradeMidLevel, GradeSenior, GradeExecutive, GradeDirector:
		return true
	}
	return false
}

// String returns the string representation of the Grade.
func (g Grade) String() string {
	return string(g)
}

// ErrEmployeeNotFound is returned when the directory has no record for an ID.
var ErrEmployeeNotFound = errors.New("employee not found")

// Employee is a directory record.
type Employee struct {
	ID         string `json:"emp_id"`
	Name       string `json:"name,omitempty"`
	Department string `json:"department,omitempty"`
	Grade      Grade  `json:"grade"`

	// ManagerID is a back-reference to the employee's manager record.
	ManagerID string `json:"manager_id,omitempty"`

	// ApprovalLevel is the default escalation floor (Self, Manager, Director, VP).
	// Empty means the directory did not set one.
	ApprovalLevel string `json:"approval_level,omitempty"`

	TravelBudgetRemaining float64 `json:"travel_budget_remaining"`

	Nationality    string `json:"nationality,omitempty"`
	PassportStatus string `json:"passport_status,omitempty"`
	// PassportExpiry is the stored expiry date (YYYY-MM-DD); may be empty or malformed.
	PassportExpiry string `json:"passport_expiry,omitempty"`

	PreferredAirlines   string `json:"preferred_airlines,omitempty"`
	DietaryRestrictions string `json:"dietary_restrictions,omitempty"`
	AccessibilityNeeds  string `json:"accessibility_needs,omitempty"`

	// EmergencyContact is sensitive and must not leave the service.
	EmergencyContact string `json:"-"`
}

// Directory looks up employee records.
// Implementations must be safe for concurrent use.
type Directory interface {
	// Get returns the employee with the given ID, or an error wrapping
	// ErrEmployeeNotFound if the directory has no such record.
	Get(ctx context.Context, id string) (*Employee, error)
}

// Package testutil provides reusable test utilities, mock implementations,
// and fixture builders for testing travel policy and approval components.
package testutil

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/byteness/travelgate/catalog"
	"github.com/byteness/travelgate/employee"
	"github.com/byteness/travelgate/request"
)

// ============================================================================
// Time and ID helpers
// ============================================================================

// MustParseTime parses a time string using the given layout and panics on error.
// Useful for test data initialization where parse errors indicate a test bug.
//
// Example:
//
//	t := MustParseTime(time.RFC3339, "2026-01-15T10:00:00Z")
func MustParseTime(layout, value string) time.Time {
	t, err := time.Parse(layout, value)
	if err != nil {
		panic("testutil.MustParseTime: " + err.Error())
	}
	return t
}

// FixedClock returns a function that always returns the given time.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time {
		return t
	}
}

// SteppingClock returns a clock that starts at t and advances by step on
// every call. Safe for concurrent use.
func SteppingClock(t time.Time, step time.Duration) func() time.Time {
	var n atomic.Int64
	return func() time.Time {
		return t.Add(time.Duration(n.Add(1)-1) * step)
	}
}

// SequentialIDs returns an ID generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}

// ============================================================================
// Fixture builders
// ============================================================================

// MakeEmployee creates a directory record with a healthy budget and a valid
// passport expiring far in the future.
func MakeEmployee(id string, grade employee.Grade, managerID, approvalLevel string) *employee.Employee {
	return &employee.Employee{
		ID:                    id,
		Name:                  "Employee " + id,
		Department:            "Engineering",
		Grade:                 grade,
		ManagerID:             managerID,
		ApprovalLevel:         approvalLevel,
		TravelBudgetRemaining: 5000,
		Nationality:           "Country Q",
		PassportStatus:        "Valid",
		PassportExpiry:        "2099-12-31",
	}
}

// StandardDirectory returns the directory used across service tests:
//
//	E001 Junior     manager M001, level Manager
//	E002 Senior     manager M001, level Self
//	E003 Executive  manager D001, level Director
//	M001 Mid-level  manager D001
//	D001 Director
//	X001 Executive
func StandardDirectory() *MockDirectory {
	return NewMockDirectory(
		MakeEmployee("E001", employee.GradeJunior, "M001", "Manager"),
		MakeEmployee("E002", employee.GradeSenior, "M001", "Self"),
		MakeEmployee("E003", employee.GradeExecutive, "D001", "Director"),
		MakeEmployee("M001", employee.GradeMidLevel, "D001", "Manager"),
		MakeEmployee("D001", employee.GradeDirector, "", "VP"),
		MakeEmployee("X001", employee.GradeExecutive, "", "VP"),
	)
}

// MakeFlight creates a flight offering.
func MakeFlight(id, class string, price float64) *catalog.Offering {
	return &catalog.Offering{
		ID:            id,
		Kind:          catalog.KindFlight,
		Tier:          class,
		Price:         price,
		Origin:        "City A",
		Destination:   "City B",
		Airline:       "Test Air",
		FlightNumber:  "TA" + id,
		DepartureDate: "2026-06-01",
	}
}

// MakeHotel creates a hotel offering priced per night.
func MakeHotel(id, category string, price float64) *catalog.Offering {
	return &catalog.Offering{
		ID:             id,
		Kind:           catalog.KindHotel,
		Tier:           category,
		Price:          price,
		Name:           "Hotel " + id,
		Location:       "City B",
		RoomsAvailable: 10,
	}
}

// MakePendingRequest creates a Pending request at the given approval level.
func MakePendingRequest(id, empID, managerID string, level request.ApprovalLevel) *request.ApprovalRequest {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &request.ApprovalRequest{
		ID:            id,
		EmployeeID:    empID,
		ManagerID:     managerID,
		RequestType:   "flight",
		Details:       `{"flight_id":"FL001"}`,
		ApprovalLevel: level,
		Status:        request.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ============================================================================
// Assertion helpers
// ============================================================================

// AssertErrorIs fails the test if errors.Is(got, want) is false.
func AssertErrorIs(t *testing.T, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Errorf("error = %v, want %v", got, want)
	}
}

// AssertNoError fails the test immediately if err is non-nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertContains fails the test if got does not contain substr.
func AssertContains(t *testing.T, got, substr string) {
	t.Helper()
	if !strings.Contains(got, substr) {
		t.Errorf("%q does not contain %q", got, substr)
	}
}

// AssertEqual fails the test if got != want.
func AssertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

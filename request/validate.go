package request

import (
	"fmt"
)

// MaxRequestTypeLength bounds the free-form request type.
const MaxRequestTypeLength = 64

// Validate checks if the ApprovalRequest is semantically correct.
// It verifies all required fields are present and valid.
func (r *ApprovalRequest) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("request ID cannot be empty")
	}

	if r.EmployeeID == "" {
		return fmt.Errorf("employee ID cannot be empty")
	}

	if r.ManagerID == "" {
		return fmt.Errorf("manager ID cannot be empty")
	}

	if r.RequestType == "" {
		return fmt.Errorf("request type cannot be empty")
	}
	if len(r.RequestType) > MaxRequestTypeLength {
		return fmt.Errorf("request type too long: maximum %d characters", MaxRequestTypeLength)
	}

	if !r.ApprovalLevel.IsValid() {
		return fmt.Errorf("invalid approval level: %q", r.ApprovalLevel)
	}

	if !r.Status.IsValid() {
		return fmt.Errorf("invalid status: %q", r.Status)
	}

	if r.Status.IsTerminal() && r.ApproverID == "" {
		return fmt.Errorf("%s request must record an approver", r.Status)
	}

	if r.CreatedAt.IsZero() {
		return fmt.Errorf("created_at cannot be zero")
	}
	if r.UpdatedAt.IsZero() {
		return fmt.Errorf("updated_at cannot be zero")
	}
	if r.UpdatedAt.Before(r.CreatedAt) {
		return fmt.Errorf("updated_at cannot precede created_at")
	}

	return nil
}

// CanTransitionTo checks if the request can transition to the given status
// under strict lifecycle rules. Only pending requests can transition, and only
// to a terminal state.
func (r *ApprovalRequest) CanTransitionTo(newStatus RequestStatus) bool {
	if r.Status != StatusPending {
		return false
	}
	return newStatus.IsTerminal()
}

// Package request defines the travel approval request schema.
// Requests represent an employee's travel item (flight, hotel, car, ...) that
// needs sign-off at a given approval level before it can be booked.
//
// # Request State Machine
//
// Valid state transitions:
//   - pending -> approved (by an authorized approver)
//   - pending -> rejected (by an authorized approver)
//
// Approved and rejected are terminal. Whether a terminal request may be
// re-approved is decided by the workflow (see workflow.Config.StrictTransitions).
//
// # Request Key
//
// A request is addressed by the pair (request ID, employee ID). Request IDs
// are random UUIDs, unique under concurrent generation.
package request

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus represents the current state of an approval request.
type RequestStatus string

const (
	// StatusPending indicates the request is awaiting approval.
	StatusPending RequestStatus = "Pending"
	// StatusApproved indicates the request was approved by an approver.
	StatusApproved RequestStatus = "Approved"
	// StatusRejected indicates the request was rejected by an approver.
	StatusRejected RequestStatus = "Rejected"
)

// IsValid returns true if the RequestStatus is a known value.
func (s RequestStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// String returns the string representation of the RequestStatus.
func (s RequestStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the status is a terminal state.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ApprovalLevel is the authority tier required to approve a request.
// Levels are ordered Self < Manager < Director < VP.
type ApprovalLevel string

const (
	LevelSelf     ApprovalLevel = "Self"
	LevelManager  ApprovalLevel = "Manager"
	LevelDirector ApprovalLevel = "Director"
	LevelVP       ApprovalLevel = "VP"
)

// DefaultApprovalLevel is used when the directory stores no approval floor.
const DefaultApprovalLevel = LevelManager

// Rank returns the position of the level in the escalation order.
// Unknown levels rank with Manager.
func (l ApprovalLevel) Rank() int {
	switch l {
	case LevelSelf:
		return 0
	case LevelDirector:
		return 2
	case LevelVP:
		return 3
	}
	return 1
}

// IsValid returns true if the ApprovalLevel is a known value.
func (l ApprovalLevel) IsValid() bool {
	switch l {
	case LevelSelf, LevelManager, LevelDirector, LevelVP:
		return true
	}
	return false
}

// String returns the string representation of the ApprovalLevel.
func (l ApprovalLevel) String() string {
	return string(l)
}

// ParseApprovalLevel converts a stored approval level. Empty or unknown values
// yield DefaultApprovalLevel.
func ParseApprovalLevel(s string) ApprovalLevel {
	if l := ApprovalLevel(s); l.IsValid() {
		return l
	}
	return DefaultApprovalLevel
}

// MaxLevel returns the higher of two levels.
func MaxLevel(a, b ApprovalLevel) ApprovalLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// NoManager is recorded when the requester has no manager in the directory.
const NoManager = "None"

// ApprovalRequest is a travel item awaiting (or past) sign-off.
type ApprovalRequest struct {
	// ID is the request identifier (UUID). Together with EmployeeID it forms the key.
	ID string `json:"request_id"`

	// EmployeeID is the requester.
	EmployeeID string `json:"emp_id"`

	// ManagerID is captured from the directory at creation time.
	ManagerID string `json:"manager_id"`

	// RequestType is a free-form category ("flight", "hotel", "car").
	RequestType string `json:"request_type"`

	// Details is an opaque payload owned by the booking domain.
	Details string `json:"details"`

	// ApprovalLevel is fixed at creation.
	ApprovalLevel ApprovalLevel `json:"approval_level"`

	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// ApproverID is who approved or rejected the request (empty while pending).
	ApproverID string `json:"approver_id,omitempty"`

	// Comment is an optional note from the approver (rejection reason).
	Comment string `json:"comment,omitempty"`
}

// NewRequestID generates a new random request ID.
func NewRequestID() string {
	return uuid.NewString()
}

// ValidateRequestID reports whether id is a well-formed request ID.
func ValidateRequestID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

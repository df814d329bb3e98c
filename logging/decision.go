package logging

import (
	"time"

	"github.com/byteness/travelgate/policy"
)

// Decision effects.
const (
	EffectAllow = "allow"
	EffectDeny  = "deny"
)

// Policy operations recorded in DecisionLogEntry.Operation.
const (
	OperationEligibility   = "evaluate_eligibility"
	OperationTrip          = "validate_travel_request"
	OperationApprovalLevel = "resolve_approval_level"
	OperationBooking       = "book"
)

// DecisionLogEntry captures the outcome of a policy evaluation.
type DecisionLogEntry struct {
	Timestamp     string   `json:"timestamp"` // RFC3339 with nanoseconds, UTC
	Operation     string   `json:"operation"`
	EmployeeID    string   `json:"emp_id"`
	Grade         string   `json:"grade,omitempty"`
	Subject       string   `json:"subject"` // offering ID or destination
	Effect        string   `json:"effect"`  // "allow" or "deny"
	Reason        string   `json:"reason,omitempty"`
	Violations    []string `json:"violations,omitempty"`
	ApprovalLevel string   `json:"approval_level,omitempty"`
	Cost          float64  `json:"cost,omitempty"`
	Days          int      `json:"days,omitempty"`
	PolicyVersion string   `json:"policy_version,omitempty"`
}

func newDecision(operation, empID, subject string) DecisionLogEntry {
	return DecisionLogEntry{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Operation:  operation,
		EmployeeID: empID,
		Subject:    subject,
	}
}

// NewEligibilityDecision records an eligibility evaluation for an offering.
func NewEligibilityDecision(empID, grade, offeringID string, result policy.Eligibility) DecisionLogEntry {
	entry := newDecision(OperationEligibility, empID, offeringID)
	entry.Grade = grade
	entry.Effect = effect(result.Eligible)
	entry.Reason = result.Reason
	entry.Violations = result.Violations
	return entry
}

// NewTripDecision records a trip validation. Cost and days are kept so
// budget disputes can be reconstructed from the log.
func NewTripDecision(empID, destination string, days int, cost float64, result policy.TripValidation) DecisionLogEntry {
	entry := newDecision(OperationTrip, empID, destination)
	entry.Effect = effect(result.Valid)
	entry.Violations = result.Issues
	entry.Days = days
	entry.Cost = cost
	return entry
}

// NewApprovalLevelDecision records a resolved approval level. It is always
// an allow; the escalations explain how the level was reached.
func NewApprovalLevelDecision(empID, destination string, days int, cost float64, result policy.ApprovalRequirement) DecisionLogEntry {
	entry := newDecision(OperationApprovalLevel, empID, destination)
	entry.Effect = EffectAllow
	entry.ApprovalLevel = result.Level.String()
	entry.Violations = result.Escalations
	entry.Days = days
	entry.Cost = cost
	return entry
}

// NewBookingDecision records the eligibility gate in front of a booking.
func NewBookingDecision(empID, grade, offeringID string, nights int, result policy.Eligibility) DecisionLogEntry {
	entry := NewEligibilityDecision(empID, grade, offeringID, result)
	entry.Operation = OperationBooking
	entry.Days = nights
	return entry
}

// WithPolicyVersion returns a copy of the entry tagged with the policy version.
func (e DecisionLogEntry) WithPolicyVersion(p *policy.TravelPolicy) DecisionLogEntry {
	if p != nil {
		e.PolicyVersion = p.Version
	}
	return e
}

func effect(allowed bool) string {
	if allowed {
		return EffectAllow
	}
	return EffectDeny
}

package logging

import (
	"time"

	"github.com/byteness/travelgate/notification"
	"github.com/byteness/travelgate/request"
)

// EventUnauthorizedAttempt is logged when an approver fails the
// authorization check. The request itself is left untouched.
const EventUnauthorizedAttempt = "request.unauthorized_attempt"

// ApprovalLogEntry captures the context of an approval workflow event.
// Events include: request.created, request.approved, request.rejected,
// request.unauthorized_attempt.
type ApprovalLogEntry struct {
	Timestamp     string `json:"timestamp"` // RFC3339 with nanoseconds, UTC
	Event         string `json:"event"`
	RequestID     string `json:"request_id"`
	EmployeeID    string `json:"emp_id"`
	ManagerID     string `json:"manager_id,omitempty"`
	RequestType   string `json:"request_type,omitempty"`
	ApprovalLevel string `json:"approval_level"`
	Status        string `json:"status"` // status after the event
	Actor         string `json:"actor"`  // requester on create, approver otherwise
	Approver      string `json:"approver,omitempty"`
	Comment       string `json:"comment,omitempty"`
	SelfApproved  bool   `json:"self_approved,omitempty"`
}

// NewApprovalLogEntry creates an ApprovalLogEntry for a workflow event.
// Decision events carry the approver and comment; unauthorized attempts
// record the rejected actor only.
func NewApprovalLogEntry(event string, req *request.ApprovalRequest, actor string) ApprovalLogEntry {
	entry := ApprovalLogEntry{
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
		Event:         event,
		RequestID:     req.ID,
		EmployeeID:    req.EmployeeID,
		ManagerID:     req.ManagerID,
		RequestType:   req.RequestType,
		ApprovalLevel: req.ApprovalLevel.String(),
		Status:        req.Status.String(),
		Actor:         actor,
	}

	switch event {
	case string(notification.EventRequestApproved), string(notification.EventRequestRejected):
		entry.Approver = req.ApproverID
		entry.Comment = req.Comment
		entry.SelfApproved = req.ApproverID != "" && req.ApproverID == req.EmployeeID
	}

	return entry
}

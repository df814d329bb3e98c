// Package notification delivers approval request lifecycle events to
// approvers and requesters.
//
// # Event Types
//
// Events are emitted when request state changes:
//   - request.created: a travel approval request was submitted
//   - request.approved: a request was approved by an approver
//   - request.rejected: a request was rejected by an approver
//
// # Notification Delivery
//
// The Notifier interface allows pluggable backends (SNS, webhooks).
// MultiNotifier composes several backends for fanout delivery, and
// NotifyStore fires events from a request.Store after successful writes.
package notification

import (
	"time"

	"github.com/byteness/travelgate/request"
)

// EventType represents the type of notification event.
type EventType string

const (
	// EventRequestCreated is emitted when a new approval request is submitted.
	EventRequestCreated EventType = "request.created"
	// EventRequestApproved is emitted when a request is approved.
	EventRequestApproved EventType = "request.approved"
	// EventRequestRejected is emitted when a request is rejected.
	EventRequestRejected EventType = "request.rejected"
)

// IsValid returns true if the EventType is a known value.
func (t EventType) IsValid() bool {
	switch t {
	case EventRequestCreated, EventRequestApproved, EventRequestRejected:
		return true
	}
	return false
}

// String returns the string representation of the EventType.
func (t EventType) String() string {
	return string(t)
}

// EventForStatus maps a decided status onto its event type.
// It returns "" for statuses that emit no event.
func EventForStatus(status request.RequestStatus) EventType {
	switch status {
	case request.StatusApproved:
		return EventRequestApproved
	case request.StatusRejected:
		return EventRequestRejected
	}
	return ""
}

// Event represents a notification event triggered by a request state change.
type Event struct {
	Type      EventType                `json:"type"`
	Request   *request.ApprovalRequest `json:"request"`
	Timestamp time.Time                `json:"timestamp"`

	// Actor is who triggered the event: the requester for created,
	// the approver for approved/rejected.
	Actor string `json:"actor"`
}

// NewEvent creates a new notification event stamped with the current time.
func NewEvent(eventType EventType, req *request.ApprovalRequest, actor string) *Event {
	return &Event{
		Type:      eventType,
		Request:   req,
		Timestamp: time.Now(),
		Actor:     actor,
	}
}

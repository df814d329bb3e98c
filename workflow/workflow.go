// Package workflow implements the travel approval request lifecycle:
// creation, status lookup, authorized approval or rejection, and the
// per-approver pending queue.
//
// The workflow holds no process-wide state. Every collaborator is passed in
// through Config, so tests and the Lambda handler build independent
// instances.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	travelerrors "github.com/byteness/travelgate/errors"
	"github.com/byteness/travelgate/employee"
	"github.com/byteness/travelgate/logging"
	"github.com/byteness/travelgate/notification"
	"github.com/byteness/travelgate/request"
)

var (
	// ErrUnauthorized is the cause of every UNAUTHORIZED error returned by
	// Approve and Reject.
	ErrUnauthorized = errors.New("unauthorized approval attempt")

	// ErrInvalidTransition is the cause of INVALID_TRANSITION errors in
	// strict mode.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Config holds the collaborators of a Workflow.
type Config struct {
	Store     request.Store
	Directory employee.Directory

	// Logger receives approval audit events. Defaults to a NopLogger.
	Logger logging.Logger

	// Now and NewID default to time.Now and request.NewRequestID.
	Now   func() time.Time
	NewID func() string

	// StrictTransitions rejects approving or rejecting a request that is no
	// longer Pending, and makes the write conditional on the stored status
	// still being Pending. When false, a decision overwrites any previous
	// one (last writer wins).
	StrictTransitions bool
}

// Workflow manages approval requests.
type Workflow struct {
	store     request.Store
	directory employee.Directory
	logger    logging.Logger
	now       func() time.Time
	newID     func() string
	strict    bool
}

// Outcome is a request together with the human-readable message describing
// what just happened to it.
type Outcome struct {
	Request *request.ApprovalRequest
	Message string
}

// New creates a Workflow. Store and Directory are required.
func New(cfg Config) (*Workflow, error) {
	if cfg.Store == nil {
		return nil, errors.New("workflow: store is required")
	}
	if cfg.Directory == nil {
		return nil, errors.New("workflow: directory is required")
	}

	w := &Workflow{
		store:     cfg.Store,
		directory: cfg.Directory,
		logger:    cfg.Logger,
		now:       cfg.Now,
		newID:     cfg.NewID,
		strict:    cfg.StrictTransitions,
	}
	if w.logger == nil {
		w.logger = logging.NewNopLogger()
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.newID == nil {
		w.newID = request.NewRequestID
	}
	return w, nil
}

// Create opens a Pending approval request for empID.
//
// Manager and approval level are captured from the employee's directory
// record at this moment; later directory changes do not affect the request.
// An employee missing from the directory gets manager "None" and level
// Manager.
func (w *Workflow) Create(ctx context.Context, empID, requestType, details string) (*Outcome, error) {
	if empID == "" {
		return nil, travelerrors.MissingParameter("emp_id")
	}
	if requestType == "" {
		return nil, travelerrors.MissingParameter("request_type")
	}
	if len(requestType) > request.MaxRequestTypeLength {
		return nil, travelerrors.InvalidParameter("request_type", requestType,
			fmt.Errorf("longer than %d characters", request.MaxRequestTypeLength))
	}

	managerID := request.NoManager
	level := request.DefaultApprovalLevel

	emp, err := w.directory.Get(ctx, empID)
	switch {
	case err == nil:
		if emp.ManagerID != "" {
			managerID = emp.ManagerID
		}
		level = request.ParseApprovalLevel(emp.ApprovalLevel)
	case errors.Is(err, employee.ErrEmployeeNotFound):
		// Defaults above.
	default:
		return nil, err
	}

	now := w.now()
	req := &request.ApprovalRequest{
		ID:            w.newID(),
		EmployeeID:    empID,
		ManagerID:     managerID,
		RequestType:   requestType,
		Details:       details,
		ApprovalLevel: level,
		Status:        request.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := req.Validate(); err != nil {
		return nil, travelerrors.New(travelerrors.ErrCodeInternal, "invalid approval request: "+err.Error(),
			travelerrors.Suggestions[travelerrors.ErrCodeInternal], err)
	}

	if err := w.store.Create(ctx, req); err != nil {
		if errors.Is(err, request.ErrRequestExists) {
			return nil, travelerrors.New(travelerrors.ErrCodeInternal, "request ID collision: "+req.ID,
				travelerrors.Suggestions[travelerrors.ErrCodeInternal], err)
		}
		return nil, err
	}

	w.logger.LogApproval(logging.NewApprovalLogEntry(string(notification.EventRequestCreated), req, empID))

	return &Outcome{
		Request: req,
		Message: fmt.Sprintf("Approval request created and pending %s approval", level),
	}, nil
}

// GetStatus returns the request stored under (requestID, empID).
func (w *Workflow) GetStatus(ctx context.Context, requestID, empID string) (*request.ApprovalRequest, error) {
	if requestID == "" {
		return nil, travelerrors.MissingParameter("request_id")
	}
	if empID == "" {
		return nil, travelerrors.MissingParameter("emp_id")
	}
	return w.get(ctx, requestID, empID)
}

// Approve records approverID's approval of the request.
func (w *Workflow) Approve(ctx context.Context, requestID, empID, approverID string) (*Outcome, error) {
	req, err := w.decide(ctx, requestID, empID, approverID, request.StatusApproved, "")
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Request: req,
		Message: fmt.Sprintf("Request %s has been approved by %s", req.ID, approverID),
	}, nil
}

// Reject records approverID's rejection of the request with an optional reason.
// Authorization rules are the same as for Approve.
func (w *Workflow) Reject(ctx context.Context, requestID, empID, approverID, reason string) (*Outcome, error) {
	req, err := w.decide(ctx, requestID, empID, approverID, request.StatusRejected, reason)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Request: req,
		Message: fmt.Sprintf("Request %s has been rejected by %s", req.ID, approverID),
	}, nil
}

// ListPending returns the Pending requests whose recorded manager is approverID,
// oldest first.
func (w *Workflow) ListPending(ctx context.Context, approverID string) ([]*request.ApprovalRequest, error) {
	if approverID == "" {
		return nil, travelerrors.MissingParameter("approver_id")
	}
	requests, err := w.store.ListPending(ctx, approverID)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []*request.ApprovalRequest{}
	}
	return requests, nil
}

func (w *Workflow) get(ctx context.Context, requestID, empID string) (*request.ApprovalRequest, error) {
	req, err := w.store.Get(ctx, requestID, empID)
	if err != nil {
		if errors.Is(err, request.ErrRequestNotFound) {
			return nil, travelerrors.NotFound("Approval request", requestID, err)
		}
		return nil, err
	}
	return req, nil
}

// decide runs the shared approve/reject path: lookup, authorization,
// transition check and write. Unauthorized attempts never reach the store.
func (w *Workflow) decide(ctx context.Context, requestID, empID, approverID string, status request.RequestStatus, comment string) (*request.ApprovalRequest, error) {
	if requestID == "" {
		return nil, travelerrors.MissingParameter("request_id")
	}
	if empID == "" {
		return nil, travelerrors.MissingParameter("emp_id")
	}
	if approverID == "" {
		return nil, travelerrors.MissingParameter("approver_id")
	}

	req, err := w.get(ctx, requestID, empID)
	if err != nil {
		return nil, err
	}

	ok, err := w.authorize(ctx, req, approverID)
	if err != nil {
		return nil, err
	}
	if !ok {
		w.logger.LogApproval(logging.NewApprovalLogEntry(logging.EventUnauthorizedAttempt, req, approverID))
		return nil, unauthorized(req, approverID)
	}

	var expected request.RequestStatus
	if w.strict {
		if !req.CanTransitionTo(status) {
			return nil, invalidTransition(req, ErrInvalidTransition)
		}
		expected = request.StatusPending
	}

	updated := *req
	updated.Status = status
	updated.ApproverID = approverID
	updated.Comment = comment
	updated.UpdatedAt = w.now()
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		updated.UpdatedAt = updated.CreatedAt
	}

	if err := w.store.Update(ctx, &updated, expected); err != nil {
		switch {
		case errors.Is(err, request.ErrConcurrentModification):
			return nil, invalidTransition(req, fmt.Errorf("%w: %w", ErrInvalidTransition, err))
		case errors.Is(err, request.ErrRequestNotFound):
			return nil, travelerrors.NotFound("Approval request", requestID, err)
		}
		return nil, err
	}

	w.logger.LogApproval(logging.NewApprovalLogEntry(string(notification.EventForStatus(status)), &updated, approverID))
	return &updated, nil
}

func unauthorized(req *request.ApprovalRequest, approverID string) error {
	te := travelerrors.New(travelerrors.ErrCodeUnauthorized, "Unauthorized approval attempt",
		travelerrors.Suggestions[travelerrors.ErrCodeUnauthorized], ErrUnauthorized)
	te = travelerrors.WithContext(te, "request_id", req.ID)
	return travelerrors.WithContext(te, "approver_id", approverID)
}

func invalidTransition(req *request.ApprovalRequest, cause error) error {
	te := travelerrors.New(travelerrors.ErrCodeInvalidTransition,
		fmt.Sprintf("Request %s is %s; only Pending requests can be approved or rejected", req.ID, req.Status),
		travelerrors.Suggestions[travelerrors.ErrCodeInvalidTransition], cause)
	return travelerrors.WithContext(te, "request_id", req.ID)
}

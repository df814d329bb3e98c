package travel

import (
	"context"

	"github.com/byteness/travelgate/request"
)

// RequestCreated is the Data of CreateApprovalRequest.
type RequestCreated struct {
	RequestID     string                `json:"request_id"`
	Status        request.RequestStatus `json:"status"`
	ApprovalLevel request.ApprovalLevel `json:"approval_level"`
	ManagerID     string                `json:"manager_id"`
}

// PendingApprovals is the Data of ListPendingApprovals.
type PendingApprovals struct {
	ApproverID string                     `json:"approver_id"`
	Count      int                        `json:"count"`
	Requests   []*request.ApprovalRequest `json:"requests"`
}

// CreateApprovalRequest opens a Pending approval request for empID.
func (s *Service) CreateApprovalRequest(ctx context.Context, empID, requestType, details string) Result {
	out, err := s.workflow.Create(ctx, empID, requestType, details)
	if err != nil {
		return s.errorResult("create_approval_request", err)
	}
	return success(out.Message, RequestCreated{
		RequestID:     out.Request.ID,
		Status:        out.Request.Status,
		ApprovalLevel: out.Request.ApprovalLevel,
		ManagerID:     out.Request.ManagerID,
	})
}

// GetApprovalStatus returns the approval request keyed by (requestID, empID).
func (s *Service) GetApprovalStatus(ctx context.Context, requestID, empID string) Result {
	req, err := s.workflow.GetStatus(ctx, requestID, empID)
	if err != nil {
		return s.errorResult("check_approval_status", err)
	}
	return success("Request is "+string(req.Status), req)
}

// ApproveRequest records approverID's approval.
func (s *Service) ApproveRequest(ctx context.Context, requestID, empID, approverID string) Result {
	out, err := s.workflow.Approve(ctx, requestID, empID, approverID)
	if err != nil {
		return s.errorResult("approve_request", err)
	}
	return success(out.Message, out.Request)
}

// RejectRequest records approverID's rejection with an optional reason.
func (s *Service) RejectRequest(ctx context.Context, requestID, empID, approverID, reason string) Result {
	out, err := s.workflow.Reject(ctx, requestID, empID, approverID, reason)
	if err != nil {
		return s.errorResult("reject_request", err)
	}
	return success(out.Message, out.Request)
}

// ListPendingApprovals returns the Pending requests awaiting approverID.
func (s *Service) ListPendingApprovals(ctx context.Context, approverID string) Result {
	reqs, err := s.workflow.ListPending(ctx, approverID)
	if err != nil {
		return s.errorResult("list_pending_approvals", err)
	}
	return success("", PendingApprovals{ApproverID: approverID, Count: len(reqs), Requests: reqs})
}

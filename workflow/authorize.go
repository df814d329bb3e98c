package workflow

import (
	"context"
	"errors"

	"github.com/byteness/travelgate/employee"
	"github.com/byteness/travelgate/request"
)

// authorize reports whether approverID may decide req.
//
// Self-level requests may only be decided by the requester. Any other level
// accepts the manager recorded at creation, or any approver whose own
// directory grade is Director or Executive. An approver missing from the
// directory is not authorized.
func (w *Workflow) authorize(ctx context.Context, req *request.ApprovalRequest, approverID string) (bool, error) {
	if req.ApprovalLevel == request.LevelSelf {
		return approverID == req.EmployeeID, nil
	}

	// "None" is a placeholder, never a real approver.
	if req.ManagerID != request.NoManager && approverID == req.ManagerID {
		return true, nil
	}

	approver, err := w.directory.Get(ctx, approverID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return false, nil
		}
		return false, err
	}
	return hasApprovalAuthority(approver.Grade), nil
}

func hasApprovalAuthority(g employee.Grade) bool {
	return g == employee.GradeDirector || g == employee.GradeExecutive
}

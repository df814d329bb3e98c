package policy

import (
	"fmt"

	"github.com/byteness/travelgate/employee"
	"github.com/byteness/travelgate/request"
)

// Display hints for how long an approval usually takes.
const (
	TurnaroundManager = "24-48 hours"
	TurnaroundOther   = "3-5 business days"
)

// UnknownManager is reported when the directory has no manager for the employee.
const UnknownManager = "Unknown"

// ApprovalRequirement is the approval tier a trip needs.
type ApprovalRequirement struct {
	Level               request.ApprovalLevel `json:"approval_required"`
	ManagerID           string                `json:"manager_id"`
	EstimatedTurnaround string                `json:"estimated_approval_time"`
	// Escalations explains each rule that raised the level above the employee's floor.
	Escalations []string `json:"escalations,omitempty"`
}

// ResolveApprovalLevel computes the minimum approval tier for a trip.
//
// It starts from the employee's stored approval floor (Manager when unset) and
// escalates, never lowering the level:
//   - duration above DirectorDurationDays: at least Director
//   - cost above the grade's approval threshold: at least Director
//   - cost above VPCostThreshold: VP
//   - international destination while at Manager: Director
func (p *TravelPolicy) ResolveApprovalLevel(emp *employee.Employee, destination string, days int, cost float64) ApprovalRequirement {
	level := request.ParseApprovalLevel(emp.ApprovalLevel)
	var escalations []string

	raise := func(to request.ApprovalLevel, why string) {
		if to.Rank() > level.Rank() {
			level = to
			escalations = append(escalations, why)
		}
	}

	if days > p.DirectorDurationDays {
		raise(request.LevelDirector, fmt.Sprintf("duration %d days exceeds %d", days, p.DirectorDurationDays))
	}
	if threshold := lookup(p, p.ApprovalCostThresholds, emp.Grade); cost > threshold {
		raise(request.LevelDirector, fmt.Sprintf("cost %s exceeds %s threshold %s", formatAmount(cost), emp.Grade, formatAmount(threshold)))
	}
	if cost > p.VPCostThreshold {
		raise(request.LevelVP, fmt.Sprintf("cost %s exceeds %s", formatAmount(cost), formatAmount(p.VPCostThreshold)))
	}
	if level == request.LevelManager && containsString(p.InternationalDestinations, destination) {
		raise(request.LevelDirector, fmt.Sprintf("international destination %s", destination))
	}

	managerID := emp.ManagerID
	if managerID == "" {
		managerID = UnknownManager
	}

	return ApprovalRequirement{
		Level:               level,
		ManagerID:           managerID,
		EstimatedTurnaround: Turnaround(level),
		Escalations:         escalations,
	}
}

// Turnaround returns the display hint for an approval level.
func Turnaround(level request.ApprovalLevel) string {
	if level == request.LevelManager {
		return TurnaroundManager
	}
	return TurnaroundOther
}

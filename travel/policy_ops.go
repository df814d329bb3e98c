package travel

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/byteness/travelgate/catalog"
	"github.com/byteness/travelgate/employee"
	travelerrors "github.com/byteness/travelgate/errors"
	"github.com/byteness/travelgate/logging"
	"github.com/byteness/travelgate/policy"
)

// EligibilityResult is the Data of EvaluateEligibility.
type EligibilityResult struct {
	policy.Eligibility
	EmployeeID string            `json:"emp_id"`
	Grade      employee.Grade    `json:"grade"`
	Offering   *catalog.Offering `json:"offering"`
}

// EvaluateEligibility decides whether empID may book the flight or hotel
// offeringID. An ineligible offering is a successful evaluation with
// eligible=false.
func (s *Service) EvaluateEligibility(ctx context.Context, empID string, kind catalog.Kind, offeringID string) Result {
	const op = logging.OperationEligibility
	res, p, err := s.eligibility(ctx, empID, kind, offeringID)
	if err != nil {
		return s.errorResult(op, err)
	}
	s.audit.LogDecision(logging.NewEligibilityDecision(empID, string(res.Grade), offeringID, res.Eligibility).WithPolicyVersion(p))
	return success(res.Reason, res)
}

func (s *Service) eligibility(ctx context.Context, empID string, kind catalog.Kind, offeringID string) (*EligibilityResult, *policy.TravelPolicy, error) {
	if err := requireParams("emp_id", empID, "offering_id", offeringID); err != nil {
		return nil, nil, err
	}
	if !kind.IsValid() {
		return nil, nil, travelerrors.InvalidParameter("kind", string(kind), fmt.Errorf("want %s or %s", catalog.KindFlight, catalog.KindHotel))
	}
	if s.catalog == nil {
		return nil, nil, travelerrors.New(travelerrors.ErrCodeInternal, "offering catalog is not configured",
			travelerrors.Suggestions[travelerrors.ErrCodeInternal], nil)
	}

	offering, err := s.catalog.Get(ctx, kind, offeringID)
	if err != nil {
		if errors.Is(err, catalog.ErrOfferingNotFound) {
			return nil, nil, travelerrors.NotFound(titleKind(kind), offeringID, err)
		}
		return nil, nil, err
	}
	grade, err := s.gradeOf(ctx, empID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.loadPolicy(ctx)
	if err != nil {
		return nil, nil, err
	}

	return &EligibilityResult{
		Eligibility: p.EvaluateEligibility(grade, offering.Kind, offering.Tier, offering.Price),
		EmployeeID:  empID,
		Grade:       grade,
		Offering:    offering,
	}, p, nil
}

// ValidateTravelRequest checks a proposed trip against budget, duration and
// destination rules. Policy issues are a successful result with valid=false.
func (s *Service) ValidateTravelRequest(ctx context.Context, empID, destination string, days int, cost float64) Result {
	const op = logging.OperationTrip
	if err := s.checkTripParams(empID, destination, days, cost); err != nil {
		return s.errorResult(op, err)
	}
	emp, err := s.employee(ctx, empID)
	if err != nil {
		return s.errorResult(op, err)
	}
	p, err := s.loadPolicy(ctx)
	if err != nil {
		return s.errorResult(op, err)
	}

	v := p.ValidateTrip(emp, destination, days, cost)
	s.audit.LogDecision(logging.NewTripDecision(empID, destination, days, cost, v).WithPolicyVersion(p))

	msg := "Travel request complies with policy"
	if !v.Valid {
		msg = fmt.Sprintf("Travel request has %d policy issue(s)", len(v.Issues))
	}
	return success(msg, v)
}

// ResolveApprovalLevel computes the approval tier a trip needs.
func (s *Service) ResolveApprovalLevel(ctx context.Context, empID, destination string, days int, cost float64) Result {
	const op = logging.OperationApprovalLevel
	if err := s.checkTripParams(empID, destination, days, cost); err != nil {
		return s.errorResult(op, err)
	}
	emp, err := s.employee(ctx, empID)
	if err != nil {
		return s.errorResult(op, err)
	}
	p, err := s.loadPolicy(ctx)
	if err != nil {
		return s.errorResult(op, err)
	}

	req := p.ResolveApprovalLevel(emp, destination, days, cost)
	s.audit.LogDecision(logging.NewApprovalLevelDecision(empID, destination, days, cost, req).WithPolicyVersion(p))
	return success(fmt.Sprintf("%s approval required", req.Level), req)
}

// CheckPassportStatus reports whether the employee's passport is valid for
// international travel.
func (s *Service) CheckPassportStatus(ctx context.Context, empID string) Result {
	const op = "check_passport_status"
	if err := requireParams("emp_id", empID); err != nil {
		return s.errorResult(op, err)
	}
	emp, err := s.employee(ctx, empID)
	if err != nil {
		return s.errorResult(op, err)
	}
	p, err := s.loadPolicy(ctx)
	if err != nil {
		return s.errorResult(op, err)
	}

	check := p.CheckPassport(emp, s.now())
	return success("Passport "+check.Status, check)
}

func (s *Service) checkTripParams(empID, destination string, days int, cost float64) error {
	if err := requireParams("emp_id", empID, "destination", destination); err != nil {
		return err
	}
	if days < 0 {
		return travelerrors.InvalidParameter("duration", strconv.Itoa(days), fmt.Errorf("must not be negative"))
	}
	if cost < 0 {
		return travelerrors.InvalidParameter("cost", strconv.FormatFloat(cost, 'f', -1, 64), fmt.Errorf("must not be negative"))
	}
	return nil
}

func titleKind(kind catalog.Kind) string {
	if kind == catalog.KindHotel {
		return "Hotel"
	}
	return "Flight"
}

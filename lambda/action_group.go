package lambda

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/byteness/travelgate/catalog"
	travelerrors "github.com/byteness/travelgate/errors"
	"github.com/byteness/travelgate/ratelimit"
	"github.com/byteness/travelgate/travel"
)

// Function names accepted by HandleActionGroup.
const (
	FnGetEmployeeInfo         = "get_employee_info"
	FnGetTravelPreferences    = "get_travel_preferences"
	FnValidateTravelRequest   = "validate_travel_request"
	FnGetApprovalRequirements = "get_approval_requirements"
	FnCheckPassportStatus     = "check_passport_status"
	FnCreateApprovalRequest   = "create_approval_request"
	FnCheckApprovalStatus     = "check_approval_status"
	FnApproveRequest          = "approve_request"
	FnRejectRequest           = "reject_request"
	FnListPendingApprovals    = "list_pending_approvals"
	FnCheckEligibility        = "check_eligibility"
	FnBookFlight              = "book_flight"
	FnBookHotel               = "book_hotel"
)

// ActionGroupParameter is one named parameter of an agent invocation.
type ActionGroupParameter struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ActionGroupEvent is the function-details event an agent sends to an
// action group Lambda.
type ActionGroupEvent struct {
	MessageVersion    string                 `json:"messageVersion"`
	ActionGroup       string                 `json:"actionGroup"`
	Function          string                 `json:"function"`
	Parameters        []ActionGroupParameter `json:"parameters"`
	SessionID         string                 `json:"sessionId,omitempty"`
	InputText         string                 `json:"inputText,omitempty"`
	SessionAttributes map[string]string      `json:"sessionAttributes,omitempty"`
}

// Params flattens the event parameters. Later duplicates win.
func (e ActionGroupEvent) Params() Params {
	p := make(Params, len(e.Parameters))
	for _, param := range e.Parameters {
		p[param.Name] = param.Value
	}
	return p
}

// ActionGroupResponse wraps a result body in the shape agents expect.
type ActionGroupResponse struct {
	MessageVersion    string                `json:"messageVersion"`
	Response          ActionGroupResponseV1 `json:"response"`
	SessionAttributes map[string]string     `json:"sessionAttributes,omitempty"`
}

// ActionGroupResponseV1 is the response element of ActionGroupResponse.
type ActionGroupResponseV1 struct {
	ActionGroup      string           `json:"actionGroup"`
	Function         string           `json:"function"`
	FunctionResponse FunctionResponse `json:"functionResponse"`
}

// FunctionResponse carries the JSON-encoded Result as TEXT.
type FunctionResponse struct {
	ResponseBody map[string]TextBody `json:"responseBody"`
}

// TextBody is the content of one response body type.
type TextBody struct {
	Body string `json:"body"`
}

// HandleActionGroup runs the function named by the event and wraps the
// Result. Operation failures are reported inside the body; the returned error
// is always nil so the agent sees every outcome.
func (h *Handler) HandleActionGroup(ctx context.Context, event ActionGroupEvent) (ActionGroupResponse, error) {
	result := h.Invoke(ctx, event.Function, event.Params())

	body, err := json.Marshal(result)
	if err != nil {
		h.log().Error("encode result", zap.String("function", event.Function), zap.Error(err))
		body = []byte(`{"status":"Error","code":"INTERNAL_ERROR","message":"failed to encode result"}`)
	}

	version := event.MessageVersion
	if version == "" {
		version = "1.0"
	}
	return ActionGroupResponse{
		MessageVersion: version,
		Response: ActionGroupResponseV1{
			ActionGroup: event.ActionGroup,
			Function:    event.Function,
			FunctionResponse: FunctionResponse{
				ResponseBody: map[string]TextBody{"TEXT": {Body: string(body)}},
			},
		},
		SessionAttributes: event.SessionAttributes,
	}, nil
}

// Invoke runs one named operation with string parameters. It waits for
// pending notifications before returning.
func (h *Handler) Invoke(ctx context.Context, function string, p Params) travel.Result {
	svc, err := h.service(ctx)
	if err != nil {
		return errorResult(travelerrors.New(travelerrors.ErrCodeInternal,
			"Failed to load configuration: "+err.Error(), travelerrors.Suggestions[travelerrors.ErrCodeInternal], err))
	}
	defer h.flush()

	h.log().Debug("invoke", zap.String("function", function))

	switch function {
	case FnGetEmployeeInfo, FnGetTravelPreferences, FnCheckPassportStatus:
		var in employeeParams
		if err := bind(h.validate, p, &in); err != nil {
			return errorResult(err)
		}
		switch function {
		case FnGetEmployeeInfo:
			return svc.GetEmployeeInfo(ctx, in.EmpID)
		case FnGetTravelPreferences:
			return svc.GetTravelPreferences(ctx, in.EmpID)
		}
		return svc.CheckPassportStatus(ctx, in.EmpID)

	case FnValidateTravelRequest, FnGetApprovalRequirements:
		var in tripParams
		if err := bind(h.validate, p, &in); err != nil {
			return errorResult(err)
		}
		days, err := p.Int("duration")
		if err != nil {
			return errorResult(err)
		}
		cost, err := p.Float("cost")
		if err != nil {
			return errorResult(err)
		}
		if function == FnValidateTravelRequest {
			return svc.ValidateTravelRequest(ctx, in.EmpID, in.Destination, days, cost)
		}
		return svc.ResolveApprovalLevel(ctx, in.EmpID, in.Destination, days, cost)

	case FnCreateApprovalRequest:
		var in createRequestParams
		if err := bind(h.validate, p, &in); err != nil {
			return errorResult(err)
		}
		if err := h.throttle(ctx, in.EmpID); err != nil {
			return errorResult(err)
		}
		return svc.CreateApprovalRequest(ctx, in.EmpID, in.RequestType, in.Details)

	case FnCheckApprovalStatus:
		var in requestParams
		if err := bind(h.validate, p, &in); err != nil {
			return errorResult(err)
		}
		return svc.GetApprovalStatus(ctx, in.RequestID, in.EmpID)

	case FnApproveRequest, FnRejectRequest:
		var in decisionParams
		if err := bind(h.validate, p, &in); err != nil {
			return errorResult(err)
		}
		if function == FnApproveRequest {
			return svc.ApproveRequest(ctx, in.RequestID, in.EmpID, in.ApproverID)
		}
		return svc.RejectRequest(ctx, in.RequestID, in.EmpID, in.ApproverID, in.Reason)

	case FnListPendingApprovals:
		var in approverParams
		if err := bind(h.validate, p, &in); err != nil {
			return errorResult(err)
		}
		return svc.ListPendingApprovals(ctx, in.ApproverID)

	case FnCheckEligibility, FnBookFlight, FnBookHotel:
		in, err := h.offering(function, p)
		if err != nil {
			return errorResult(err)
		}
		kind := catalog.Kind(in.Kind)
		switch {
		case function == FnCheckEligibility:
			return svc.EvaluateEligibility(ctx, in.EmpID, kind, in.OfferingID)
		case kind == catalog.KindFlight:
			return svc.Book(ctx, in.EmpID, kind, in.OfferingID, 0)
		}
		nights, err := h.nights(p)
		if err != nil {
			return errorResult(err)
		}
		return svc.Book(ctx, in.EmpID, kind, in.OfferingID, nights)
	}

	return errorResult(travelerrors.InvalidParameter("function", function, errUnknownFunction))
}

// throttle counts one approval request against empID. Limiter failures are
// logged and the request proceeds.
func (h *Handler) throttle(ctx context.Context, empID string) error {
	if h.Config == nil || h.Config.Limiter == nil {
		return nil
	}
	d, err := h.Config.Limiter.Allow(ctx, ratelimit.CreateRequestKey(empID))
	if err != nil {
		h.log().Warn("rate limiter unavailable, allowing request", zap.String("emp_id", empID), zap.Error(err))
		return nil
	}
	if !d.Allowed {
		h.log().Info("approval request throttled", zap.String("emp_id", empID), zap.Duration("retry_after", d.RetryAfter))
		return travelerrors.RateLimited(empID, d.RetryAfter)
	}
	return nil
}

// offering resolves the offering kind and ID. Agents name the ID flight_id
// or hotel_id; generic callers pass kind and offering_id.
func (h *Handler) offering(function string, p Params) (offeringParams, error) {
	q := Params{"emp_id": p.Str("emp_id"), "kind": p.Str("kind"), "offering_id": p.Str("offering_id")}
	switch {
	case function == FnBookFlight:
		q["kind"] = string(catalog.KindFlight)
		q["offering_id"] = firstNonEmpty(p.Str("flight_id"), q["offering_id"])
	case function == FnBookHotel:
		q["kind"] = string(catalog.KindHotel)
		q["offering_id"] = firstNonEmpty(p.Str("hotel_id"), q["offering_id"])
	case p.Str("flight_id") != "":
		q["kind"] = string(catalog.KindFlight)
		q["offering_id"] = p.Str("flight_id")
	case p.Str("hotel_id") != "":
		q["kind"] = string(catalog.KindHotel)
		q["offering_id"] = p.Str("hotel_id")
	}

	var in offeringParams
	if err := bind(h.validate, q, &in); err != nil {
		// Report the name the caller should have sent.
		if travelerrors.GetCode(err) == travelerrors.ErrCodeMissingParameter && q["offering_id"] == "" && in.EmpID != "" {
			switch in.Kind {
			case string(catalog.KindFlight):
				return in, travelerrors.MissingParameter("flight_id")
			case string(catalog.KindHotel):
				return in, travelerrors.MissingParameter("hotel_id")
			}
		}
		return in, err
	}
	return in, nil
}

// nights takes an explicit nights parameter, or counts the nights between
// check_in_date and check_out_date.
func (h *Handler) nights(p Params) (int, error) {
	if p.Str("nights") != "" {
		return p.Int("nights")
	}
	var stay hotelStayParams
	if err := bind(h.validate, p, &stay); err != nil {
		return 0, err
	}
	return stay.nights()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func errorResult(err error) travel.Result {
	te, ok := travelerrors.AsTravelError(err)
	if !ok {
		te = travelerrors.New(travelerrors.ErrCodeInternal, err.Error(), travelerrors.Suggestions[travelerrors.ErrCodeInternal], err)
	}
	r := travel.Result{
		Status:     travel.StatusError,
		Message:    te.Error(),
		Code:       te.Code(),
		Suggestion: te.Suggestion(),
	}
	if ctx := te.Context(); len(ctx) > 0 {
		r.Context = ctx
	}
	return r
}

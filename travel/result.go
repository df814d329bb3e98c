package travel

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/byteness/travelgate/catalog"
	"github.com/byteness/travelgate/employee"
	travelerrors "github.com/byteness/travelgate/errors"
	"github.com/byteness/travelgate/request"
)

// Result statuses.
const (
	StatusSuccess = "Success"
	StatusError   = "Error"
)

// Result is the outcome of every Service operation. Failures are reported
// through Status "Error" with a Code, never as Go errors.
type Result struct {
	Status     string            `json:"status"`
	Message    string            `json:"message,omitempty"`
	Code       string            `json:"code,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    map[string]string `json:"context,omitempty"`
	Data       any               `json:"data,omitempty"`
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

func success(message string, data any) Result {
	return Result{Status: StatusSuccess, Message: message, Data: data}
}

// errorResult converts err into an Error result. Errors that carry no
// TravelError are classified by sentinel; anything else is INTERNAL_ERROR.
func (s *Service) errorResult(op string, err error) Result {
	te, ok := travelerrors.AsTravelError(err)
	if !ok {
		te = classify(err)
	}

	if isInfraCode(te.Code()) {
		s.log.Error("operation failed", zap.String("operation", op), zap.Error(err))
	} else {
		s.log.Debug("operation rejected", zap.String("operation", op),
			zap.String("code", te.Code()), zap.Error(err))
	}

	r := Result{
		Status:     StatusError,
		Message:    te.Error(),
		Code:       te.Code(),
		Suggestion: te.Suggestion(),
	}
	if ctx := te.Context(); len(ctx) > 0 {
		r.Context = ctx
	}
	return r
}

func classify(err error) travelerrors.TravelError {
	switch {
	case errors.Is(err, employee.ErrEmployeeNotFound):
		return travelerrors.New(travelerrors.ErrCodeNotFound, "Employee not found",
			travelerrors.Suggestions[travelerrors.ErrCodeNotFound], err)
	case errors.Is(err, catalog.ErrOfferingNotFound):
		return travelerrors.New(travelerrors.ErrCodeNotFound, "Offering not found",
			travelerrors.Suggestions[travelerrors.ErrCodeNotFound], err)
	case errors.Is(err, request.ErrRequestNotFound):
		return travelerrors.New(travelerrors.ErrCodeNotFound, "Approval request not found",
			travelerrors.Suggestions[travelerrors.ErrCodeNotFound], err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return travelerrors.New(travelerrors.ErrCodeInternal, "Operation cancelled: "+err.Error(),
			travelerrors.Suggestions[travelerrors.ErrCodeInternal], err)
	}
	return travelerrors.New(travelerrors.ErrCodeInternal, err.Error(),
		travelerrors.Suggestions[travelerrors.ErrCodeInternal], err)
}

// isInfraCode reports whether code names an internal or AWS collaborator failure.
func isInfraCode(code string) bool {
	switch code {
	case travelerrors.ErrCodeNotFound, travelerrors.ErrCodeUnauthorized, travelerrors.ErrCodePolicyViolation,
		travelerrors.ErrCodeMissingParameter, travelerrors.ErrCodeInvalidParameter, travelerrors.ErrCodeInvalidTransition:
		return false
	}
	return true
}

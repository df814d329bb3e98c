package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestTravelErrorInterface(t *testing.T) {
	var _ TravelError = &travelError{}
}

func TestTravelError_Accessors(t *testing.T) {
	cause := errors.New("underlying error")
	err := New(ErrCodeNotFound, "employee not found: E999", "check the id", cause)

	if got := err.Error(); got != "employee not found: E999" {
		t.Errorf("Error() = %q, want %q", got, "employee not found: E999")
	}
	if got := err.Code(); got != ErrCodeNotFound {
		t.Errorf("Code() = %q, want %q", got, ErrCodeNotFound)
	}
	if got := err.Suggestion(); got != "check the id" {
		t.Errorf("Suggestion() = %q, want %q", got, "check the id")
	}
	if got := err.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}
	if len(err.Context()) != 0 {
		t.Errorf("Context() = %v, want empty", err.Context())
	}
}

func TestWithContext_DoesNotMutateOriginal(t *testing.T) {
	base := New(ErrCodeUnauthorized, "nope", "", nil)
	withCtx := WithContext(base, "approver", "E002")

	if _, ok := base.Context()["approver"]; ok {
		t.Error("WithContext() modified the original error context")
	}
	if got := withCtx.Context()["approver"]; got != "E002" {
		t.Errorf("Context()[approver] = %q, want %q", got, "E002")
	}
	if withCtx.Code() != ErrCodeUnauthorized {
		t.Errorf("Code() = %q, want %q", withCtx.Code(), ErrCodeUnauthorized)
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), ""},
		{"travel error", MissingParameter("emp_id"), ErrCodeMissingParameter},
		{"wrapped travel error", fmt.Errorf("create: %w", NotFound("employee", "E9", nil)), ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMissingParameter(t *testing.T) {
	err := MissingParameter("request_id")
	if err.Error() != "Required parameter request_id not set" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Context()["parameter"] != "request_id" {
		t.Errorf("Context()[parameter] = %q, want request_id", err.Context()["parameter"])
	}
}

func TestRateLimited(t *testing.T) {
	err := RateLimited("E001", 1500*time.Millisecond)
	if err.Code() != ErrCodeRateLimited {
		t.Errorf("Code() = %s", err.Code())
	}
	if err.Context()["retry_after"] != "2" {
		t.Errorf("retry_after = %q, want rounded up to 2", err.Context()["retry_after"])
	}
	if err.Context()["emp_id"] != "E001" || err.Suggestion() == "" {
		t.Errorf("context = %v, suggestion = %q", err.Context(), err.Suggestion())
	}
}

func TestNotFound_PreservesCause(t *testing.T) {
	sentinel := errors.New("request not found")
	err := NotFound("approval request", "abc", sentinel)
	if !errors.Is(err, sentinel) {
		t.Error("NotFound() should wrap its cause")
	}
}

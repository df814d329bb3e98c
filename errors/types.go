// Package errors provides structured error types with fix suggestions for the
// travel policy engine. Errors carry a stable code that the operation boundary
// maps onto a result status, plus an actionable suggestion and key/value context.
package errors

import (
	"math"
	"strconv"
	"time"
)

// TravelError provides additional context for error handling.
// It wraps underlying errors with error codes and actionable suggestions.
type TravelError interface {
	error
	Unwrap() error              // Original error
	Code() string               // Error code (e.g., "NOT_FOUND")
	Suggestion() string         // Actionable fix suggestion
	Context() map[string]string // Additional context (table, parameter, etc.)
}

// Domain error codes
const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodePolicyViolation   = "POLICY_VIOLATION"
	ErrCodeMissingParameter  = "MISSING_PARAMETER"
	ErrCodeInvalidParameter  = "INVALID_PARAMETER"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// DynamoDB error codes
const (
	ErrCodeDynamoDBAccessDenied    = "DYNAMODB_ACCESS_DENIED"
	ErrCodeDynamoDBTableNotFound   = "DYNAMODB_TABLE_NOT_FOUND"
	ErrCodeDynamoDBThrottled       = "DYNAMODB_THROTTLED"
	ErrCodeDynamoDBConditionFailed = "DYNAMODB_CONDITION_FAILED"
	ErrCodeDynamoDBError           = "DYNAMODB_ERROR"
)

// SSM error codes
const (
	ErrCodeSSMAccessDenied      = "SSM_ACCESS_DENIED"
	ErrCodeSSMParameterNotFound = "SSM_PARAMETER_NOT_FOUND"
	ErrCodeSSMThrottled         = "SSM_THROTTLED"
	ErrCodeSSMError             = "SSM_ERROR"
)

// SNS error codes
const (
	ErrCodeSNSTopicNotFound = "SNS_TOPIC_NOT_FOUND"
	ErrCodeSNSAccessDenied  = "SNS_ACCESS_DENIED"
	ErrCodeSNSError         = "SNS_ERROR"
)

// travelError implements the TravelError interface.
type travelError struct {
	code       string
	message    string
	suggestion string
	context    map[string]string
	cause      error
}

// Error implements the error interface.
func (e *travelError) Error() string {
	return e.message
}

// Unwrap returns the underlying cause error.
func (e *travelError) Unwrap() error {
	return e.cause
}

// Code returns the error code.
func (e *travelError) Code() string {
	return e.code
}

// Suggestion returns the actionable fix suggestion.
func (e *travelError) Suggestion() string {
	return e.suggestion
}

// Context returns additional context about the error.
func (e *travelError) Context() map[string]string {
	return e.context
}

// New creates a new TravelError with the given code, message, suggestion, and cause.
func New(code, message, suggestion string, cause error) TravelError {
	return &travelError{
		code:       code,
		message:    message,
		suggestion: suggestion,
		context:    make(map[string]string),
		cause:      cause,
	}
}

// WithContext adds context to an error and returns a new TravelError.
// The original error is not modified.
func WithContext(err TravelError, key, value string) TravelError {
	existingCtx := err.Context()
	newCtx := make(map[string]string, len(existingCtx)+1)
	for k, v := range existingCtx {
		newCtx[k] = v
	}
	newCtx[key] = value

	return &travelError{
		code:       err.Code(),
		message:    err.Error(),
		suggestion: err.Suggestion(),
		context:    newCtx,
		cause:      err.Unwrap(),
	}
}

// AsTravelError finds the first TravelError in err's chain.
// If err is nil or carries no TravelError, returns (nil, false).
func AsTravelError(err error) (TravelError, bool) {
	for err != nil {
		if te, ok := err.(TravelError); ok {
			return te, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// GetCode extracts the error code from an error chain.
// Returns empty string if err carries no TravelError.
func GetCode(err error) string {
	if te, ok := AsTravelError(err); ok {
		return te.Code()
	}
	return ""
}

// NotFound creates a NOT_FOUND error for the given kind of entity.
func NotFound(kind, id string, cause error) TravelError {
	se := New(ErrCodeNotFound, kind+" not found: "+id, Suggestions[ErrCodeNotFound], cause)
	return WithContext(se, kind, id)
}

// MissingParameter creates a MISSING_PARAMETER error naming the parameter.
func MissingParameter(name string) TravelError {
	se := New(ErrCodeMissingParameter, "Required parameter "+name+" not set",
		Suggestions[ErrCodeMissingParameter], nil)
	return WithContext(se, "parameter", name)
}

// InvalidParameter creates an INVALID_PARAMETER error for a malformed value.
func InvalidParameter(name, value string, cause error) TravelError {
	se := New(ErrCodeInvalidParameter, "Invalid value for parameter "+name+": "+value,
		Suggestions[ErrCodeInvalidParameter], cause)
	return WithContext(se, "parameter", name)
}

// RateLimited creates a RATE_LIMITED error for an employee who opened too
// many approval requests. retry_after in the context is whole seconds.
func RateLimited(empID string, retryAfter time.Duration) TravelError {
	secs := int64(math.Ceil(retryAfter.Seconds()))
	se := New(ErrCodeRateLimited, "Too many approval requests for employee "+empID,
		Suggestions[ErrCodeRateLimited], nil)
	se = WithContext(se, "emp_id", empID)
	return WithContext(se, "retry_after", strconv.FormatInt(secs, 10))
}

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// Suggestions contains default fix suggestions for each error code.
var Suggestions = map[string]string{
	ErrCodeNotFound:          "Check the identifier and try again.",
	ErrCodeUnauthorized:      "Only the requester (Self level), the recorded manager, or a Director/Executive may act on this request.",
	ErrCodePolicyViolation:   "Choose an offering within your grade's class restrictions and price cap, or request an exception.",
	ErrCodeMissingParameter:  "Supply every required parameter for this function.",
	ErrCodeInvalidParameter:  "Check the parameter format (numbers for cost/duration, YYYY-MM-DD for dates).",
	ErrCodeInvalidTransition: "Only pending requests can be approved or rejected.",
	ErrCodeRateLimited:       "Wait before opening another approval request, or check the status of the ones already pending.",
	ErrCodeInternal:          "Retry the operation; if it keeps failing, check the service logs.",

	ErrCodeDynamoDBAccessDenied: "Ensure the execution role includes dynamodb:GetItem, PutItem, UpdateItem, Query and Scan on the table.",
	ErrCodeDynamoDBTableNotFound: "The DynamoDB table does not exist. " +
		"Check the TRAVEL_*_TABLE environment variables and the deployed stack.",
	ErrCodeDynamoDBThrottled:       "DynamoDB throughput exceeded. Wait a moment and retry, or increase table capacity.",
	ErrCodeDynamoDBConditionFailed: "The DynamoDB conditional check failed. The item may have been modified by another process.",

	ErrCodeSSMAccessDenied:      "Ensure the execution role includes ssm:GetParameter on the travel policy parameter.",
	ErrCodeSSMParameterNotFound: "The travel policy parameter does not exist. Check TRAVEL_POLICY_PARAMETER.",
	ErrCodeSSMThrottled:         "SSM API rate limit exceeded. Wait a moment and retry.",

	ErrCodeSNSTopicNotFound: "The notification topic does not exist. Check TRAVEL_NOTIFY_TOPIC_ARN.",
	ErrCodeSNSAccessDenied:  "Ensure the execution role includes sns:Publish on the notification topic.",
}

// GetSuggestion returns the default suggestion for an error code.
// Returns empty string if no suggestion is defined.
func GetSuggestion(code string) string {
	return Suggestions[code]
}

// apiErrorCode returns the smithy API error code in err's chain, lowercased.
func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		return strings.ToLower(apiErr.ErrorCode())
	}
	return ""
}

// WrapDynamoDBError examines a DynamoDB error and returns a TravelError.
func WrapDynamoDBError(err error, table, operation string) TravelError {
	if err == nil {
		return nil
	}

	var code string
	var message string

	errStr := apiErrorCode(err) + " " + strings.ToLower(err.Error())

	switch {
	case isResourceNotFound(errStr):
		code = ErrCodeDynamoDBTableNotFound
		message = fmt.Sprintf("DynamoDB table not found: %s", table)
	case isAccessDenied(errStr):
		code = ErrCodeDynamoDBAccessDenied
		message = fmt.Sprintf("Access denied to DynamoDB table: %s", table)
	case isThrottled(errStr) || isProvisionedThroughputExceeded(errStr):
		code = ErrCodeDynamoDBThrottled
		message = fmt.Sprintf("DynamoDB throughput exceeded for table: %s", table)
	case isConditionalCheckFailed(errStr):
		code = ErrCodeDynamoDBConditionFailed
		message = fmt.Sprintf("DynamoDB conditional check failed for table: %s", table)
	default:
		code = ErrCodeDynamoDBError
		message = fmt.Sprintf("DynamoDB error for table %s during %s: %v", table, operation, err)
	}

	suggestion := Suggestions[code]
	if suggestion == "" {
		suggestion = "Check your AWS credentials and DynamoDB permissions"
	}

	se := New(code, message, suggestion, err)
	se = WithContext(se, "table", table)
	return WithContext(se, "operation", operation)
}

// WrapSSMError examines an SSM error and returns a TravelError with context.
func WrapSSMError(err error, parameter string) TravelError {
	if err == nil {
		return nil
	}

	var code string
	var message string

	errStr := apiErrorCode(err) + " " + strings.ToLower(err.Error())

	switch {
	case isParameterNotFound(errStr):
		code = ErrCodeSSMParameterNotFound
		message = fmt.Sprintf("SSM parameter not found: %s", parameter)
	case isAccessDenied(errStr):
		code = ErrCodeSSMAccessDenied
		message = fmt.Sprintf("Access denied to SSM parameter: %s", parameter)
	case isThrottled(errStr):
		code = ErrCodeSSMThrottled
		message = fmt.Sprintf("SSM API throttled while accessing: %s", parameter)
	default:
		code = ErrCodeSSMError
		message = fmt.Sprintf("SSM error for parameter %s: %v", parameter, err)
	}

	suggestion := Suggestions[code]
	if suggestion == "" {
		suggestion = "Check your AWS credentials and SSM permissions"
	}

	se := New(code, message, suggestion, err)
	return WithContext(se, "parameter", parameter)
}

// WrapSNSError examines an SNS publish error and returns a TravelError.
func WrapSNSError(err error, topicARN string) TravelError {
	if err == nil {
		return nil
	}

	var code string
	var message string

	errStr := apiErrorCode(err) + " " + strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "notfound"):
		code = ErrCodeSNSTopicNotFound
		message = fmt.Sprintf("SNS topic not found: %s", topicARN)
	case isAccessDenied(errStr):
		code = ErrCodeSNSAccessDenied
		message = fmt.Sprintf("Access denied publishing to SNS topic: %s", topicARN)
	default:
		code = ErrCodeSNSError
		message = fmt.Sprintf("SNS publish to %s failed: %v", topicARN, err)
	}

	se := New(code, message, Suggestions[code], err)
	return WithContext(se, "topic", topicARN)
}

// isAccessDenied checks if error contains access denied indicators.
func isAccessDenied(errStr string) bool {
	return strings.Contains(errStr, "accessdenied") ||
		strings.Contains(errStr, "authorizationerror") ||
		strings.Contains(errStr, "access denied") ||
		strings.Contains(errStr, "not authorized") ||
		strings.Contains(errStr, "403")
}

// isParameterNotFound checks if error indicates parameter not found.
func isParameterNotFound(errStr string) bool {
	return strings.Contains(errStr, "parameternotfound") ||
		strings.Contains(errStr, "parameter not found") ||
		strings.Contains(errStr, "parameterversionnotfound")
}

// isResourceNotFound checks if error indicates resource not found.
func isResourceNotFound(errStr string) bool {
	return strings.Contains(errStr, "resourcenotfound") ||
		strings.Contains(errStr, "resource not found") ||
		strings.Contains(errStr, "table not found") ||
		strings.Contains(errStr, "cannot do operations on a non-existent table")
}

// isThrottled checks if error indicates throttling.
func isThrottled(errStr string) bool {
	return strings.Contains(errStr, "throttl") ||
		strings.Contains(errStr, "rate exceeded") ||
		strings.Contains(errStr, "too many requests")
}

// isProvisionedThroughputExceeded checks if error indicates throughput exceeded.
func isProvisionedThroughputExceeded(errStr string) bool {
	return strings.Contains(errStr, "provisionedthroughputexceeded") ||
		strings.Contains(errStr, "throughput exceeded")
}

// isConditionalCheckFailed checks if error indicates conditional check failure.
func isConditionalCheckFailed(errStr string) bool {
	return strings.Contains(errStr, "conditionalcheckfailed") ||
		strings.Contains(errStr, "conditional check failed")
}

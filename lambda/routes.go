package lambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	travelerrors "github.com/byteness/travelgate/errors"
	"github.com/byteness/travelgate/travel"
)

type route struct {
	method   string
	pattern  []string // "{name}" segments bind path parameters
	function string
}

// Routes served by Router:
//
//	GET  /employees/{emp_id}                -> get_employee_info
//	GET  /employees/{emp_id}/preferences    -> get_travel_preferences
//	GET  /employees/{emp_id}/passport       -> check_passport_status
//	POST /trips/validate                    -> validate_travel_request
//	POST /trips/approval-level              -> get_approval_requirements
//	POST /eligibility                       -> check_eligibility
//	POST /bookings/flights                  -> book_flight
//	POST /bookings/hotels                   -> book_hotel
//	POST /requests                          -> create_approval_request
//	GET  /requests/{request_id}?emp_id=     -> check_approval_status
//	POST /requests/{request_id}/approve     -> approve_request
//	POST /requests/{request_id}/reject      -> reject_request
//	GET  /approvers/{approver_id}/pending   -> list_pending_approvals
var routes = []route{
	{http.MethodGet, split("/employees/{emp_id}"), FnGetEmployeeInfo},
	{http.MethodGet, split("/employees/{emp_id}/preferences"), FnGetTravelPreferences},
	{http.MethodGet, split("/employees/{emp_id}/passport"), FnCheckPassportStatus},
	{http.MethodPost, split("/trips/validate"), FnValidateTravelRequest},
	{http.MethodPost, split("/trips/approval-level"), FnGetApprovalRequirements},
	{http.MethodPost, split("/eligibility"), FnCheckEligibility},
	{http.MethodPost, split("/bookings/flights"), FnBookFlight},
	{http.MethodPost, split("/bookings/hotels"), FnBookHotel},
	{http.MethodPost, split("/requests"), FnCreateApprovalRequest},
	{http.MethodGet, split("/requests/{request_id}"), FnCheckApprovalStatus},
	{http.MethodPost, split("/requests/{request_id}/approve"), FnApproveRequest},
	{http.MethodPost, split("/requests/{request_id}/reject"), FnRejectRequest},
	{http.MethodGet, split("/approvers/{approver_id}/pending"), FnListPendingApprovals},
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// match reports whether segments fit the route, binding path parameters into p.
func (rt route) match(method string, segments []string, p Params) bool {
	if rt.method != method || len(rt.pattern) != len(segments) {
		return false
	}
	bound := Params{}
	for i, seg := range rt.pattern {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			bound[seg[1:len(seg)-1]] = segments[i]
			continue
		}
		if seg != segments[i] {
			return false
		}
	}
	for k, v := range bound {
		p[k] = v
	}
	return true
}

// Router maps API Gateway v2 HTTP requests onto handler operations.
// Parameters come from the JSON body, then the query string, then the path;
// later sources win.
type Router struct {
	handler *Handler
}

// NewRouter creates a new Router with the given handler.
func NewRouter(handler *Handler) *Router {
	return &Router{handler: handler}
}

// Route handles an API Gateway v2 HTTP request.
func (r *Router) Route(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := req.RequestContext.HTTP.Method
	path := req.RawPath
	if path == "" {
		path = req.RequestContext.HTTP.Path
	}
	segments := split(path)

	p, err := bodyParams(req)
	if err != nil {
		return resultResponse(errorResult(err))
	}
	for k, v := range req.QueryStringParameters {
		p[k] = v
	}

	pathKnown := false
	for _, rt := range routes {
		if rt.match(method, segments, p) {
			return resultResponse(r.handler.Invoke(ctx, rt.function, p))
		}
		if len(rt.pattern) == len(segments) && rt.match(rt.method, segments, Params{}) {
			pathKnown = true
		}
	}

	if pathKnown {
		return jsonResponse(http.StatusMethodNotAllowed, errorResult(travelerrors.InvalidParameter("method", method,
			errors.New("method not allowed"))))
	}
	return jsonResponse(http.StatusNotFound, errorResult(travelerrors.New(travelerrors.ErrCodeNotFound,
		"Unknown path: "+path, "Check the request path", nil)))
}

// bodyParams flattens a JSON object body into string parameters.
func bodyParams(req events.APIGatewayV2HTTPRequest) (Params, error) {
	p := Params{}
	body := req.Body
	if strings.TrimSpace(body) == "" {
		return p, nil
	}
	if req.IsBase64Encoded {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, travelerrors.InvalidParameter("body", "base64", err)
		}
		body = string(raw)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, travelerrors.InvalidParameter("body", "not a JSON object", err)
	}
	for k, v := range fields {
		switch v := v.(type) {
		case nil:
		case string:
			p[k] = v
		case float64:
			p[k] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			p[k] = strconv.FormatBool(v)
		default:
			// Details may be structured; keep it as raw JSON.
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, travelerrors.InvalidParameter(k, fmt.Sprint(v), err)
			}
			p[k] = string(raw)
		}
	}
	return p, nil
}

// StatusCode maps a Result onto an HTTP status.
func StatusCode(r travel.Result) int {
	if r.OK() {
		return http.StatusOK
	}
	switch r.Code {
	case travelerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case travelerrors.ErrCodeUnauthorized:
		return http.StatusForbidden
	case travelerrors.ErrCodeMissingParameter, travelerrors.ErrCodeInvalidParameter:
		return http.StatusBadRequest
	case travelerrors.ErrCodeInvalidTransition:
		return http.StatusConflict
	case travelerrors.ErrCodePolicyViolation:
		return http.StatusUnprocessableEntity
	case travelerrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case travelerrors.ErrCodeDynamoDBThrottled, travelerrors.ErrCodeSSMThrottled:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func resultResponse(r travel.Result) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := jsonResponse(StatusCode(r), r)
	if err == nil && r.Code == travelerrors.ErrCodeRateLimited && r.Context["retry_after"] != "" {
		resp.Headers["Retry-After"] = r.Context["retry_after"]
	}
	return resp, err
}

func jsonResponse(status int, v any) (events.APIGatewayV2HTTPResponse, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
		Body: string(body),
	}, nil
}

package lambda

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/byteness/travelgate/catalog"
	"github.com/byteness/travelgate/employee"
	travelerrors "github.com/byteness/travelgate/errors"
	"github.com/byteness/travelgate/notification"
	"github.com/byteness/travelgate/policy"
	"github.com/byteness/travelgate/ratelimit"
	"github.com/byteness/travelgate/request"
	"github.com/byteness/travelgate/testutil"
	"github.com/byteness/travelgate/travel"
)

type testEnv struct {
	handler  *Handler
	store    *testutil.MockRequestStore
	notifier *testutil.MockNotifier
	audit    *testutil.MockLogger
	bookings *testutil.MockBookingStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    testutil.NewMockRequestStore(),
		notifier: testutil.NewMockNotifier(),
		audit:    testutil.NewMockLogger(),
		bookings: testutil.NewMockBookingStore(),
	}
	env.handler = NewHandler(&Config{
		Directory: testutil.StandardDirectory(),
		Requests:  env.store,
		Catalog: testutil.NewMockCatalog(
			testutil.MakeFlight("FL100", catalog.ClassEconomy, 450),
			testutil.MakeFlight("FL200", catalog.ClassFirst, 4000),
			testutil.MakeHotel("HT100", catalog.CategoryStandard, 150),
		),
		Bookings:     env.bookings,
		PolicyLoader: policy.StaticLoader{Policy: policy.DefaultPolicy()},
		Notifier:     env.notifier,
		Logger:       env.audit,
		Log:          zap.NewNop(),
	})
	return env
}

// body is a Result with Data left encoded.
type body struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Context map[string]string `json:"context"`
	Data    json.RawMessage   `json:"data"`
}

func (env *testEnv) call(t *testing.T, function string, params ...string) body {
	t.Helper()
	event := ActionGroupEvent{MessageVersion: "1.0", ActionGroup: "travel", Function: function}
	for i := 0; i+1 < len(params); i += 2 {
		event.Parameters = append(event.Parameters, ActionGroupParameter{Name: params[i], Type: "string", Value: params[i+1]})
	}

	resp, err := env.handler.HandleActionGroup(context.Background(), event)
	if err != nil {
		t.Fatalf("HandleActionGroup() error = %v", err)
	}
	text, ok := resp.Response.FunctionResponse.ResponseBody["TEXT"]
	if !ok {
		t.Fatalf("response has no TEXT body: %+v", resp)
	}
	var b body
	if err := json.Unmarshal([]byte(text.Body), &b); err != nil {
		t.Fatalf("body is not JSON: %v\n%s", err, text.Body)
	}
	return b
}

func expectCode(t *testing.T, b body, code string) {
	t.Helper()
	if b.Status != travel.StatusError || b.Code != code {
		t.Fatalf("got status=%s code=%s message=%q, want Error %s", b.Status, b.Code, b.Message, code)
	}
}

func expectSuccess(t *testing.T, b body) {
	t.Helper()
	if b.Status != travel.StatusSuccess {
		t.Fatalf("got status=%s code=%s message=%q, want Success", b.Status, b.Code, b.Message)
	}
}

func TestHandleActionGroup_ResponseShape(t *testing.T) {
	env := newTestEnv(t)

	event := ActionGroupEvent{
		ActionGroup:       "hr-actions",
		Function:          FnGetEmployeeInfo,
		Parameters:        []ActionGroupParameter{{Name: "emp_id", Type: "string", Value: "E001"}},
		SessionAttributes: map[string]string{"trace": "abc"},
	}
	resp, err := env.handler.HandleActionGroup(context.Background(), event)
	if err != nil {
		t.Fatalf("HandleActionGroup() error = %v", err)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		MessageVersion string `json:"messageVersion"`
		Response       struct {
			ActionGroup      string `json:"actionGroup"`
			Function         string `json:"function"`
			FunctionResponse struct {
				ResponseBody struct {
					TEXT struct {
						Body string `json:"body"`
					} `json:"TEXT"`
				} `json:"responseBody"`
			} `json:"functionResponse"`
		} `json:"response"`
		SessionAttributes map[string]string `json:"sessionAttributes"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}

	if decoded.MessageVersion != "1.0" {
		t.Errorf("messageVersion = %q, want 1.0", decoded.MessageVersion)
	}
	if decoded.Response.ActionGroup != "hr-actions" || decoded.Response.Function != FnGetEmployeeInfo {
		t.Errorf("response echoes %q/%q", decoded.Response.ActionGroup, decoded.Response.Function)
	}
	if !strings.Contains(decoded.Response.FunctionResponse.ResponseBody.TEXT.Body, `"emp_id":"E001"`) {
		t.Errorf("body = %s", decoded.Response.FunctionResponse.ResponseBody.TEXT.Body)
	}
	if decoded.SessionAttributes["trace"] != "abc" {
		t.Error("session attributes not echoed")
	}
}

func TestHandleActionGroup_EmployeeFunctions(t *testing.T) {
	env := newTestEnv(t)

	expectSuccess(t, env.call(t, FnGetEmployeeInfo, "emp_id", "E002"))
	expectSuccess(t, env.call(t, FnGetTravelPreferences, "emp_id", "E002"))

	b := env.call(t, FnCheckPassportStatus, "emp_id", "E002")
	expectSuccess(t, b)
	var check policy.PassportCheck
	if err := json.Unmarshal(b.Data, &check); err != nil {
		t.Fatal(err)
	}
	if check.Status != policy.PassportValid {
		t.Errorf("passport status = %q", check.Status)
	}

	b = env.call(t, FnGetEmployeeInfo)
	expectCode(t, b, travelerrors.ErrCodeMissingParameter)
	if b.Context["parameter"] != "emp_id" {
		t.Errorf("context = %v", b.Context)
	}

	expectCode(t, env.call(t, FnGetEmployeeInfo, "emp_id", "ghost"), travelerrors.ErrCodeNotFound)
}

func TestHandleActionGroup_TripFunctions(t *testing.T) {
	env := newTestEnv(t)

	b := env.call(t, FnValidateTravelRequest, "emp_id", "E001", "destination", "Country A", "duration", "3", "cost", "900.50")
	expectSuccess(t, b)
	var v policy.TripValidation
	if err := json.Unmarshal(b.Data, &v); err != nil {
		t.Fatal(err)
	}
	if v.Valid || len(v.Issues) != 1 {
		t.Errorf("validation = %+v, want one destination issue", v)
	}

	b = env.call(t, FnGetApprovalRequirements, "emp_id", "E001", "destination", "City B", "duration", "10.0", "cost", "100")
	expectSuccess(t, b)
	var req policy.ApprovalRequirement
	if err := json.Unmarshal(b.Data, &req); err != nil {
		t.Fatal(err)
	}
	if req.Level != request.LevelDirector {
		t.Errorf("level = %s, want Director", req.Level)
	}

	b = env.call(t, FnValidateTravelRequest, "emp_id", "E001", "destination", "City B", "duration", "3")
	expectCode(t, b, travelerrors.ErrCodeMissingParameter)
	if b.Context["parameter"] != "cost" {
		t.Errorf("missing parameter = %q, want cost", b.Context["parameter"])
	}

	b = env.call(t, FnValidateTravelRequest, "emp_id", "E001", "destination", "City B", "duration", "three", "cost", "1")
	expectCode(t, b, travelerrors.ErrCodeInvalidParameter)
	if b.Context["parameter"] != "duration" {
		t.Errorf("invalid parameter = %q, want duration", b.Context["parameter"])
	}
}

func TestHandleActionGroup_Eligibility(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		params   []string
		eligible bool
		code     string
	}{
		{"flight by flight_id", []string{"emp_id", "E001", "flight_id", "FL100"}, true, ""},
		{"first class for junior", []string{"emp_id", "E001", "flight_id", "FL200"}, false, ""},
		{"hotel by hotel_id", []string{"emp_id", "E001", "hotel_id", "HT100"}, true, ""},
		{"generic kind", []string{"emp_id", "E003", "kind", "flight", "offering_id", "FL200"}, true, ""},
		{"no offering", []string{"emp_id", "E001"}, false, travelerrors.ErrCodeMissingParameter},
		{"bad kind", []string{"emp_id", "E001", "kind", "car", "offering_id", "C1"}, false, travelerrors.ErrCodeInvalidParameter},
		{"unknown flight", []string{"emp_id", "E001", "flight_id", "FL999"}, false, travelerrors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := env.call(t, FnCheckEligibility, tt.params...)
			if tt.code != "" {
				expectCode(t, b, tt.code)
				return
			}
			expectSuccess(t, b)
			var res struct {
				Eligible bool `json:"eligible"`
			}
			if err := json.Unmarshal(b.Data, &res); err != nil {
				t.Fatal(err)
			}
			if res.Eligible != tt.eligible {
				t.Errorf("eligible = %v, want %v (%s)", res.Eligible, tt.eligible, b.Message)
			}
		})
	}
}

func TestHandleActionGroup_Booking(t *testing.T) {
	env := newTestEnv(t)

	b := env.call(t, FnBookFlight, "emp_id", "E001", "flight_id", "FL100")
	expectSuccess(t, b)

	b = env.call(t, FnBookHotel, "emp_id", "E001", "hotel_id", "HT100", "check_in_date", "2026-06-01", "check_out_date", "2026-06-04")
	expectSuccess(t, b)
	var booking catalog.Booking
	if err := json.Unmarshal(b.Data, &booking); err != nil {
		t.Fatal(err)
	}
	if booking.Nights != 3 || booking.TotalPrice != 450 {
		t.Errorf("booking = %d nights, total %v; want 3 nights, 450", booking.Nights, booking.TotalPrice)
	}

	b = env.call(t, FnBookHotel, "emp_id", "E001", "hotel_id", "HT100", "nights", "2")
	expectSuccess(t, b)

	if got := env.bookings.Count(); got != 3 {
		t.Errorf("stored bookings = %d, want 3", got)
	}

	b = env.call(t, FnBookFlight, "emp_id", "E001")
	expectCode(t, b, travelerrors.ErrCodeMissingParameter)
	if b.Context["parameter"] != "flight_id" {
		t.Errorf("missing parameter = %q, want flight_id", b.Context["parameter"])
	}

	expectCode(t, env.call(t, FnBookHotel, "emp_id", "E001", "hotel_id", "HT100",
		"check_in_date", "2026-06-04", "check_out_date", "2026-06-01"), travelerrors.ErrCodeInvalidParameter)
	expectCode(t, env.call(t, FnBookHotel, "emp_id", "E001", "hotel_id", "HT100",
		"check_in_date", "06/01/2026", "check_out_date", "2026-06-04"), travelerrors.ErrCodeInvalidParameter)
	expectCode(t, env.call(t, FnBookHotel, "emp_id", "E001", "hotel_id", "HT100"), travelerrors.ErrCodeMissingParameter)
	expectCode(t, env.call(t, FnBookFlight, "emp_id", "E001", "flight_id", "FL200"), travelerrors.ErrCodePolicyViolation)
}

func TestHandleActionGroup_ApprovalFlow(t *testing.T) {
	env := newTestEnv(t)

	b := env.call(t, FnCreateApprovalRequest, "emp_id", "E001", "request_type", "flight", "details", `{"flight_id":"FL100"}`)
	expectSuccess(t, b)
	var created travel.RequestCreated
	if err := json.Unmarshal(b.Data, &created); err != nil {
		t.Fatal(err)
	}
	if created.ManagerID != "M001" || created.Status != request.StatusPending {
		t.Fatalf("created = %+v", created)
	}
	// The created notification is delivered before the invocation returns.
	if got := env.notifier.NotifyCallCount(); got != 1 {
		t.Fatalf("notifications after create = %d, want 1", got)
	}

	expectCode(t, env.call(t, FnApproveRequest, "request_id", created.RequestID, "emp_id", "E001", "approver_id", "E002"),
		travelerrors.ErrCodeUnauthorized)

	b = env.call(t, FnListPendingApprovals, "approver_id", "M001")
	expectSuccess(t, b)
	var pending travel.PendingApprovals
	if err := json.Unmarshal(b.Data, &pending); err != nil {
		t.Fatal(err)
	}
	if pending.Count != 1 {
		t.Errorf("pending = %d, want 1", pending.Count)
	}

	expectSuccess(t, env.call(t, FnApproveRequest, "request_id", created.RequestID, "emp_id", "E001", "approver_id", "M001"))
	if last := env.notifier.LastNotification(); last == nil || last.Type != notification.EventRequestApproved {
		t.Errorf("last notification = %+v, want approved", last)
	}

	b = env.call(t, FnCheckApprovalStatus, "request_id", created.RequestID, "emp_id", "E001")
	expectSuccess(t, b)
	if b.Message != "Request is Approved" {
		t.Errorf("message = %q", b.Message)
	}

	b = env.call(t, FnRejectRequest, "request_id", created.RequestID, "emp_id", "E001", "approver_id", "M001", "reason", "over budget")
	expectSuccess(t, b)
	stored := env.store.Stored(created.RequestID, "E001")
	if stored.Status != request.StatusRejected || stored.Comment != "over budget" {
		t.Errorf("stored = %s %q", stored.Status, stored.Comment)
	}

	expectCode(t, env.call(t, FnCheckApprovalStatus, "request_id", created.RequestID), travelerrors.ErrCodeMissingParameter)
	expectCode(t, env.call(t, FnCheckApprovalStatus, "request_id", "nope", "emp_id", "E001"), travelerrors.ErrCodeNotFound)
}

func TestHandleActionGroup_UnknownFunction(t *testing.T) {
	env := newTestEnv(t)

	b := env.call(t, "book_car", "emp_id", "E001")
	expectCode(t, b, travelerrors.ErrCodeInvalidParameter)
	if b.Context["parameter"] != "function" {
		t.Errorf("context = %v", b.Context)
	}
}

func TestHandler_ConfigFailureIsReported(t *testing.T) {
	t.Setenv(EnvRegion, "us-east-1")
	t.Setenv(EnvEmployeeTable, "")
	t.Setenv(EnvApprovalTable, "")

	h := NewHandler()
	r := h.Invoke(context.Background(), FnGetEmployeeInfo, Params{"emp_id": "E001"})

	if r.Status != travel.StatusError || r.Code != travelerrors.ErrCodeInternal {
		t.Fatalf("result = %+v, want INTERNAL_ERROR", r)
	}
	if !strings.Contains(r.Message, "Failed to load configuration") {
		t.Errorf("message = %q", r.Message)
	}
	if h.svc != nil {
		t.Error("service should not be cached after a failed build")
	}
}

func TestConfig_NewServiceRequiresStores(t *testing.T) {
	if _, err := (&Config{Directory: testutil.NewMockDirectory()}).NewService(); err == nil {
		t.Error("expected error without a request store")
	}
	if _, err := (&Config{Requests: testutil.NewMockRequestStore()}).NewService(); err == nil {
		t.Error("expected error without a directory")
	}
}

func TestConfig_StrictTransitions(t *testing.T) {
	store := testutil.NewMockRequestStore()
	req := testutil.MakePendingRequest("req-1", "E001", "M001", request.LevelManager)
	req.Status = request.StatusRejected
	store.Requests[testutil.RequestKey("req-1", "E001")] = req

	h := NewHandler(&Config{
		Directory:         testutil.NewMockDirectory(testutil.MakeEmployee("M001", employee.GradeMidLevel, "D001", "Manager")),
		Requests:          store,
		StrictTransitions: true,
		Log:               zap.NewNop(),
	})
	r := h.Invoke(context.Background(), FnApproveRequest, Params{"request_id": "req-1", "emp_id": "E001", "approver_id": "M001"})
	if r.Code != travelerrors.ErrCodeInvalidTransition {
		t.Errorf("code = %q, want INVALID_TRANSITION", r.Code)
	}
}

type stubLimiter struct {
	decision ratelimit.Decision
	err      error
	keys     []string
}

func (l *stubLimiter) Allow(ctx context.Context, key string) (ratelimit.Decision, error) {
	l.keys = append(l.keys, key)
	return l.decision, l.err
}

func TestHandleActionGroup_CreateThrottled(t *testing.T) {
	env := newTestEnv(t)
	limiter := &stubLimiter{decision: ratelimit.Decision{RetryAfter: 90 * time.Second}}
	env.handler.Config.Limiter = limiter

	b := env.call(t, FnCreateApprovalRequest, "emp_id", "E001", "request_type", "flight", "details", "{}")
	expectCode(t, b, travelerrors.ErrCodeRateLimited)
	if b.Context["retry_after"] != "90" {
		t.Errorf("retry_after = %q", b.Context["retry_after"])
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != ratelimit.CreateRequestKey("E001") {
		t.Errorf("limiter keys = %v", limiter.keys)
	}
	if len(env.store.CreateCalls) != 0 {
		t.Error("a throttled request must not be stored")
	}

	// Other functions are not counted.
	env.call(t, FnGetEmployeeInfo, "emp_id", "E001")
	if len(limiter.keys) != 1 {
		t.Errorf("limiter called for get_employee_info")
	}
}

func TestHandleActionGroup_ThrottleFailsOpen(t *testing.T) {
	env := newTestEnv(t)
	env.handler.Config.Limiter = &stubLimiter{
		decision: ratelimit.Decision{Allowed: true},
		err:      errors.New("table unavailable"),
	}

	b := env.call(t, FnCreateApprovalRequest, "emp_id", "E001", "request_type", "flight", "details", "{}")
	expectSuccess(t, b)
}

package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/byteness/travelgate/catalog"
	"github.com/byteness/travelgate/employee"
	"github.com/byteness/travelgate/logging"
	"github.com/byteness/travelgate/notification"
	"github.com/byteness/travelgate/policy"
	"github.com/byteness/travelgate/request"
)

// ============================================================================
// MockRequestStore - implements request.Store interface
// ============================================================================

// MockRequestStore implements request.Store for testing.
// Supports configurable responses and in-memory storage for stateful tests.
// The in-memory store copies records in and out, and honors the expected
// status of Update the way the DynamoDB store does.
type MockRequestStore struct {
	mu sync.Mutex

	// Configurable behavior functions
	CreateFunc      func(ctx context.Context, req *request.ApprovalRequest) error
	GetFunc         func(ctx context.Context, requestID, empID string) (*request.ApprovalRequest, error)
	UpdateFunc      func(ctx context.Context, req *request.ApprovalRequest, expected request.RequestStatus) error
	ListPendingFunc func(ctx context.Context, approverID string) ([]*request.ApprovalRequest, error)

	// Error injection (used if behavior function is nil)
	CreateErr      error
	GetErr         error
	UpdateErr      error
	ListPendingErr error

	// In-memory storage keyed by RequestKey
	Requests map[string]*request.ApprovalRequest

	// Call tracking
	CreateCalls      []*request.ApprovalRequest
	GetCalls         []string
	UpdateCalls      []UpdateCall
	ListPendingCalls []string
}

// UpdateCall tracks parameters for Update calls.
type UpdateCall struct {
	Request  *request.ApprovalRequest
	Expected request.RequestStatus
}

// RequestKey returns the in-memory key for a (request ID, employee ID) pair.
func RequestKey(requestID, empID string) string {
	return requestID + "|" + empID
}

// NewMockRequestStore creates a new MockRequestStore with initialized maps.
func NewMockRequestStore() *MockRequestStore {
	return &MockRequestStore{
		Requests: make(map[string]*request.ApprovalRequest),
	}
}

// Create stores a new request.
func (m *MockRequestStore) Create(ctx context.Context, req *request.ApprovalRequest) error {
	m.mu.Lock()
	m.CreateCalls = append(m.CreateCalls, req)
	m.mu.Unlock()

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	if m.CreateErr != nil {
		return m.CreateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Requests == nil {
		m.Requests = make(map[string]*request.ApprovalRequest)
	}
	key := RequestKey(req.ID, req.EmployeeID)
	if _, ok := m.Requests[key]; ok {
		return fmt.Errorf("%s: %w", req.ID, request.ErrRequestExists)
	}
	stored := *req
	m.Requests[key] = &stored
	return nil
}

// Get retrieves a request by its composite key.
func (m *MockRequestStore) Get(ctx context.Context, requestID, empID string) (*request.ApprovalRequest, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, RequestKey(requestID, empID))
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, requestID, empID)
	}
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if req, ok := m.Requests[RequestKey(requestID, empID)]; ok {
		out := *req
		return &out, nil
	}
	return nil, fmt.Errorf("%s/%s: %w", requestID, empID, request.ErrRequestNotFound)
}

// Update writes a decision. A non-empty expected status must match the
// stored status or ErrConcurrentModification is returned.
func (m *MockRequestStore) Update(ctx context.Context, req *request.ApprovalRequest, expected request.RequestStatus) error {
	m.mu.Lock()
	m.UpdateCalls = append(m.UpdateCalls, UpdateCall{Request: req, Expected: expected})
	m.mu.Unlock()

	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, req, expected)
	}
	if m.UpdateErr != nil {
		return m.UpdateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := RequestKey(req.ID, req.EmployeeID)
	current, ok := m.Requests[key]
	if !ok {
		return fmt.Errorf("%s/%s: %w", req.ID, req.EmployeeID, request.ErrRequestNotFound)
	}
	if expected != "" && current.Status != expected {
		return fmt.Errorf("%s/%s: %w", req.ID, req.EmployeeID, request.ErrConcurrentModification)
	}
	current.Status = req.Status
	current.ApproverID = req.ApproverID
	current.Comment = req.Comment
	current.UpdatedAt = req.UpdatedAt
	return nil
}

// ListPending returns stored Pending requests managed by approverID, oldest first.
func (m *MockRequestStore) ListPending(ctx context.Context, approverID string) ([]*request.ApprovalRequest, error) {
	m.mu.Lock()
	m.ListPendingCalls = append(m.ListPendingCalls, approverID)
	m.mu.Unlock()

	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, approverID)
	}
	if m.ListPendingErr != nil {
		return nil, m.ListPendingErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*request.ApprovalRequest
	for _, req := range m.Requests {
		if req.ManagerID == approverID && req.Status == request.StatusPending {
			c := *req
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Stored returns a copy of the stored request, or nil.
func (m *MockRequestStore) Stored(requestID, empID string) *request.ApprovalRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.Requests[RequestKey(requestID, empID)]
	if !ok {
		return nil
	}
	out := *req
	return &out
}

// Reset clears all call tracking and stored requests.
func (m *MockRequestStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = make(map[string]*request.ApprovalRequest)
	m.CreateCalls = nil
	m.GetCalls = nil
	m.UpdateCalls = nil
	m.ListPendingCalls = nil
}

// ============================================================================
// MockDirectory - implements employee.Directory interface
// ============================================================================

// MockDirectory implements employee.Directory over an in-memory map.
type MockDirectory struct {
	mu sync.Mutex

	GetFunc func(ctx context.Context, id string) (*employee.Employee, error)
	GetErr  error

	Employees map[string]*employee.Employee

	GetCalls []string
}

// NewMockDirectory creates a MockDirectory holding the given employees.
func NewMockDirectory(employees ...*employee.Employee) *MockDirectory {
	m := &MockDirectory{Employees: make(map[string]*employee.Employee)}
	for _, e := range employees {
		m.Employees[e.ID] = e
	}
	return m
}

// Get returns a copy of the employee record.
func (m *MockDirectory) Get(ctx context.Context, id string) (*employee.Employee, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, id)
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.Employees[id]; ok {
		out := *e
		return &out, nil
	}
	return nil, fmt.Errorf("%s: %w", id, employee.ErrEmployeeNotFound)
}

// Put adds or replaces an employee record.
func (m *MockDirectory) Put(e *employee.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Employees == nil {
		m.Employees = make(map[string]*employee.Employee)
	}
	m.Employees[e.ID] = e
}

// ============================================================================
// MockCatalog - implements catalog.Catalog interface
// ============================================================================

// MockCatalog implements catalog.Catalog over an in-memory map keyed by kind and ID.
type MockCatalog struct {
	mu sync.Mutex

	GetFunc func(ctx context.Context, kind catalog.Kind, id string) (*catalog.Offering, error)
	GetErr  error

	Offerings map[string]*catalog.Offering

	GetCalls []string
}

// NewMockCatalog creates a MockCatalog holding the given offerings.
func NewMockCatalog(offerings ...*catalog.Offering) *MockCatalog {
	m := &MockCatalog{Offerings: make(map[string]*catalog.Offering)}
	for _, o := range offerings {
		m.Offerings[offeringKey(o.Kind, o.ID)] = o
	}
	return m
}

func offeringKey(kind catalog.Kind, id string) string {
	return string(kind) + "|" + id
}

// Get returns a copy of the offering.
func (m *MockCatalog) Get(ctx context.Context, kind catalog.Kind, id string) (*catalog.Offering, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, offeringKey(kind, id))
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, kind, id)
	}
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.Offerings[offeringKey(kind, id)]; ok {
		out := *o
		return &out, nil
	}
	return nil, fmt.Errorf("%s %s: %w", kind, id, catalog.ErrOfferingNotFound)
}

// ============================================================================
// MockBookingStore - implements catalog.BookingStore interface
// ============================================================================

// MockBookingStore implements catalog.BookingStore for testing.
type MockBookingStore struct {
	mu sync.Mutex

	PutFunc func(ctx context.Context, booking *catalog.Booking) error
	PutErr  error

	Bookings []*catalog.Booking
}

// NewMockBookingStore creates an empty MockBookingStore.
func NewMockBookingStore() *MockBookingStore {
	return &MockBookingStore{}
}

// Put records the booking.
func (m *MockBookingStore) Put(ctx context.Context, booking *catalog.Booking) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, booking)
	}
	if m.PutErr != nil {
		return m.PutErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Bookings = append(m.Bookings, booking)
	return nil
}

// Count returns the number of stored bookings.
func (m *MockBookingStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Bookings)
}

// ============================================================================
// MockPolicyLoader - policy loading
// ============================================================================

// MockPolicyLoader provides configurable policy responses for testing.
type MockPolicyLoader struct {
	mu sync.Mutex

	// Configurable behavior functions
	LoadFunc func(ctx context.Context, parameterName string) (*policy.TravelPolicy, error)

	// Predefined responses per parameter name
	Policies map[string]*policy.TravelPolicy

	// Error injection
	LoadErr error

	// Call tracking
	LoadCalls []string
}

// NewMockPolicyLoader creates a new MockPolicyLoader with initialized maps.
func NewMockPolicyLoader() *MockPolicyLoader {
	return &MockPolicyLoader{
		Policies: make(map[string]*policy.TravelPolicy),
	}
}

// Load fetches a policy by parameter name.
func (m *MockPolicyLoader) Load(ctx context.Context, parameterName string) (*policy.TravelPolicy, error) {
	m.mu.Lock()
	m.LoadCalls = append(m.LoadCalls, parameterName)
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, parameterName)
	}
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.Policies[parameterName]; ok {
		return p, nil
	}
	return nil, policy.ErrPolicyNotFound
}

// LoadCallCount returns the number of Load calls made.
func (m *MockPolicyLoader) LoadCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.LoadCalls)
}

// ============================================================================
// MockNotifier - notification.Notifier interface
// ============================================================================

// MockNotifier implements notification.Notifier for testing.
// Tracks all notification calls for assertions.
type MockNotifier struct {
	mu sync.Mutex

	// Configurable behavior function
	NotifyFunc func(ctx context.Context, event *notification.Event) error

	// Error injection
	NotifyErr error

	// Call tracking
	NotifyCalls []*notification.Event
}

// NewMockNotifier creates a new MockNotifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Notify sends a notification.
func (m *MockNotifier) Notify(ctx context.Context, event *notification.Event) error {
	m.mu.Lock()
	m.NotifyCalls = append(m.NotifyCalls, event)
	m.mu.Unlock()

	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, event)
	}
	return m.NotifyErr
}

// NotifyCallCount returns the number of Notify calls made.
func (m *MockNotifier) NotifyCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.NotifyCalls)
}

// LastNotification returns the last notification event, or nil if none.
func (m *MockNotifier) LastNotification() *notification.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.NotifyCalls) == 0 {
		return nil
	}
	return m.NotifyCalls[len(m.NotifyCalls)-1]
}

// ============================================================================
// MockLogger - logging.Logger interface
// ============================================================================

// MockLogger implements logging.Logger for testing.
// Captures all log entries for assertions.
type MockLogger struct {
	mu sync.Mutex

	DecisionEntries []logging.DecisionLogEntry
	ApprovalEntries []logging.ApprovalLogEntry
}

// NewMockLogger creates a new MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

// LogDecision captures a decision entry.
func (m *MockLogger) LogDecision(entry logging.DecisionLogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DecisionEntries = append(m.DecisionEntries, entry)
}

// LogApproval captures an approval workflow event.
func (m *MockLogger) LogApproval(entry logging.ApprovalLogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApprovalEntries = append(m.ApprovalEntries, entry)
}

// DecisionCount returns the number of decision log entries.
func (m *MockLogger) DecisionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.DecisionEntries)
}

// ApprovalCount returns the number of approval log entries.
func (m *MockLogger) ApprovalCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ApprovalEntries)
}

// LastDecision returns the last decision log entry, or empty if none.
func (m *MockLogger) LastDecision() logging.DecisionLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.DecisionEntries) == 0 {
		return logging.DecisionLogEntry{}
	}
	return m.DecisionEntries[len(m.DecisionEntries)-1]
}

// LastApproval returns the last approval log entry, or empty if none.
func (m *MockLogger) LastApproval() logging.ApprovalLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ApprovalEntries) == 0 {
		return logging.ApprovalLogEntry{}
	}
	return m.ApprovalEntries[len(m.ApprovalEntries)-1]
}

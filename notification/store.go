package notification

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/byteness/travelgate/request"
)

// NotifyStore wraps a request.Store and fires notifications on state transitions.
// Notifications are delivered asynchronously; call Wait before the process
// may be frozen (for example at the end of a Lambda invocation).
type NotifyStore struct {
	store    request.Store
	notifier Notifier
	log      *zap.Logger
	wg       sync.WaitGroup
}

// NewNotifyStore creates a new NotifyStore wrapping the given store.
// If notifier is nil, a NoopNotifier is used. If log is nil, errors are discarded.
func NewNotifyStore(store request.Store, notifier Notifier, log *zap.Logger) *NotifyStore {
	if notifier == nil {
		notifier = &NoopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &NotifyStore{
		store:    store,
		notifier: notifier,
		log:      log,
	}
}

// Create stores a new request and fires EventRequestCreated on success.
func (s *NotifyStore) Create(ctx context.Context, req *request.ApprovalRequest) error {
	if err := s.store.Create(ctx, req); err != nil {
		return err
	}

	s.fire(ctx, EventRequestCreated, req, req.EmployeeID)
	return nil
}

// Get retrieves a request. No notification is fired.
func (s *NotifyStore) Get(ctx context.Context, requestID, empID string) (*request.ApprovalRequest, error) {
	return s.store.Get(ctx, requestID, empID)
}

// Update writes a decision and fires EventRequestApproved or
// EventRequestRejected once the write succeeds. Re-approvals fire again.
func (s *NotifyStore) Update(ctx context.Context, req *request.ApprovalRequest, expected request.RequestStatus) error {
	if err := s.store.Update(ctx, req, expected); err != nil {
		return err
	}

	if eventType := EventForStatus(req.Status); eventType != "" {
		s.fire(ctx, eventType, req, req.ApproverID)
	}
	return nil
}

// ListPending returns pending requests for an approver. No notification is fired.
func (s *NotifyStore) ListPending(ctx context.Context, approverID string) ([]*request.ApprovalRequest, error) {
	return s.store.ListPending(ctx, approverID)
}

// Wait blocks until every in-flight notification has been delivered or failed.
func (s *NotifyStore) Wait() {
	s.wg.Wait()
}

func (s *NotifyStore) fire(ctx context.Context, eventType EventType, req *request.ApprovalRequest, actor string) {
	// Snapshot the request; callers may keep mutating theirs.
	snapshot := *req
	event := NewEvent(eventType, &snapshot, actor)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.notifier.Notify(context.WithoutCancel(ctx), event); err != nil {
			s.log.Warn("notification failed",
				zap.String("event_type", eventType.String()),
				zap.String("request_id", req.ID),
				zap.Error(err),
			)
		}
	}()
}

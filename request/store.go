package request

import (
	"context"
	"errors"
)

// Storage-related sentinel errors for Store implementations.
// These errors support errors.Is() checking for robust error handling.
var (
	// ErrRequestNotFound is returned when no request has the given (ID, employee) key.
	ErrRequestNotFound = errors.New("approval request not found")

	// ErrRequestExists is returned when attempting to create a request whose key
	// already exists in the store.
	ErrRequestExists = errors.New("approval request already exists")

	// ErrConcurrentModification is returned when a conditional update fails
	// because the stored status no longer matches the expected one.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// Store defines the interface for approval request persistence.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create stores a new request. Returns ErrRequestExists if the key already exists.
	Create(ctx context.Context, req *ApprovalRequest) error

	// Get retrieves a request by its exact (requestID, empID) key.
	// Returns ErrRequestNotFound if not exists.
	Get(ctx context.Context, requestID, empID string) (*ApprovalRequest, error)

	// Update writes the mutable decision fields (status, approver, comment,
	// updated_at) of an existing request. Returns ErrRequestNotFound if the key
	// does not exist. If expected is non-empty, the write only succeeds while the
	// stored status equals expected; otherwise ErrConcurrentModification.
	Update(ctx context.Context, req *ApprovalRequest, expected RequestStatus) error

	// ListPending returns every pending request whose manager is approverID.
	// Returns an empty slice if none are found.
	ListPending(ctx context.Context, approverID string) ([]*ApprovalRequest, error)
}

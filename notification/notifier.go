package notification

import (
	"context"

	"go.uber.org/multierr"
)

// Notifier defines the interface for notification delivery.
type Notifier interface {
	// Notify sends a notification for the given event.
	Notify(ctx context.Context, event *Event) error
}

// MultiNotifier composes multiple notifiers and sends to all of them.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a new MultiNotifier with the given notifiers.
// Nil notifiers are filtered out.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	filtered := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			filtered = append(filtered, n)
		}
	}
	return &MultiNotifier{notifiers: filtered}
}

// Len returns the number of configured notifiers.
func (m *MultiNotifier) Len() int {
	return len(m.notifiers)
}

// Notify sends the event to every notifier, even after a failure.
// Failures are combined; use multierr.Errors to inspect them.
func (m *MultiNotifier) Notify(ctx context.Context, event *Event) error {
	var err error
	for _, n := range m.notifiers {
		err = multierr.Append(err, n.Notify(ctx, event))
	}
	return err
}

// NoopNotifier is a no-op notifier that does nothing.
type NoopNotifier struct{}

// Notify does nothing and returns nil.
func (n *NoopNotifier) Notify(_ context.Context, _ *Event) error {
	return nil
}

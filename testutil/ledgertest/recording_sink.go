package ledgertest

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/lending-ledger/ledger/fulfillment"
)

// RecordingSink records delivered notifications. An optional error is returned from every Deliver.
type RecordingSink struct {
	mu            sync.Mutex
	notifications []fulfillment.Notification
	err           error
	delivered     chan struct{}
}

// NewRecordingSink creates an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{delivered: make(chan struct{}, 1024)}
}

// FailWith makes every following Deliver record the notification and return err.
func (s *RecordingSink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
}

// Deliver records the notification.
func (s *RecordingSink) Deliver(_ context.Context, notification fulfillment.Notification) error {
	s.mu.Lock()
	s.notifications = append(s.notifications, notification)
	err := s.err
	s.mu.Unlock()

	select {
	case s.delivered <- struct{}{}:
	default:
	}

	return err
}

// Notifications returns a copy of the recorded notifications.
func (s *RecordingSink) Notifications() []fulfillment.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]fulfillment.Notification(nil), s.notifications...)
}

// Delivered is signalled once per Deliver call.
func (s *RecordingSink) Delivered() <-chan struct{} {
	return s.delivered
}

type synchronousEnqueuer struct {
	sink *RecordingSink
}

func (e synchronousEnqueuer) Enqueue(ctx context.Context, notification fulfillment.Notification) bool {
	return e.sink.Deliver(ctx, notification) == nil
}

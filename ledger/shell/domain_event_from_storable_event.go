package shell

import (
	"errors"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

var (
	// ErrMappingToDomainEventFailed is returned when domain event conversion fails.
	ErrMappingToDomainEventFailed = errors.New("mapping to domain event failed")

	// ErrMappingToDomainEventUnknownEventType is returned for unrecognized event types.
	ErrMappingToDomainEventUnknownEventType = errors.New("unknown event type")
)

// DomainEventsFrom converts multiple StorableEvents to DomainEvents, keeping their order.
func DomainEventsFrom(storableEvents eventstore.StorableEvents) (core.DomainEvents, error) {
	domainEvents := make(core.DomainEvents, 0, len(storableEvents))

	for _, storableEvent := range storableEvents {
		domainEvent, err := DomainEventFrom(storableEvent)
		if err != nil {
			return nil, err
		}

		domainEvents = append(domainEvents, domainEvent)
	}

	return domainEvents, nil
}

// DomainEventFrom converts a StorableEvent to its corresponding DomainEvent.
func DomainEventFrom(storableEvent eventstore.StorableEvent) (core.DomainEvent, error) {
	switch storableEvent.EventType {
	case core.BookRegisteredEventType:
		return unmarshal[core.BookRegistered](storableEvent.PayloadJSON)
	case core.BookRemovedFromCatalogEventType:
		return unmarshal[core.BookRemovedFromCatalog](storableEvent.PayloadJSON)
	case core.UserRegisteredEventType:
		return unmarshal[core.UserRegistered](storableEvent.PayloadJSON)
	case core.BookLentEventType:
		return unmarshal[core.BookLent](storableEvent.PayloadJSON)
	case core.BookReturnedEventType:
		return unmarshal[core.BookReturned](storableEvent.PayloadJSON)
	case core.LoanExtendedEventType:
		return unmarshal[core.LoanExtended](storableEvent.PayloadJSON)
	case core.LoanMarkedOverdueEventType:
		return unmarshal[core.LoanMarkedOverdue](storableEvent.PayloadJSON)
	case core.BookReservedEventType:
		return unmarshal[core.BookReserved](storableEvent.PayloadJSON)
	case core.ReservationCanceledEventType:
		return unmarshal[core.ReservationCanceled](storableEvent.PayloadJSON)
	case core.ReservationCompletedEventType:
		return unmarshal[core.ReservationCompleted](storableEvent.PayloadJSON)
	case core.LendingBookFailedEventType:
		return unmarshal[core.LendingBookFailed](storableEvent.PayloadJSON)
	case core.ReturningBookFailedEventType:
		return unmarshal[core.ReturningBookFailed](storableEvent.PayloadJSON)
	case core.ExtendingLoanFailedEventType:
		return unmarshal[core.ExtendingLoanFailed](storableEvent.PayloadJSON)
	case core.ReservingBookFailedEventType:
		return unmarshal[core.ReservingBookFailed](storableEvent.PayloadJSON)
	case core.CancelingReservationFailedEventType:
		return unmarshal[core.CancelingReservationFailed](storableEvent.PayloadJSON)
	case core.CompletingReservationFailedEventType:
		return unmarshal[core.CompletingReservationFailed](storableEvent.PayloadJSON)
	case core.RemovingBookFailedEventType:
		return unmarshal[core.RemovingBookFailed](storableEvent.PayloadJSON)
	}

	return nil, errors.Join(ErrMappingToDomainEventFailed, ErrMappingToDomainEventUnknownEventType)
}

func unmarshal[E core.DomainEvent](payloadJSON []byte) (core.DomainEvent, error) {
	var event E

	if err := jsoniter.ConfigFastest.Unmarshal(payloadJSON, &event); err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	return event, nil
}

package core

import (
	"time"
)

// Failure event type identifiers.
const (
	LendingBookFailedEventType           = "LendingBookFailed"
	ReturningBookFailedEventType         = "ReturningBookFailed"
	ExtendingLoanFailedEventType         = "ExtendingLoanFailed"
	ReservingBookFailedEventType         = "ReservingBookFailed"
	CancelingReservationFailedEventType  = "CancelingReservationFailed"
	CompletingReservationFailedEventType = "CompletingReservationFailed"
	RemovingBookFailedEventType          = "RemovingBookFailed"
)

// Failure holds the fields shared by all failure events.
// Failure events record rejected commands for audit, no projection reads them.
type Failure struct {
	EntityID    string
	FailureInfo string
	OccurredAt  OccurredAtTS
}

func buildFailure(entityID string, failureInfo string, occurredAt time.Time) Failure {
	return Failure{
		EntityID:    entityID,
		FailureInfo: failureInfo,
		OccurredAt:  ToOccurredAt(occurredAt),
	}
}

// HasOccurredAt returns when this event occurred.
func (f Failure) HasOccurredAt() time.Time {
	return f.OccurredAt
}

// IsErrorEvent returns true since this event represents a failed operation.
func (f Failure) IsErrorEvent() bool {
	return true
}

// LendingBookFailed represents a rejected createLoan.
type LendingBookFailed struct{ Failure }

// BuildLendingBookFailed creates a new LendingBookFailed event.
func BuildLendingBookFailed(entityID string, failureInfo string, occurredAt time.Time) LendingBookFailed {
	return LendingBookFailed{buildFailure(entityID, failureInfo, occurredAt)}
}

func (e LendingBookFailed) IsEventType() string { return LendingBookFailedEventType }

// ReturningBookFailed represents a rejected returnLoan.
type ReturningBookFailed struct{ Failure }

// BuildReturningBookFailed creates a new ReturningBookFailed event.
func BuildReturningBookFailed(entityID string, failureInfo string, occurredAt time.Time) ReturningBookFailed {
	return ReturningBookFailed{buildFailure(entityID, failureInfo, occurredAt)}
}

func (e ReturningBookFailed) IsEventType() string { return ReturningBookFailedEventType }

// ExtendingLoanFailed represents a rejected extendLoan.
type ExtendingLoanFailed struct{ Failure }

// BuildExtendingLoanFailed creates a new ExtendingLoanFailed event.
func BuildExtendingLoanFailed(entityID string, failureInfo string, occurredAt time.Time) ExtendingLoanFailed {
	return ExtendingLoanFailed{buildFailure(entityID, failureInfo, occurredAt)}
}

func (e ExtendingLoanFailed) IsEventType() string { return ExtendingLoanFailedEventType }

// ReservingBookFailed represents a rejected createReservation.
type ReservingBookFailed struct{ Failure }

// BuildReservingBookFailed creates a new ReservingBookFailed event.
func BuildReservingBookFailed(entityID string, failureInfo string, occurredAt time.Time) ReservingBookFailed {
	return ReservingBookFailed{buildFailure(entityID, failureInfo, occurredAt)}
}

func (e ReservingBookFailed) IsEventType() string { return ReservingBookFailedEventType }

// CancelingReservationFailed represents a rejected cancelReservation.
type CancelingReservationFailed struct{ Failure }

// BuildCancelingReservationFailed creates a new CancelingReservationFailed event.
func BuildCancelingReservationFailed(entityID string, failureInfo string, occurredAt time.Time) CancelingReservationFailed {
	return CancelingReservationFailed{buildFailure(entityID, failureInfo, occurredAt)}
}

func (e CancelingReservationFailed) IsEventType() string { return CancelingReservationFailedEventType }

// CompletingReservationFailed represents a rejected completeReservation.
type CompletingReservationFailed struct{ Failure }

// BuildCompletingReservationFailed creates a new CompletingReservationFailed event.
func BuildCompletingReservationFailed(entityID string, failureInfo string, occurredAt time.Time) CompletingReservationFailed {
	return CompletingReservationFailed{buildFailure(entityID, failureInfo, occurredAt)}
}

func (e CompletingReservationFailed) IsEventType() string { return CompletingReservationFailedEventType }

// RemovingBookFailed represents a rejected removeBook.
type RemovingBookFailed struct{ Failure }

// BuildRemovingBookFailed creates a new RemovingBookFailed event.
func BuildRemovingBookFailed(entityID string, failureInfo string, occurredAt time.Time) RemovingBookFailed {
	return RemovingBookFailed{buildFailure(entityID, failureInfo, occurredAt)}
}

func (e RemovingBookFailed) IsEventType() string { return RemovingBookFailedEventType }

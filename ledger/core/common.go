package core

import (
	"time"
)

// BookIDString represents a book identifier.
type BookIDString = string

// UserIDString represents a user identifier.
type UserIDString = string

// LoanIDString represents a loan identifier.
type LoanIDString = string

// ReservationIDString represents a reservation identifier.
type ReservationIDString = string

// OccurredAtTS represents when an event occurred.
type OccurredAtTS = time.Time

// Payload keys which are used as filter predicates and as lock fields of the storage engines.
const (
	BookIDKey        = "BookID"
	UserIDKey        = "UserID"
	LoanIDKey        = "LoanID"
	ReservationIDKey = "ReservationID"
)

// IdentityKeys returns all payload keys which identify an entity.
func IdentityKeys() []string {
	return []string{BookIDKey, UserIDKey, LoanIDKey, ReservationIDKey}
}

// ToOccurredAt converts a time to OccurredAtTS with UTC normalization and microsecond precision.
func ToOccurredAt(t time.Time) OccurredAtTS {
	return t.UTC().Truncate(time.Microsecond)
}

// ToCalendarDate returns midnight UTC of the calendar day t falls on in its own location.
func ToCalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays adds whole calendar days.
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

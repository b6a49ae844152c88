package core

import (
	"time"
)

const (
	// BookLentEventType is the event type identifier.
	BookLentEventType = "BookLent"

	// BookReturnedEventType is the event type identifier.
	BookReturnedEventType = "BookReturned"

	// LoanExtendedEventType is the event type identifier.
	LoanExtendedEventType = "LoanExtended"

	// LoanMarkedOverdueEventType is the event type identifier.
	LoanMarkedOverdueEventType = "LoanMarkedOverdue"
)

// LoanEventTypes returns all event types which change a Loan.
func LoanEventTypes() []string {
	return []string{BookLentEventType, BookReturnedEventType, LoanExtendedEventType, LoanMarkedOverdueEventType}
}

// BookLent represents when a copy of a book was lent to a user. It decrements the available copies.
type BookLent struct {
	LoanID     LoanIDString
	BookID     BookIDString
	UserID     UserIDString
	LoanDate   time.Time
	DueDate    time.Time
	OccurredAt OccurredAtTS
}

// BuildBookLent creates a new BookLent event. Loan and due date are normalized to calendar dates.
func BuildBookLent(
	loanID LoanIDString,
	bookID BookIDString,
	userID UserIDString,
	loanDate time.Time,
	dueDate time.Time,
	occurredAt time.Time,
) BookLent {

	return BookLent{
		LoanID:     loanID,
		BookID:     bookID,
		UserID:     userID,
		LoanDate:   ToCalendarDate(loanDate),
		DueDate:    ToCalendarDate(dueDate),
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e BookLent) IsEventType() string      { return BookLentEventType }
func (e BookLent) HasOccurredAt() time.Time { return e.OccurredAt }
func (e BookLent) IsErrorEvent() bool       { return false }

// BookReturned represents when a lent copy came back. It increments the available copies.
type BookReturned struct {
	LoanID     LoanIDString
	BookID     BookIDString
	UserID     UserIDString
	ReturnedAt time.Time
	OccurredAt OccurredAtTS
}

// BuildBookReturned creates a new BookReturned event.
func BuildBookReturned(
	loanID LoanIDString,
	bookID BookIDString,
	userID UserIDString,
	returnedAt time.Time,
	occurredAt time.Time,
) BookReturned {

	return BookReturned{
		LoanID:     loanID,
		BookID:     bookID,
		UserID:     userID,
		ReturnedAt: ToOccurredAt(returnedAt),
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e BookReturned) IsEventType() string      { return BookReturnedEventType }
func (e BookReturned) HasOccurredAt() time.Time { return e.OccurredAt }
func (e BookReturned) IsErrorEvent() bool       { return false }

// LoanExtended represents when the due date of a loan was pushed back.
type LoanExtended struct {
	LoanID     LoanIDString
	BookID     BookIDString
	UserID     UserIDString
	Days       int
	NewDueDate time.Time
	OccurredAt OccurredAtTS
}

// BuildLoanExtended creates a new LoanExtended event.
func BuildLoanExtended(
	loanID LoanIDString,
	bookID BookIDString,
	userID UserIDString,
	days int,
	newDueDate time.Time,
	occurredAt time.Time,
) LoanExtended {

	return LoanExtended{
		LoanID:     loanID,
		BookID:     bookID,
		UserID:     userID,
		Days:       days,
		NewDueDate: ToCalendarDate(newDueDate),
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e LoanExtended) IsEventType() string      { return LoanExtendedEventType }
func (e LoanExtended) HasOccurredAt() time.Time { return e.OccurredAt }
func (e LoanExtended) IsErrorEvent() bool       { return false }

// LoanMarkedOverdue represents when the overdue sweep found a loan past its due date.
type LoanMarkedOverdue struct {
	LoanID     LoanIDString
	BookID     BookIDString
	UserID     UserIDString
	DueDate    time.Time
	OccurredAt OccurredAtTS
}

// BuildLoanMarkedOverdue creates a new LoanMarkedOverdue event.
func BuildLoanMarkedOverdue(
	loanID LoanIDString,
	bookID BookIDString,
	userID UserIDString,
	dueDate time.Time,
	occurredAt time.Time,
) LoanMarkedOverdue {

	return LoanMarkedOverdue{
		LoanID:     loanID,
		BookID:     bookID,
		UserID:     userID,
		DueDate:    ToCalendarDate(dueDate),
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

func (e LoanMarkedOverdue) IsEventType() string      { return LoanMarkedOverdueEventType }
func (e LoanMarkedOverdue) HasOccurredAt() time.Time { return e.OccurredAt }
func (e LoanMarkedOverdue) IsErrorEvent() bool       { return false }

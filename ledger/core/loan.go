package core

import (
	"time"
)

// LoanStatus is the lifecycle state of a Loan.
type LoanStatus string

// Loan states. RETURNED is terminal.
const (
	LoanStatusLoaned   LoanStatus = "LOANED"
	LoanStatusReturned LoanStatus = "RETURNED"
	LoanStatusOverdue  LoanStatus = "OVERDUE"
)

// Loan is the projection of one loan from its events.
type Loan struct {
	LoanID         LoanIDString
	BookID         BookIDString
	UserID         UserIDString
	LoanDate       time.Time
	DueDate        time.Time
	Status         LoanStatus
	ExtensionCount int
	ReturnedAt     time.Time // zero unless RETURNED
}

// IsActive reports whether the loan still holds a copy, which is the case unless it was returned.
func (l Loan) IsActive() bool {
	return l.Status != LoanStatusReturned
}

// IsOverdueOn reports whether a LOANED loan is past its due date on the calendar day today.
func (l Loan) IsOverdueOn(today time.Time) bool {
	return l.Status == LoanStatusLoaned && l.DueDate.Before(ToCalendarDate(today))
}

// ProjectLoans replays history and returns all loans in the order they were created.
// Events for unknown loans are ignored, a repeated BookLent for the same LoanID too.
func ProjectLoans(history DomainEvents) []Loan {
	loans := make([]Loan, 0)
	index := make(map[LoanIDString]int)

	for _, event := range history {
		switch e := event.(type) {
		case BookLent:
			if _, exists := index[e.LoanID]; exists {
				continue
			}

			index[e.LoanID] = len(loans)
			loans = append(loans, Loan{
				LoanID:   e.LoanID,
				BookID:   e.BookID,
				UserID:   e.UserID,
				LoanDate: e.LoanDate,
				DueDate:  e.DueDate,
				Status:   LoanStatusLoaned,
			})

		case BookReturned:
			if i, exists := index[e.LoanID]; exists {
				loans[i].Status = LoanStatusReturned
				loans[i].ReturnedAt = e.ReturnedAt
			}

		case LoanExtended:
			if i, exists := index[e.LoanID]; exists && loans[i].Status == LoanStatusLoaned {
				loans[i].DueDate = e.NewDueDate
				loans[i].ExtensionCount++
			}

		case LoanMarkedOverdue:
			if i, exists := index[e.LoanID]; exists && loans[i].Status == LoanStatusLoaned {
				loans[i].Status = LoanStatusOverdue
			}
		}
	}

	return loans
}

// ProjectLoan returns the loan with loanID, or false if history does not contain it.
func ProjectLoan(history DomainEvents, loanID LoanIDString) (Loan, bool) {
	for _, loan := range ProjectLoans(history) {
		if loan.LoanID == loanID {
			return loan, true
		}
	}

	return Loan{}, false
}

// CountActiveLoans counts the loans of userID which are not RETURNED.
func CountActiveLoans(loans []Loan, userID UserIDString) int {
	count := 0

	for _, loan := range loans {
		if loan.UserID == userID && loan.IsActive() {
			count++
		}
	}

	return count
}

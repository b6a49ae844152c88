package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

var day1 = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func Test_ProjectLoans_FollowsLifecycle(t *testing.T) {
	// arrange
	history := core.DomainEvents{
		core.BuildBookLent("l1", "b1", "u1", day1, day1.AddDate(0, 0, 14), day1),
		core.BuildBookLent("l2", "b2", "u1", day1, day1.AddDate(0, 0, 14), day1),
		core.BuildLoanExtended("l1", "b1", "u1", 7, day1.AddDate(0, 0, 21), day1.AddDate(0, 0, 2)),
		core.BuildLoanMarkedOverdue("l2", "b2", "u1", day1.AddDate(0, 0, 14), day1.AddDate(0, 0, 15)),
		core.BuildBookReturned("l1", "b1", "u1", day1.AddDate(0, 0, 16), day1.AddDate(0, 0, 16)),
	}

	// act
	loans := core.ProjectLoans(history)

	// assert
	require.Len(t, loans, 2)
	assert.Equal(t, core.LoanStatusReturned, loans[0].Status)
	assert.Equal(t, 1, loans[0].ExtensionCount)
	assert.Equal(t, day1.AddDate(0, 0, 21), loans[0].DueDate)
	assert.Equal(t, day1.AddDate(0, 0, 16), loans[0].ReturnedAt)
	assert.Equal(t, core.LoanStatusOverdue, loans[1].Status)
	assert.Equal(t, 1, core.CountActiveLoans(loans, "u1"))
}

func Test_ProjectLoans_IgnoresEventsAfterReturn(t *testing.T) {
	history := core.DomainEvents{
		core.BuildBookLent("l1", "b1", "u1", day1, day1.AddDate(0, 0, 14), day1),
		core.BuildBookReturned("l1", "b1", "u1", day1, day1),
		core.BuildLoanMarkedOverdue("l1", "b1", "u1", day1, day1.AddDate(0, 0, 20)),
		core.BuildLoanExtended("l1", "b1", "u1", 14, day1.AddDate(0, 0, 28), day1.AddDate(0, 0, 20)),
	}

	loan, found := core.ProjectLoan(history, "l1")

	require.True(t, found)
	assert.Equal(t, core.LoanStatusReturned, loan.Status)
	assert.Equal(t, 0, loan.ExtensionCount)
}

func Test_Loan_IsOverdueOn(t *testing.T) {
	loan := core.Loan{Status: core.LoanStatusLoaned, DueDate: day1}

	assert.False(t, loan.IsOverdueOn(day1.Add(23*time.Hour)), "due today is not overdue")
	assert.True(t, loan.IsOverdueOn(day1.AddDate(0, 0, 1)))

	loan.Status = core.LoanStatusOverdue
	assert.False(t, loan.IsOverdueOn(day1.AddDate(0, 0, 1)), "only LOANED loans become overdue")
}

func Test_Queue_OrdersByReservationDateThenAppendOrder(t *testing.T) {
	// arrange
	history := core.DomainEvents{
		core.BuildBookReserved("r1", "b1", "u1", day1.Add(2*time.Hour), day1.AddDate(0, 0, 7), day1),
		core.BuildBookReserved("r2", "b1", "u2", day1.Add(time.Hour), day1.AddDate(0, 0, 7), day1),
		core.BuildBookReserved("r3", "b1", "u3", day1.Add(time.Hour), day1.AddDate(0, 0, 7), day1),
		core.BuildBookReserved("r4", "b2", "u4", day1, day1.AddDate(0, 0, 7), day1),
		core.BuildReservationCanceled("r2", "b1", "u2", day1),
		core.BuildBookReserved("r5", "b1", "u5", day1, day1.AddDate(0, 0, 7), day1),
	}

	// act
	queue := core.Queue(core.ProjectReservations(history), "b1")

	// assert
	ids := make([]string, 0, len(queue))
	for _, r := range queue {
		ids = append(ids, r.ReservationID)
	}

	assert.Equal(t, []string{"r5", "r3", "r1"}, ids)
}

func Test_ProjectReservations_TerminalStatesAreImmutable(t *testing.T) {
	history := core.DomainEvents{
		core.BuildBookReserved("r1", "b1", "u1", day1, day1.AddDate(0, 0, 7), day1),
		core.BuildReservationCanceled("r1", "b1", "u1", day1),
		core.BuildReservationCompleted("r1", "b1", "u1", core.CompletedViaLoan, day1),
	}

	reservation, found := core.ProjectReservation(history, "r1")

	require.True(t, found)
	assert.Equal(t, core.ReservationStatusCancelled, reservation.Status)
	assert.Empty(t, reservation.CompletedVia)
}

func Test_Reservation_IsExpiredAt(t *testing.T) {
	reservation := core.Reservation{ExpirationDate: day1.AddDate(0, 0, 7)}

	assert.False(t, reservation.IsExpiredAt(day1.AddDate(0, 0, 7)))
	assert.True(t, reservation.IsExpiredAt(day1.AddDate(0, 0, 7).Add(time.Microsecond)))
}

func Test_FindOpenReservation(t *testing.T) {
	reservations := core.ProjectReservations(core.DomainEvents{
		core.BuildBookReserved("r1", "b1", "u1", day1, day1.AddDate(0, 0, 7), day1),
		core.BuildReservationCompleted("r1", "b1", "u1", core.CompletedDirectly, day1),
		core.BuildBookReserved("r2", "b1", "u1", day1, day1.AddDate(0, 0, 7), day1),
	})

	reservation, found := core.FindOpenReservation(reservations, "u1", "b1")

	require.True(t, found)
	assert.Equal(t, "r2", reservation.ReservationID)
	assert.Equal(t, 1, core.CountOpenReservations(reservations, "u1"))

	_, found = core.FindOpenReservation(reservations, "u2", "b1")
	assert.False(t, found)
}

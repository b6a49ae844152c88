package cancelreservation_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/cancelreservation"
)

var day1 = time.Date(2025, 3, 1, 9, 15, 0, 0, time.UTC)

func Test_Decide_Success(t *testing.T) {
	// arrange
	reservationID := uuid.New()

	// act
	result := cancelreservation.Decide(givenReservation(reservationID), cancelreservation.BuildCommand(reservationID, day1))

	// assert
	require.NoError(t, result.HasError())
	assert.Equal(t, core.BuildReservationCanceled(reservationID.String(), "b1", "u1", day1), result.Event)
}

func Test_Decide_Success_ExpiredReservation(t *testing.T) {
	reservationID := uuid.New()

	result := cancelreservation.Decide(givenReservation(reservationID), cancelreservation.BuildCommand(reservationID, day1.AddDate(0, 1, 0)))

	assert.NoError(t, result.HasError())
}

func Test_Decide_Error_TerminalStates(t *testing.T) {
	reservationID := uuid.New()
	canceled := append(givenReservation(reservationID),
		core.BuildReservationCanceled(reservationID.String(), "b1", "u1", day1),
	)
	completed := append(givenReservation(reservationID),
		core.BuildReservationCompleted(reservationID.String(), "b1", "u1", core.CompletedDirectly, day1),
	)

	for _, history := range []core.DomainEvents{canceled, completed} {
		result := cancelreservation.Decide(history, cancelreservation.BuildCommand(reservationID, day1))

		assert.ErrorIs(t, result.HasError(), core.ErrInvalidReservationStatus)
		assert.ErrorIs(t, result.HasError(), core.ErrInvalidState)
		assert.IsType(t, core.CancelingReservationFailed{}, result.Event)
	}
}

func Test_Decide_Error_ReservationNotFound(t *testing.T) {
	result := cancelreservation.Decide(nil, cancelreservation.BuildCommand(uuid.New(), day1))

	assert.ErrorIs(t, result.HasError(), core.ErrReservationNotFound)
}

func givenReservation(reservationID uuid.UUID) core.DomainEvents {
	return core.DomainEvents{
		core.BuildBookReserved(reservationID.String(), "b1", "u1", day1, day1.AddDate(0, 0, 7), day1),
	}
}

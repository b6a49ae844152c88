package core_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

func Test_SpecificErrors_SatisfyTheirKind(t *testing.T) {
	testCases := []struct {
		err  error
		kind error
	}{
		{core.ErrUserNotFound, core.ErrNotFound},
		{core.ErrBookNotFound, core.ErrNotFound},
		{core.ErrLoanNotFound, core.ErrNotFound},
		{core.ErrReservationNotFound, core.ErrNotFound},
		{core.ErrNoCopiesAvailable, core.ErrConflict},
		{core.ErrBookAvailableForLoan, core.ErrConflict},
		{core.ErrAlreadyReserved, core.ErrConflict},
		{core.ErrBookHasActiveLoans, core.ErrConflict},
		{core.ErrBookHasActiveReservations, core.ErrConflict},
		{core.ErrMaxLoansExceeded, core.ErrLimitExceeded},
		{core.ErrMaxReservationsExceeded, core.ErrLimitExceeded},
		{core.ErrMaxExtensionsExceeded, core.ErrLimitExceeded},
		{core.ErrAlreadyReturned, core.ErrInvalidState},
		{core.ErrLoanNotExtendable, core.ErrInvalidState},
		{core.ErrInvalidReservationStatus, core.ErrInvalidState},
		{core.ErrReservationExpired, core.ErrExpired},
		{core.ErrInvalidDays, core.ErrInvalidInput},
		{core.ErrInvalidDueDate, core.ErrInvalidInput},
	}

	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("LendingBookFailed: %w", tc.err)

			assert.ErrorIs(t, wrapped, tc.err)
			assert.ErrorIs(t, wrapped, tc.kind)
		})
	}
}

func Test_KindOf(t *testing.T) {
	assert.Equal(t, core.KindNone, core.KindOf(nil))
	assert.Equal(t, core.KindLimitExceeded, core.KindOf(fmt.Errorf("x: %w", core.ErrMaxLoansExceeded)))
	assert.Equal(t, core.KindExpired, core.KindOf(core.ErrReservationExpired))
	assert.Equal(t, core.KindTransient, core.KindOf(errors.Join(core.ErrTransient, errors.New("connection reset"))))
	assert.Equal(t, core.KindTransient, core.KindOf(context.DeadlineExceeded))
	assert.Equal(t, core.KindInternal, core.KindOf(errors.New("boom")))
}

func Test_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, core.HTTPStatus(nil))
	assert.Equal(t, http.StatusNotFound, core.HTTPStatus(core.ErrBookNotFound))
	assert.Equal(t, http.StatusConflict, core.HTTPStatus(fmt.Errorf("x: %w", core.ErrAlreadyReserved)))
	assert.Equal(t, http.StatusBadRequest, core.HTTPStatus(core.ErrMaxLoansExceeded))
	assert.Equal(t, http.StatusServiceUnavailable, core.HTTPStatus(errors.Join(core.ErrTransient, errors.New("db down"))))
	assert.Equal(t, http.StatusInternalServerError, core.HTTPStatus(errors.New("boom")))
}

func Test_Policy_Validate(t *testing.T) {
	assert.NoError(t, core.DefaultPolicy().Validate())

	policy := core.DefaultPolicy()
	policy.MaxExtensions = 0

	err := policy.Validate()
	assert.ErrorIs(t, err, core.ErrInvalidPolicy)
	assert.ErrorContains(t, err, "MaxExtensions")
}

package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/testutil/ledgertest"
)

func Test_Generator_Run_KeepsInvariants(t *testing.T) {
	// arrange
	f := ledgertest.NewLedger(t)
	settings := Settings{
		Workers:       8,
		Duration:      300 * time.Millisecond,
		Users:         10,
		Books:         3,
		Copies:        2,
		CheckInterval: 50 * time.Millisecond,
	}
	generator, err := NewGenerator(f.Ledger, settings, ledgertest.NewContextualLoggerSpy())
	require.NoError(t, err)

	// act
	report, err := generator.Run(context.Background())

	// assert
	require.NoError(t, err)
	assert.Empty(t, report.Violations)
	assert.Positive(t, report.Checks)
	assert.NotEmpty(t, report.Outcomes[opCreateLoan])
}

func Test_NewGenerator_RejectsInvalidSettings(t *testing.T) {
	// arrange
	settings := DefaultSettings()
	settings.Workers = 0

	// act
	_, err := NewGenerator(nil, settings, ledgertest.NewContextualLoggerSpy())

	// assert
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func Test_PickOperation_CoversTheWeights(t *testing.T) {
	assert.Equal(t, opCreateLoan, pickOperation(0))
	assert.Equal(t, opReturnLoan, pickOperation(40))
	assert.Equal(t, opExtendLoan, pickOperation(70))
	assert.Equal(t, opCreateReservation, pickOperation(80))
	assert.Equal(t, opCancelReservation, pickOperation(99))
}

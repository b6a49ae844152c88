package registeruser_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/registeruser"
)

func Test_Decide_Success(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	result := registeruser.Decide(nil, registeruser.BuildCommand(userID, "Ada", now))

	assert.Equal(t, core.BuildUserRegistered(userID.String(), "Ada", now), result.Event)
}

func Test_Decide_Idempotent_WhenAlreadyRegistered(t *testing.T) {
	userID := uuid.New()
	now := time.Now()
	history := core.DomainEvents{core.BuildUserRegistered(userID.String(), "Ada", now.Add(-time.Hour))}

	result := registeruser.Decide(history, registeruser.BuildCommand(userID, "Ada Lovelace", now))

	assert.True(t, result.IsIdempotent())
}

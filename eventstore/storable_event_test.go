package eventstore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
)

func Test_BuildStorableEvent_ErrorCases(t *testing.T) {
	validTime := time.Now()

	tests := []struct {
		name         string
		eventType    string
		payloadJSON  []byte
		metadataJSON []byte
		expectedErr  error
	}{
		{"empty event type", "", []byte(`{}`), []byte(`{}`), eventstore.ErrEmptyEventType},
		{"invalid payload JSON", "BookLent", []byte(`{"invalid": json}`), []byte(`{}`), eventstore.ErrInvalidPayloadJSON},
		{"invalid metadata JSON", "BookLent", []byte(`{}`), []byte(`{`), eventstore.ErrInvalidMetadataJSON},
		{"empty payload", "BookLent", []byte(``), []byte(`{}`), eventstore.ErrInvalidPayloadJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eventstore.BuildStorableEvent(tt.eventType, validTime, tt.payloadJSON, tt.metadataJSON)

			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func Test_BuildStorableEventWithEmptyMetadata(t *testing.T) {
	// act
	event, err := eventstore.BuildStorableEventWithEmptyMetadata("BookLent", time.Now(), []byte(`{"BookID":"b1"}`))

	// assert
	require.NoError(t, err)
	assert.Equal(t, "BookLent", event.EventType)
	assert.JSONEq(t, `{}`, string(event.MetadataJSON))
}

func Test_StorableEvent_PayloadValue(t *testing.T) {
	// arrange
	event, err := eventstore.BuildStorableEventWithEmptyMetadata(
		"BookRegistered",
		time.Now(),
		[]byte(`{"BookID":"b1","Copies":3}`),
	)
	require.NoError(t, err)

	// act / assert
	assert.Equal(t, "b1", event.PayloadValue("BookID"))
	assert.Equal(t, "3", event.PayloadValue("Copies"))
	assert.Equal(t, "", event.PayloadValue("Missing"))
}

func Test_ConsistencyLevel_DefaultsToStrong(t *testing.T) {
	ctx := t.Context()

	assert.Equal(t, eventstore.StrongConsistency, eventstore.GetConsistencyLevel(ctx))
	assert.Equal(t, eventstore.EventualConsistency, eventstore.GetConsistencyLevel(eventstore.WithEventualConsistency(ctx)))
	assert.Equal(t, "eventual", eventstore.EventualConsistency.String())
}

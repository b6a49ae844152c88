package postgresengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/AntonStoeckl/lending-ledger/eventstore/postgresengine/internal/adapters"
)

// CreateSchema creates the events table and its indexes if they do not exist.
func (es *EventStore) CreateSchema(ctx context.Context) error {
	table := es.eventTableName

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
			%s BIGSERIAL PRIMARY KEY,
			%s TIMESTAMP WITH TIME ZONE NOT NULL,
			%s TEXT NOT NULL,
			%s JSONB NOT NULL,
			%s JSONB NOT NULL
		)`, table, colSequenceNumber, colOccurredAt, colEventType, colPayload, colMetadata),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q (%s)`, table+"_event_type_idx", table, colEventType),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q USING GIN (%s jsonb_path_ops)`, table+"_payload_idx", table, colPayload),
	}

	err := es.db.InTx(ctx, func(tx adapters.DBTx) error {
		for _, stmt := range statements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return errors.Join(ErrCreatingSchemaFailed, err)
	}

	return nil
}

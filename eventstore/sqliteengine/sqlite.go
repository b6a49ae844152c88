package sqliteengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // driver registration

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/eventstore/internal/observe"
	"github.com/AntonStoeckl/lending-ledger/eventstore/internal/sqlfilter"
)

const (
	engineName            = "sqlite"
	driverName            = "sqlite"
	dialectSQLite         = "sqlite3"
	defaultEventTableName = "events"
	colSequenceNumber     = "sequence_number"
	colEventType          = "event_type"
	colOccurredAt         = "occurred_at"
	colPayload            = "payload"
	colMetadata           = "metadata"
	jsonExtractPredicate  = "json_extract(" + colPayload + ", ?) = ?"
	dsnPragmas            = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

	logMsgBuildQueryFailed = "failed to build sql query"
	logMsgQueryFailed      = "database query execution failed"
	logMsgScanFailed       = "failed to scan database row"
	logMsgBuildEventFailed = "failed to build storable event from database row"
	logMsgTxFailed         = "database transaction failed during event append"
	logMsgCloseRowsFailed  = "failed to close database rows"
	logMsgRollbackFailed   = "failed to roll back transaction"
)

// EventStore is the SQLite implementation of eventstore.EventStore.
type EventStore struct {
	db             *sqlx.DB
	eventTableName string
	observer       *observe.Observer
	ownsDB         bool
}

// Open opens (or creates) the SQLite database file at path, creates the schema if needed
// and returns an EventStore which owns the connection.
func Open(ctx context.Context, path string, options ...Option) (*EventStore, error) {
	db, err := sqlx.Open(driverName, "file:"+path+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	es, err := NewEventStoreFromSQLX(db, options...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	es.ownsDB = true

	if err := es.CreateSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return es, nil
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with optional configuration.
// The pool is limited to one open connection.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	db.SetMaxOpenConns(1)

	es := &EventStore{
		db:             db,
		eventTableName: defaultEventTableName,
		observer:       &observe.Observer{Engine: engineName},
	}

	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}

	return es, nil
}

// CreateSchema creates the events table and its indexes if they do not exist.
func (es *EventStore) CreateSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
			%s INTEGER PRIMARY KEY AUTOINCREMENT,
			%s TEXT NOT NULL,
			%s TEXT NOT NULL,
			%s TEXT NOT NULL,
			%s TEXT NOT NULL
		)`, es.eventTableName, colSequenceNumber, colEventType, colOccurredAt, colPayload, colMetadata),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q (%s)`,
			es.eventTableName+"_event_type_idx", es.eventTableName, colEventType),
	}

	for _, stmt := range statements {
		if _, err := es.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create sqlite schema: %w", err)
		}
	}

	return nil
}

// Close closes the database if it was opened by Open.
func (es *EventStore) Close() error {
	if !es.ownsDB {
		return nil
	}

	return es.db.Close()
}

// Query retrieves the events matching the filter in append order,
// together with the max sequence number of this "dynamic event stream".
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	ctx, op := es.observer.StartQuery(ctx, filter)

	sqlQuery, args, buildErr := es.buildSelectQuery(filter)
	if buildErr != nil {
		op.Failed(logMsgBuildQueryFailed, observe.ErrorTypeBuildQuery, buildErr)
		return nil, 0, buildErr
	}

	start := time.Now()
	rows, queryErr := es.db.QueryxContext(ctx, sqlQuery, args...)
	op.SQL(sqlQuery, time.Since(start))

	if queryErr != nil {
		op.Failed(logMsgQueryFailed, observe.ErrorTypeDatabase, queryErr, observe.AttrQuery, sqlQuery)
		return nil, 0, errors.Join(eventstore.ErrQueryingEventsFailed, queryErr)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			op.Warn(logMsgCloseRowsFailed, observe.AttrError, closeErr.Error())
		}
	}()

	eventStream := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for rows.Next() {
		var row eventRow

		if scanErr := rows.StructScan(&row); scanErr != nil {
			op.Failed(logMsgScanFailed, observe.ErrorTypeScan, scanErr)
			return nil, 0, errors.Join(eventstore.ErrScanningDBRowFailed, scanErr)
		}

		event, buildEventErr := row.toStorableEvent()
		if buildEventErr != nil {
			op.Failed(logMsgBuildEventFailed, observe.ErrorTypeBuildEvent, buildEventErr, observe.AttrEventType, row.EventType)
			return nil, 0, errors.Join(eventstore.ErrScanningDBRowFailed, buildEventErr)
		}

		eventStream = append(eventStream, event)
		maxSequenceNumber = row.SequenceNumber
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		op.Failed(logMsgQueryFailed, observe.ErrorTypeDatabase, rowsErr)
		return nil, 0, errors.Join(eventstore.ErrQueryingEventsFailed, rowsErr)
	}

	op.QuerySucceeded(len(eventStream), maxSequenceNumber)

	return eventStream, maxSequenceNumber, nil
}

// Append appends the events if the max sequence number of the events matching the filter
// still equals expectedMaxSequenceNumber, otherwise it returns eventstore.ErrConcurrencyConflict.
func (es *EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	storableEvents ...eventstore.StorableEvent,
) error {

	ctx, op := es.observer.StartAppend(ctx, storableEvents, expectedMaxSequenceNumber)

	if len(storableEvents) == 0 {
		op.Failed(logMsgBuildQueryFailed, observe.ErrorTypeBuildQuery, eventstore.ErrNoEventsToAppend)
		return eventstore.ErrNoEventsToAppend
	}

	maxSeqQuery, maxSeqArgs, buildErr := es.buildMaxSequenceQuery(filter)
	if buildErr != nil {
		op.Failed(logMsgBuildQueryFailed, observe.ErrorTypeBuildQuery, buildErr)
		return buildErr
	}

	insertQuery, insertArgs, buildErr := es.buildInsertQuery(storableEvents)
	if buildErr != nil {
		op.Failed(logMsgBuildQueryFailed, observe.ErrorTypeBuildQuery, buildErr)
		return buildErr
	}

	tx, txErr := es.db.BeginTxx(ctx, nil)
	if txErr != nil {
		op.Failed(logMsgTxFailed, observe.ErrorTypeTransaction, txErr)
		return errors.Join(eventstore.ErrAppendingEventFailed, txErr)
	}

	rollback := func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			op.Warn(logMsgRollbackFailed, observe.AttrError, rbErr.Error())
		}
	}

	var actualMaxSequenceNumber eventstore.MaxSequenceNumberUint

	start := time.Now()
	err := tx.GetContext(ctx, &actualMaxSequenceNumber, maxSeqQuery, maxSeqArgs...)
	op.SQL(maxSeqQuery, time.Since(start))

	if err != nil {
		rollback()
		op.Failed(logMsgTxFailed, observe.ErrorTypeDatabase, err, observe.AttrQuery, maxSeqQuery)
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	if actualMaxSequenceNumber != expectedMaxSequenceNumber {
		rollback()
		op.Conflict(expectedMaxSequenceNumber, observe.AttrMaxSequence, actualMaxSequenceNumber)
		return eventstore.ErrConcurrencyConflict
	}

	start = time.Now()
	_, err = tx.ExecContext(ctx, insertQuery, insertArgs...)
	op.SQL(insertQuery, time.Since(start))

	if err != nil {
		rollback()
		op.Failed(logMsgTxFailed, observe.ErrorTypeDatabase, err, observe.AttrQuery, insertQuery)
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	if err = tx.Commit(); err != nil {
		op.Failed(logMsgTxFailed, observe.ErrorTypeTransaction, err)
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	op.AppendSucceeded(len(storableEvents))

	return nil
}

func (es *EventStore) buildSelectQuery(filter eventstore.Filter) (string, []any, error) {
	selectStmt := goqu.Dialect(dialectSQLite).
		From(es.eventTableName).
		Prepared(true).
		Select(colEventType, colOccurredAt, colPayload, colMetadata, colSequenceNumber).
		Order(goqu.I(colSequenceNumber).Asc())

	return es.toSQL(filter, selectStmt)
}

func (es *EventStore) buildMaxSequenceQuery(filter eventstore.Filter) (string, []any, error) {
	selectStmt := goqu.Dialect(dialectSQLite).
		From(es.eventTableName).
		Prepared(true).
		Select(goqu.COALESCE(goqu.MAX(colSequenceNumber), 0))

	return es.toSQL(filter, selectStmt)
}

func (es *EventStore) toSQL(filter eventstore.Filter, selectStmt *goqu.SelectDataset) (string, []any, error) {
	where, whereErr := sqlfilter.Where(filter, jsonExtract)
	if whereErr != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, whereErr)
	}

	if where != nil {
		selectStmt = selectStmt.Where(where)
	}

	sqlQuery, args, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, args, nil
}

func (es *EventStore) buildInsertQuery(events eventstore.StorableEvents) (string, []any, error) {
	rows := make([]any, 0, len(events))

	for _, event := range events {
		rows = append(rows, goqu.Record{
			colEventType:  event.EventType,
			colOccurredAt: event.OccurredAt.UTC().Format(time.RFC3339Nano),
			colPayload:    string(event.PayloadJSON),
			colMetadata:   string(event.MetadataJSON),
		})
	}

	sqlQuery, args, toSQLErr := goqu.Dialect(dialectSQLite).
		Insert(es.eventTableName).
		Prepared(true).
		Rows(rows...).
		ToSQL()

	if toSQLErr != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, args, nil
}

func jsonExtract(predicate eventstore.FilterPredicate) (exp.Expression, error) {
	return goqu.L(jsonExtractPredicate, "$."+predicate.Key(), predicate.Val()), nil
}

type eventRow struct {
	EventType      string                           `db:"event_type"`
	OccurredAt     string                           `db:"occurred_at"`
	Payload        string                           `db:"payload"`
	Metadata       string                           `db:"metadata"`
	SequenceNumber eventstore.MaxSequenceNumberUint `db:"sequence_number"`
}

func (r eventRow) toStorableEvent() (eventstore.StorableEvent, error) {
	occurredAt, err := time.Parse(time.RFC3339Nano, r.OccurredAt)
	if err != nil {
		return eventstore.StorableEvent{}, err
	}

	return eventstore.BuildStorableEvent(r.EventType, occurredAt, []byte(r.Payload), []byte(r.Metadata))
}

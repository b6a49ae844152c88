package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/eventstore/internal/observe"
	"github.com/AntonStoeckl/lending-ledger/eventstore/internal/sqlfilter"
	"github.com/AntonStoeckl/lending-ledger/eventstore/postgresengine/internal/adapters"
)

var ErrCreatingSchemaFailed = errors.New("creating the events schema failed")
var ErrAcquiringLocksFailed = errors.New("acquiring advisory locks failed")

const (
	engineName            = "postgres"
	defaultEventTableName = "events"
	dialectPostgres       = "postgres"
	colEventType          = "event_type"
	colOccurredAt         = "occurred_at"
	colPayload            = "payload"
	colMetadata           = "metadata"
	colSequenceNumber     = "sequence_number"
	cteContext            = "context"
	cteVals               = "vals"
	aliasMaxSeq           = "max_seq"
	castText              = "?::text"
	castTimestamp         = "?::timestamp with time zone"
	castJsonb             = "?::jsonb"
	containsPredicate     = colPayload + " @> ?::jsonb"
	globalLockKey         = "*"
	exclusiveLockSQL      = "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))"
	sharedLockSQL         = "SELECT pg_advisory_xact_lock_shared(hashtextextended($1, 0))"

	logMsgBuildQueryFailed = "failed to build sql query"
	logMsgQueryFailed      = "database query execution failed"
	logMsgScanFailed       = "failed to scan database row"
	logMsgBuildEventFailed = "failed to build storable event from database row"
	logMsgAppendFailed     = "database transaction failed during event append"
	logMsgCloseRowsFailed  = "failed to close database rows"
	logAttrReplica         = "replica"
	logAttrLockKeys        = "lock_keys"
)

var errAppendRejected = errors.New("append rejected by the sequence number check")

// EventStore is the PostgreSQL implementation of eventstore.EventStore.
type EventStore struct {
	db             adapters.DBAdapter
	eventTableName string
	lockFields     []string
	observer       *observe.Observer
}

// NewEventStoreFromPGXPool creates a new EventStore using a pgx Pool with optional configuration.
func NewEventStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapter(db), options...)
}

// NewEventStoreFromPGXPoolAndReplica creates a new EventStore which reads from replica for eventual consistency.
func NewEventStoreFromPGXPoolAndReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*EventStore, error) {
	if db == nil || replica == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewEventStoreFromSQLDB creates a new EventStore using a sql.DB with optional configuration.
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapter(db), options...)
}

// NewEventStoreFromSQLDBAndReplica creates a new EventStore which reads from replica for eventual consistency.
func NewEventStoreFromSQLDBAndReplica(db *sql.DB, replica *sql.DB, options ...Option) (*EventStore, error) {
	if db == nil || replica == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapterWithReplica(db, replica), options...)
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with optional configuration.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapter(db), options...)
}

// NewEventStoreFromSQLXAndReplica creates a new EventStore which reads from replica for eventual consistency.
func NewEventStoreFromSQLXAndReplica(db *sqlx.DB, replica *sqlx.DB, options ...Option) (*EventStore, error) {
	if db == nil || replica == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapterWithReplica(db, replica), options...)
}

func newEventStore(db adapters.DBAdapter, options ...Option) (*EventStore, error) {
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
	rows, queryErr := es.db.Query(ctx, sqlQuery, args...)
	op.SQL(sqlQuery, time.Since(start))

	if queryErr != nil {
		op.Failed(logMsgQueryFailed, observe.ErrorTypeDatabase, queryErr,
			observe.AttrQuery, sqlQuery, logAttrReplica, es.db.UsesReplica(ctx))
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
		var row queryResultRow

		if scanErr := rows.Scan(&row.eventType, &row.occurredAt, &row.payload, &row.metadata, &row.sequenceNumber); scanErr != nil {
			op.Failed(logMsgScanFailed, observe.ErrorTypeScan, scanErr)
			return nil, 0, errors.Join(eventstore.ErrScanningDBRowFailed, scanErr)
		}

		event, buildEventErr := eventstore.BuildStorableEvent(row.eventType, row.occurredAt, row.payload, row.metadata)
		if buildEventErr != nil {
			op.Failed(logMsgBuildEventFailed, observe.ErrorTypeBuildEvent, buildEventErr, observe.AttrEventType, row.eventType)
			return nil, 0, errors.Join(eventstore.ErrScanningDBRowFailed, buildEventErr)
		}

		eventStream = append(eventStream, event)
		maxSequenceNumber = eventstore.MaxSequenceNumberUint(row.sequenceNumber)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		op.Failed(logMsgQueryFailed, observe.ErrorTypeDatabase, rowsErr)
		return nil, 0, errors.Join(eventstore.ErrQueryingEventsFailed, rowsErr)
	}

	op.QuerySucceeded(len(eventStream), maxSequenceNumber)

	return eventStream, maxSequenceNumber, nil
}

type queryResultRow struct {
	eventType      string
	occurredAt     time.Time
	payload        []byte
	metadata       []byte
	sequenceNumber int64
}

// Append appends the events if the max sequence number of the events matching the filter
// still equals expectedMaxSequenceNumber, otherwise it returns eventstore.ErrConcurrencyConflict.
//
// The filter must be the one used for the Query the decision was based on.
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

	insertQuery, insertArgs, buildErr := es.buildInsertQuery(storableEvents, filter, expectedMaxSequenceNumber)
	if buildErr != nil {
		op.Failed(logMsgBuildQueryFailed, observe.ErrorTypeBuildQuery, buildErr)
		return buildErr
	}

	lockKeys := es.LockKeys(filter, storableEvents)
	exclusiveGlobal := len(filter.Items()) == 0 || slices.ContainsFunc(filter.Items(), func(item eventstore.FilterItem) bool {
		return len(item.Predicates()) == 0
	})

	txErr := es.db.InTx(ctx, func(tx adapters.DBTx) error {
		if err := es.acquireLocks(ctx, op, tx, exclusiveGlobal, lockKeys); err != nil {
			return errors.Join(ErrAcquiringLocksFailed, err)
		}

		start := time.Now()
		result, err := tx.Exec(ctx, insertQuery, insertArgs...)
		op.SQL(insertQuery, time.Since(start))

		if err != nil {
			return err
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}

		if rowsAffected < int64(len(storableEvents)) {
			return errAppendRejected
		}

		return nil
	})

	switch {
	case errors.Is(txErr, errAppendRejected):
		op.Conflict(expectedMaxSequenceNumber, logAttrLockKeys, len(lockKeys))
		return eventstore.ErrConcurrencyConflict

	case txErr != nil:
		op.Failed(logMsgAppendFailed, observe.ErrorTypeTransaction, txErr)
		return errors.Join(eventstore.ErrAppendingEventFailed, txErr)
	}

	op.AppendSucceeded(len(storableEvents))

	return nil
}

// LockKeys returns the sorted identities an Append with this filter and these events locks.
func (es *EventStore) LockKeys(filter eventstore.Filter, events eventstore.StorableEvents) []string {
	keys := make([]string, 0)

	for _, predicate := range filter.Predicates() {
		keys = append(keys, predicate.String())
	}

	for _, event := range events {
		for _, field := range es.lockFields {
			if val := event.PayloadValue(field); val != "" {
				keys = append(keys, eventstore.P(field, val).String())
			}
		}
	}

	slices.Sort(keys)

	return slices.Compact(keys)
}

func (es *EventStore) acquireLocks(
	ctx context.Context,
	op *observe.Operation,
	tx adapters.DBTx,
	exclusiveGlobal bool,
	keys []string,
) error {

	globalLockSQL := sharedLockSQL
	if exclusiveGlobal {
		globalLockSQL = exclusiveLockSQL
	}

	start := time.Now()
	if _, err := tx.Exec(ctx, globalLockSQL, es.eventTableName+":"+globalLockKey); err != nil {
		return err
	}

	if exclusiveGlobal {
		op.SQL(globalLockSQL, time.Since(start))
		return nil
	}

	for _, key := range keys {
		if _, err := tx.Exec(ctx, exclusiveLockSQL, es.eventTableName+":"+key); err != nil {
			return err
		}
	}

	op.SQL(fmt.Sprintf("%s x%d", exclusiveLockSQL, len(keys)), time.Since(start))

	return nil
}

func (es *EventStore) buildSelectQuery(filter eventstore.Filter) (string, []any, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Prepared(true).
		Select(colEventType, colOccurredAt, colPayload, colMetadata, colSequenceNumber).
		Order(goqu.I(colSequenceNumber).Asc())

	selectStmt, err := es.addWhereClause(filter, selectStmt)
	if err != nil {
		return "", nil, err
	}

	sqlQuery, args, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, args, nil
}

// buildInsertQuery builds one statement which inserts all events only if
// the max sequence number of the filter equals expectedMaxSequenceNumber.
func (es *EventStore) buildInsertQuery(
	events eventstore.StorableEvents,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (string, []any, error) {

	builder := goqu.Dialect(dialectPostgres)

	cteStmt := builder.
		From(es.eventTableName).
		Prepared(true).
		Select(goqu.MAX(colSequenceNumber).As(aliasMaxSeq))

	cteStmt, err := es.addWhereClause(filter, cteStmt)
	if err != nil {
		return "", nil, err
	}

	var valuesStmt *goqu.SelectDataset

	for _, event := range events {
		eventStmt := builder.Select(
			goqu.L(castText, event.EventType).As(colEventType),
			goqu.L(castTimestamp, event.OccurredAt.UTC()).As(colOccurredAt),
			goqu.L(castJsonb, string(event.PayloadJSON)).As(colPayload),
			goqu.L(castJsonb, string(event.MetadataJSON)).As(colMetadata),
		).Prepared(true)

		if valuesStmt == nil {
			valuesStmt = eventStmt
			continue
		}

		valuesStmt = valuesStmt.UnionAll(eventStmt)
	}

	insertStmt := builder.
		Insert(es.eventTableName).
		Prepared(true).
		Cols(colEventType, colOccurredAt, colPayload, colMetadata).
		With(cteContext, cteStmt).
		With(cteVals, valuesStmt).
		FromQuery(
			builder.From(cteContext, cteVals).
				Prepared(true).
				Select(
					cteVals+"."+colEventType,
					cteVals+"."+colOccurredAt,
					cteVals+"."+colPayload,
					cteVals+"."+colMetadata,
				).
				Where(goqu.COALESCE(goqu.C(aliasMaxSeq), 0).Eq(goqu.V(int64(expectedMaxSequenceNumber)))),
		)

	sqlQuery, args, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, args, nil
}

func (es *EventStore) addWhereClause(filter eventstore.Filter, selectStmt *goqu.SelectDataset) (*goqu.SelectDataset, error) {
	where, err := sqlfilter.Where(filter, jsonbContains)
	if err != nil {
		return nil, errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	if where == nil {
		return selectStmt, nil
	}

	return selectStmt.Where(where), nil
}

func jsonbContains(predicate eventstore.FilterPredicate) (exp.Expression, error) {
	containment, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(
		map[string]string{predicate.Key(): predicate.Val()},
	)
	if err != nil {
		return nil, err
	}

	return goqu.L(containsPredicate, string(containment)), nil
}

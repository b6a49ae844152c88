package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
	"github.com/AntonStoeckl/lending-ledger/eventstore/memoryengine"
	"github.com/AntonStoeckl/lending-ledger/eventstore/postgresengine"
	"github.com/AntonStoeckl/lending-ledger/eventstore/sqliteengine"
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
)

// Observability holds the optional adapters handed to the engine.
type Observability struct {
	Logger           eventstore.Logger
	ContextualLogger eventstore.ContextualLogger
	MetricsCollector eventstore.MetricsCollector
	TracingCollector eventstore.TracingCollector
}

// OpenedEngine is a running event store and the connections it holds.
type OpenedEngine struct {
	EventStore shell.EventStore
	Name       Engine
	closers    []func() error
}

// Close releases the connections of the engine.
func (e *OpenedEngine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}

	return errors.Join(errs...)
}

// OpenEngine opens the engine selected by the Config. PostgreSQL schemas are created if missing.
func (c Config) OpenEngine(ctx context.Context, obs Observability) (*OpenedEngine, error) {
	switch c.Engine {
	case EngineMemory:
		es, err := memoryengine.NewEventStore(memoryOptions(obs)...)
		if err != nil {
			return nil, err
		}

		return &OpenedEngine{EventStore: es, Name: EngineMemory}, nil

	case EngineSQLite:
		es, err := sqliteengine.Open(ctx, c.SQLitePath, sqliteOptions(obs)...)
		if err != nil {
			return nil, err
		}

		return &OpenedEngine{EventStore: es, Name: EngineSQLite, closers: []func() error{es.Close}}, nil

	case EnginePostgres:
		return c.openPostgres(ctx, obs)

	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrInvalidConfig, c.Engine)
	}
}

func (c Config) openPostgres(ctx context.Context, obs Observability) (*OpenedEngine, error) {
	engine := &OpenedEngine{Name: EnginePostgres}
	options := postgresOptions(obs)

	var (
		es  *postgresengine.EventStore
		err error
	)

	switch c.PostgresAdapter {
	case AdapterSQL:
		es, err = c.openPostgresSQLDB(ctx, engine, options)
	case AdapterSQLX:
		es, err = c.openPostgresSQLX(ctx, engine, options)
	default:
		es, err = c.openPostgresPGX(ctx, engine, options)
	}

	if err == nil {
		err = es.CreateSchema(ctx)
	}

	if err != nil {
		_ = engine.Close()
		return nil, err
	}

	engine.EventStore = es

	return engine, nil
}

func (c Config) openPostgresPGX(
	ctx context.Context,
	engine *OpenedEngine,
	options []postgresengine.Option,
) (*postgresengine.EventStore, error) {

	primary, err := c.openPGXPool(ctx, c.PostgresDSN)
	if err != nil {
		return nil, err
	}
	engine.closers = append(engine.closers, closePool(primary))

	if c.PostgresReplicaDSN == "" {
		return postgresengine.NewEventStoreFromPGXPool(primary, options...)
	}

	replica, err := c.openPGXPool(ctx, c.PostgresReplicaDSN)
	if err != nil {
		return nil, err
	}
	engine.closers = append(engine.closers, closePool(replica))

	return postgresengine.NewEventStoreFromPGXPoolAndReplica(primary, replica, options...)
}

func (c Config) openPostgresSQLDB(
	ctx context.Context,
	engine *OpenedEngine,
	options []postgresengine.Option,
) (*postgresengine.EventStore, error) {

	primary, err := c.openSQLDB(ctx, c.PostgresDSN)
	if err != nil {
		return nil, err
	}
	engine.closers = append(engine.closers, primary.Close)

	if c.PostgresReplicaDSN == "" {
		return postgresengine.NewEventStoreFromSQLDB(primary, options...)
	}

	var replica *sql.DB
	if replica, err = c.openSQLDB(ctx, c.PostgresReplicaDSN); err != nil {
		return nil, err
	}
	engine.closers = append(engine.closers, replica.Close)

	return postgresengine.NewEventStoreFromSQLDBAndReplica(primary, replica, options...)
}

func (c Config) openPostgresSQLX(
	ctx context.Context,
	engine *OpenedEngine,
	options []postgresengine.Option,
) (*postgresengine.EventStore, error) {

	primary, err := c.openSQLX(ctx, c.PostgresDSN)
	if err != nil {
		return nil, err
	}
	engine.closers = append(engine.closers, primary.Close)

	if c.PostgresReplicaDSN == "" {
		return postgresengine.NewEventStoreFromSQLX(primary, options...)
	}

	var replica *sqlx.DB
	if replica, err = c.openSQLX(ctx, c.PostgresReplicaDSN); err != nil {
		return nil, err
	}
	engine.closers = append(engine.closers, replica.Close)

	return postgresengine.NewEventStoreFromSQLXAndReplica(primary, replica, options...)
}

func closePool(pool *pgxpool.Pool) func() error {
	return func() error {
		pool.Close()
		return nil
	}
}

func memoryOptions(obs Observability) []memoryengine.Option {
	var options []memoryengine.Option
	if obs.Logger != nil {
		options = append(options, memoryengine.WithLogger(obs.Logger))
	}
	if obs.ContextualLogger != nil {
		options = append(options, memoryengine.WithContextualLogger(obs.ContextualLogger))
	}
	if obs.MetricsCollector != nil {
		options = append(options, memoryengine.WithMetrics(obs.MetricsCollector))
	}
	if obs.TracingCollector != nil {
		options = append(options, memoryengine.WithTracing(obs.TracingCollector))
	}

	return options
}

func sqliteOptions(obs Observability) []sqliteengine.Option {
	var options []sqliteengine.Option
	if obs.Logger != nil {
		options = append(options, sqliteengine.WithLogger(obs.Logger))
	}
	if obs.ContextualLogger != nil {
		options = append(options, sqliteengine.WithContextualLogger(obs.ContextualLogger))
	}
	if obs.MetricsCollector != nil {
		options = append(options, sqliteengine.WithMetrics(obs.MetricsCollector))
	}
	if obs.TracingCollector != nil {
		options = append(options, sqliteengine.WithTracing(obs.TracingCollector))
	}

	return options
}

func postgresOptions(obs Observability) []postgresengine.Option {
	options := []postgresengine.Option{postgresengine.WithLockFields(core.IdentityKeys()...)}
	if obs.Logger != nil {
		options = append(options, postgresengine.WithLogger(obs.Logger))
	}
	if obs.ContextualLogger != nil {
		options = append(options, postgresengine.WithContextualLogger(obs.ContextualLogger))
	}
	if obs.MetricsCollector != nil {
		options = append(options, postgresengine.WithMetrics(obs.MetricsCollector))
	}
	if obs.TracingCollector != nil {
		options = append(options, postgresengine.WithTracing(obs.TracingCollector))
	}

	return options
}

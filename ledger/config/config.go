package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
	"github.com/AntonStoeckl/lending-ledger/ledger/fulfillment"
	"github.com/AntonStoeckl/lending-ledger/ledger/sweep"
)

// Engine selects the event store implementation.
type Engine string

// Supported engines.
const (
	EngineMemory   Engine = "memory"
	EngineSQLite   Engine = "sqlite"
	EnginePostgres Engine = "postgres"
)

// PostgresAdapter selects the database driver used by the PostgreSQL engine.
type PostgresAdapter string

// Supported PostgreSQL adapters.
const (
	AdapterPGX  PostgresAdapter = "pgx"
	AdapterSQL  PostgresAdapter = "sql"
	AdapterSQLX PostgresAdapter = "sqlx"
)

// Environment variables read by Load.
const (
	EnvEngine                     = "LEDGER_ENGINE"
	EnvSQLitePath                 = "LEDGER_SQLITE_PATH"
	EnvPostgresDSN                = "LEDGER_POSTGRES_DSN"
	EnvPostgresReplicaDSN         = "LEDGER_POSTGRES_REPLICA_DSN"
	EnvPostgresAdapter            = "LEDGER_POSTGRES_ADAPTER"
	EnvPostgresMaxConns           = "LEDGER_POSTGRES_MAX_CONNS"
	EnvPostgresMinConns           = "LEDGER_POSTGRES_MIN_CONNS"
	EnvSweepAt                    = "LEDGER_SWEEP_AT"
	EnvTimezone                   = "LEDGER_TIMEZONE"
	EnvNotificationBuffer         = "LEDGER_NOTIFICATION_BUFFER"
	EnvMetricsAddr                = "LEDGER_METRICS_ADDR"
	EnvLogLevel                   = "LEDGER_LOG_LEVEL"
	EnvOTLPEndpoint               = "LEDGER_OTLP_ENDPOINT"
	EnvOTLPInsecure               = "LEDGER_OTLP_INSECURE"
	EnvDefaultLoanPeriodDays      = "LEDGER_DEFAULT_LOAN_PERIOD_DAYS"
	EnvMaxBooksPerUser            = "LEDGER_MAX_BOOKS_PER_USER"
	EnvMaxExtensions              = "LEDGER_MAX_EXTENSIONS"
	EnvDefaultExtensionPeriodDays = "LEDGER_DEFAULT_EXTENSION_PERIOD_DAYS"
	EnvMaxReservationsPerUser     = "LEDGER_MAX_RESERVATIONS_PER_USER"
	EnvReservationExpiryDays      = "LEDGER_RESERVATION_EXPIRY_DAYS"
)

// DefaultEnvFile is the .env file Load reads when it exists.
const DefaultEnvFile = ".env"

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrInvalidEnvValue is returned when an environment variable cannot be parsed.
	ErrInvalidEnvValue = errors.New("invalid environment value")
)

// Config is the complete process configuration.
type Config struct {
	Policy core.Policy

	Engine             Engine
	SQLitePath         string
	PostgresDSN        string
	PostgresReplicaDSN string
	PostgresAdapter    PostgresAdapter
	PostgresMaxConns   int32
	PostgresMinConns   int32

	SweepAt  sweep.TimeOfDay
	Timezone string

	NotificationBufferSize int
	MetricsAddr            string
	LogLevel               slog.Level

	OTLPEndpoint string
	OTLPInsecure bool
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Policy:                 core.DefaultPolicy(),
		Engine:                 EngineMemory,
		SQLitePath:             "ledger.db",
		PostgresAdapter:        AdapterPGX,
		PostgresMaxConns:       8,
		PostgresMinConns:       2,
		SweepAt:                sweep.TimeOfDay{Hour: 2, Minute: 0},
		Timezone:               "UTC",
		NotificationBufferSize: fulfillment.DefaultBufferSize,
		MetricsAddr:            ":9090",
		LogLevel:               slog.LevelInfo,
	}
}

// Load reads envFile (if it exists) into the process environment, then builds the Config from the
// environment and the command line args.
func Load(envFile string, args []string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	return LoadFrom(os.LookupEnv, args)
}

// LoadFrom builds the Config from lookup and the command line args.
func LoadFrom(lookup func(key string) (string, bool), args []string) (Config, error) {
	cfg := Default()

	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.applyFlags(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Location returns the time zone the sweep schedule is evaluated in.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Validate reports every problem of the Config at once.
func (c Config) Validate() error {
	var errs []error

	if err := c.Policy.Validate(); err != nil {
		errs = append(errs, err)
	}

	switch c.Engine {
	case EngineMemory:
	case EngineSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, fmt.Errorf("%s must be set for the sqlite engine", EnvSQLitePath))
		}
	case EnginePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("%s must be set for the postgres engine", EnvPostgresDSN))
		}
		switch c.PostgresAdapter {
		case AdapterPGX, AdapterSQL, AdapterSQLX:
		default:
			errs = append(errs, fmt.Errorf("unknown postgres adapter %q", c.PostgresAdapter))
		}
		if c.PostgresMinConns < 0 || c.PostgresMaxConns < 1 || c.PostgresMinConns > c.PostgresMaxConns {
			errs = append(errs, fmt.Errorf("postgres connections must satisfy 0 <= min <= max, max >= 1, got min=%d max=%d",
				c.PostgresMinConns, c.PostgresMaxConns))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown engine %q", c.Engine))
	}

	if c.NotificationBufferSize < 1 {
		errs = append(errs, fmt.Errorf("notification buffer size must be positive, got %d", c.NotificationBufferSize))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}

	return nil
}

func (c *Config) applyEnv(lookup func(key string) (string, bool)) error {
	env := envReader{lookup: lookup}

	env.str(EnvEngine, func(v string) { c.Engine = Engine(strings.ToLower(v)) })
	env.str(EnvSQLitePath, func(v string) { c.SQLitePath = v })
	env.str(EnvPostgresDSN, func(v string) { c.PostgresDSN = v })
	env.str(EnvPostgresReplicaDSN, func(v string) { c.PostgresReplicaDSN = v })
	env.str(EnvPostgresAdapter, func(v string) { c.PostgresAdapter = PostgresAdapter(strings.ToLower(v)) })
	env.int32(EnvPostgresMaxConns, &c.PostgresMaxConns)
	env.int32(EnvPostgresMinConns, &c.PostgresMinConns)
	env.parse(EnvSweepAt, func(v string) error {
		at, err := sweep.ParseTimeOfDay(v)
		c.SweepAt = at
		return err
	})
	env.str(EnvTimezone, func(v string) { c.Timezone = v })
	env.int(EnvNotificationBuffer, &c.NotificationBufferSize)
	env.str(EnvMetricsAddr, func(v string) { c.MetricsAddr = v })
	env.parse(EnvLogLevel, func(v string) error { return c.LogLevel.UnmarshalText([]byte(v)) })
	env.str(EnvOTLPEndpoint, func(v string) { c.OTLPEndpoint = v })
	env.parse(EnvOTLPInsecure, func(v string) error {
		insecure, err := strconv.ParseBool(v)
		c.OTLPInsecure = insecure
		return err
	})

	env.int(EnvDefaultLoanPeriodDays, &c.Policy.DefaultLoanPeriodDays)
	env.int(EnvMaxBooksPerUser, &c.Policy.MaxBooksPerUser)
	env.int(EnvMaxExtensions, &c.Policy.MaxExtensions)
	env.int(EnvDefaultExtensionPeriodDays, &c.Policy.DefaultExtensionPeriodDays)
	env.int(EnvMaxReservationsPerUser, &c.Policy.MaxReservationsPerUser)
	env.int(EnvReservationExpiryDays, &c.Policy.ReservationExpiryDays)

	return env.err()
}

func (c *Config) applyFlags(args []string) error {
	flags := flag.NewFlagSet("ledger", flag.ContinueOnError)

	engine := flags.String("engine", string(c.Engine), "event store engine: memory, sqlite or postgres")
	flags.StringVar(&c.SQLitePath, "sqlite-path", c.SQLitePath, "SQLite database file")
	flags.StringVar(&c.PostgresDSN, "postgres-dsn", c.PostgresDSN, "PostgreSQL DSN of the primary")
	flags.StringVar(&c.PostgresReplicaDSN, "postgres-replica-dsn", c.PostgresReplicaDSN, "PostgreSQL DSN of an optional read replica")
	adapter := flags.String("postgres-adapter", string(c.PostgresAdapter), "PostgreSQL adapter: pgx, sql or sqlx")
	flags.Func("sweep-at", "time of day of the overdue sweep, HH:MM (default "+c.SweepAt.String()+")", func(v string) error {
		at, err := sweep.ParseTimeOfDay(v)
		c.SweepAt = at
		return err
	})
	flags.StringVar(&c.Timezone, "timezone", c.Timezone, "IANA time zone of the sweep schedule")
	flags.IntVar(&c.NotificationBufferSize, "notification-buffer", c.NotificationBufferSize, "notification queue capacity")
	flags.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "listen address of the /metrics endpoint, empty disables it")
	flags.TextVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn or error")
	flags.StringVar(&c.OTLPEndpoint, "otlp-endpoint", c.OTLPEndpoint, "OTLP gRPC endpoint for traces and metrics, empty disables export")
	flags.BoolVar(&c.OTLPInsecure, "otlp-insecure", c.OTLPInsecure, "connect to the OTLP endpoint without TLS")

	if err := flags.Parse(args); err != nil {
		return err
	}

	c.Engine = Engine(strings.ToLower(*engine))
	c.PostgresAdapter = PostgresAdapter(strings.ToLower(*adapter))

	return nil
}

type envReader struct {
	lookup func(key string) (string, bool)
	errs   []error
}

func (r *envReader) value(key string) (string, bool) {
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)

	return v, ok && v != ""
}

func (r *envReader) str(key string, set func(v string)) {
	if v, ok := r.value(key); ok {
		set(v)
	}
}

func (r *envReader) parse(key string, set func(v string) error) {
	if v, ok := r.value(key); ok {
		if err := set(v); err != nil {
			r.errs = append(r.errs, fmt.Errorf("%w: %s=%q: %w", ErrInvalidEnvValue, key, v, err))
		}
	}
}

func (r *envReader) int(key string, target *int) {
	r.parse(key, func(v string) error {
		n, err := strconv.Atoi(v)
		if err == nil {
			*target = n
		}
		return err
	})
}

func (r *envReader) int32(key string, target *int32) {
	r.parse(key, func(v string) error {
		n, err := strconv.ParseInt(v, 10, 32)
		if err == nil {
			*target = int32(n)
		}
		return err
	})
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}

package ledgertest

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
)

// LogRecord is one recorded log call.
type LogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// Attr returns the value following key in Args, or nil.
func (r LogRecord) Attr(key string) any {
	for i := 0; i+1 < len(r.Args); i += 2 {
		if k, ok := r.Args[i].(string); ok && k == key {
			return r.Args[i+1]
		}
	}

	return nil
}

// ContextualLoggerSpy records all contextual log calls.
type ContextualLoggerSpy struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewContextualLoggerSpy creates an empty ContextualLoggerSpy.
func NewContextualLoggerSpy() *ContextualLoggerSpy {
	return &ContextualLoggerSpy{}
}

func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.add(ctx, "debug", msg, args)
}

func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.add(ctx, "info", msg, args)
}

func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.add(ctx, "warn", msg, args)
}

func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.add(ctx, "error", msg, args)
}

// Records returns all records with the given level.
func (s *ContextualLoggerSpy) Records(level string) []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]LogRecord, 0)
	for _, r := range s.records {
		if r.Level == level {
			found = append(found, r)
		}
	}

	return found
}

// HasRecord reports whether msg was logged at level.
func (s *ContextualLoggerSpy) HasRecord(level, msg string) bool {
	for _, r := range s.Records(level) {
		if r.Message == msg {
			return true
		}
	}

	return false
}

func (s *ContextualLoggerSpy) add(ctx context.Context, level, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, LogRecord{Level: level, Message: msg, Args: args, Context: ctx})
}

var _ eventstore.ContextualLogger = (*ContextualLoggerSpy)(nil)

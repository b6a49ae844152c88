package shell

import (
	"context"
	"errors"

	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// ErrNilEventStore is returned when a handler is created without an event store.
var ErrNilEventStore = errors.New("event store must not be nil")

// HandlerConfig holds what all command handlers can be configured with.
type HandlerConfig struct {
	RetryOptions []RetryOption
	Policy       core.Policy
}

// HandlerOption configures a command handler.
type HandlerOption func(*HandlerConfig) error

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...RetryOption) HandlerOption {
	return func(c *HandlerConfig) error {
		c.RetryOptions = opts
		return nil
	}
}

// WithPolicy sets the lending rules, the default is core.DefaultPolicy().
func WithPolicy(policy core.Policy) HandlerOption {
	return func(c *HandlerConfig) error {
		if err := policy.Validate(); err != nil {
			return err
		}

		c.Policy = policy

		return nil
	}
}

// BuildHandlerConfig applies opts to the defaults.
func BuildHandlerConfig(opts ...HandlerOption) (HandlerConfig, error) {
	config := HandlerConfig{Policy: core.DefaultPolicy()}

	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return HandlerConfig{}, err
		}
	}

	return config, nil
}

// ExecuteFunc runs one Query -> Decide -> Append cycle and reports whether the decision was idempotent.
type ExecuteFunc func(ctx context.Context) (idempotent bool, err error)

// HandleWithRetry runs execute with RetryWithExponentialBackoff and translates the outcome into a HandlerResult.
// The returned error is classified with ClassifyError.
func HandleWithRetry(ctx context.Context, execute ExecuteFunc, retryOptions ...RetryOption) (HandlerResult, error) {
	var isIdempotent bool

	retryMetrics, err := RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		idempotent, execErr := execute(retryCtx)
		isIdempotent = idempotent

		return execErr
	}, retryOptions...)

	if err != nil {
		return NewErrorResult(retryMetrics), ClassifyError(err)
	}

	if isIdempotent {
		return NewIdempotentResult(retryMetrics), nil
	}

	return NewSuccessResult(retryMetrics), nil
}

package core

import (
	"context"
	"errors"
	"net/http"
)

// Error kinds. Every specific domain error satisfies errors.Is for exactly one of them.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrLimitExceeded = errors.New("limit exceeded")
	ErrInvalidState  = errors.New("invalid state")
	ErrExpired       = errors.New("expired")
	ErrInvalidInput  = errors.New("invalid input")
	ErrTransient     = errors.New("transient failure")
)

// Error is a specific domain error. It unwraps to its kind.
type Error struct {
	Code    string
	Message string
	kind    error
	status  int
}

func newError(kind error, code string, message string, status int) *Error {
	return &Error{Code: code, Message: message, kind: kind, status: status}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.kind
}

// Specific domain errors.
var (
	ErrUserNotFound              = newError(ErrNotFound, "U001", "user not found", http.StatusNotFound)
	ErrMaxLoansExceeded          = newError(ErrLimitExceeded, "U004", "maximum number of loans exceeded", http.StatusBadRequest)
	ErrBookNotFound              = newError(ErrNotFound, "B001", "book not found", http.StatusNotFound)
	ErrBookAvailableForLoan      = newError(ErrConflict, "B002", "book is available for loan", http.StatusBadRequest)
	ErrBookHasActiveLoans        = newError(ErrConflict, "B004", "book has active loans", http.StatusConflict)
	ErrBookHasActiveReservations = newError(ErrConflict, "B005", "book has active reservations", http.StatusConflict)
	ErrNoCopiesAvailable         = newError(ErrConflict, "B006", "no copies available", http.StatusConflict)
	ErrLoanNotFound              = newError(ErrNotFound, "L001", "loan not found", http.StatusNotFound)
	ErrAlreadyReturned           = newError(ErrInvalidState, "L002", "loan is already returned", http.StatusBadRequest)
	ErrLoanNotExtendable         = newError(ErrInvalidState, "L003", "loan is not extendable", http.StatusBadRequest)
	ErrMaxExtensionsExceeded     = newError(ErrLimitExceeded, "L004", "maximum number of extensions exceeded", http.StatusBadRequest)
	ErrInvalidDueDate            = newError(ErrInvalidInput, "L005", "due date is before loan date", http.StatusBadRequest)
	ErrInvalidDays               = newError(ErrInvalidInput, "L006", "days must be positive", http.StatusBadRequest)
	ErrLoanIDAlreadyUsed         = newError(ErrInvalidInput, "L007", "loan id is already used for another user or book", http.StatusBadRequest)
	ErrReservationNotFound       = newError(ErrNotFound, "R001", "reservation not found", http.StatusNotFound)
	ErrInvalidReservationStatus  = newError(ErrInvalidState, "R002", "invalid reservation status", http.StatusBadRequest)
	ErrReservationExpired        = newError(ErrExpired, "R003", "reservation has expired", http.StatusBadRequest)
	ErrMaxReservationsExceeded   = newError(ErrLimitExceeded, "R004", "maximum number of reservations exceeded", http.StatusBadRequest)
	ErrAlreadyReserved           = newError(ErrConflict, "R005", "user has already reserved this book", http.StatusConflict)
	ErrReservationIDAlreadyUsed  = newError(ErrInvalidInput, "R006", "reservation id is already used for another user or book", http.StatusBadRequest)
	ErrInvalidCopies             = newError(ErrInvalidInput, "C001", "copies must not be negative", http.StatusBadRequest)
)

// Stable kind labels, e.g. for metrics.
const (
	KindNone          = "none"
	KindNotFound      = "not_found"
	KindConflict      = "conflict"
	KindLimitExceeded = "limit_exceeded"
	KindInvalidState  = "invalid_state"
	KindExpired       = "expired"
	KindInvalidInput  = "invalid_input"
	KindTransient     = "transient"
	KindInternal      = "internal"
)

var kinds = []struct {
	err    error
	label  string
	status int
}{
	{ErrNotFound, KindNotFound, http.StatusNotFound},
	{ErrConflict, KindConflict, http.StatusConflict},
	{ErrLimitExceeded, KindLimitExceeded, http.StatusUnprocessableEntity},
	{ErrInvalidState, KindInvalidState, http.StatusConflict},
	{ErrExpired, KindExpired, http.StatusGone},
	{ErrInvalidInput, KindInvalidInput, http.StatusBadRequest},
	{ErrTransient, KindTransient, http.StatusServiceUnavailable},
}

// KindOf returns the kind label of err. Context cancellation and deadlines count as transient.
func KindOf(err error) string {
	if err == nil {
		return KindNone
	}

	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.label
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}

	return KindInternal
}

// HTTPStatus suggests a status code for err to a boundary layer.
// A specific domain error has its own status, otherwise the status of its kind is used.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.status != 0 {
		return domainErr.status
	}

	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

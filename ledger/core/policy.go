package core

import (
	"errors"
	"fmt"
)

// ErrInvalidPolicy is returned by Policy.Validate.
var ErrInvalidPolicy = errors.New("invalid lending policy")

// Policy holds the lending rules. It is fixed at process start.
type Policy struct {
	DefaultLoanPeriodDays      int
	MaxBooksPerUser            int
	MaxExtensions              int
	DefaultExtensionPeriodDays int
	MaxReservationsPerUser     int
	ReservationExpiryDays      int
}

// DefaultPolicy returns the default lending rules.
func DefaultPolicy() Policy {
	return Policy{
		DefaultLoanPeriodDays:      14,
		MaxBooksPerUser:            5,
		MaxExtensions:              3,
		DefaultExtensionPeriodDays: 14,
		MaxReservationsPerUser:     3,
		ReservationExpiryDays:      7,
	}
}

// Validate returns ErrInvalidPolicy if any value is not positive.
func (p Policy) Validate() error {
	values := []struct {
		name  string
		value int
	}{
		{"DefaultLoanPeriodDays", p.DefaultLoanPeriodDays},
		{"MaxBooksPerUser", p.MaxBooksPerUser},
		{"MaxExtensions", p.MaxExtensions},
		{"DefaultExtensionPeriodDays", p.DefaultExtensionPeriodDays},
		{"MaxReservationsPerUser", p.MaxReservationsPerUser},
		{"ReservationExpiryDays", p.ReservationExpiryDays},
	}

	for _, v := range values {
		if v.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidPolicy, v.name, v.value)
		}
	}

	return nil
}

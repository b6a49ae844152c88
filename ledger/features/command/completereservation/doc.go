// Package completereservation implements completing a RESERVED reservation directly.
//
// Expiry is evaluated lazily here: a reservation past its expiration date stays RESERVED
// but can no longer be completed.
package completereservation

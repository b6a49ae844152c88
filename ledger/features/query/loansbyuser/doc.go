// Package loansbyuser implements the Loans By User query.
//
// It projects all loans of one user, active and returned, in the order they were created.
// The result is read with eventual consistency and never changes any state.
package loansbyuser

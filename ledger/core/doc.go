// Package core contains the pure domain of the lending ledger: domain events, the decision result of
// command deciders, the lending policy, domain error kinds and the Loan and Reservation projections.
//
// Nothing in this package performs I/O. Command handlers in the feature packages query the event store,
// project state with the functions in here, decide, and append the resulting event.
package core

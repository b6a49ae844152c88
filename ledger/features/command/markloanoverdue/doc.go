// Package markloanoverdue implements the per-loan step of the overdue sweep: a LOANED loan past its due
// date becomes OVERDUE.
//
// Every outcome other than a missing loan is idempotent, so the sweep can run any number of times,
// also on several instances at once.
package markloanoverdue

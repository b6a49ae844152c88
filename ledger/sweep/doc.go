// Package sweep is the Overdue Sweep of the ledger.
//
// Sweeper.Run marks every LOANED loan whose due date lies before today as OVERDUE. Each loan is marked
// with its own conditional append, and marking is idempotent, so a second run on the same day appends nothing
// and runs on several instances at once are harmless. Scheduler triggers Run once a day at a fixed time.
package sweep

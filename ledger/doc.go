// Package ledger is the Lending & Reservation Ledger.
//
// A Ledger wires the Catalog Store, the Loan Manager, the Reservation Queue and the Fulfillment Coordinator
// on top of one event store. Every command reads the events its decision depends on and appends the outcome
// only if none of them changed in between, so the available copies of a book and the per-user limits hold
// under any number of concurrent callers.
//
//	l, err := ledger.New(es, ledger.WithClock(clock), ledger.WithNotifications(dispatcher))
//	loan, err := l.CreateLoan(ctx, ledger.CreateLoanRequest{UserID: userID, BookID: bookID})
package ledger

// Package createloan implements lending one copy of a book to a user.
//
// The decision reads the book's stock, all loans of the user and the loan with the requested LoanID
// through one filter. Appending the outcome conditioned on that filter makes the availability check
// and the per-user loan cap one atomic step: two racing loans of the last copy, or two racing loans
// of the same user, conflict and the loser decides again.
//
// The LoanID is chosen by the caller and works as an idempotency key.
package createloan

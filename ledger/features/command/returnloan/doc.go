// Package returnloan implements taking a lent copy back.
//
// The loan is located by its LoanID first, then the decision is made on the loan together with
// the stock of its book, so a return and a concurrent loan of the same book conflict with each other.
package returnloan

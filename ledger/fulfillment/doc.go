// Package fulfillment is the Fulfillment Coordinator of the ledger.
//
// It reacts to committed loans and returns. A new loan completes the borrower's own open reservation
// for the book. A return notifies the first user in the reservation queue of the book.
// Notifications are delivered asynchronously by the Dispatcher, so a slow or failing Sink
// never delays or fails the command which caused them.
package fulfillment

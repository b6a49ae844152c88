// Package completereservationforloan completes the RESERVED reservation of a user for a book
// after that user borrowed the book. It is run by the fulfillment coordinator when a loan was created.
//
// There is no expiry check: the user has the copy already.
package completereservationforloan

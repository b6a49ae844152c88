// Package createreservation implements queueing up for a book whose copies are all lent.
//
// The decision reads the stock of the book, the registration and reservations of the user and the
// reservation with the requested ReservationID through one filter, so the availability check and both
// reservation caps hold under concurrent requests. The ReservationID works as an idempotency key.
package createreservation

// Package reservationqueue implements the Reservation Queue query.
//
// The queue of a book holds its RESERVED reservations in FIFO order: earliest ReservationDate first,
// ties in the order the reservations were made. Expired reservations stay in the queue,
// expiry is only evaluated when a reservation is completed.
package reservationqueue

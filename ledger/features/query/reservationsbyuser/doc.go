// Package reservationsbyuser implements the Reservations By User query: all reservations of a user, newest first.
package reservationsbyuser

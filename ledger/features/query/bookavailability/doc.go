// Package bookavailability implements the Book Availability query of the Catalog Store:
// how many copies of a book can be lent right now, how many are out and how many users are waiting.
package bookavailability

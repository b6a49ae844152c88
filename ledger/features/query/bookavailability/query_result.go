package bookavailability

import (
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// BookAvailability represents the query result for one book.
type BookAvailability struct {
	BookID          core.BookIDString
	Title           string
	CopiesAvailable int
	ActiveLoans     int
	QueueLength     int
}

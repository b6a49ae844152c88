package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/registerbook"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/registeruser"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/command/removebook"
	"github.com/AntonStoeckl/lending-ledger/ledger/features/query/bookavailability"
)

// RegisterBook adds a book with its number of copies to the catalog. Registering it again changes nothing.
func (l *Ledger) RegisterBook(ctx context.Context, bookID uuid.UUID, title string, copies int) error {
	_, err := l.registerBook.Handle(ctx, registerbook.BuildCommand(bookID, title, copies, l.config.clock.Now()))

	return err
}

// RemoveBook removes a book from the catalog. A book with active loans or waiting reservations stays.
func (l *Ledger) RemoveBook(ctx context.Context, bookID uuid.UUID) error {
	_, err := l.removeBook.Handle(ctx, removebook.BuildCommand(bookID, l.config.clock.Now()))

	return err
}

// RegisterUser makes a user known to the ledger. Registering again changes nothing.
func (l *Ledger) RegisterUser(ctx context.Context, userID uuid.UUID, name string) error {
	_, err := l.registerUser.Handle(ctx, registeruser.BuildCommand(userID, name, l.config.clock.Now()))

	return err
}

// BookAvailability returns the available copies, active loans and queue length of a book.
func (l *Ledger) BookAvailability(ctx context.Context, bookID uuid.UUID) (bookavailability.BookAvailability, error) {
	return l.bookAvailability.Handle(ctx, bookavailability.BuildQuery(bookID))
}

package loansbyuser

import (
	"context"

	"github.com/AntonStoeckl/lending-ledger/ledger/shell"
)

// QueryHandler runs Query -> Project for LoansByUser.
type QueryHandler struct {
	eventStore shell.QueriesEvents
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(eventStore shell.QueriesEvents) (QueryHandler, error) {
	if eventStore == nil {
		return QueryHandler{}, shell.ErrNilEventStore
	}

	return QueryHandler{eventStore: eventStore}, nil
}

// Handle executes the query.
func (h QueryHandler) Handle(ctx context.Context, query Query) (LoansByUser, error) {
	history, err := shell.QueryDomainEventsEventually(ctx, h.eventStore, BuildEventFilter(query.UserID))
	if err != nil {
		return LoansByUser{}, shell.ClassifyError(err)
	}

	return ProjectLoansByUser(history, query), nil
}

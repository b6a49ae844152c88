package loansbyuser

import (
	"github.com/AntonStoeckl/lending-ledger/ledger/core"
)

// LoansByUser represents the query result containing the loans of a user.
type LoansByUser struct {
	UserID      core.UserIDString
	Loans       []core.Loan
	Count       int
	ActiveCount int
}

// Package ledgertest provides test doubles and fixtures for the ledger packages:
// observability spies, a settable clock and ledger instances on the in-memory engine.
package ledgertest

package ledger

import (
	"context"

	"github.com/dmitrijs2005/lootledger/internal/server/models"
)

// Repository is append-only: entries are never updated or deleted.
type Repository interface {
	Append(ctx context.Context, e *models.LedgerEntry) (*models.LedgerEntry, error)
	// ListByUser returns the newest entries first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.LedgerEntry, error)
	// Totals reads the user's balances and ledger sum as of one instant.
	Totals(ctx context.Context, userID string) (*Totals, error)
	ListByOperation(ctx context.Context, operationID string) ([]*models.LedgerEntry, error)
}

// Totals pairs a user's balance with the sum of their ledger entries.
type Totals struct {
	Balance         int64
	StartingBalance int64
	LedgerSum       int64
}

package trades

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.Trade) (*models.Trade, error)
	Get(ctx context.Context, id int64) (*models.Trade, error)
	// Resolve moves a pending trade to status. Anything not pending yields
	// common.ErrTradeNotPending.
	Resolve(ctx context.Context, id int64, status models.TradeStatus, at time.Time) (*models.Trade, error)
	ExpirePendingBefore(ctx context.Context, cutoff, at time.Time) (int64, error)
	ListPendingForUser(ctx context.Context, userID string) ([]*models.Trade, error)
}

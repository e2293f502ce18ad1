package drops

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/server/models"
)

type Repository interface {
	// GetOpen returns the unclaimed drop or common.ErrorNotFound.
	GetOpen(ctx context.Context) (*models.Drop, error)
	// Create inserts an unclaimed drop for itemID. It returns
	// common.ErrDropAlreadyOpen when another drop is still unclaimed.
	Create(ctx context.Context, itemID int64) (*models.Drop, error)
	// Claim moves drop id from unclaimed to claimed. A drop that has already
	// left the unclaimed state yields common.ErrAlreadyClaimed.
	Claim(ctx context.Context, id int64, userID string, at time.Time) (*models.Drop, error)
	// ExpireOpenBefore expires unclaimed drops created before cutoff.
	ExpireOpenBefore(ctx context.Context, cutoff, at time.Time) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Drop, error)
}

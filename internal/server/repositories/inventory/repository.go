package inventory

import (
	"context"

	"github.com/dmitrijs2005/lootledger/internal/server/models"
)

type Repository interface {
	Add(ctx context.Context, e *models.InventoryEntry) (*models.InventoryEntry, error)
	Get(ctx context.Context, id int64) (*models.InventoryEntry, error)
	ListByUser(ctx context.Context, userID string) ([]*models.InventoryEntry, error)
	// Move reassigns entry id from one owner to another. It returns
	// common.ErrorNotFound unless from currently owns the entry.
	Move(ctx context.Context, id int64, from, to string, source models.Source) error
	// Delete removes entry id owned by userID, returning what was removed.
	Delete(ctx context.Context, id int64, userID string) (*models.InventoryEntry, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	SetFavorite(ctx context.Context, id int64, userID string, favorite bool) error
}

package items

import (
	"context"

	"github.com/dmitrijs2005/lootledger/internal/server/models"
)

type Repository interface {
	// Create inserts a new item; a duplicate name yields common.ErrAlreadyExists.
	Create(ctx context.Context, item *models.Item) (*models.Item, error)
	GetByID(ctx context.Context, id int64) (*models.Item, error)
	GetByName(ctx context.Context, name string) (*models.Item, error)
	List(ctx context.Context) ([]*models.Item, error)
	ListForSale(ctx context.Context) ([]*models.Item, error)
	// Enchant raises the enchant level by one and adds the (non-negative) gains.
	Enchant(ctx context.Context, id int64, attackGain, defenseGain int64) (*models.Item, error)
}

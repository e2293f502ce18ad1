package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/logging"
	"github.com/dmitrijs2005/lootledger/internal/server/config"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/repomanager"
)

// CatalogService serves users, items and inventories through the caches and
// owns the administrative writes on them.
type CatalogService struct {
	repomanager     repomanager.RepositoryManager
	caches          *Caches
	log             logging.Logger
	startingBalance int64
}

func NewCatalogService(m repomanager.RepositoryManager, caches *Caches, cfg *config.Config, log logging.Logger) *CatalogService {
	return &CatalogService{repomanager: m, caches: caches, log: log, startingBalance: cfg.StartingBalance}
}

func (s *CatalogService) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := readThrough(s.caches.users, id, s.caches.ttl.User, func() (*models.User, error) {
		return s.repomanager.Repositories().Users().Get(ctx, id)
	})
	if err != nil {
		return nil, classify(ctx, s.log, "catalog.get_user", err)
	}
	return u.Clone(), nil
}

func (s *CatalogService) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	it, err := readThrough(s.caches.items, itemKey(id), s.caches.ttl.Item, func() (*models.Item, error) {
		return s.repomanager.Repositories().Items().GetByID(ctx, id)
	})
	if err != nil {
		return nil, classify(ctx, s.log, "catalog.get_item", err)
	}
	c := *it
	return &c, nil
}

// GetItemByName resolves a case-insensitive name through the cached catalog.
func (s *CatalogService) GetItemByName(ctx context.Context, name string) (*models.Item, error) {
	all, err := s.ListAllItems(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range all {
		if strings.EqualFold(it.Name, strings.TrimSpace(name)) {
			return it, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (s *CatalogService) ListAllItems(ctx context.Context) ([]*models.Item, error) {
	items, err := readThrough(s.caches.catalogs, catalogAll, s.caches.ttl.Item, func() ([]*models.Item, error) {
		return s.repomanager.Repositories().Items().List(ctx)
	})
	if err != nil {
		return nil, classify(ctx, s.log, "catalog.list_items", err)
	}
	return cloneItems(items), nil
}

func (s *CatalogService) ListShopItems(ctx context.Context) ([]*models.Item, error) {
	items, err := readThrough(s.caches.catalogs, catalogShop, s.caches.ttl.Shop, func() ([]*models.Item, error) {
		return s.repomanager.Repositories().Items().ListForSale(ctx)
	})
	if err != nil {
		return nil, classify(ctx, s.log, "catalog.list_shop", err)
	}
	return cloneItems(items), nil
}

func (s *CatalogService) ListInventory(ctx context.Context, userID string) ([]*models.InventoryEntry, error) {
	entries, err := readThrough(s.caches.inventory, userID, s.caches.ttl.Inventory, func() ([]*models.InventoryEntry, error) {
		return s.repomanager.Repositories().Inventory().ListByUser(ctx, userID)
	})
	if err != nil {
		return nil, classify(ctx, s.log, "catalog.list_inventory", err)
	}
	return cloneEntries(entries), nil
}

// EnsureUser creates id with the starting balance on first sight and keeps
// the display name current afterwards.
func (s *CatalogService) EnsureUser(ctx context.Context, id, displayName string) (*models.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty actor id", common.ErrInvalidArgument)
	}

	var changed bool
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		created, err := r.Users().CreateIfAbsent(ctx, &models.User{ID: id, DisplayName: displayName, Balance: s.startingBalance})
		if err != nil {
			return err
		}
		if created {
			changed = true
			return nil
		}
		if displayName == "" {
			return nil
		}
		u, err := r.Users().Get(ctx, id)
		if err != nil {
			return err
		}
		if u.DisplayName != displayName {
			changed = true
			return r.Users().UpdateDisplayName(ctx, id, displayName)
		}
		return nil
	})
	if err != nil {
		return nil, classify(ctx, s.log, "catalog.ensure_user", err)
	}
	if changed {
		s.caches.InvalidateUser(id)
	}
	return s.GetUser(ctx, id)
}

func validateItem(it *models.Item) error {
	switch {
	case strings.TrimSpace(it.Name) == "":
		return fmt.Errorf("%w: item name is empty", common.ErrInvalidArgument)
	case !it.Rarity.Valid():
		return fmt.Errorf("%w: unknown rarity %d", common.ErrInvalidArgument, int(it.Rarity))
	case it.Price < 0 || it.Attack < 0 || it.Defense < 0:
		return fmt.Errorf("%w: price and stats must not be negative", common.ErrInvalidArgument)
	}
	return nil
}

// MintItem adds a new card to the catalog.
func (s *CatalogService) MintItem(ctx context.Context, item *models.Item) (*models.Item, error) {
	if err := validateItem(item); err != nil {
		return nil, err
	}
	toCreate := *item
	toCreate.Name = strings.TrimSpace(item.Name)
	toCreate.EnchantLevel = 0

	var created *models.Item
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		var err error
		created, err = r.Items().Create(ctx, &toCreate)
		return err
	})
	if err != nil {
		return nil, classify(ctx, s.log, "catalog.mint", err)
	}

	s.caches.InvalidateItem(created.ID)
	s.log.Info(ctx, "item minted", "item_id", created.ID, "name", created.Name, "rarity", created.Rarity.String())
	return created, nil
}

// EnchantItem raises an item's level and stats. Stats never decrease.
func (s *CatalogService) EnchantItem(ctx context.Context, id, attackGain, defenseGain int64) (*models.Item, error) {
	if attackGain < 0 || defenseGain < 0 {
		return nil, fmt.Errorf("%w: enchant gains must not be negative", common.ErrInvalidArgument)
	}

	var item *models.Item
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		var err error
		item, err = r.Items().Enchant(ctx, id, attackGain, defenseGain)
		return err
	})
	if err != nil {
		return nil, classify(ctx, s.log, "catalog.enchant", err)
	}

	s.caches.InvalidateItem(id)
	return item, nil
}

func (s *CatalogService) SetFavorite(ctx context.Context, userID string, entryID int64, favorite bool) error {
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		return r.Inventory().SetFavorite(ctx, entryID, userID, favorite)
	})
	if err != nil {
		return classify(ctx, s.log, "catalog.favorite", err)
	}
	s.caches.InvalidateInventory(userID)
	return nil
}

func (s *CatalogService) SetBanned(ctx context.Context, userID string, banned bool) error {
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		return r.Users().SetBanned(ctx, userID, banned)
	})
	if err != nil {
		return classify(ctx, s.log, "catalog.ban", err)
	}
	s.caches.InvalidateUser(userID)
	s.log.Info(ctx, "ban changed", "actor", userID, "banned", banned)
	return nil
}

// ResetUser restores a user's defaults and clears their inventory. The
// balance change is recorded as an admin adjustment so balance still equals
// starting balance plus the ledger sum.
func (s *CatalogService) ResetUser(ctx context.Context, userID string) error {
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		u, err := r.Users().GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := r.Inventory().DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if delta := u.StartingBalance - u.Balance; delta != 0 {
			_, err = r.Ledger().Append(ctx, &models.LedgerEntry{
				UserID:      userID,
				Amount:      delta,
				Category:    models.CategoryAdminAdjust,
				Reason:      "reset",
				OperationID: newOperationID(),
			})
			if err != nil {
				return err
			}
		}
		return r.Users().Reset(ctx, userID)
	})
	if err != nil {
		return classify(ctx, s.log, "catalog.reset", err)
	}

	s.caches.InvalidateUser(userID)
	s.caches.InvalidateInventory(userID)
	s.log.Info(ctx, "user reset", "actor", userID)
	return nil
}

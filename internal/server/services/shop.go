package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/logging"
	"github.com/dmitrijs2005/lootledger/internal/server/config"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/repomanager"
)

// Purchase is the outcome of a shop or pack purchase.
type Purchase struct {
	Items   []*models.Item
	Entries []*models.InventoryEntry
	Balance int64
}

// Sale is the outcome of selling one inventory entry back to the shop.
type Sale struct {
	Item    *models.Item
	Payout  int64
	Balance int64
}

type ShopService struct {
	repomanager repomanager.RepositoryManager
	caches      *Caches
	selector    *Selector
	log         logging.Logger
	packs       map[string]config.Pack
	sellPercent int64
}

func NewShopService(m repomanager.RepositoryManager, caches *Caches, selector *Selector, cfg *config.Config, log logging.Logger) *ShopService {
	return &ShopService{
		repomanager: m,
		caches:      caches,
		selector:    selector,
		log:         log,
		packs:       cfg.Packs,
		sellPercent: cfg.SellPercent,
	}
}

// BuyItem debits the item price and adds one copy to the buyer's inventory.
func (s *ShopService) BuyItem(ctx context.Context, actorID string, itemID int64) (*Purchase, error) {
	p := &Purchase{}
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		item, err := r.Items().GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if !item.ForSale() {
			return common.ErrItemNotForSale
		}
		p.Balance, err = applyDelta(ctx, r, actorID, -item.Price, models.CategoryPurchase, "buy "+item.Name, newOperationID())
		if err != nil {
			return err
		}
		entry, err := r.Inventory().Add(ctx, &models.InventoryEntry{UserID: actorID, ItemID: item.ID, Source: models.SourcePurchase})
		if err != nil {
			return err
		}
		p.Items = []*models.Item{item}
		p.Entries = []*models.InventoryEntry{entry}
		return nil
	})
	if err != nil {
		return nil, classify(ctx, s.log, "shop.buy", err)
	}

	s.caches.InvalidateUser(actorID)
	s.caches.InvalidateInventory(actorID)
	return p, nil
}

// SellEntry removes an owned entry and credits SellPercent of the item price.
// Cards that were never for sale are removed for nothing.
func (s *ShopService) SellEntry(ctx context.Context, actorID string, entryID int64) (*Sale, error) {
	sale := &Sale{}
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		entry, err := r.Inventory().Delete(ctx, entryID, actorID)
		if err != nil {
			return err
		}
		if sale.Item, err = r.Items().GetByID(ctx, entry.ItemID); err != nil {
			return err
		}
		sale.Payout = sale.Item.Price * s.sellPercent / 100
		if sale.Payout == 0 {
			u, err := r.Users().Get(ctx, actorID)
			if err != nil {
				return err
			}
			sale.Balance = u.Balance
			return nil
		}
		sale.Balance, err = applyDelta(ctx, r, actorID, sale.Payout, models.CategorySale, "sell "+sale.Item.Name, newOperationID())
		return err
	})
	if err != nil {
		return nil, classify(ctx, s.log, "shop.sell", err)
	}

	s.caches.InvalidateUser(actorID)
	s.caches.InvalidateInventory(actorID)
	return sale, nil
}

// Packs returns the configured pack names in order.
func (s *ShopService) Packs() []string {
	names := make([]string, 0, len(s.packs))
	for n := range s.packs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// OpenPack debits the pack price and draws its cards in one transaction.
func (s *ShopService) OpenPack(ctx context.Context, actorID, name string) (*Purchase, error) {
	pack, ok := s.packs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownPack, name)
	}

	p := &Purchase{}
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		catalog, err := r.Items().List(ctx)
		if err != nil {
			return err
		}
		if len(catalog) == 0 {
			return common.ErrEmptyCatalog
		}
		p.Balance, err = applyDelta(ctx, r, actorID, -pack.Price, models.CategoryPurchase, "pack "+name, newOperationID())
		if err != nil {
			return err
		}
		for range pack.Cards {
			item, err := s.selector.PickWeighted(catalog, pack.Weights)
			if err != nil {
				return err
			}
			entry, err := r.Inventory().Add(ctx, &models.InventoryEntry{UserID: actorID, ItemID: item.ID, Source: models.SourcePack})
			if err != nil {
				return err
			}
			p.Items = append(p.Items, item)
			p.Entries = append(p.Entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, classify(ctx, s.log, "shop.open_pack", err)
	}

	s.caches.InvalidateUser(actorID)
	s.caches.InvalidateInventory(actorID)
	s.log.Info(ctx, "pack opened", "actor", actorID, "pack", name, "cards", len(p.Entries))
	return p, nil
}

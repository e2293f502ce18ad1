package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/logging"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/repomanager"
)

// DropService arbitrates drops: at most one unclaimed drop exists, and each
// drop is claimed by at most one actor.
type DropService struct {
	repomanager repomanager.RepositoryManager
	caches      *Caches
	selector    *Selector
	log         logging.Logger
	now         func() time.Time
}

func NewDropService(m repomanager.RepositoryManager, caches *Caches, selector *Selector, log logging.Logger) *DropService {
	return &DropService{repomanager: m, caches: caches, selector: selector, log: log, now: time.Now}
}

// OpenDrop selects an item and opens a drop for it. It fails with
// ErrDropAlreadyOpen, without writing anything, while another drop is open.
func (s *DropService) OpenDrop(ctx context.Context) (*models.Item, *models.Drop, error) {
	var (
		item *models.Item
		drop *models.Drop
	)
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		_, err := r.Drops().GetOpen(ctx)
		switch {
		case err == nil:
			return common.ErrDropAlreadyOpen
		case !errors.Is(err, common.ErrorNotFound):
			return err
		}

		items, err := r.Items().List(ctx)
		if err != nil {
			return err
		}
		if item, err = s.selector.Pick(items); err != nil {
			return err
		}

		// a concurrent opener that slipped past GetOpen loses on the unique index
		drop, err = r.Drops().Create(ctx, item.ID)
		return err
	})
	if err != nil {
		return nil, nil, classify(ctx, s.log, "drops.open", err)
	}

	s.log.Info(ctx, "drop opened", "drop_id", drop.ID, "item_id", item.ID, "rarity", item.Rarity.String())
	return item, drop, nil
}

// ClaimDrop awards the open drop to actorID. The drop transition and the new
// inventory entry commit together or not at all.
func (s *DropService) ClaimDrop(ctx context.Context, actorID string) (*models.Item, *models.InventoryEntry, error) {
	var (
		item  *models.Item
		entry *models.InventoryEntry
	)
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		open, err := r.Drops().GetOpen(ctx)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrNoActiveDrop
			}
			return err
		}
		if _, err := r.Users().Get(ctx, actorID); err != nil {
			return err
		}

		claimed, err := r.Drops().Claim(ctx, open.ID, actorID, s.now())
		if err != nil {
			return err
		}
		if item, err = r.Items().GetByID(ctx, claimed.ItemID); err != nil {
			return err
		}
		entry, err = r.Inventory().Add(ctx, &models.InventoryEntry{
			UserID: actorID,
			ItemID: item.ID,
			Source: models.SourceDrop,
		})
		return err
	})
	if err != nil {
		return nil, nil, classify(ctx, s.log, "drops.claim", err)
	}

	s.caches.InvalidateInventory(actorID)
	s.log.Info(ctx, "drop claimed", "actor", actorID, "item_id", item.ID, "entry_id", entry.ID)
	return item, entry, nil
}

// CurrentDrop returns the open drop and its item, or ErrNoActiveDrop.
func (s *DropService) CurrentDrop(ctx context.Context) (*models.Drop, *models.Item, error) {
	r := s.repomanager.Repositories()
	drop, err := r.Drops().GetOpen(ctx)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrNoActiveDrop
		}
		return nil, nil, classify(ctx, s.log, "drops.current", err)
	}
	item, err := r.Items().GetByID(ctx, drop.ItemID)
	if err != nil {
		return nil, nil, classify(ctx, s.log, "drops.current", err)
	}
	return drop, item, nil
}

// ExpireStale expires open drops created more than maxAge ago.
func (s *DropService) ExpireStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	now := s.now()
	n, err := s.repomanager.Repositories().Drops().ExpireOpenBefore(ctx, now.Add(-maxAge), now)
	if err != nil {
		return 0, classify(ctx, s.log, "drops.expire", err)
	}
	if n > 0 {
		s.log.Info(ctx, "drops expired", "count", n)
	}
	return n, nil
}

// RecentDrops lists the newest drops, whatever their state.
func (s *DropService) RecentDrops(ctx context.Context, limit int) ([]*models.Drop, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	drops, err := s.repomanager.Repositories().Drops().ListRecent(ctx, min(limit, maxHistoryLimit))
	if err != nil {
		return nil, classify(ctx, s.log, "drops.recent", err)
	}
	return drops, nil
}

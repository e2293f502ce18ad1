// Package services contains the economy's business logic: drop arbitration,
// the ledger, the catalog and the flows built on them (shop, economy, trades).
// Every mutation runs in one store transaction and invalidates the caches it
// touched before returning.
package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/cooldown"
	"github.com/dmitrijs2005/lootledger/internal/logging"
	"github.com/dmitrijs2005/lootledger/internal/server/config"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/repomanager"
)

// Services bundles every service sharing one store, cache set and cooldown
// tracker.
type Services struct {
	Ledger    *LedgerService
	Drops     *DropService
	Catalog   *CatalogService
	Shop      *ShopService
	Economy   *EconomyService
	Trades    *TradeService
	Caches    *Caches
	Cooldowns *cooldown.Tracker
}

func New(m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *Services {
	caches := NewCaches(CacheTTLs{
		User:      cfg.UserCacheTTL,
		Item:      cfg.ItemCacheTTL,
		Shop:      cfg.ShopCacheTTL,
		Inventory: cfg.InventoryCacheTTL,
	})
	cooldowns := cooldown.New()
	selector := NewSelector(cfg.DropWeights, nil)
	ledger := NewLedgerService(m, caches, log)

	return &Services{
		Ledger:    ledger,
		Drops:     NewDropService(m, caches, selector, log),
		Catalog:   NewCatalogService(m, caches, cfg, log),
		Shop:      NewShopService(m, caches, selector, cfg, log),
		Economy:   NewEconomyService(m, caches, cooldowns, selector, cfg, log),
		Trades:    NewTradeService(m, caches, log),
		Caches:    caches,
		Cooldowns: cooldowns,
	}
}

// classify turns anything that is not a domain condition into a
// *common.StorageError and logs it once.
func classify(ctx context.Context, log logging.Logger, op string, err error) error {
	if err == nil || common.IsDomain(err) {
		return err
	}
	var se *common.StorageError
	if errors.As(err, &se) {
		return err
	}
	log.Error(ctx, "storage failure", "op", op, "error", err)
	return &common.StorageError{Op: op, Err: err}
}

package repomanager

import (
	"context"

	"github.com/dmitrijs2005/lootledger/internal/server/repositories/drops"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/inventory"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/items"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/ledger"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/trades"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/users"
)

// Repositories is one consistent view of the store: either autocommit or
// bound to a single transaction.
type Repositories interface {
	Users() users.Repository
	Items() items.Repository
	Inventory() inventory.Repository
	Drops() drops.Repository
	Ledger() ledger.Repository
	Trades() trades.Repository
}

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	// Repositories returns autocommit repositories for plain reads.
	Repositories() Repositories
	// WithTx runs fn inside one transaction. Every write made through the
	// Repositories handed to fn commits together, or none does when fn
	// returns an error.
	WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
	Close() error
}

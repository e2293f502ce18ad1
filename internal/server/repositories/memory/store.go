// Package memory is a process-local RepositoryManager. Transactions are
// serialised behind one mutex and a snapshot of the whole state is restored
// when the transaction function fails, so it honours the same all-or-nothing
// contract as the PostgreSQL manager. It backs tests and the memory dev mode.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/drops"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/inventory"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/items"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/ledger"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/trades"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/users"
)

type state struct {
	users     map[string]*models.User
	items     map[int64]*models.Item
	inventory map[int64]*models.InventoryEntry
	drops     map[int64]*models.Drop
	ledger    []*models.LedgerEntry
	trades    map[int64]*models.Trade

	itemSeq, entrySeq, dropSeq, ledgerSeq, tradeSeq int64
}

func newState() *state {
	return &state{
		users:     map[string]*models.User{},
		items:     map[int64]*models.Item{},
		inventory: map[int64]*models.InventoryEntry{},
		drops:     map[int64]*models.Drop{},
		trades:    map[int64]*models.Trade{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v.Clone()
	}
	for k, v := range s.items {
		c.items[k] = cloneItem(v)
	}
	for k, v := range s.inventory {
		c.inventory[k] = cloneEntry(v)
	}
	for k, v := range s.drops {
		c.drops[k] = cloneDrop(v)
	}
	for k, v := range s.trades {
		c.trades[k] = cloneTrade(v)
	}
	c.ledger = make([]*models.LedgerEntry, len(s.ledger))
	copy(c.ledger, s.ledger) // entries are never mutated once appended
	c.itemSeq, c.entrySeq, c.dropSeq, c.ledgerSeq, c.tradeSeq = s.itemSeq, s.entrySeq, s.dropSeq, s.ledgerSeq, s.tradeSeq
	return c
}

type Store struct {
	mu    sync.Mutex
	st    *state
	now   func() time.Time
	fails map[string]error
}

var _ repomanager.RepositoryManager = (*Store)(nil)

func New() *Store {
	return &Store{st: newState(), now: time.Now, fails: map[string]error{}}
}

// SetClock replaces the clock used for created and updated timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailOn makes every later call of op (for example "drops.Claim") return
// err until FailOn(op, nil) clears it. Used to simulate storage faults.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fails, op)
		return
	}
	s.fails[op] = err
}

func (s *Store) RunMigrations(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) Repositories() repomanager.Repositories {
	return repos{s: s}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, r repomanager.Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()

	return fn(ctx, repos{s: s, inTx: true})
}

// repos is handed out either as an autocommit view, which locks per call,
// or inside WithTx, where the store lock is already held.
type repos struct {
	s    *Store
	inTx bool
}

func (r repos) Users() users.Repository         { return userRepo{r} }
func (r repos) Items() items.Repository         { return itemRepo{r} }
func (r repos) Inventory() inventory.Repository { return inventoryRepo{r} }
func (r repos) Drops() drops.Repository         { return dropRepo{r} }
func (r repos) Ledger() ledger.Repository       { return ledgerRepo{r} }
func (r repos) Trades() trades.Repository       { return tradeRepo{r} }

func (r repos) run(op string, fn func(st *state) error) error {
	if !r.inTx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	if err := r.s.fails[op]; err != nil {
		return err
	}
	return fn(r.s.st)
}

func cloneItem(i *models.Item) *models.Item {
	c := *i
	return &c
}

func cloneEntry(e *models.InventoryEntry) *models.InventoryEntry {
	c := *e
	return &c
}

func cloneDrop(d *models.Drop) *models.Drop {
	c := *d
	if d.ClaimedBy != nil {
		v := *d.ClaimedBy
		c.ClaimedBy = &v
	}
	if d.ClaimedAt != nil {
		v := *d.ClaimedAt
		c.ClaimedAt = &v
	}
	if d.ExpiredAt != nil {
		v := *d.ExpiredAt
		c.ExpiredAt = &v
	}
	return &c
}

func cloneTrade(t *models.Trade) *models.Trade {
	c := *t
	if t.ResolvedAt != nil {
		v := *t.ResolvedAt
		c.ResolvedAt = &v
	}
	return &c
}

package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/drops"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/inventory"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/items"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/ledger"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/trades"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/users"
)

var (
	_ users.Repository     = userRepo{}
	_ items.Repository     = itemRepo{}
	_ inventory.Repository = inventoryRepo{}
	_ drops.Repository     = dropRepo{}
	_ ledger.Repository    = ledgerRepo{}
	_ trades.Repository    = tradeRepo{}
)

type userRepo struct{ repos }

func (r userRepo) Get(ctx context.Context, id string) (u *models.User, err error) {
	err = r.run("users.Get", func(st *state) error {
		got, ok := st.users[id]
		if !ok {
			return common.ErrorNotFound
		}
		u = got.Clone()
		return nil
	})
	return u, err
}

// GetForUpdate needs no lock of its own: transactions already run one at a time.
func (r userRepo) GetForUpdate(ctx context.Context, id string) (u *models.User, err error) {
	err = r.run("users.GetForUpdate", func(st *state) error {
		got, ok := st.users[id]
		if !ok {
			return common.ErrorNotFound
		}
		u = got.Clone()
		return nil
	})
	return u, err
}

func (r userRepo) CreateIfAbsent(ctx context.Context, u *models.User) (created bool, err error) {
	err = r.run("users.CreateIfAbsent", func(st *state) error {
		if _, ok := st.users[u.ID]; ok {
			return nil
		}
		now := r.s.now()
		st.users[u.ID] = &models.User{
			ID:              u.ID,
			DisplayName:     u.DisplayName,
			Balance:         u.Balance,
			StartingBalance: u.Balance,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		created = true
		return nil
	})
	return created, err
}

func (r userRepo) update(op, id string, fn func(u *models.User) error) error {
	return r.run(op, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return common.ErrorNotFound
		}
		if err := fn(u); err != nil {
			return err
		}
		u.UpdatedAt = r.s.now()
		return nil
	})
}

func (r userRepo) UpdateDisplayName(ctx context.Context, id, name string) error {
	return r.update("users.UpdateDisplayName", id, func(u *models.User) error {
		u.DisplayName = name
		return nil
	})
}

func (r userRepo) AddBalance(ctx context.Context, id string, delta int64) (balance int64, err error) {
	err = r.run("users.AddBalance", func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return common.ErrInsufficientFunds
		}
		if delta > 0 && u.Balance > math.MaxInt64-delta {
			return common.ErrInvalidAmount
		}
		if u.Balance+delta < 0 {
			return common.ErrInsufficientFunds
		}
		u.Balance += delta
		u.UpdatedAt = r.s.now()
		balance = u.Balance
		return nil
	})
	return balance, err
}

func (r userRepo) MarkRewarded(ctx context.Context, id string, at, eligibleFrom time.Time) (changed bool, err error) {
	err = r.run("users.MarkRewarded", func(st *state) error {
		u, ok := st.users[id]
		if !ok || (u.LastRewardAt != nil && u.LastRewardAt.After(eligibleFrom)) {
			return nil
		}
		u.LastRewardAt = &at
		u.UpdatedAt = r.s.now()
		changed = true
		return nil
	})
	return changed, err
}

func (r userRepo) AddCounters(ctx context.Context, id string, wins, losses, work int64) error {
	return r.update("users.AddCounters", id, func(u *models.User) error {
		u.Wins += wins
		u.Losses += losses
		u.WorkCount += work
		return nil
	})
}

func (r userRepo) SetBanned(ctx context.Context, id string, banned bool) error {
	return r.update("users.SetBanned", id, func(u *models.User) error {
		u.Banned = banned
		return nil
	})
}

func (r userRepo) Reset(ctx context.Context, id string) error {
	return r.update("users.Reset", id, func(u *models.User) error {
		u.Balance = u.StartingBalance
		u.LastRewardAt = nil
		u.Wins, u.Losses, u.WorkCount = 0, 0, 0
		u.Banned = false
		return nil
	})
}

type itemRepo struct{ repos }

func (r itemRepo) Create(ctx context.Context, item *models.Item) (created *models.Item, err error) {
	err = r.run("items.Create", func(st *state) error {
		for _, it := range st.items {
			if it.Name == item.Name {
				return common.ErrAlreadyExists
			}
		}
		st.itemSeq++
		c := cloneItem(item)
		c.ID = st.itemSeq
		c.CreatedAt = r.s.now()
		st.items[c.ID] = c
		created = cloneItem(c)
		return nil
	})
	return created, err
}

func (r itemRepo) GetByID(ctx context.Context, id int64) (item *models.Item, err error) {
	err = r.run("items.GetByID", func(st *state) error {
		it, ok := st.items[id]
		if !ok {
			return common.ErrorNotFound
		}
		item = cloneItem(it)
		return nil
	})
	return item, err
}

func (r itemRepo) GetByName(ctx context.Context, name string) (item *models.Item, err error) {
	err = r.run("items.GetByName", func(st *state) error {
		for _, it := range st.items {
			if strings.EqualFold(it.Name, name) {
				item = cloneItem(it)
				return nil
			}
		}
		return common.ErrorNotFound
	})
	return item, err
}

func (r itemRepo) List(ctx context.Context) (list []*models.Item, err error) {
	err = r.run("items.List", func(st *state) error {
		list = sortedItems(st, func(*models.Item) bool { return true })
		return nil
	})
	return list, err
}

func (r itemRepo) ListForSale(ctx context.Context) (list []*models.Item, err error) {
	err = r.run("items.ListForSale", func(st *state) error {
		list = sortedItems(st, (*models.Item).ForSale)
		sort.SliceStable(list, func(i, j int) bool { return list[i].Price < list[j].Price })
		return nil
	})
	return list, err
}

func (r itemRepo) Enchant(ctx context.Context, id int64, attackGain, defenseGain int64) (item *models.Item, err error) {
	err = r.run("items.Enchant", func(st *state) error {
		it, ok := st.items[id]
		if !ok {
			return common.ErrorNotFound
		}
		it.EnchantLevel++
		it.Attack += attackGain
		it.Defense += defenseGain
		item = cloneItem(it)
		return nil
	})
	return item, err
}

func sortedItems(st *state, keep func(*models.Item) bool) []*models.Item {
	var out []*models.Item
	for _, it := range st.items {
		if keep(it) {
			out = append(out, cloneItem(it))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type inventoryRepo struct{ repos }

func (r inventoryRepo) Add(ctx context.Context, e *models.InventoryEntry) (created *models.InventoryEntry, err error) {
	err = r.run("inventory.Add", func(st *state) error {
		if _, ok := st.users[e.UserID]; !ok {
			return common.ErrorNotFound
		}
		if _, ok := st.items[e.ItemID]; !ok {
			return common.ErrorNotFound
		}
		st.entrySeq++
		c := cloneEntry(e)
		c.ID = st.entrySeq
		c.Favorite = false
		c.AcquiredAt = r.s.now()
		st.inventory[c.ID] = c
		created = cloneEntry(c)
		return nil
	})
	return created, err
}

func (r inventoryRepo) Get(ctx context.Context, id int64) (e *models.InventoryEntry, err error) {
	err = r.run("inventory.Get", func(st *state) error {
		got, ok := st.inventory[id]
		if !ok {
			return common.ErrorNotFound
		}
		e = cloneEntry(got)
		return nil
	})
	return e, err
}

func (r inventoryRepo) ListByUser(ctx context.Context, userID string) (list []*models.InventoryEntry, err error) {
	err = r.run("inventory.ListByUser", func(st *state) error {
		for _, e := range st.inventory {
			if e.UserID == userID {
				list = append(list, cloneEntry(e))
			}
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		return nil
	})
	return list, err
}

func (r inventoryRepo) Move(ctx context.Context, id int64, from, to string, source models.Source) error {
	return r.run("inventory.Move", func(st *state) error {
		e, ok := st.inventory[id]
		if !ok || e.UserID != from {
			return common.ErrorNotFound
		}
		if _, ok := st.users[to]; !ok {
			return common.ErrorNotFound
		}
		e.UserID = to
		e.Source = source
		e.Favorite = false
		e.AcquiredAt = r.s.now()
		return nil
	})
}

func (r inventoryRepo) Delete(ctx context.Context, id int64, userID string) (removed *models.InventoryEntry, err error) {
	err = r.run("inventory.Delete", func(st *state) error {
		e, ok := st.inventory[id]
		if !ok || e.UserID != userID {
			return common.ErrorNotFound
		}
		delete(st.inventory, id)
		removed = e
		return nil
	})
	return removed, err
}

func (r inventoryRepo) DeleteByUser(ctx context.Context, userID string) (n int64, err error) {
	err = r.run("inventory.DeleteByUser", func(st *state) error {
		for id, e := range st.inventory {
			if e.UserID == userID {
				delete(st.inventory, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r inventoryRepo) SetFavorite(ctx context.Context, id int64, userID string, favorite bool) error {
	return r.run("inventory.SetFavorite", func(st *state) error {
		e, ok := st.inventory[id]
		if !ok || e.UserID != userID {
			return common.ErrorNotFound
		}
		e.Favorite = favorite
		return nil
	})
}

type dropRepo struct{ repos }

func openDrop(st *state) *models.Drop {
	for _, d := range st.drops {
		if d.Status == models.DropUnclaimed {
			return d
		}
	}
	return nil
}

func (r dropRepo) GetOpen(ctx context.Context) (d *models.Drop, err error) {
	err = r.run("drops.GetOpen", func(st *state) error {
		open := openDrop(st)
		if open == nil {
			return common.ErrorNotFound
		}
		d = cloneDrop(open)
		return nil
	})
	return d, err
}

func (r dropRepo) Create(ctx context.Context, itemID int64) (d *models.Drop, err error) {
	err = r.run("drops.Create", func(st *state) error {
		if openDrop(st) != nil {
			return common.ErrDropAlreadyOpen
		}
		if _, ok := st.items[itemID]; !ok {
			return common.ErrorNotFound
		}
		st.dropSeq++
		created := &models.Drop{ID: st.dropSeq, ItemID: itemID, Status: models.DropUnclaimed, CreatedAt: r.s.now()}
		st.drops[created.ID] = created
		d = cloneDrop(created)
		return nil
	})
	return d, err
}

func (r dropRepo) Claim(ctx context.Context, id int64, userID string, at time.Time) (d *models.Drop, err error) {
	err = r.run("drops.Claim", func(st *state) error {
		got, ok := st.drops[id]
		if !ok || got.Status != models.DropUnclaimed {
			return common.ErrAlreadyClaimed
		}
		got.Status = models.DropClaimed
		got.ClaimedBy = &userID
		got.ClaimedAt = &at
		d = cloneDrop(got)
		return nil
	})
	return d, err
}

func (r dropRepo) ExpireOpenBefore(ctx context.Context, cutoff, at time.Time) (n int64, err error) {
	err = r.run("drops.ExpireOpenBefore", func(st *state) error {
		for _, d := range st.drops {
			if d.Status == models.DropUnclaimed && d.CreatedAt.Before(cutoff) {
				d.Status = models.DropExpired
				expired := at
				d.ExpiredAt = &expired
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r dropRepo) ListRecent(ctx context.Context, limit int) (list []*models.Drop, err error) {
	err = r.run("drops.ListRecent", func(st *state) error {
		for _, d := range st.drops {
			list = append(list, cloneDrop(d))
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
		if limit >= 0 && len(list) > limit {
			list = list[:limit]
		}
		return nil
	})
	return list, err
}

type ledgerRepo struct{ repos }

func (r ledgerRepo) Append(ctx context.Context, e *models.LedgerEntry) (created *models.LedgerEntry, err error) {
	err = r.run("ledger.Append", func(st *state) error {
		if _, ok := st.users[e.UserID]; !ok {
			return common.ErrorNotFound
		}
		st.ledgerSeq++
		c := *e
		c.ID = st.ledgerSeq
		c.CreatedAt = r.s.now()
		st.ledger = append(st.ledger, &c)
		cp := c
		created = &cp
		return nil
	})
	return created, err
}

func (r ledgerRepo) ListByUser(ctx context.Context, userID string, limit int) (list []*models.LedgerEntry, err error) {
	err = r.run("ledger.ListByUser", func(st *state) error {
		for i := len(st.ledger) - 1; i >= 0 && len(list) < limit; i-- {
			if e := st.ledger[i]; e.UserID == userID {
				c := *e
				list = append(list, &c)
			}
		}
		return nil
	})
	return list, err
}

func (r ledgerRepo) Totals(ctx context.Context, userID string) (t *ledger.Totals, err error) {
	err = r.run("ledger.Totals", func(st *state) error {
		u, ok := st.users[userID]
		if !ok {
			return common.ErrorNotFound
		}
		t = &ledger.Totals{Balance: u.Balance, StartingBalance: u.StartingBalance}
		for _, e := range st.ledger {
			if e.UserID == userID {
				t.LedgerSum += e.Amount
			}
		}
		return nil
	})
	return t, err
}

func (r ledgerRepo) ListByOperation(ctx context.Context, operationID string) (list []*models.LedgerEntry, err error) {
	err = r.run("ledger.ListByOperation", func(st *state) error {
		for _, e := range st.ledger {
			if e.OperationID == operationID {
				c := *e
				list = append(list, &c)
			}
		}
		return nil
	})
	return list, err
}

type tradeRepo struct{ repos }

func (r tradeRepo) Create(ctx context.Context, t *models.Trade) (created *models.Trade, err error) {
	err = r.run("trades.Create", func(st *state) error {
		st.tradeSeq++
		c := &models.Trade{
			ID:               st.tradeSeq,
			InitiatorID:      t.InitiatorID,
			RecipientID:      t.RecipientID,
			OfferedEntryID:   t.OfferedEntryID,
			RequestedEntryID: t.RequestedEntryID,
			Status:           models.TradePending,
			CreatedAt:        r.s.now(),
		}
		st.trades[c.ID] = c
		created = cloneTrade(c)
		return nil
	})
	return created, err
}

func (r tradeRepo) Get(ctx context.Context, id int64) (t *models.Trade, err error) {
	err = r.run("trades.Get", func(st *state) error {
		got, ok := st.trades[id]
		if !ok {
			return common.ErrorNotFound
		}
		t = cloneTrade(got)
		return nil
	})
	return t, err
}

func (r tradeRepo) Resolve(ctx context.Context, id int64, status models.TradeStatus, at time.Time) (t *models.Trade, err error) {
	err = r.run("trades.Resolve", func(st *state) error {
		got, ok := st.trades[id]
		if !ok || got.Status != models.TradePending {
			return common.ErrTradeNotPending
		}
		got.Status = status
		got.ResolvedAt = &at
		t = cloneTrade(got)
		return nil
	})
	return t, err
}

func (r tradeRepo) ExpirePendingBefore(ctx context.Context, cutoff, at time.Time) (n int64, err error) {
	err = r.run("trades.ExpirePendingBefore", func(st *state) error {
		for _, t := range st.trades {
			if t.Status == models.TradePending && t.CreatedAt.Before(cutoff) {
				t.Status = models.TradeExpired
				resolved := at
				t.ResolvedAt = &resolved
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r tradeRepo) ListPendingForUser(ctx context.Context, userID string) (list []*models.Trade, err error) {
	err = r.run("trades.ListPendingForUser", func(st *state) error {
		for _, t := range st.trades {
			if t.Status == models.TradePending && (t.InitiatorID == userID || t.RecipientID == userID) {
				list = append(list, cloneTrade(t))
			}
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		return nil
	})
	return list, err
}

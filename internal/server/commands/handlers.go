package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/dmitrijs2005/lootledger/internal/server/services"
)

// DropResult is returned by the drop kinds.
type DropResult struct {
	Item  *models.Item
	Drop  *models.Drop
	Entry *models.InventoryEntry
}

// BalanceResult is returned by kinds whose outcome is a new balance.
type BalanceResult struct {
	Balance int64
}

func requireTarget(in Intent) (string, error) {
	target := strings.TrimSpace(in.Args.TargetID)
	if target == "" {
		return "", fmt.Errorf("%w: target is required", common.ErrInvalidArgument)
	}
	return target, nil
}

// accountOf is the target when one is given, else the actor.
func accountOf(in Intent) string {
	if t := strings.TrimSpace(in.Args.TargetID); t != "" {
		return t
	}
	return in.ActorID
}

func categoryOr(in Intent, def models.LedgerCategory) models.LedgerCategory {
	if in.Args.Category != "" {
		return in.Args.Category
	}
	return def
}

func (r *Registry) registerDefaults() {
	svc := r.svc

	// drops
	r.register(Command{Kind: KindOpenDrop, Category: CategoryDrops, AdminOnly: true,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			item, drop, err := svc.Drops.OpenDrop(ctx)
			if err != nil {
				return nil, err
			}
			return &DropResult{Item: item, Drop: drop}, nil
		}})
	r.register(Command{Kind: KindClaimDrop, Category: CategoryDrops,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			item, entry, err := svc.Drops.ClaimDrop(ctx, in.ActorID)
			if err != nil {
				return nil, err
			}
			return &DropResult{Item: item, Entry: entry}, nil
		}})
	r.register(Command{Kind: KindCurrentDrop, Category: CategoryDrops,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			drop, item, err := svc.Drops.CurrentDrop(ctx)
			if err != nil {
				return nil, err
			}
			return &DropResult{Item: item, Drop: drop}, nil
		}})

	// economy
	r.register(Command{Kind: KindBalance, Category: CategoryEconomy,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			return svc.Catalog.GetUser(ctx, accountOf(in))
		}})
	r.register(Command{Kind: KindHistory, Category: CategoryEconomy,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			return svc.Ledger.History(ctx, in.ActorID, in.Args.Limit)
		}})
	r.register(Command{Kind: KindDaily, Category: CategoryEconomy,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			return svc.Economy.Daily(ctx, in.ActorID)
		}})
	r.register(Command{Kind: KindWork, Category: CategoryEconomy,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			return svc.Economy.Work(ctx, in.ActorID)
		}})
	r.register(Command{Kind: KindCoinflip, Category: CategoryEconomy, Cooldown: coinflipCooldown,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			return svc.Economy.Coinflip(ctx, in.ActorID, in.Args.Amount)
		}})
	r.register(Command{Kind: KindTransfer, Category: CategoryEconomy,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			target, err := requireTarget(in)
			if err != nil {
				return nil, err
			}
			if target != in.ActorID {
				if _, err := svc.Catalog.EnsureUser(ctx, target, ""); err != nil {
					return nil, err
				}
			}
			return svc.Ledger.Transfer(ctx, in.ActorID, target, in.Args.Amount, categoryOr(in, models.CategoryGift), in.Args.Reason)
		}})

	// shop and inventory
	r.register(Command{Kind: KindInventory, Category: CategoryShop,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			return svc.Catalog.ListInventory(ctx, in.ActorID)
		}})
	r.register(Command{Kind: KindFavorite, Category: CategoryShop,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			return nil, svc.Catalog.SetFavorite(ctx, in.ActorID, in.Args.EntryID, in.Args.Flag)
		}})
	r.register(Command{Kind: KindShop, Category: CategoryShop,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			return svc.Catalog.ListShopItems(ctx)
		}})
	r.register(Command{Kind: KindBuy, Category: CategoryShop,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			id := in.Args.ItemID
			if id == 0 && in.Args.Name != "" {
				it, err := svc.Catalog.GetItemByName(ctx, in.Args.Name)
				if err != nil {
					return nil, err
				}
				id = it.ID
			}
			return svc.Shop.BuyItem(ctx, in.ActorID, id)
		}})
	r.register(Command{Kind: KindSell, Category: CategoryShop,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			return svc.Shop.SellEntry(ctx, in.ActorID, in.Args.EntryID)
		}})
	r.register(Command{Kind: KindOpenPack, Category: CategoryShop,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			return svc.Shop.OpenPack(ctx, in.ActorID, in.Args.Name)
		}})

	// trades
	r.register(Command{Kind: KindGift, Category: CategoryTrades,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			target, err := requireTarget(in)
			if err != nil {
				return nil, err
			}
			if target != in.ActorID {
				if _, err := svc.Catalog.EnsureUser(ctx, target, ""); err != nil {
					return nil, err
				}
			}
			return nil, svc.Trades.GiftCard(ctx, in.ActorID, target, in.Args.EntryID)
		}})
	r.register(Command{Kind: KindProposeTrade, Category: CategoryTrades,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			target, err := requireTarget(in)
			if err != nil {
				return nil, err
			}
			return svc.Trades.Propose(ctx, in.ActorID, target, in.Args.EntryID, in.Args.RequestedEntryID)
		}})
	r.register(Command{Kind: KindAcceptTrade, Category: CategoryTrades,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			return svc.Trades.Accept(ctx, in.ActorID, in.Args.TradeID)
		}})
	r.register(Command{Kind: KindCancelTrade, Category: CategoryTrades,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			return svc.Trades.Cancel(ctx, in.ActorID, in.Args.TradeID)
		}})
	r.register(Command{Kind: KindPendingTrades, Category: CategoryTrades,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			return svc.Trades.ListPending(ctx, in.ActorID)
		}})

	// admin
	r.register(Command{Kind: KindCredit, Category: CategoryAdmin, AdminOnly: true,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			balance, err := svc.Ledger.Credit(ctx, accountOf(in), in.Args.Amount, categoryOr(in, models.CategoryAdminAdjust), in.Args.Reason)
			if err != nil {
				return nil, err
			}
			return &BalanceResult{Balance: balance}, nil
		}})
	r.register(Command{Kind: KindDebit, Category: CategoryAdmin, AdminOnly: true,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			balance, err := svc.Ledger.Debit(ctx, accountOf(in), in.Args.Amount, categoryOr(in, models.CategoryAdminAdjust), in.Args.Reason)
			if err != nil {
				return nil, err
			}
			return &BalanceResult{Balance: balance}, nil
		}})
	r.register(Command{Kind: KindMint, Category: CategoryAdmin, AdminOnly: true,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			if in.Args.Item == nil {
				return nil, fmt.Errorf("%w: item is required", common.ErrInvalidArgument)
			}
			return svc.Catalog.MintItem(ctx, in.Args.Item)
		}})
	r.register(Command{Kind: KindEnchant, Category: CategoryAdmin, AdminOnly: true,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			return svc.Catalog.EnchantItem(ctx, in.Args.ItemID, in.Args.Attack, in.Args.Defense)
		}})
	r.register(Command{Kind: KindAdjust, Category: CategoryAdmin, AdminOnly: true,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			target, err := requireTarget(in)
			if err != nil {
				return nil, err
			}
			if _, err := svc.Catalog.EnsureUser(ctx, target, ""); err != nil {
				return nil, err
			}
			balance, err := svc.Ledger.Adjust(ctx, target, in.Args.Amount, in.Args.Reason)
			if err != nil {
				return nil, err
			}
			return &BalanceResult{Balance: balance}, nil
		}})
	r.register(Command{Kind: KindBan, Category: CategoryAdmin, AdminOnly: true,
		Handler: banHandler(svc, true)})
	r.register(Command{Kind: KindUnban, Category: CategoryAdmin, AdminOnly: true,
		Handler: banHandler(svc, false)})
	r.register(Command{Kind: KindReset, Category: CategoryAdmin, AdminOnly: true,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			target, err := requireTarget(in)
			if err != nil {
				return nil, err
			}
			return nil, svc.Catalog.ResetUser(ctx, target)
		}})
	r.register(Command{Kind: KindVerify, Category: CategoryAdmin, AdminOnly: true,
		Handler: func(ctx context.Context, in Intent) (any, error) {
			target, err := requireTarget(in)
			if err != nil {
				return nil, err
			}
			return svc.Ledger.Verify(ctx, target)
		}})
}

func banHandler(svc *services.Services, banned bool) Handler {
	return func(ctx context.Context, in Intent) (any, error) {
		target, err := requireTarget(in)
		if err != nil {
			return nil, err
		}
		return nil, svc.Catalog.SetBanned(ctx, target, banned)
	}
}

package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShop_BuyItem(t *testing.T) {
	svc, store := newTestServices(t)
	ctx := context.Background()
	addUser(t, store, "A", 100)
	sword := addItem(t, store, "Sword", models.RarityRare, 60)
	relic := addItem(t, store, "Relic", models.RarityLegendary, 0)

	_, err := svc.Catalog.GetUser(ctx, "A")
	require.NoError(t, err)

	p, err := svc.Shop.BuyItem(ctx, "A", sword.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 40, p.Balance)
	require.Len(t, p.Entries, 1)
	assert.Equal(t, models.SourcePurchase, p.Entries[0].Source)

	u, err := svc.Catalog.GetUser(ctx, "A")
	require.NoError(t, err)
	assert.EqualValues(t, 40, u.Balance)

	_, err = svc.Shop.BuyItem(ctx, "A", sword.ID)
	require.ErrorIs(t, err, common.ErrInsufficientFunds)
	_, err = svc.Shop.BuyItem(ctx, "A", relic.ID)
	require.ErrorIs(t, err, common.ErrItemNotForSale)
	_, err = svc.Shop.BuyItem(ctx, "A", 404)
	require.ErrorIs(t, err, common.ErrorNotFound)

	inv, err := svc.Catalog.ListInventory(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, inv, 1)

	_, err = svc.Ledger.Verify(ctx, "A")
	require.NoError(t, err)
}

func TestShop_SellEntry(t *testing.T) {
	svc, store := newTestServices(t)
	ctx := context.Background()
	addUser(t, store, "A", 100)
	addUser(t, store, "B", 100)
	sword := addItem(t, store, "Sword", models.RarityRare, 60)
	relic := addItem(t, store, "Relic", models.RarityLegendary, 0)

	bought, err := svc.Shop.BuyItem(ctx, "A", sword.ID)
	require.NoError(t, err)
	relicEntry, err := store.Repositories().Inventory().Add(ctx, &models.InventoryEntry{UserID: "A", ItemID: relic.ID, Source: models.SourceDrop})
	require.NoError(t, err)

	_, err = svc.Shop.SellEntry(ctx, "B", bought.Entries[0].ID)
	require.ErrorIs(t, err, common.ErrorNotFound)

	sale, err := svc.Shop.SellEntry(ctx, "A", bought.Entries[0].ID)
	require.NoError(t, err)
	assert.EqualValues(t, 30, sale.Payout)
	assert.EqualValues(t, 70, sale.Balance)

	sale, err = svc.Shop.SellEntry(ctx, "A", relicEntry.ID)
	require.NoError(t, err)
	assert.Zero(t, sale.Payout)
	assert.EqualValues(t, 70, sale.Balance)

	inv, err := svc.Catalog.ListInventory(ctx, "A")
	require.NoError(t, err)
	assert.Empty(t, inv)

	entries := ledgerOf(t, store, "A")
	require.Len(t, entries, 2)
	assert.Equal(t, models.CategorySale, entries[0].Category)
}

func TestShop_OpenPack(t *testing.T) {
	svc, store := newTestServices(t)
	ctx := context.Background()
	addUser(t, store, "A", 200)
	addUser(t, store, "B", 10)

	assert.Equal(t, []string{"starter"}, svc.Shop.Packs())

	_, err := svc.Shop.OpenPack(ctx, "A", "starter")
	require.ErrorIs(t, err, common.ErrEmptyCatalog)

	addItem(t, store, "Slime", models.RarityCommon, 0)
	addItem(t, store, "Falcon", models.RarityRare, 0)

	p, err := svc.Shop.OpenPack(ctx, "A", "starter")
	require.NoError(t, err)
	assert.EqualValues(t, 50, p.Balance)
	require.Len(t, p.Entries, 3)
	require.Len(t, p.Items, 3)
	for i, e := range p.Entries {
		assert.Equal(t, models.SourcePack, e.Source)
		assert.Equal(t, p.Items[i].ID, e.ItemID)
	}

	_, err = svc.Shop.OpenPack(ctx, "B", "starter")
	require.ErrorIs(t, err, common.ErrInsufficientFunds)
	inv, err := svc.Catalog.ListInventory(ctx, "B")
	require.NoError(t, err)
	assert.Empty(t, inv)

	_, err = svc.Shop.OpenPack(ctx, "A", "mythic")
	require.ErrorIs(t, err, common.ErrUnknownPack)
}

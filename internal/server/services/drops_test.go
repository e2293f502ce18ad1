package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrops_OpenTwiceFails(t *testing.T) {
	svc, store := newTestServices(t)
	ctx := context.Background()
	falcon := addItem(t, store, "Falcon", models.RarityRare, 0)

	item, drop, err := svc.Drops.OpenDrop(ctx)
	require.NoError(t, err)
	assert.Equal(t, falcon.ID, item.ID)
	assert.Equal(t, models.DropUnclaimed, drop.Status)

	_, _, err = svc.Drops.OpenDrop(ctx)
	require.ErrorIs(t, err, common.ErrDropAlreadyOpen)

	recent, err := svc.Drops.RecentDrops(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestDrops_ConcurrentOpenHasOneWinner(t *testing.T) {
	svc, store := newTestServices(t)
	ctx := context.Background()
	addItem(t, store, "Falcon", models.RarityRare, 0)

	const n = 32
	var (
		wg       sync.WaitGroup
		opened   atomic.Int32
		rejected atomic.Int32
	)
	start := make(chan struct{})
	failures := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, _, err := svc.Drops.OpenDrop(ctx)
			switch {
			case err == nil:
				opened.Add(1)
			case errors.Is(err, common.ErrDropAlreadyOpen):
				rejected.Add(1)
			default:
				failures <- err
			}
		}()
	}
	close(start)
	wg.Wait()
	close(failures)

	for err := range failures {
		t.Errorf("unexpected error: %v", err)
	}
	assert.EqualValues(t, 1, opened.Load())
	assert.EqualValues(t, n-1, rejected.Load())

	recent, err := svc.Drops.RecentDrops(ctx, n)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestDrops_OpenOnEmptyCatalog(t *testing.T) {
	svc, _ := newTestServices(t)
	_, _, err := svc.Drops.OpenDrop(context.Background())
	require.ErrorIs(t, err, common.ErrEmptyCatalog)
}

func TestDrops_ClaimThenNoActiveDrop(t *testing.T) {
	svc, store := newTestServices(t)
	ctx := context.Background()
	addItem(t, store, "Falcon", models.RarityRare, 0)
	addUser(t, store, "B", 100)
	addUser(t, store, "C", 100)

	_, _, err := svc.Drops.OpenDrop(ctx)
	require.NoError(t, err)

	item, entry, err := svc.Drops.ClaimDrop(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, "Falcon", item.Name)
	assert.Equal(t, models.SourceDrop, entry.Source)

	inv, err := svc.Catalog.ListInventory(ctx, "B")
	require.NoError(t, err)
	require.Len(t, inv, 1)
	assert.Equal(t, item.ID, inv[0].ItemID)

	_, _, err = svc.Drops.ClaimDrop(ctx, "C")
	require.ErrorIs(t, err, common.ErrNoActiveDrop)

	_, _, err = svc.Drops.CurrentDrop(ctx)
	require.ErrorIs(t, err, common.ErrNoActiveDrop)
}

func TestDrops_ClaimByUnknownUserKeepsDropOpen(t *testing.T) {
	svc, store := newTestServices(t)
	ctx := context.Background()
	addItem(t, store, "Falcon", models.RarityRare, 0)

	_, _, err := svc.Drops.OpenDrop(ctx)
	require.NoError(t, err)

	_, _, err = svc.Drops.ClaimDrop(ctx, "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)

	drop, item, err := svc.Drops.CurrentDrop(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DropUnclaimed, drop.Status)
	assert.Equal(t, "Falcon", item.Name)
}

func TestDrops_FailedInsertRollsBackClaim(t *testing.T) {
	svc, store := newTestServices(t)
	ctx := context.Background()
	addItem(t, store, "Falcon", models.RarityRare, 0)
	addUser(t, store, "B", 100)

	_, _, err := svc.Drops.OpenDrop(ctx)
	require.NoError(t, err)

	store.FailOn("inventory.Add", errors.New("write failed"))
	_, _, err = svc.Drops.ClaimDrop(ctx, "B")
	require.ErrorIs(t, err, common.ErrStorageFailure)
	store.FailOn("inventory.Add", nil)

	// the claim transition was undone with the insert
	_, _, err = svc.Drops.CurrentDrop(ctx)
	require.NoError(t, err)
	_, _, err = svc.Drops.ClaimDrop(ctx, "B")
	require.NoError(t, err)
}

func TestDrops_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	svc, store := newTestServices(t)
	ctx := context.Background()
	addItem(t, store, "Falcon", models.RarityRare, 0)

	const n = 32
	ids := make([]string, n)
	for i := range ids {
		ids[i] = string(rune('a'+i%26)) + string(rune('A'+i/26))
		addUser(t, store, ids[i], 0)
	}

	_, _, err := svc.Drops.OpenDrop(ctx)
	require.NoError(t, err)

	var (
		wg     sync.WaitGroup
		wins   atomic.Int32
		losses atomic.Int32
	)
	start := make(chan struct{})
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			<-start
			_, _, err := svc.Drops.ClaimDrop(ctx, id)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, common.ErrNoActiveDrop), errors.Is(err, common.ErrAlreadyClaimed):
				losses.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
	assert.EqualValues(t, n-1, losses.Load())

	total := 0
	for _, id := range ids {
		inv, err := store.Repositories().Inventory().ListByUser(ctx, id)
		require.NoError(t, err)
		total += len(inv)
	}
	assert.Equal(t, 1, total)
}

func TestDrops_ExpireStale(t *testing.T) {
	svc, store := newTestServices(t)
	ctx := context.Background()
	addItem(t, store, "Falcon", models.RarityRare, 0)

	_, _, err := svc.Drops.OpenDrop(ctx)
	require.NoError(t, err)

	n, err := svc.Drops.ExpireStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	svc.Drops.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err = svc.Drops.ExpireStale(ctx, time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, _, err = svc.Drops.ClaimDrop(ctx, "anyone")
	require.ErrorIs(t, err, common.ErrNoActiveDrop)

	// expiry frees the slot for a new drop
	_, _, err = svc.Drops.OpenDrop(ctx)
	require.NoError(t, err)
}

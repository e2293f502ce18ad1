package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEconomy_DailyOncePerWindow(t *testing.T) {
	svc, store := newTestServices(t)
	ctx := context.Background()
	addUser(t, store, "A", 0)

	r, err := svc.Economy.Daily(ctx, "A")
	require.NoError(t, err)
	assert.EqualValues(t, 100, r.Amount)
	assert.EqualValues(t, 100, r.Balance)

	_, err = svc.Economy.Daily(ctx, "A")
	var ce *common.CooldownError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ActionDaily, ce.Action)
	assert.Positive(t, ce.Remaining)
	assert.LessOrEqual(t, ce.Remaining, int64(24*time.Hour/time.Second))

	entries := ledgerOf(t, store, "A")
	require.Len(t, entries, 1)
	assert.Equal(t, models.CategoryReward, entries[0].Category)
}

func TestEconomy_DailyGuardSurvivesRestart(t *testing.T) {
	svc, store := newTestServices(t)
	ctx := context.Background()
	addUser(t, store, "A", 0)

	_, err := svc.Economy.Daily(ctx, "A")
	require.NoError(t, err)

	// fresh services share the store but not the cooldown tracker
	restarted, _ := newTestServices(t)
	restarted.Economy.repomanager = store
	_, err = restarted.Economy.Daily(ctx, "A")
	require.ErrorIs(t, err, common.ErrCooldownActive)
	assert.EqualValues(t, 100, balanceOf(t, store, "A"))

	// a day later both guards open again
	restarted.Economy.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	r, err := restarted.Economy.Daily(ctx, "A")
	require.NoError(t, err)
	assert.EqualValues(t, 200, r.Balance)
}

func TestEconomy_DailyFailureDoesNotConsumeCooldown(t *testing.T) {
	svc, store := newTestServices(t)
	ctx := context.Background()
	addUser(t, store, "A", 0)

	store.FailOn("ledger.Append", errors.New("broken"))
	_, err := svc.Economy.Daily(ctx, "A")
	require.ErrorIs(t, err, common.ErrStorageFailure)
	store.FailOn("ledger.Append", nil)

	_, err = svc.Economy.Daily(ctx, "A")
	require.NoError(t, err)
}

func TestEconomy_Work(t *testing.T) {
	svc, store := newTestServices(t)
	ctx := context.Background()
	addUser(t, store, "A", 0)

	r, err := svc.Economy.Work(ctx, "A")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r.Amount, int64(10))
	assert.LessOrEqual(t, r.Amount, int64(50))
	assert.Equal(t, r.Amount, r.Balance)

	_, err = svc.Economy.Work(ctx, "A")
	require.ErrorIs(t, err, common.ErrCooldownActive)

	u, err := svc.Catalog.GetUser(ctx, "A")
	require.NoError(t, err)
	assert.EqualValues(t, 1, u.WorkCount)
}

func TestEconomy_WorkUnknownUserKeepsCooldownFree(t *testing.T) {
	svc, store := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Economy.Work(ctx, "A")
	require.ErrorIs(t, err, common.ErrorNotFound)

	addUser(t, store, "A", 0)
	_, err = svc.Economy.Work(ctx, "A")
	require.NoError(t, err)
}

func TestEconomy_Coinflip(t *testing.T) {
	svc, store := newTestServices(t)
	ctx := context.Background()
	addUser(t, store, "A", 100)

	_, err := svc.Economy.Coinflip(ctx, "A", 0)
	require.ErrorIs(t, err, common.ErrInvalidAmount)
	_, err = svc.Economy.Coinflip(ctx, "A", 101)
	require.ErrorIs(t, err, common.ErrInsufficientFunds)

	var wins, losses int64
	balance := int64(100)
	for range 10 {
		w, err := svc.Economy.Coinflip(ctx, "A", 5)
		require.NoError(t, err)
		if w.Won {
			wins++
			balance += 5
		} else {
			losses++
			balance -= 5
		}
		assert.Equal(t, balance, w.Balance)
	}

	u, err := svc.Catalog.GetUser(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, balance, u.Balance)
	assert.Equal(t, wins, u.Wins)
	assert.Equal(t, losses, u.Losses)

	_, err = svc.Ledger.Verify(ctx, "A")
	require.NoError(t, err)
}

func TestRemainingSeconds(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.EqualValues(t, 82800, remainingSeconds(now.Add(-time.Hour), 24*time.Hour, now))
	assert.EqualValues(t, 1, remainingSeconds(now.Add(-time.Hour+time.Millisecond), time.Hour, now))
	assert.Zero(t, remainingSeconds(now.Add(-2*time.Hour), time.Hour, now))
}

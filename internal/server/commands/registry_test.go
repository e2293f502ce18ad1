package commands

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/logging"
	"github.com/dmitrijs2005/lootledger/internal/server/config"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/memory"
	"github.com/dmitrijs2005/lootledger/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *services.Services) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	svc := services.New(memory.New(), cfg, logging.NopLogger{})
	return NewRegistry(svc, logging.NopLogger{}), svc
}

func TestKind_NamesRoundTrip(t *testing.T) {
	for k := KindOpenDrop; k <= KindVerify; k++ {
		name := k.String()
		got, ok := ParseKind(" " + name + " ")
		require.True(t, ok, name)
		assert.Equal(t, k, got)
	}
	_, ok := ParseKind("launch-missiles")
	assert.False(t, ok)
	assert.Equal(t, "kind(99)", Kind(99).String())
}

func TestRegistry_EveryKindRegistered(t *testing.T) {
	r, _ := newTestRegistry(t)
	cmds := r.Commands()
	require.Len(t, cmds, int(KindVerify))
	for i, c := range cmds {
		assert.Equal(t, Kind(i+1), c.Kind)
		assert.NotNil(t, c.Handler, c.Name)
		assert.Equal(t, c.Kind.String(), c.Name)
		if c.Category == CategoryAdmin {
			assert.True(t, c.AdminOnly, c.Name)
		}
	}
}

func TestDispatch_UnknownKind(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.Dispatch(context.Background(), Intent{Kind: Kind(99), ActorID: "A"})
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestDispatch_AdminOnly(t *testing.T) {
	r, svc := newTestRegistry(t)
	ctx := context.Background()
	mint := Intent{Kind: KindMint, ActorID: "A", Args: Args{Item: &models.Item{Name: "Falcon", Rarity: models.RarityRare}}}

	_, err := r.Dispatch(ctx, mint)
	require.ErrorIs(t, err, common.ErrForbidden)

	// rejected before the actor is even created
	_, err = svc.Catalog.GetUser(ctx, "A")
	require.ErrorIs(t, err, common.ErrorNotFound)

	mint.Admin = true
	res, err := r.Dispatch(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, "Falcon", res.(*models.Item).Name)
}

func TestDispatch_CreatesActorOnFirstSight(t *testing.T) {
	r, _ := newTestRegistry(t)
	res, err := r.Dispatch(context.Background(), Intent{Kind: KindBalance, ActorID: "A", DisplayName: "alice"})
	require.NoError(t, err)
	u := res.(*models.User)
	assert.EqualValues(t, 100, u.Balance)
	assert.Equal(t, "alice", u.DisplayName)
}

func TestDispatch_BannedActor(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.Dispatch(ctx, Intent{Kind: KindBan, ActorID: "mod", Admin: true, Args: Args{TargetID: "A"}})
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = r.Dispatch(ctx, Intent{Kind: KindBalance, ActorID: "A"})
	require.NoError(t, err)
	_, err = r.Dispatch(ctx, Intent{Kind: KindBan, ActorID: "mod", Admin: true, Args: Args{TargetID: "A"}})
	require.NoError(t, err)

	_, err = r.Dispatch(ctx, Intent{Kind: KindDaily, ActorID: "A"})
	require.ErrorIs(t, err, common.ErrUserBanned)

	_, err = r.Dispatch(ctx, Intent{Kind: KindUnban, ActorID: "mod", Admin: true, Args: Args{TargetID: "A"}})
	require.NoError(t, err)
	_, err = r.Dispatch(ctx, Intent{Kind: KindDaily, ActorID: "A"})
	require.NoError(t, err)
}

func TestDispatch_CooldownFromTable(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	// a failed coinflip does not start the cooldown
	_, err := r.Dispatch(ctx, Intent{Kind: KindCoinflip, ActorID: "A", Args: Args{Amount: 1000}})
	require.ErrorIs(t, err, common.ErrInsufficientFunds)

	_, err = r.Dispatch(ctx, Intent{Kind: KindCoinflip, ActorID: "A", Args: Args{Amount: 10}})
	require.NoError(t, err)

	_, err = r.Dispatch(ctx, Intent{Kind: KindCoinflip, ActorID: "A", Args: Args{Amount: 10}})
	var ce *common.CooldownError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "coinflip", ce.Action)
	assert.Positive(t, ce.Remaining)
}

func TestDispatch_TransferCreatesRecipient(t *testing.T) {
	r, svc := newTestRegistry(t)
	ctx := context.Background()

	res, err := r.Dispatch(ctx, Intent{Kind: KindTransfer, ActorID: "A", Args: Args{TargetID: "B", Amount: 30, Reason: "birthday"}})
	require.NoError(t, err)
	tr := res.(*services.TransferResult)
	assert.EqualValues(t, 70, tr.FromBalance)
	assert.EqualValues(t, 130, tr.ToBalance)

	_, err = r.Dispatch(ctx, Intent{Kind: KindTransfer, ActorID: "A", Args: Args{Amount: 30}})
	require.ErrorIs(t, err, common.ErrInvalidArgument)
	_, err = r.Dispatch(ctx, Intent{Kind: KindTransfer, ActorID: "A", Args: Args{TargetID: "A", Amount: 30}})
	require.ErrorIs(t, err, common.ErrInvalidTransfer)

	_, err = svc.Ledger.Verify(ctx, "B")
	require.NoError(t, err)
}

func TestDispatch_DropFlow(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.Dispatch(ctx, Intent{Kind: KindMint, ActorID: "mod", Admin: true,
		Args: Args{Item: &models.Item{Name: "Falcon", Rarity: models.RarityRare, Price: 25}}})
	require.NoError(t, err)

	_, err = r.Dispatch(ctx, Intent{Kind: KindOpenDrop, ActorID: "mod", Admin: true})
	require.NoError(t, err)

	res, err := r.Dispatch(ctx, Intent{Kind: KindClaimDrop, ActorID: "B"})
	require.NoError(t, err)
	assert.Equal(t, "Falcon", res.(*DropResult).Item.Name)

	_, err = r.Dispatch(ctx, Intent{Kind: KindClaimDrop, ActorID: "C"})
	require.ErrorIs(t, err, common.ErrNoActiveDrop)

	res, err = r.Dispatch(ctx, Intent{Kind: KindBuy, ActorID: "C", Args: Args{Name: "falcon"}})
	require.NoError(t, err)
	assert.EqualValues(t, 75, res.(*services.Purchase).Balance)

	res, err = r.Dispatch(ctx, Intent{Kind: KindInventory, ActorID: "C"})
	require.NoError(t, err)
	assert.Len(t, res.([]*models.InventoryEntry), 1)
}

func TestDispatch_AdminAdjustAndVerify(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	res, err := r.Dispatch(ctx, Intent{Kind: KindAdjust, ActorID: "mod", Admin: true,
		Args: Args{TargetID: "A", Amount: -40, Reason: "refund"}})
	require.NoError(t, err)
	assert.EqualValues(t, 60, res.(*BalanceResult).Balance)

	_, err = r.Dispatch(ctx, Intent{Kind: KindVerify, ActorID: "mod", Admin: true, Args: Args{TargetID: "A"}})
	require.NoError(t, err)

	_, err = r.Dispatch(ctx, Intent{Kind: KindReset, ActorID: "mod", Admin: true, Args: Args{TargetID: "A"}})
	require.NoError(t, err)
	res, err = r.Dispatch(ctx, Intent{Kind: KindBalance, ActorID: "A"})
	require.NoError(t, err)
	assert.EqualValues(t, 100, res.(*models.User).Balance)
}

func TestDispatch_CreditDebitTargetActorByDefault(t *testing.T) {
	r, svc := newTestRegistry(t)
	ctx := context.Background()

	res, err := r.Dispatch(ctx, Intent{Kind: KindCredit, ActorID: "A", Admin: true, Args: Args{Amount: 20, Category: models.CategoryReward}})
	require.NoError(t, err)
	assert.EqualValues(t, 120, res.(*BalanceResult).Balance)

	_, err = r.Dispatch(ctx, Intent{Kind: KindDebit, ActorID: "A", Admin: true, Args: Args{Amount: 500}})
	require.ErrorIs(t, err, common.ErrInsufficientFunds)

	_, err = r.Dispatch(ctx, Intent{Kind: KindDebit, ActorID: "A", Args: Args{Amount: 5}})
	require.ErrorIs(t, err, common.ErrForbidden)

	h, err := svc.Ledger.History(ctx, "A", 10)
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, models.CategoryReward, h[0].Category)
}

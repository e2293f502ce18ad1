package grpc

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/server/commands"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/dmitrijs2005/lootledger/internal/server/services"
)

func intent(ctx context.Context, kind commands.Kind, a Actor, args commands.Args) commands.Intent {
	return commands.Intent{
		Kind:        kind,
		ActorID:     strings.TrimSpace(a.ActorID),
		DisplayName: a.DisplayName,
		Admin:       isAdmin(ctx),
		Args:        args,
	}
}

func (s *GRPCServer) dispatch(ctx context.Context, in commands.Intent) (any, error) {
	if in.ActorID == "" {
		return nil, toStatus(fmt.Errorf("%w: actor_id is required", common.ErrInvalidArgument))
	}
	res, err := s.registry.Dispatch(ctx, in)
	if err != nil {
		return nil, toStatus(err)
	}
	return res, nil
}

func (s *GRPCServer) itemView(ctx context.Context, it *models.Item) *ItemView {
	if it == nil {
		return nil
	}
	url, err := s.artwork.URL(ctx, it.ArtworkRef)
	if err != nil {
		// artwork is decoration; the item is still served
		url = ""
	}
	return &ItemView{
		ID:           it.ID,
		Name:         it.Name,
		Rarity:       it.Rarity,
		Description:  it.Description,
		ArtworkURL:   url,
		Price:        it.Price,
		Attack:       it.Attack,
		Defense:      it.Defense,
		EnchantLevel: it.EnchantLevel,
	}
}

func (s *GRPCServer) itemViews(ctx context.Context, items []*models.Item) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, it := range items {
		out = append(out, *s.itemView(ctx, it))
	}
	return out
}

func (s *GRPCServer) OpenDrop(ctx context.Context, req *ActorRequest) (*DropResponse, error) {
	res, err := s.dispatch(ctx, intent(ctx, commands.KindOpenDrop, req.Actor, commands.Args{}))
	if err != nil {
		return nil, err
	}
	d := res.(*commands.DropResult)
	return &DropResponse{DropID: d.Drop.ID, Item: s.itemView(ctx, d.Item)}, nil
}

func (s *GRPCServer) ClaimDrop(ctx context.Context, req *ActorRequest) (*DropResponse, error) {
	res, err := s.dispatch(ctx, intent(ctx, commands.KindClaimDrop, req.Actor, commands.Args{}))
	if err != nil {
		return nil, err
	}
	d := res.(*commands.DropResult)
	return &DropResponse{EntryID: d.Entry.ID, Item: s.itemView(ctx, d.Item)}, nil
}

func (s *GRPCServer) balanceCall(ctx context.Context, kind commands.Kind, req *AmountRequest) (*BalanceResponse, error) {
	res, err := s.dispatch(ctx, intent(ctx, kind, req.Actor, commands.Args{
		Amount:   req.Amount,
		Category: models.LedgerCategory(req.Category),
		Reason:   req.Reason,
	}))
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{Balance: res.(*commands.BalanceResult).Balance}, nil
}

func (s *GRPCServer) Credit(ctx context.Context, req *AmountRequest) (*BalanceResponse, error) {
	return s.balanceCall(ctx, commands.KindCredit, req)
}

func (s *GRPCServer) Debit(ctx context.Context, req *AmountRequest) (*BalanceResponse, error) {
	return s.balanceCall(ctx, commands.KindDebit, req)
}

func (s *GRPCServer) Transfer(ctx context.Context, req *TransferRequest) (*TransferResponse, error) {
	res, err := s.dispatch(ctx, intent(ctx, commands.KindTransfer, req.Actor, commands.Args{
		TargetID: req.ToID,
		Amount:   req.Amount,
		Category: models.LedgerCategory(req.Category),
		Reason:   req.Reason,
	}))
	if err != nil {
		return nil, err
	}
	t := res.(*services.TransferResult)
	return &TransferResponse{OperationID: t.OperationID, FromBalance: t.FromBalance, ToBalance: t.ToBalance}, nil
}

func (s *GRPCServer) GetUser(ctx context.Context, req *ActorRequest) (*UserResponse, error) {
	res, err := s.dispatch(ctx, intent(ctx, commands.KindBalance, req.Actor, commands.Args{}))
	if err != nil {
		return nil, err
	}
	return userResponse(res.(*models.User)), nil
}

func (s *GRPCServer) GetItem(ctx context.Context, req *ItemRequest) (*ItemResponse, error) {
	it, err := s.catalog.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ItemResponse{Item: s.itemView(ctx, it)}, nil
}

func (s *GRPCServer) ListInventory(ctx context.Context, req *ActorRequest) (*InventoryResponse, error) {
	res, err := s.dispatch(ctx, intent(ctx, commands.KindInventory, req.Actor, commands.Args{}))
	if err != nil {
		return nil, err
	}
	entries := res.([]*models.InventoryEntry)
	out := &InventoryResponse{Entries: make([]EntryView, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, entryView(e))
	}
	return out, nil
}

func (s *GRPCServer) ListShop(ctx context.Context, req *ActorRequest) (*ShopResponse, error) {
	items, err := s.catalog.ListShopItems(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ShopResponse{Items: s.itemViews(ctx, items)}, nil
}

func (s *GRPCServer) MintItem(ctx context.Context, req *MintRequest) (*ItemResponse, error) {
	res, err := s.dispatch(ctx, intent(ctx, commands.KindMint, req.Actor, commands.Args{
		Item: &models.Item{
			Name:        req.Name,
			Rarity:      req.Rarity,
			Description: req.Description,
			ArtworkRef:  req.ArtworkRef,
			Price:       req.Price,
			Attack:      req.Attack,
			Defense:     req.Defense,
		},
	}))
	if err != nil {
		return nil, err
	}
	return &ItemResponse{Item: s.itemView(ctx, res.(*models.Item))}, nil
}

func (s *GRPCServer) BuyItem(ctx context.Context, req *ItemRequest) (*PurchaseResponse, error) {
	res, err := s.dispatch(ctx, intent(ctx, commands.KindBuy, req.Actor, commands.Args{ItemID: req.ItemID}))
	if err != nil {
		return nil, err
	}
	p := res.(*services.Purchase)
	out := &PurchaseResponse{Balance: p.Balance, Items: s.itemViews(ctx, p.Items)}
	for _, e := range p.Entries {
		out.EntryIDs = append(out.EntryIDs, e.ID)
	}
	return out, nil
}

func (s *GRPCServer) Daily(ctx context.Context, req *ActorRequest) (*RewardResponse, error) {
	res, err := s.dispatch(ctx, intent(ctx, commands.KindDaily, req.Actor, commands.Args{}))
	if err != nil {
		return nil, err
	}
	r := res.(*services.Reward)
	return &RewardResponse{Amount: r.Amount, Balance: r.Balance}, nil
}

// ArtworkUploadURL hands an admin a presigned PUT URL and the key to use as
// the artwork reference when minting.
func (s *GRPCServer) ArtworkUploadURL(ctx context.Context, req *ActorRequest) (*UploadURLResponse, error) {
	if !isAdmin(ctx) {
		return nil, toStatus(common.ErrForbidden)
	}
	key, url, err := s.artwork.UploadURL(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &UploadURLResponse{Key: key, URL: url}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *PingRequest) (*PingResponse, error) {
	return &PingResponse{Status: "OK"}, nil
}

package client

import (
	"context"

	gs "github.com/dmitrijs2005/lootledger/internal/server/grpc"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	OpenDrop(ctx context.Context, actor gs.Actor) (*gs.DropResponse, error)
	ClaimDrop(ctx context.Context, actor gs.Actor) (*gs.DropResponse, error)
	Credit(ctx context.Context, actor gs.Actor, amount int64, reason string) (int64, error)
	Debit(ctx context.Context, actor gs.Actor, amount int64, reason string) (int64, error)
	Transfer(ctx context.Context, actor gs.Actor, toID string, amount int64, reason string) (*gs.TransferResponse, error)
	GetUser(ctx context.Context, actor gs.Actor) (*gs.UserResponse, error)
	GetItem(ctx context.Context, itemID int64) (*gs.ItemView, error)
	ListInventory(ctx context.Context, actor gs.Actor) ([]gs.EntryView, error)
	ListShop(ctx context.Context, actor gs.Actor) ([]gs.ItemView, error)
	MintItem(ctx context.Context, req *gs.MintRequest) (*gs.ItemView, error)
	BuyItem(ctx context.Context, actor gs.Actor, itemID int64) (*gs.PurchaseResponse, error)
	Daily(ctx context.Context, actor gs.Actor) (*gs.RewardResponse, error)
	ArtworkUploadURL(ctx context.Context, actor gs.Actor) (key, url string, err error)
}

package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "lootledger.v1.Ledger"

// LedgerServer is the RPC surface of the economy.
type LedgerServer interface {
	OpenDrop(context.Context, *ActorRequest) (*DropResponse, error)
	ClaimDrop(context.Context, *ActorRequest) (*DropResponse, error)
	Credit(context.Context, *AmountRequest) (*BalanceResponse, error)
	Debit(context.Context, *AmountRequest) (*BalanceResponse, error)
	Transfer(context.Context, *TransferRequest) (*TransferResponse, error)
	GetUser(context.Context, *ActorRequest) (*UserResponse, error)
	GetItem(context.Context, *ItemRequest) (*ItemResponse, error)
	ListInventory(context.Context, *ActorRequest) (*InventoryResponse, error)
	ListShop(context.Context, *ActorRequest) (*ShopResponse, error)
	MintItem(context.Context, *MintRequest) (*ItemResponse, error)
	BuyItem(context.Context, *ItemRequest) (*PurchaseResponse, error)
	Daily(context.Context, *ActorRequest) (*RewardResponse, error)
	ArtworkUploadURL(context.Context, *ActorRequest) (*UploadURLResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// FullMethod returns the gRPC method path for name.
func FullMethod(name string) string { return "/" + ServiceName + "/" + name }

func unary[Req, Resp any](name string, call func(LedgerServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(LedgerServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("OpenDrop", LedgerServer.OpenDrop),
		unary("ClaimDrop", LedgerServer.ClaimDrop),
		unary("Credit", LedgerServer.Credit),
		unary("Debit", LedgerServer.Debit),
		unary("Transfer", LedgerServer.Transfer),
		unary("GetUser", LedgerServer.GetUser),
		unary("GetItem", LedgerServer.GetItem),
		unary("ListInventory", LedgerServer.ListInventory),
		unary("ListShop", LedgerServer.ListShop),
		unary("MintItem", LedgerServer.MintItem),
		unary("BuyItem", LedgerServer.BuyItem),
		unary("Daily", LedgerServer.Daily),
		unary("ArtworkUploadURL", LedgerServer.ArtworkUploadURL),
		unary("Ping", LedgerServer.Ping),
	},
	Metadata: "lootledger/v1/ledger",
}

func RegisterLedgerServer(r grpc.ServiceRegistrar, s LedgerServer) {
	r.RegisterService(&serviceDesc, s)
}

package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/common"
	gs "github.com/dmitrijs2005/lootledger/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// TokenSource mints a fresh access token. It is consulted once per call
// rejected with an expired token.
type TokenSource func() (string, error)

// invoker is the subset of *grpc.ClientConn the client needs.
type invoker interface {
	Invoke(ctx context.Context, method string, args any, reply any, opts ...grpc.CallOption) error
}

type GRPCClient struct {
	endpointURL string
	dialOpts    []grpc.DialOption
	conn        *grpc.ClientConn
	cc          invoker
	timeout     time.Duration

	mu          sync.Mutex
	accessToken string
	tokenSource TokenSource
}

var _ Client = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	err := invoker(withAccessToken(ctx, s.token()), method, req, reply, cc, opts...)

	if err != nil {

		st, ok := status.FromError(err)
		if !ok {
			return err
		}

		if st.Code() != codes.Unauthenticated {
			return err
		}
		if st.Message() != common.ErrTokenExpired.Error() {
			return err
		}

		if s.tokenSource == nil {
			return err
		}

		token, err := s.tokenSource()
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.accessToken = token
		s.mu.Unlock()

		return invoker(withAccessToken(ctx, token), method, req, reply, cc, opts...)
	}

	return nil
}

// Option configures a GRPCClient.
type Option func(*GRPCClient)

// WithTokenSource lets the client replace an expired token on its own.
func WithTokenSource(ts TokenSource) Option {
	return func(c *GRPCClient) { c.tokenSource = ts }
}

// WithTimeout bounds every call. Zero leaves calls bounded by the caller's context only.
func WithTimeout(d time.Duration) Option {
	return func(c *GRPCClient) { c.timeout = d }
}

// WithDialOptions appends transport options, e.g. a custom dialer in tests.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *GRPCClient) { c.dialOpts = append(c.dialOpts, opts...) }
}

func NewLedgerClient(endpointURL, accessToken string, opts ...Option) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken, timeout: 10 * time.Second}
	for _, o := range opts {
		o(c)
	}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {

	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(gs.Codec())),
	}, s.dialOpts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.cc = conn
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) call(ctx context.Context, method string, req, resp any) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.mapError(s.cc.Invoke(ctx, gs.FullMethod(method), req, resp))
}

func (s *GRPCClient) Ping(ctx context.Context) error {

	var resp gs.PingResponse
	if err := s.call(ctx, "Ping", &gs.PingRequest{}, &resp); err != nil {
		return err
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil

}

func (s *GRPCClient) OpenDrop(ctx context.Context, actor gs.Actor) (*gs.DropResponse, error) {
	var resp gs.DropResponse
	if err := s.call(ctx, "OpenDrop", &gs.ActorRequest{Actor: actor}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *GRPCClient) ClaimDrop(ctx context.Context, actor gs.Actor) (*gs.DropResponse, error) {
	var resp gs.DropResponse
	if err := s.call(ctx, "ClaimDrop", &gs.ActorRequest{Actor: actor}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *GRPCClient) Credit(ctx context.Context, actor gs.Actor, amount int64, reason string) (int64, error) {
	var resp gs.BalanceResponse
	if err := s.call(ctx, "Credit", &gs.AmountRequest{Actor: actor, Amount: amount, Reason: reason}, &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

func (s *GRPCClient) Debit(ctx context.Context, actor gs.Actor, amount int64, reason string) (int64, error) {
	var resp gs.BalanceResponse
	if err := s.call(ctx, "Debit", &gs.AmountRequest{Actor: actor, Amount: amount, Reason: reason}, &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

func (s *GRPCClient) Transfer(ctx context.Context, actor gs.Actor, toID string, amount int64, reason string) (*gs.TransferResponse, error) {
	var resp gs.TransferResponse
	req := &gs.TransferRequest{Actor: actor, ToID: toID, Amount: amount, Reason: reason}
	if err := s.call(ctx, "Transfer", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *GRPCClient) GetUser(ctx context.Context, actor gs.Actor) (*gs.UserResponse, error) {
	var resp gs.UserResponse
	if err := s.call(ctx, "GetUser", &gs.ActorRequest{Actor: actor}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *GRPCClient) GetItem(ctx context.Context, itemID int64) (*gs.ItemView, error) {
	var resp gs.ItemResponse
	if err := s.call(ctx, "GetItem", &gs.ItemRequest{ItemID: itemID}, &resp); err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (s *GRPCClient) ListInventory(ctx context.Context, actor gs.Actor) ([]gs.EntryView, error) {
	var resp gs.InventoryResponse
	if err := s.call(ctx, "ListInventory", &gs.ActorRequest{Actor: actor}, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (s *GRPCClient) ListShop(ctx context.Context, actor gs.Actor) ([]gs.ItemView, error) {
	var resp gs.ShopResponse
	if err := s.call(ctx, "ListShop", &gs.ActorRequest{Actor: actor}, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (s *GRPCClient) MintItem(ctx context.Context, req *gs.MintRequest) (*gs.ItemView, error) {
	var resp gs.ItemResponse
	if err := s.call(ctx, "MintItem", req, &resp); err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (s *GRPCClient) BuyItem(ctx context.Context, actor gs.Actor, itemID int64) (*gs.PurchaseResponse, error) {
	var resp gs.PurchaseResponse
	if err := s.call(ctx, "BuyItem", &gs.ItemRequest{Actor: actor, ItemID: itemID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *GRPCClient) Daily(ctx context.Context, actor gs.Actor) (*gs.RewardResponse, error) {
	var resp gs.RewardResponse
	if err := s.call(ctx, "Daily", &gs.ActorRequest{Actor: actor}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *GRPCClient) ArtworkUploadURL(ctx context.Context, actor gs.Actor) (string, string, error) {
	var resp gs.UploadURLResponse
	if err := s.call(ctx, "ArtworkUploadURL", &gs.ActorRequest{Actor: actor}, &resp); err != nil {
		return "", "", err
	}
	return resp.Key, resp.URL, nil
}

// mapError keeps domain failures as status errors so callers can show the
// server's message, and folds transport problems into sentinels.
func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrUnavailable
		}
		return err
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return err
	}
}

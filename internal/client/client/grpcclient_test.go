package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/logging"
	"github.com/dmitrijs2005/lootledger/internal/server/artwork"
	"github.com/dmitrijs2005/lootledger/internal/server/auth"
	"github.com/dmitrijs2005/lootledger/internal/server/commands"
	"github.com/dmitrijs2005/lootledger/internal/server/config"
	gs "github.com/dmitrijs2005/lootledger/internal/server/grpc"
	"github.com/dmitrijs2005/lootledger/internal/server/models"
	"github.com/dmitrijs2005/lootledger/internal/server/repositories/memory"
	"github.com/dmitrijs2005/lootledger/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const secret = "secret"

func mint(t *testing.T, subject string, admin bool, validity time.Duration) string {
	t.Helper()
	tok, err := auth.GenerateToken(subject, admin, []byte(secret), validity)
	require.NoError(t, err)
	return tok
}

// startServer runs a real ledger service on the memory store behind bufconn.
func startServer(t *testing.T) grpc.DialOption {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	svc := services.New(memory.New(), cfg, logging.NopLogger{})
	srv := gs.NewGRPCServer(gs.Options{SecretKey: secret}, logging.NopLogger{},
		commands.NewRegistry(svc, logging.NopLogger{}), svc.Catalog, artwork.NewResolver(cfg, logging.NopLogger{}))

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx, lis)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) })
}

func newTestClient(t *testing.T, dialer grpc.DialOption, token string, opts ...Option) *GRPCClient {
	t.Helper()
	c, err := NewLedgerClient("passthrough:///bufnet", token, append(opts, WithDialOptions(dialer))...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGRPCClient_DropAndLedgerFlow(t *testing.T) {
	dialer := startServer(t)
	admin := newTestClient(t, dialer, mint(t, "ops", true, time.Hour))
	bot := newTestClient(t, dialer, mint(t, "bot", false, time.Hour))
	ctx := context.Background()

	require.NoError(t, bot.Ping(ctx))

	item, err := admin.MintItem(ctx, &gs.MintRequest{Actor: gs.Actor{ActorID: "ops"}, Name: "Owl", Rarity: models.RarityCommon, Price: 25})
	require.NoError(t, err)

	_, err = bot.OpenDrop(ctx, gs.Actor{ActorID: "A"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = admin.OpenDrop(ctx, gs.Actor{ActorID: "ops"})
	require.NoError(t, err)

	got, err := bot.ClaimDrop(ctx, gs.Actor{ActorID: "A"})
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.Item.ID)

	_, err = bot.ClaimDrop(ctx, gs.Actor{ActorID: "B"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	inv, err := bot.ListInventory(ctx, gs.Actor{ActorID: "A"})
	require.NoError(t, err)
	require.Len(t, inv, 1)

	tr, err := bot.Transfer(ctx, gs.Actor{ActorID: "A"}, "B", 40, "")
	require.NoError(t, err)
	assert.EqualValues(t, 60, tr.FromBalance)
	assert.EqualValues(t, 140, tr.ToBalance)

	bal, err := admin.Credit(ctx, gs.Actor{ActorID: "A"}, 15, "refund")
	require.NoError(t, err)
	assert.EqualValues(t, 75, bal)

	bal, err = admin.Debit(ctx, gs.Actor{ActorID: "A"}, 5, "")
	require.NoError(t, err)
	assert.EqualValues(t, 70, bal)

	u, err := bot.GetUser(ctx, gs.Actor{ActorID: "A"})
	require.NoError(t, err)
	assert.EqualValues(t, 70, u.Balance)

	shop, err := bot.ListShop(ctx, gs.Actor{ActorID: "A"})
	require.NoError(t, err)
	require.Len(t, shop, 1)

	p, err := bot.BuyItem(ctx, gs.Actor{ActorID: "A"}, item.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 45, p.Balance)

	view, err := bot.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Owl", view.Name)

	r, err := bot.Daily(ctx, gs.Actor{ActorID: "A"})
	require.NoError(t, err)
	assert.EqualValues(t, 145, r.Balance)

	_, _, err = admin.ArtworkUploadURL(ctx, gs.Actor{ActorID: "ops"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestGRPCClient_RemintsExpiredToken(t *testing.T) {
	dialer := startServer(t)
	calls := 0
	c := newTestClient(t, dialer, mint(t, "bot", false, -time.Minute), WithTokenSource(func() (string, error) {
		calls++
		return mint(t, "bot", false, time.Hour), nil
	}))

	_, err := c.GetUser(context.Background(), gs.Actor{ActorID: "A"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = c.GetUser(context.Background(), gs.Actor{ActorID: "A"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestGRPCClient_ExpiredWithoutSource(t *testing.T) {
	dialer := startServer(t)
	c := newTestClient(t, dialer, mint(t, "bot", false, -time.Minute))

	_, err := c.GetUser(context.Background(), gs.Actor{ActorID: "A"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

/*************
 * accessTokenInterceptor tests
 *************/

func TestInterceptor_SendsToken(t *testing.T) {
	c := &GRPCClient{accessToken: "A1"}
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		require.Equal(t, []string{"A1"}, md.Get(common.AccessTokenHeaderName))
		return nil
	}
	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, "stale")
	require.NoError(t, c.accessTokenInterceptor(ctx, "/svc/Method", nil, nil, nil, invoker))
}

func TestInterceptor_SourceErrorIsReturned(t *testing.T) {
	boom := errors.New("no secret")
	c := &GRPCClient{accessToken: "A1", tokenSource: func() (string, error) { return "", boom }}
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}
	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "A1", c.accessToken)
}

func TestInterceptor_UnauthenticatedButDifferentMessage_NoRefresh(t *testing.T) {
	called := false
	c := &GRPCClient{accessToken: "X", tokenSource: func() (string, error) { called = true; return "Y", nil }}
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, "some other reason")
	}
	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
	assert.False(t, called)
}

/*************
 * mapError tests
 *************/

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	require.NoError(t, c.mapError(nil))
	require.Equal(t, ErrUnauthorized, c.mapError(status.Error(codes.Unauthenticated, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.Unavailable, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.DeadlineExceeded, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(context.DeadlineExceeded))

	domain := status.Error(codes.FailedPrecondition, "insufficient funds")
	require.Equal(t, domain, c.mapError(domain))
}

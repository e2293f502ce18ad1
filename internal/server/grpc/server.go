package grpc

import (
	"context"
	"net"
	"sync"

	"github.com/dmitrijs2005/lootledger/internal/logging"
	"github.com/dmitrijs2005/lootledger/internal/server/artwork"
	"github.com/dmitrijs2005/lootledger/internal/server/commands"
	"github.com/dmitrijs2005/lootledger/internal/server/services"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address   string
	registry  *commands.Registry
	catalog   *services.CatalogService
	artwork   *artwork.Resolver
	logger    logging.Logger
	jwtSecret []byte

	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

var _ LedgerServer = (*GRPCServer)(nil)

// Options are the transport settings of the server.
type Options struct {
	Address   string
	SecretKey string
	RateLimit float64
	RateBurst int
}

func NewGRPCServer(opts Options, l logging.Logger, registry *commands.Registry, catalog *services.CatalogService, art *artwork.Resolver) *GRPCServer {
	return &GRPCServer{
		address:   opts.Address,
		registry:  registry,
		catalog:   catalog,
		artwork:   art,
		logger:    l.With("module", "grpc_server"),
		jwtSecret: []byte(opts.SecretKey),
		limit:     rate.Limit(opts.RateLimit),
		burst:     opts.RateBurst,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// NewServer builds the grpc.Server with the JSON codec, the interceptor
// chain and the ledger service registered.
func (s *GRPCServer) NewServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor, s.rateLimitInterceptor),
	)
	RegisterLedgerServer(srv, s)
	return srv
}

// Serve accepts connections on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

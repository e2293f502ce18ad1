package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/common"
	"github.com/dmitrijs2005/lootledger/internal/server/auth"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const (
	claimsKey    ctxKey = "claims"
	requestIDKey ctxKey = "requestID"
)

// publicMethods skip authentication.
var publicMethods = map[string]bool{
	FullMethod("Ping"): true,
}

func claimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey).(*auth.Claims)
	return c
}

func isAdmin(ctx context.Context) bool {
	c := claimsFrom(ctx)
	return c != nil && c.Admin
}

func firstMetadata(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	requestID := firstMetadata(ctx, common.RequestIDHeaderName)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "rpc",
		"method", info.FullMethod,
		"request_id", requestID,
		"code", status.Code(err).String(),
		"duration", time.Since(start).String())
	return resp, err
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	accessToken := firstMetadata(ctx, common.AccessTokenHeaderName)
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	claims, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	return handler(context.WithValue(ctx, claimsKey, claims), req)
}

func (s *GRPCServer) limiter(actorID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[actorID]
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[actorID] = l
	}
	return l
}

// rateLimitInterceptor throttles each actor with its own token bucket. A
// non-positive limit disables it.
func (s *GRPCServer) rateLimitInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	ar, ok := req.(actorRequest)
	if !ok || s.limit <= 0 || ar.actor() == "" {
		return handler(ctx, req)
	}
	if !s.limiter(ar.actor()).Allow() {
		return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
	}
	return handler(ctx, req)
}

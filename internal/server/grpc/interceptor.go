package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/accounts"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const accountKey ctxKey = "account"

// publicPrefixes lists methods reachable without a token.
var publicPrefixes = []string{
	"/grpc.health.v1.Health/",
}

// AccountFromContext returns the account attached by the identity gate.
func AccountFromContext(ctx context.Context) (*accounts.Account, bool) {
	a, ok := ctx.Value(accountKey).(*accounts.Account)
	return a, ok && a != nil
}

func withAccount(ctx context.Context, a *accounts.Account) context.Context {
	return context.WithValue(ctx, accountKey, a)
}

func isPublic(method string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(method, p) {
			return true
		}
	}
	return false
}

// tokenFromMetadata reads "authorization: Bearer <t>", falling back to the
// access_token key.
func tokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get(common.AuthorizationHeaderName) {
		scheme, token, found := strings.Cut(v, " ")
		if found && strings.EqualFold(scheme, common.TokenTypeBearer) && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token)
		}
	}
	if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
		return values[0]
	}
	return ""
}

func (s *GRPCServer) identityInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if isPublic(info.FullMethod) {
		return handler(ctx, req)
	}

	token := tokenFromMetadata(ctx)
	if token == "" {
		s.observe(common.ErrorUnauthorized)
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	account, err := s.identity.ResolveIdentity(ctx, token)
	s.observe(err)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorInactiveAccount):
			return nil, status.Error(codes.PermissionDenied, "inactive user")
		case errors.Is(err, common.ErrorUnauthorized):
			return nil, status.Error(codes.Unauthenticated, "could not validate credentials")
		default:
			s.logger.Error(ctx, "identity check failed", "method", info.FullMethod, "error", err)
			return nil, status.Error(codes.Internal, "internal error")
		}
	}

	return handler(withAccount(ctx, account), req)
}

func (s *GRPCServer) observe(err error) {
	if s.metrics != nil {
		s.metrics.ObserveIdentity("grpc", err)
	}
}

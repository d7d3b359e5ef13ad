package grpc

import (
	"context"

	"github.com/dmitrijs2005/cloudstorage/internal/cloudpb"
	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"github.com/dmitrijs2005/cloudstorage/internal/server/access"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// tokenFromContext returns the auth-token metadata value, or "".
func tokenFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.AuthTokenHeaderName)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// accessTokenInterceptor resolves the caller of storage methods. Calls
// without a token go through anonymously and are rejected by the service.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	switch info.FullMethod {
	case cloudpb.LoginMethod, cloudpb.LogoutMethod:
		return handler(ctx, req)
	}

	token := tokenFromContext(ctx)
	if token == "" {
		return handler(ctx, req)
	}

	user, err := s.gate.Authenticate(ctx, token)
	if err != nil {
		return nil, toStatus(err)
	}

	return handler(access.WithUser(ctx, user), req)
}

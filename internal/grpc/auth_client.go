package grpc

import (
	"context"
	"errors"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"friend-chat-service/internal/observability"
)

// ValidateTokenMethod is the auth-service RPC taking the raw token as a
// StringValue and answering with the user id as an Int64Value.
const ValidateTokenMethod = "/auth.AuthService/ValidateToken"

var errInvalidToken = errors.New("invalid token")

// AuthClient validates tokens against the external auth-service.
type AuthClient struct {
	conn grpc.ClientConnInterface
}

// NewAuthClient constructs the wrapper.
func NewAuthClient(conn grpc.ClientConnInterface) *AuthClient {
	return &AuthClient{conn: conn}
}

// Dial opens an instrumented client connection to addr.
func Dial(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithUnaryInterceptor(observability.GRPCClientMetricsUnaryInterceptor()),
	)
}

// ValidateToken verifies the token and returns the authenticated user id.
func (a *AuthClient) ValidateToken(ctx context.Context, token string) (int64, error) {
	resp := &wrapperspb.Int64Value{}
	if err := a.conn.Invoke(ctx, ValidateTokenMethod, wrapperspb.String(token), resp); err != nil {
		return 0, err
	}
	if resp.GetValue() <= 0 {
		return 0, errInvalidToken
	}
	return resp.GetValue(), nil
}

package auth

import (
	"chat-gate/domain"
	"chat-gate/errors"
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const IdentityKey contextKey = "identity"

// Interceptor authenticates every call except the public ones.
type Interceptor struct {
	tokens        *TokenManager
	publicMethods map[string]struct{}
}

func NewInterceptor(tokens *TokenManager, publicMethods ...string) *Interceptor {
	public := make(map[string]struct{}, len(publicMethods))
	for _, method := range publicMethods {
		public[method] = struct{}{}
	}
	return &Interceptor{tokens: tokens, publicMethods: public}
}

// Unary handles JWT validation for incoming unary calls.
func (i *Interceptor) Unary(ctx context.Context, req any,
	info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if i.isPublicMethod(info.FullMethod) {
		return handler(ctx, req)
	}
	newCtx, err := i.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return handler(newCtx, req)
}

// Stream handles JWT validation for incoming streams.
func (i *Interceptor) Stream(srv any, ss grpc.ServerStream,
	info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	if i.isPublicMethod(info.FullMethod) {
		return handler(srv, ss)
	}
	newCtx, err := i.authenticate(ss.Context())
	if err != nil {
		return err
	}
	return handler(srv, &authenticatedStream{ServerStream: ss, ctx: newCtx})
}

func (i *Interceptor) authenticate(ctx context.Context) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "metadata is missing")
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "authorization token is missing")
	}

	// Expecting the standard "Bearer <token>" format
	tokenStr := strings.TrimPrefix(values[0], "Bearer ")

	identity, err := i.tokens.ValidateToken(tokenStr)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}
	return WithIdentity(ctx, identity), nil
}

func (i *Interceptor) isPublicMethod(method string) bool {
	_, ok := i.publicMethods[method]
	return ok
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}

func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// IdentityFromContext returns the caller identity injected by the interceptor.
func IdentityFromContext(ctx context.Context) (domain.Identity, error) {
	identity, ok := ctx.Value(IdentityKey).(domain.Identity)
	if !ok {
		return domain.Identity{}, errors.ErrMissingIdentity
	}
	return identity, nil
}

// WithToken attaches a bearer token to the outgoing metadata of a client call.
func WithToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

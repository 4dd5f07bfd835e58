package server

import (
	"chat-gate/auth"
	"chat-gate/errors"
	"context"
	"log/slog"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type AuthServer struct {
	log    *slog.Logger
	tokens *auth.TokenManager
}

// NewAuthServer creates a new gRPC server issuing identities.
func NewAuthServer(log *slog.Logger, tokens *auth.TokenManager) *AuthServer {
	return &AuthServer{log: log, tokens: tokens}
}

// CreateIdentity hands a fresh identity and its token to an anonymous caller.
// The identity only becomes a User row once the caller subscribes.
func (s *AuthServer) CreateIdentity(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	identity, subject, err := auth.NewIdentity()
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	token, err := s.tokens.GenerateToken(identity, subject)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	s.log.Debug("Identity issued", "identity", identity.String())

	return structpb.NewStruct(map[string]any{
		"identity": identity.String(),
		"token":    token,
	})
}

package e2e

import (
	"chat-gate/auth"
	"chat-gate/infrastructure/grpc/chatpb"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

const stepTimeout = 30 * time.Second

// BaseGrpcSuite dials the server under test. The suite is skipped when no
// server address and administrator token are configured.
type BaseGrpcSuite struct {
	suite.Suite
	Config Config
}

func (s *BaseGrpcSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ChatAddr == "" || s.Config.AdminToken == "" {
		s.T().Skip("CHAT_ADDR and ADMIN_TOKEN must be set to run the e2e suite")
	}
}

// header prints a step title, green on black when colours are enabled.
func (s *BaseGrpcSuite) header(name string) {
	title := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		title = color.New(color.BgBlack, color.FgGreen).Render(title)
	}
	s.T().Log(title)
}

// logCall traces every unary call with its status and latency, plus both bodies
// as JSON when E2E_DEBUG_JSON is set.
func (s *BaseGrpcSuite) logCall(ctx context.Context, method string, req, reply any,
	cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	start := time.Now()
	err := invoker(ctx, method, req, reply, cc, opts...)

	var b strings.Builder
	fmt.Fprintf(&b, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))
	if s.Config.DebugJSON {
		dump := protojson.MarshalOptions{UseProtoNames: true, Multiline: true, EmitUnpopulated: true}
		fmt.Fprintf(&b, "\nREQUEST:\n%s\n", dump.Format(req.(proto.Message)))
		if err != nil {
			fmt.Fprintln(&b, "ERROR:", err)
		} else {
			fmt.Fprintf(&b, "RESPONSE:\n%s\n", dump.Format(reply.(proto.Message)))
		}
	}
	s.T().Log(b.String())
	return err
}

func (s *BaseGrpcSuite) dial(name string) *grpc.ClientConn {
	s.header(name)
	conn, err := grpc.NewClient(s.Config.ChatAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.logCall),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.ChatAddr)
	return conn
}

// WithChat runs one step with a ChatService client authenticated by token.
func (s *BaseGrpcSuite) WithChat(name, token string, fn func(ctx context.Context, client chatpb.ChatServiceClient)) {
	conn := s.dial(name)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(auth.WithToken(context.Background(), token), stepTimeout)
	defer cancel()
	fn(ctx, chatpb.NewChatServiceClient(conn))
}

// WithAuth runs one step with an anonymous AuthService client.
func (s *BaseGrpcSuite) WithAuth(name string, fn func(ctx context.Context, client chatpb.AuthServiceClient)) {
	conn := s.dial(name)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), stepTimeout)
	defer cancel()
	fn(ctx, chatpb.NewAuthServiceClient(conn))
}

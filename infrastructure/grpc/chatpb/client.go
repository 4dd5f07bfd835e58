package chatpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ChatServiceClient is the client API for ChatService.
type ChatServiceClient interface {
	SetName(ctx context.Context, name string, opts ...grpc.CallOption) error
	SendMessage(ctx context.Context, text string, opts ...grpc.CallOption) error
	Subscribe(ctx context.Context, opts ...grpc.CallOption) (ChatService_SubscribeClient, error)
}

type ChatService_SubscribeClient interface {
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

type chatServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewChatServiceClient(cc grpc.ClientConnInterface) ChatServiceClient {
	return &chatServiceClient{cc: cc}
}

func (c *chatServiceClient) SetName(ctx context.Context, name string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, ChatService_SetName_FullMethodName, wrapperspb.String(name), new(emptypb.Empty), opts...)
}

func (c *chatServiceClient) SendMessage(ctx context.Context, text string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, ChatService_SendMessage_FullMethodName, wrapperspb.String(text), new(emptypb.Empty), opts...)
}

func (c *chatServiceClient) Subscribe(ctx context.Context, opts ...grpc.CallOption) (ChatService_SubscribeClient, error) {
	stream, err := c.cc.NewStream(ctx, &ChatService_ServiceDesc.Streams[0], ChatService_Subscribe_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &chatServiceSubscribeClient{stream}
	if err := x.ClientStream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type chatServiceSubscribeClient struct {
	grpc.ClientStream
}

func (x *chatServiceSubscribeClient) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// AuthServiceClient is the client API for AuthService.
type AuthServiceClient interface {
	CreateIdentity(ctx context.Context, opts ...grpc.CallOption) (identity string, token string, err error)
}

type authServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) AuthServiceClient {
	return &authServiceClient{cc: cc}
}

func (c *authServiceClient) CreateIdentity(ctx context.Context, opts ...grpc.CallOption) (string, string, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, AuthService_CreateIdentity_FullMethodName, &emptypb.Empty{}, out, opts...); err != nil {
		return "", "", err
	}
	fields := out.GetFields()
	return fields["identity"].GetStringValue(), fields["token"].GetStringValue(), nil
}

// Package chatpb declares the gRPC surface of the chat.
//
// Requests and responses are well-known protobuf types, so the service
// needs no generated message code: commands carry a StringValue, replies are Empty,
// row updates are Structs built by the server package.
package chatpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ChatServiceName = "chat.v1.ChatService"
	AuthServiceName = "chat.v1.AuthService"

	ChatService_SetName_FullMethodName     = "/" + ChatServiceName + "/SetName"
	ChatService_SendMessage_FullMethodName = "/" + ChatServiceName + "/SendMessage"
	ChatService_Subscribe_FullMethodName   = "/" + ChatServiceName + "/Subscribe"

	AuthService_CreateIdentity_FullMethodName = "/" + AuthServiceName + "/CreateIdentity"
)

// ChatServiceServer is the server API for the chat commands and the row subscription.
type ChatServiceServer interface {
	SetName(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	SendMessage(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	Subscribe(*emptypb.Empty, ChatService_SubscribeServer) error
}

// ChatService_SubscribeServer is the server side of the row subscription.
type ChatService_SubscribeServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type chatServiceSubscribeServer struct {
	grpc.ServerStream
}

func (x *chatServiceSubscribeServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ChatService_ServiceDesc, srv)
}

func chatServiceSetNameHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChatServiceServer).SetName(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ChatService_SetName_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ChatServiceServer).SetName(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func chatServiceSendMessageHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChatServiceServer).SendMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ChatService_SendMessage_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ChatServiceServer).SendMessage(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func chatServiceSubscribeHandler(srv interface{}, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ChatServiceServer).Subscribe(m, &chatServiceSubscribeServer{stream})
}

var ChatService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ChatServiceName,
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SetName", Handler: chatServiceSetNameHandler},
		{MethodName: "SendMessage", Handler: chatServiceSendMessageHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: chatServiceSubscribeHandler, ServerStreams: true},
	},
}

// AuthServiceServer issues identities to anonymous callers.
type AuthServiceServer interface {
	CreateIdentity(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

func authServiceCreateIdentityHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).CreateIdentity(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AuthService_CreateIdentity_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthServiceServer).CreateIdentity(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateIdentity", Handler: authServiceCreateIdentityHandler},
	},
}

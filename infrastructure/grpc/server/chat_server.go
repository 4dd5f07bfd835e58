package server

import (
	"chat-gate/auth"
	"chat-gate/contract"
	"chat-gate/domain"
	"chat-gate/errors"
	"chat-gate/infrastructure/grpc/chatpb"
	"chat-gate/services"
	"chat-gate/sink"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type ChatServer struct {
	chatService          services.IChatService
	registry             contract.IRegistry
	connectionBufferSize int
	log                  *slog.Logger
	deliveryTimeout      time.Duration
}

func NewChatServer(log *slog.Logger, chatService services.IChatService, registry contract.IRegistry,
	connectionBufferSize int, deliveryTimeout time.Duration) *ChatServer {
	return &ChatServer{
		chatService:          chatService,
		registry:             registry,
		connectionBufferSize: connectionBufferSize,
		log:                  log,
		deliveryTimeout:      deliveryTimeout,
	}
}

// SetName renames the caller. Failures carry the reason in the status message.
func (s *ChatServer) SetName(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	identity, err := auth.IdentityFromContext(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	if err = s.chatService.SetName(ctx, identity, req.GetValue()); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &emptypb.Empty{}, nil
}

// SendMessage appends to the public feed.
// The sender receives its own message through Subscribe like any other authorized observer.
func (s *ChatServer) SendMessage(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	identity, err := auth.IdentityFromContext(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	if err = s.chatService.SendMessage(ctx, identity, req.GetValue()); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &emptypb.Empty{}, nil
}

// Subscribe is the connection of a client: opening it runs the connect handler,
// closing it runs the disconnect handler. In between the client receives a snapshot
// of the rows it may see, then every visible change.
// This method blocks until the client disconnects or a network error occurs.
func (s *ChatServer) Subscribe(_ *emptypb.Empty, stream chatpb.ChatService_SubscribeServer) error {
	ctx := stream.Context()
	identity, err := auth.IdentityFromContext(ctx)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	log := s.log.With("identity", identity.String())

	if err = s.chatService.Connect(ctx, identity); err != nil {
		return errors.MapToGRPCError(err)
	}
	defer func() {
		// The stream context is already canceled here
		if err := s.chatService.Disconnect(context.WithoutCancel(ctx), identity); err != nil {
			log.Error("Disconnect failed", "error", err)
		}
	}()

	// Registered before the snapshot is read so that no commit falls in between
	sessionID := uuid.NewString()
	subscriber := sink.NewSubscriberSink(log, s.connectionBufferSize, s.deliveryTimeout)
	s.registry.Subscribe(sessionID, identity, subscriber)
	defer func() {
		s.registry.Unsubscribe(sessionID)
		// A delivery already in flight to this session returns instead of waiting for room
		subscriber.Close()
	}()

	snapshot, err := s.chatService.Snapshot(identity)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	if err = s.send(stream, snapshot); err != nil {
		return err
	}
	log.Debug("Client subscribed", "session", sessionID)

	for {
		select {
		case <-ctx.Done():
			log.Debug("Client disconnected", "session", sessionID)
			return nil
		case <-subscriber.Dropped():
			return errors.MapToGRPCError(errors.ErrSlowSubscriber)
		case update := <-subscriber.Updates:
			if err = s.send(stream, update); err != nil {
				log.Error("failed to push update to stream", "session", sessionID, "error", err)
				return err
			}
		}
	}
}

func (s *ChatServer) send(stream chatpb.ChatService_SubscribeServer, update domain.Update) error {
	rows, err := toRowEvents(update)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	for _, row := range rows {
		if err = stream.Send(row); err != nil {
			return err
		}
	}
	return nil
}

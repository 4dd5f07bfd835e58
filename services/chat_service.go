package services

import (
	"chat-gate/contract"
	"chat-gate/domain"
	"chat-gate/infrastructure/storage"
	"chat-gate/policy"
	"chat-gate/reducer"
	"context"
	"fmt"
	"log/slog"
)

type IChatService interface {
	Connect(ctx context.Context, identity domain.Identity) error
	Disconnect(ctx context.Context, identity domain.Identity) error
	SetName(ctx context.Context, identity domain.Identity, name string) error
	SendMessage(ctx context.Context, identity domain.Identity, text string) error
	Snapshot(observer domain.Identity) (domain.Update, error)
}

// ChatService dispatches every external event to exactly one handler,
// each one running in its own store transaction.
type ChatService struct {
	log        *slog.Logger
	store      *storage.Store
	authorizer contract.Authorizer
	filters    policy.Filters
}

func NewChatService(log *slog.Logger, store *storage.Store,
	authorizer contract.Authorizer, filters policy.Filters) *ChatService {
	return &ChatService{log: log, store: store, authorizer: authorizer, filters: filters}
}

// Init runs the bootstrap handler the first time the database is used.
// It reports whether the bootstrap actually ran.
func (s *ChatService) Init(ctx context.Context, adminHex string) (bool, error) {
	ran := false
	err := s.store.Transact(ctx, func(tx *storage.Tx) error {
		ran = false
		done, err := tx.Initialized()
		if err != nil || done {
			return err
		}
		if err = reducer.Init(s.reducerContext(tx, domain.Identity{}), adminHex); err != nil {
			return err
		}
		ran = true
		return tx.MarkInitialized()
	})
	if err != nil {
		return false, fmt.Errorf("bootstrap failed: %w", err)
	}
	return ran, nil
}

func (s *ChatService) Connect(ctx context.Context, identity domain.Identity) error {
	return s.call(ctx, identity, func(rc *reducer.Context) error {
		return reducer.ClientConnected(rc, s.authorizer)
	})
}

func (s *ChatService) Disconnect(ctx context.Context, identity domain.Identity) error {
	return s.call(ctx, identity, reducer.ClientDisconnected)
}

func (s *ChatService) SetName(ctx context.Context, identity domain.Identity, name string) error {
	return s.call(ctx, identity, func(rc *reducer.Context) error {
		return reducer.SetName(rc, name)
	})
}

func (s *ChatService) SendMessage(ctx context.Context, identity domain.Identity, text string) error {
	return s.call(ctx, identity, func(rc *reducer.Context) error {
		return reducer.SendMessage(rc, text)
	})
}

// Snapshot returns every row currently visible to observer.
// The feed part replaces whatever the observer held before.
func (s *ChatService) Snapshot(observer domain.Identity) (domain.Update, error) {
	update := domain.Update{ResetMessages: true}
	err := s.store.View(func(tx *storage.Tx) error {
		users, err := tx.Users().All()
		if err != nil {
			return err
		}
		update.Users = s.filters.VisibleUsers(users, observer)

		messages, err := tx.Messages().All()
		if err != nil {
			return err
		}
		update.Messages, err = s.filters.VisibleMessages(messages, observer, tx.Users())
		return err
	})
	return update, err
}

// Presence counts online and known users.
func (s *ChatService) Presence() (online, known int, err error) {
	err = s.store.View(func(tx *storage.Tx) error {
		users, err := tx.Users().All()
		if err != nil {
			return err
		}
		known = len(users)
		for _, user := range users {
			if user.Online {
				online++
			}
		}
		return nil
	})
	return online, known, err
}

func (s *ChatService) call(ctx context.Context, sender domain.Identity, handler func(rc *reducer.Context) error) error {
	return s.store.Transact(ctx, func(tx *storage.Tx) error {
		return handler(s.reducerContext(tx, sender))
	})
}

func (s *ChatService) reducerContext(tx *storage.Tx, sender domain.Identity) *reducer.Context {
	return &reducer.Context{
		Sender:    sender,
		Timestamp: tx.Timestamp(),
		Users:     tx.Users(),
		Messages:  tx.Messages(),
		Log:       s.log,
	}
}

package reducer

import (
	"chat-gate/domain"
	"chat-gate/errors"
	"chat-gate/mocks"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const adminHex = "c2009546b62e8bf62a4b1387664842c54821f56214e6e6897021091f3f5a053f"

func identity(b byte) domain.Identity {
	var id domain.Identity
	id[0] = b
	return id
}

func newContext(ctrl *gomock.Controller, sender domain.Identity) (*Context, *mocks.MockUserTable, *mocks.MockMessageTable) {
	users := mocks.NewMockUserTable(ctrl)
	messages := mocks.NewMockMessageTable(ctrl)
	return &Context{
		Sender:    sender,
		Timestamp: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
		Users:     users,
		Messages:  messages,
		Log:       logs.GetLoggerFromLevel(slog.LevelDebug),
	}, users, messages
}

func TestInit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("should insert the administrator authorized and online", func(t *testing.T) {
		req := require.New(t)
		ctx, users, _ := newContext(ctrl, domain.Identity{})
		admin, err := domain.ParseIdentity(adminHex)
		req.NoError(err)

		users.EXPECT().Insert(domain.User{Identity: admin, Online: true, Authorized: true}).Return(nil).Times(1)

		req.NoError(Init(ctx, adminHex))
	})

	t.Run("should abort on a malformed admin identity", func(t *testing.T) {
		req := require.New(t)
		ctx, users, _ := newContext(ctrl, domain.Identity{})
		users.EXPECT().Insert(gomock.Any()).Times(0)

		err := Init(ctx, "not-hex")
		req.ErrorIs(err, errors.ErrMalformedIdentity)
	})
}

func TestClientConnected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	bob := identity(2)

	t.Run("should create a new unauthorized online user", func(t *testing.T) {
		req := require.New(t)
		ctx, users, _ := newContext(ctrl, bob)
		users.EXPECT().FindByIdentity(bob).Return(domain.User{}, false, nil).Times(1)
		users.EXPECT().Insert(domain.User{Identity: bob, Online: true}).Return(nil).Times(1)

		req.NoError(ClientConnected(ctx, DenyAll{}))
	})

	t.Run("should only flip online for a returning user", func(t *testing.T) {
		req := require.New(t)
		ctx, users, _ := newContext(ctrl, bob)
		name := "bob"
		stored := domain.User{Identity: bob, Name: &name, Authorized: true}
		users.EXPECT().FindByIdentity(bob).Return(stored, true, nil).Times(1)
		users.EXPECT().Update(domain.User{Identity: bob, Name: &name, Online: true, Authorized: true}).Return(nil).Times(1)

		req.NoError(ClientConnected(ctx, DenyAll{}))
	})

	t.Run("should ask the authorizer only for new rows", func(t *testing.T) {
		req := require.New(t)
		ctx, users, _ := newContext(ctrl, bob)
		authorizer := mocks.NewMockAuthorizer(ctrl)
		authorizer.EXPECT().Authorize(bob).Return(true).Times(1)
		users.EXPECT().FindByIdentity(bob).Return(domain.User{}, false, nil).Times(1)
		users.EXPECT().Insert(domain.User{Identity: bob, Online: true, Authorized: true}).Return(nil).Times(1)

		req.NoError(ClientConnected(ctx, authorizer))
	})

	t.Run("should propagate storage errors", func(t *testing.T) {
		req := require.New(t)
		ctx, users, _ := newContext(ctrl, bob)
		users.EXPECT().FindByIdentity(bob).Return(domain.User{}, false, fmt.Errorf("disk")).Times(1)
		users.EXPECT().Insert(gomock.Any()).Times(0)

		req.Error(ClientConnected(ctx, DenyAll{}))
	})
}

func TestClientDisconnected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	bob := identity(2)

	t.Run("should only flip online for a known user", func(t *testing.T) {
		req := require.New(t)
		ctx, users, _ := newContext(ctrl, bob)
		stored := domain.User{Identity: bob, Online: true, Authorized: true}
		users.EXPECT().FindByIdentity(bob).Return(stored, true, nil).Times(1)
		users.EXPECT().Update(domain.User{Identity: bob, Authorized: true}).Return(nil).Times(1)

		req.NoError(ClientDisconnected(ctx))
	})

	t.Run("should never insert for an unknown user", func(t *testing.T) {
		req := require.New(t)
		ctx, users, _ := newContext(ctrl, bob)
		users.EXPECT().FindByIdentity(bob).Return(domain.User{}, false, nil).Times(1)
		users.EXPECT().Insert(gomock.Any()).Times(0)
		users.EXPECT().Update(gomock.Any()).Times(0)

		req.NoError(ClientDisconnected(ctx))
	})
}

func TestSetName(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	alice := identity(1)

	t.Run("should rename an authorized user", func(t *testing.T) {
		req := require.New(t)
		ctx, users, _ := newContext(ctrl, alice)
		stored := domain.User{Identity: alice, Online: true, Authorized: true}
		name := "alice"
		users.EXPECT().FindByIdentity(alice).Return(stored, true, nil).Times(1)
		users.EXPECT().Update(domain.User{Identity: alice, Name: &name, Online: true, Authorized: true}).Return(nil).Times(1)

		req.NoError(SetName(ctx, name))
	})

	t.Run("should reject an empty name", func(t *testing.T) {
		req := require.New(t)
		ctx, users, _ := newContext(ctrl, alice)
		users.EXPECT().FindByIdentity(alice).Return(domain.User{Identity: alice, Authorized: true}, true, nil).Times(1)
		users.EXPECT().Update(gomock.Any()).Times(0)

		err := SetName(ctx, "")
		req.ErrorIs(err, errors.ErrEmptyInput)
		req.Contains(err.Error(), "names must not be empty")
	})

	t.Run("should reject an unauthorized user before looking at the name", func(t *testing.T) {
		req := require.New(t)
		ctx, users, _ := newContext(ctrl, alice)
		users.EXPECT().FindByIdentity(alice).Return(domain.User{Identity: alice}, true, nil).Times(1)
		users.EXPECT().Update(gomock.Any()).Times(0)

		req.ErrorIs(SetName(ctx, ""), errors.ErrUnauthorizedCaller)
	})

	t.Run("should reject an unknown user", func(t *testing.T) {
		req := require.New(t)
		ctx, users, _ := newContext(ctrl, alice)
		users.EXPECT().FindByIdentity(alice).Return(domain.User{}, false, nil).Times(1)
		users.EXPECT().Update(gomock.Any()).Times(0)

		req.ErrorIs(SetName(ctx, "alice"), errors.ErrUnknownCaller)
	})
}

func TestSendMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	alice := identity(1)

	t.Run("should append one message stamped with the transaction time", func(t *testing.T) {
		req := require.New(t)
		ctx, users, messages := newContext(ctrl, alice)
		users.EXPECT().FindByIdentity(alice).Return(domain.User{Identity: alice, Authorized: true}, true, nil).Times(1)
		messages.EXPECT().Insert(gomock.Any()).DoAndReturn(func(m domain.Message) error {
			req.Equal(alice, m.Sender)
			req.Equal(ctx.Timestamp, m.Sent)
			req.Equal("hello", m.Text)
			req.NotEmpty(m.ID)
			return nil
		}).Times(1)

		req.NoError(SendMessage(ctx, "hello"))
	})

	t.Run("should reject an empty text", func(t *testing.T) {
		req := require.New(t)
		ctx, users, messages := newContext(ctrl, alice)
		users.EXPECT().FindByIdentity(alice).Return(domain.User{Identity: alice, Authorized: true}, true, nil).Times(1)
		messages.EXPECT().Insert(gomock.Any()).Times(0)

		err := SendMessage(ctx, "")
		req.ErrorIs(err, errors.ErrEmptyInput)
		req.Contains(err.Error(), "messages must not be empty")
	})

	t.Run("should reject an unauthorized user", func(t *testing.T) {
		req := require.New(t)
		ctx, users, messages := newContext(ctrl, alice)
		users.EXPECT().FindByIdentity(alice).Return(domain.User{Identity: alice}, true, nil).Times(1)
		messages.EXPECT().Insert(gomock.Any()).Times(0)

		req.ErrorIs(SendMessage(ctx, "hi"), errors.ErrUnauthorizedCaller)
	})

	t.Run("should reject an unknown user", func(t *testing.T) {
		req := require.New(t)
		ctx, users, messages := newContext(ctrl, alice)
		users.EXPECT().FindByIdentity(alice).Return(domain.User{}, false, nil).Times(1)
		messages.EXPECT().Insert(gomock.Any()).Times(0)

		req.ErrorIs(SendMessage(ctx, "hi"), errors.ErrUnknownCaller)
	})
}

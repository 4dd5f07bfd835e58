package runtime

import (
	"chat-gate/domain"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Sink struct {
	name string
}

func (s Sink) Consume(ctx context.Context, u domain.Update) error {
	return nil
}

func TestRegistry_Subscribe_One_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	observer := domain.Identity{1}
	sink := Sink{name: "alice"}

	// Given no session exists
	req.Empty(registry.Sessions())

	// When an observer subscribes
	registry.Subscribe(sessionID, observer, sink)

	// Then
	sessions := registry.Sessions()
	req.Len(sessions, 1)
	req.Equal(sessionID, sessions[0].ID)
	req.Equal(observer, sessions[0].Observer)
	req.Equal(sink, sessions[0].Sink)
	req.Equal(1, registry.CountObservers())
}

func TestRegistry_Same_Identity_Multiple_Sessions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	observer := domain.Identity{1}

	registry.Subscribe("a", observer, Sink{name: "laptop"})
	registry.Subscribe("b", observer, Sink{name: "phone"})
	registry.Subscribe("c", domain.Identity{2}, Sink{name: "bob"})

	req.Len(registry.Sessions(), 3)
	req.Equal(2, registry.CountObservers())
}

func TestRegistry_Unsubscribe(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Subscribe("a", domain.Identity{1}, Sink{name: "alice"})
	registry.Subscribe("b", domain.Identity{2}, Sink{name: "bob"})

	// When a session leaves
	registry.Unsubscribe("a")
	registry.Unsubscribe("unknown")

	// Then only the other one is left
	sessions := registry.Sessions()
	req.Len(sessions, 1)
	req.Equal("b", sessions[0].ID)
}

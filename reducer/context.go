// Package reducer implements the transactional handlers of the chat:
// lifecycle events (init, connect, disconnect) and the two commands exposed to callers.
//
// Every handler receives an explicit Context built by the store for one transaction.
// A handler either returns nil and its writes are committed, or returns an error
// and nothing it wrote is kept.
package reducer

import (
	"chat-gate/contract"
	"chat-gate/domain"
	"log/slog"
	"time"
)

// Context is the per-call ambient state of a handler.
type Context struct {
	Sender    domain.Identity
	Timestamp time.Time
	Users     contract.UserTable
	Messages  contract.MessageTable
	Log       *slog.Logger
}

// DenyAll never authorizes a participant on first connect.
type DenyAll struct{}

func (DenyAll) Authorize(domain.Identity) bool { return false }

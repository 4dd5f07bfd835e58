// Package domain contains core concepts of the chat system.
// This file defines Message rows of the public feed.
// Messages are append-only and immutable once inserted.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event.
type Message struct {
	ID     uuid.UUID // unique identifier, part of the storage key
	Sender Identity
	Sent   time.Time // transaction timestamp
	Text   string
}

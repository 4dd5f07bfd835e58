package reducer

import (
	"chat-gate/domain"

	"github.com/google/uuid"
)

// SendMessage appends a message from an authorized caller to the feed.
func SendMessage(ctx *Context, text string) error {
	if _, err := validateIdentity(ctx); err != nil {
		return err
	}
	text, err := validateMessage(text)
	if err != nil {
		return err
	}

	ctx.Log.Info(text)
	return ctx.Messages.Insert(domain.Message{
		ID:     uuid.New(),
		Sender: ctx.Sender,
		Sent:   ctx.Timestamp,
		Text:   text,
	})
}

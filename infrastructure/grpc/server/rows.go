package server

import (
	"chat-gate/domain"
	"time"

	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/structpb"
)

// Row events sent on the subscription stream.
const (
	TableUser    = "user"
	TableMessage = "message"

	OpUpsert = "upsert"
	OpInsert = "insert"
	OpReset  = "reset"
)

// toRowEvents flattens an update into stream items. A feed reset always comes first
// so that the messages following it belong to the new feed.
func toRowEvents(update domain.Update) ([]*structpb.Struct, error) {
	fields := make([]map[string]any, 0, len(update.Users)+len(update.Messages)+1)
	if update.ResetMessages {
		fields = append(fields, map[string]any{"table": TableMessage, "op": OpReset})
	}
	fields = append(fields, lo.Map(update.Users, func(u domain.User, _ int) map[string]any {
		return userFields(u)
	})...)
	fields = append(fields, lo.Map(update.Messages, func(m domain.Message, _ int) map[string]any {
		return messageFields(m)
	})...)

	rows := make([]*structpb.Struct, 0, len(fields))
	for _, f := range fields {
		row, err := structpb.NewStruct(f)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func userFields(u domain.User) map[string]any {
	var name any
	if u.Name != nil {
		name = *u.Name
	}
	return map[string]any{
		"table":      TableUser,
		"op":         OpUpsert,
		"identity":   u.Identity.String(),
		"name":       name,
		"online":     u.Online,
		"authorized": u.Authorized,
	}
}

func messageFields(m domain.Message) map[string]any {
	return map[string]any{
		"table":  TableMessage,
		"op":     OpInsert,
		"id":     m.ID.String(),
		"sender": m.Sender.String(),
		"sent":   m.Sent.Format(time.RFC3339Nano),
		"text":   m.Text,
	}
}

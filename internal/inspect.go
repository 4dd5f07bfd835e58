package internal

import (
	"chat-gate/domain"
	"strconv"
	"time"

	"github.com/samber/lo"
)

// InspectRow is one database row flattened for display.
type InspectRow struct {
	Key       string
	Type      string
	Timestamp string
	EntityID  string
	Detail    string
	Flags     string
}

func UserRows(users []domain.User) []InspectRow {
	return lo.Map(users, func(u domain.User, _ int) InspectRow {
		return InspectRow{
			Key:       "user:" + u.Identity.String(),
			Type:      "USER",
			Timestamp: "--:--:--",
			EntityID:  shortID(u.Identity.String()),
			Detail:    u.DisplayName(),
			Flags:     "online=" + strconv.FormatBool(u.Online) + " authorized=" + strconv.FormatBool(u.Authorized),
		}
	})
}

func MessageRows(messages []domain.Message) []InspectRow {
	return lo.Map(messages, func(m domain.Message, _ int) InspectRow {
		return InspectRow{
			Key:       "msg:" + m.ID.String(),
			Type:      "MESSAGE",
			Timestamp: m.Sent.Format(time.TimeOnly),
			EntityID:  shortID(m.Sender.String()),
			Detail:    m.Text,
			Flags:     "-",
		}
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

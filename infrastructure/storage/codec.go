package storage

import (
	"chat-gate/domain"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Rows are stored in protobuf wire format so that fields can be added later
// without rewriting existing values. Unknown fields are skipped on decode.
//
//	User:    1 identity (bytes) | 2 name (string, absent when unset) | 3 online (varint) | 4 authorized (varint)
//	Message: 1 id (bytes) | 2 sender (bytes) | 3 sent unix nanos (varint) | 4 text (string)
const (
	userIdentityField   protowire.Number = 1
	userNameField       protowire.Number = 2
	userOnlineField     protowire.Number = 3
	userAuthorizedField protowire.Number = 4

	messageIDField     protowire.Number = 1
	messageSenderField protowire.Number = 2
	messageSentField   protowire.Number = 3
	messageTextField   protowire.Number = 4
)

func encodeUser(user domain.User) []byte {
	var b []byte
	b = protowire.AppendTag(b, userIdentityField, protowire.BytesType)
	b = protowire.AppendBytes(b, user.Identity[:])
	if user.Name != nil {
		b = protowire.AppendTag(b, userNameField, protowire.BytesType)
		b = protowire.AppendString(b, *user.Name)
	}
	b = protowire.AppendTag(b, userOnlineField, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeBool(user.Online))
	b = protowire.AppendTag(b, userAuthorizedField, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeBool(user.Authorized))
	return b
}

func decodeUser(b []byte) (domain.User, error) {
	var user domain.User
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) (int, error) {
		switch {
		case num == userIdentityField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(field)
			if n < 0 {
				return n, nil
			}
			identity, err := domain.IdentityFromBytes(v)
			if err != nil {
				return 0, err
			}
			user.Identity = identity
			return n, nil
		case num == userNameField && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(field)
			if n >= 0 {
				user.Name = &v
			}
			return n, nil
		case num == userOnlineField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(field)
			user.Online = protowire.DecodeBool(v)
			return n, nil
		case num == userAuthorizedField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(field)
			user.Authorized = protowire.DecodeBool(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, field), nil
	})
	if err != nil {
		return domain.User{}, err
	}
	if user.Identity.IsZero() {
		return domain.User{}, fmt.Errorf("user row without identity")
	}
	return user, nil
}

func encodeMessage(message domain.Message) []byte {
	var b []byte
	b = protowire.AppendTag(b, messageIDField, protowire.BytesType)
	b = protowire.AppendBytes(b, message.ID[:])
	b = protowire.AppendTag(b, messageSenderField, protowire.BytesType)
	b = protowire.AppendBytes(b, message.Sender[:])
	b = protowire.AppendTag(b, messageSentField, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(message.Sent.UnixNano()))
	b = protowire.AppendTag(b, messageTextField, protowire.BytesType)
	b = protowire.AppendString(b, message.Text)
	return b
}

func decodeMessage(b []byte) (domain.Message, error) {
	var message domain.Message
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) (int, error) {
		switch {
		case num == messageIDField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(field)
			if n < 0 {
				return n, nil
			}
			id, err := uuid.FromBytes(v)
			if err != nil {
				return 0, err
			}
			message.ID = id
			return n, nil
		case num == messageSenderField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(field)
			if n < 0 {
				return n, nil
			}
			sender, err := domain.IdentityFromBytes(v)
			if err != nil {
				return 0, err
			}
			message.Sender = sender
			return n, nil
		case num == messageSentField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(field)
			message.Sent = time.Unix(0, int64(v)).UTC()
			return n, nil
		case num == messageTextField && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(field)
			message.Text = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, field), nil
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// walkFields iterates over the top level fields of b. fn receives the bytes following
// the tag and returns how many of them it consumed, negative on a wire error.
func walkFields(b []byte, fn func(num protowire.Number, typ protowire.Type, field []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

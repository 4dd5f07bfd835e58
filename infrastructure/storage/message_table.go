package storage

import (
	"chat-gate/domain"
	chatErrors "chat-gate/errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const messagePrefix = "msg:"

// MessageTable implements contract.MessageTable on top of a badger transaction.
type MessageTable struct {
	tx *Tx
}

// messageKey is formatted as "msg:{timestamp_padded}:{uuid}":
// the 19-digit zero padding keeps lexicographical order chronological
// and the UUID separates messages sent within the same nanosecond.
func messageKey(message domain.Message) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", messagePrefix, message.Sent.UnixNano(), message.ID))
}

// Insert appends a row. Rows are never updated nor deleted afterwards.
func (t *MessageTable) Insert(message domain.Message) error {
	if message.Text == "" {
		return fmt.Errorf("%w: messages must not be empty", chatErrors.ErrEmptyInput)
	}
	if message.ID == uuid.Nil {
		return fmt.Errorf("message without id from %s", message.Sender)
	}
	if err := t.tx.txn.Set(messageKey(message), encodeMessage(message)); err != nil {
		return err
	}
	t.tx.commit.Messages = append(t.tx.commit.Messages, message)
	return nil
}

// All returns the whole feed, oldest first.
func (t *MessageTable) All() ([]domain.Message, error) {
	var messages []domain.Message
	prefix := []byte(messagePrefix)
	it := t.tx.txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			message, err := decodeMessage(val)
			if err != nil {
				return err
			}
			messages = append(messages, message)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return messages, nil
}

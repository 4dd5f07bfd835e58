package storage

import (
	"chat-gate/domain"
	chatErrors "chat-gate/errors"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const userPrefix = "user:"

// UserTable implements contract.UserTable on top of a badger transaction.
// Rows are stored under "user:{identity_hex}".
type UserTable struct {
	tx *Tx
}

func userKey(identity domain.Identity) []byte {
	return []byte(userPrefix + identity.String())
}

func (t *UserTable) FindByIdentity(identity domain.Identity) (domain.User, bool, error) {
	item, err := t.tx.txn.Get(userKey(identity))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}

	var user domain.User
	err = item.Value(func(val []byte) error {
		user, err = decodeUser(val)
		return err
	})
	if err != nil {
		return domain.User{}, false, fmt.Errorf("decode user %s: %w", identity, err)
	}
	return user, true, nil
}

// Insert fails with ErrUserAlreadyExists when a row already holds this identity.
func (t *UserTable) Insert(user domain.User) error {
	_, found, err := t.FindByIdentity(user.Identity)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("%w: %s", chatErrors.ErrUserAlreadyExists, user.Identity)
	}
	if err = t.tx.txn.Set(userKey(user.Identity), encodeUser(user)); err != nil {
		return err
	}
	t.tx.commit.Users = append(t.tx.commit.Users, domain.UserChange{Current: user})
	return nil
}

// Update replaces the row sharing user.Identity. The identity itself can never change
// since it is the key.
func (t *UserTable) Update(user domain.User) error {
	previous, found, err := t.FindByIdentity(user.Identity)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", chatErrors.ErrUserNotFound, user.Identity)
	}
	if err = t.tx.txn.Set(userKey(user.Identity), encodeUser(user)); err != nil {
		return err
	}
	t.tx.commit.Users = append(t.tx.commit.Users, domain.UserChange{Previous: &previous, Current: user})
	return nil
}

// All returns every User row ordered by identity.
func (t *UserTable) All() ([]domain.User, error) {
	var users []domain.User
	prefix := []byte(userPrefix)
	it := t.tx.txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			user, err := decodeUser(val)
			if err != nil {
				return err
			}
			users = append(users, user)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return users, nil
}

package storage

import (
	"chat-gate/domain"
	chatErrors "chat-gate/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	commits []domain.Commit
}

func (r *recordingSink) Consume(_ context.Context, commit domain.Commit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, commit)
	return nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db, logs.GetLoggerFromLevel(slog.LevelDebug), 3)
}

func identity(b byte) domain.Identity {
	var id domain.Identity
	id[0] = b
	id[domain.IdentityLength-1] = b
	return id
}

func TestStore_Insert_Then_Find_User(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()
	alice := domain.User{Identity: identity(1), Online: true}

	// When a user is inserted
	err := store.Transact(ctx, func(tx *Tx) error {
		return tx.Users().Insert(alice)
	})
	req.NoError(err)

	// Then it can be found back as inserted
	err = store.View(func(tx *Tx) error {
		user, found, err := tx.Users().FindByIdentity(alice.Identity)
		req.NoError(err)
		req.True(found)
		req.Equal(alice, user)

		_, found, err = tx.Users().FindByIdentity(identity(2))
		req.NoError(err)
		req.False(found)
		return nil
	})
	req.NoError(err)
}

func TestStore_Insert_Duplicate_Identity_Fails(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()
	alice := domain.User{Identity: identity(1)}

	req.NoError(store.Transact(ctx, func(tx *Tx) error { return tx.Users().Insert(alice) }))

	err := store.Transact(ctx, func(tx *Tx) error { return tx.Users().Insert(alice) })
	req.ErrorIs(err, chatErrors.ErrUserAlreadyExists)
}

func TestStore_Update_Keeps_Name_Across_Writes(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()
	alice := domain.User{Identity: identity(1), Authorized: true}

	req.NoError(store.Transact(ctx, func(tx *Tx) error { return tx.Users().Insert(alice) }))
	req.NoError(store.Transact(ctx, func(tx *Tx) error { return tx.Users().Update(alice.WithName("alice")) }))
	req.NoError(store.Transact(ctx, func(tx *Tx) error {
		user, _, err := tx.Users().FindByIdentity(alice.Identity)
		if err != nil {
			return err
		}
		return tx.Users().Update(user.WithOnline(true))
	}))

	req.NoError(store.View(func(tx *Tx) error {
		user, found, err := tx.Users().FindByIdentity(alice.Identity)
		req.NoError(err)
		req.True(found)
		req.NotNil(user.Name)
		req.Equal("alice", *user.Name)
		req.True(user.Online)
		req.True(user.Authorized)
		return nil
	}))
}

func TestStore_Update_Unknown_User_Fails(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)

	err := store.Transact(context.Background(), func(tx *Tx) error {
		return tx.Users().Update(domain.User{Identity: identity(9)})
	})
	req.ErrorIs(err, chatErrors.ErrUserNotFound)
}

func TestStore_Failed_Handler_Commits_Nothing(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	sink := &recordingSink{}
	store.AddSinks(sink)
	boom := fmt.Errorf("boom")

	// When the handler writes then fails
	err := store.Transact(context.Background(), func(tx *Tx) error {
		if err := tx.Users().Insert(domain.User{Identity: identity(1)}); err != nil {
			return err
		}
		return boom
	})

	// Then the error is returned unchanged, nothing is stored and nothing is published
	req.ErrorIs(err, boom)
	req.NoError(store.View(func(tx *Tx) error {
		users, err := tx.Users().All()
		req.NoError(err)
		req.Empty(users)
		return nil
	}))
	req.Empty(sink.commits)
}

func TestStore_Publishes_Committed_Rows(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	sink := &recordingSink{}
	store.AddSinks(sink)
	ctx := context.Background()
	alice := domain.User{Identity: identity(1)}

	req.NoError(store.Transact(ctx, func(tx *Tx) error { return tx.Users().Insert(alice) }))
	req.NoError(store.Transact(ctx, func(tx *Tx) error { return tx.Users().Update(alice.WithOnline(true)) }))

	req.Len(sink.commits, 2)
	req.Nil(sink.commits[0].Users[0].Previous)
	req.Equal(alice, sink.commits[0].Users[0].Current)
	req.NotNil(sink.commits[1].Users[0].Previous)
	req.False(sink.commits[1].Users[0].Previous.Online)
	req.True(sink.commits[1].Users[0].Current.Online)
}

// blockingSink accepts commits into a bounded channel and waits for room like the replicator does.
type blockingSink struct {
	commits chan domain.Commit
}

func (b *blockingSink) Consume(ctx context.Context, commit domain.Commit) error {
	select {
	case b.commits <- commit:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestStore_Publishes_After_Caller_Gives_Up(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	sink := &blockingSink{commits: make(chan domain.Commit, 1)}
	sink.commits <- domain.Commit{}
	store.AddSinks(sink)
	alice := domain.User{Identity: identity(1)}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- store.Transact(ctx, func(tx *Tx) error { return tx.Users().Insert(alice) })
	}()

	// The caller's deadline passes while the sink is still full
	<-ctx.Done()
	time.Sleep(20 * time.Millisecond)
	<-sink.commits

	select {
	case commit := <-sink.commits:
		req.Len(commit.Users, 1)
		req.Equal(alice, commit.Users[0].Current)
	case <-time.After(time.Second):
		req.Fail("committed rows never reached the sink")
	}
	req.NoError(<-done)
}

func TestStore_Messages_Are_Returned_Oldest_First(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	store.now = func() time.Time { return at }
	ctx := context.Background()

	texts := []string{"first", "second", "third"}
	for _, text := range texts {
		req.NoError(store.Transact(ctx, func(tx *Tx) error {
			return tx.Messages().Insert(domain.Message{
				ID: uuid.New(), Sender: identity(1), Sent: tx.Timestamp(), Text: text,
			})
		}))
		at = at.Add(time.Second)
	}

	req.NoError(store.View(func(tx *Tx) error {
		messages, err := tx.Messages().All()
		req.NoError(err)
		req.Len(messages, len(texts))
		for i, message := range messages {
			req.Equal(texts[i], message.Text)
			req.Equal(identity(1), message.Sender)
		}
		req.Equal(time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC), messages[0].Sent)
		return nil
	}))
}

func TestStore_Rejects_Empty_Message(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)

	err := store.Transact(context.Background(), func(tx *Tx) error {
		return tx.Messages().Insert(domain.Message{ID: uuid.New(), Sender: identity(1), Sent: tx.Timestamp()})
	})
	req.ErrorIs(err, chatErrors.ErrEmptyInput)
}

func TestStore_Initialized_Marker(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	req.NoError(store.Transact(ctx, func(tx *Tx) error {
		done, err := tx.Initialized()
		req.NoError(err)
		req.False(done)
		return tx.MarkInitialized()
	}))
	req.NoError(store.View(func(tx *Tx) error {
		done, err := tx.Initialized()
		req.NoError(err)
		req.True(done)
		return nil
	}))
}

func TestStore_Concurrent_Updates_Of_Same_Row_Are_Serialized(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()
	store := NewStore(db, slog.Default(), 100)
	ctx := context.Background()
	alice := domain.User{Identity: identity(1)}
	req.NoError(store.Transact(ctx, func(tx *Tx) error { return tx.Users().Insert(alice) }))

	// Each writer renames from the current name, a lost update would drop characters
	var wg sync.WaitGroup
	writers := 10
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Transact(ctx, func(tx *Tx) error {
				user, _, err := tx.Users().FindByIdentity(alice.Identity)
				if err != nil {
					return err
				}
				name := "x"
				if user.Name != nil {
					name = *user.Name + "x"
				}
				return tx.Users().Update(user.WithName(name))
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	req.NoError(store.View(func(tx *Tx) error {
		user, _, err := tx.Users().FindByIdentity(alice.Identity)
		req.NoError(err)
		req.Len(*user.Name, writers)
		return nil
	}))
}

package workers

import (
	"chat-gate/domain"
	chatErrors "chat-gate/errors"
	"chat-gate/infrastructure/storage"
	"chat-gate/policy"
	"chat-gate/reducer"
	"chat-gate/runtime"
	"chat-gate/services"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const adminHex = "c2009546b62e8bf62a4b1387664842c54821f56214e6e6897021091f3f5a053f"

type collectingSink struct {
	mu      sync.Mutex
	updates []domain.Update
}

func (c *collectingSink) Consume(_ context.Context, u domain.Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, u)
	return nil
}

func (c *collectingSink) all() []domain.Update {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Update(nil), c.updates...)
}

// gatedSink holds every delivery until release is closed.
type gatedSink struct {
	collectingSink
	release chan struct{}
}

func (g *gatedSink) Consume(ctx context.Context, u domain.Update) error {
	select {
	case <-g.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return g.collectingSink.Consume(ctx, u)
}

type fixture struct {
	store      *storage.Store
	service    *services.ChatService
	registry   *runtime.Registry
	replicator *Replicator
}

// newFixture wires the store to a replicator that is driven by hand through Replicate.
func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := storage.NewStore(db, log, 3)
	registry := runtime.NewRegistry()
	replicator := NewReplicator(log, registry, store, policy.Default, 16)
	store.AddSinks(replicator)
	return fixture{
		store:      store,
		service:    services.NewChatService(log, store, reducer.DenyAll{}, policy.Default),
		registry:   registry,
		replicator: replicator,
	}
}

// drain replicates every commit queued so far.
func (f fixture) drain(ctx context.Context) {
	for {
		select {
		case commit := <-f.replicator.commits:
			f.replicator.Replicate(ctx, commit)
		default:
			return
		}
	}
}

func TestReplicator_Filters_Rows_Per_Observer(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	alice, _ := domain.ParseIdentity(adminHex)
	bob := domain.Identity{2}

	_, err := f.service.Init(ctx, adminHex)
	req.NoError(err)
	f.drain(ctx)

	aliceSink, bobSink := &collectingSink{}, &collectingSink{}
	f.registry.Subscribe("alice", alice, aliceSink)
	f.registry.Subscribe("bob", bob, bobSink)

	// When bob connects and alice posts
	req.NoError(f.service.Connect(ctx, bob))
	req.NoError(f.service.SendMessage(ctx, alice, "hello"))
	f.drain(ctx)

	// Then bob only ever receives his own row
	bobUpdates := bobSink.all()
	req.Len(bobUpdates, 1)
	req.Equal([]domain.User{{Identity: bob, Online: true}}, bobUpdates[0].Users)
	req.Empty(bobUpdates[0].Messages)

	// And alice receives the message but not bob's row
	aliceUpdates := aliceSink.all()
	req.Len(aliceUpdates, 1)
	req.Empty(aliceUpdates[0].Users)
	req.Len(aliceUpdates[0].Messages, 1)
	req.Equal("hello", aliceUpdates[0].Messages[0].Text)
	req.False(aliceUpdates[0].ResetMessages)
}

func TestReplicator_Promotion_Resets_Feed(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	alice, _ := domain.ParseIdentity(adminHex)
	bob := domain.Identity{2}

	_, err := f.service.Init(ctx, adminHex)
	req.NoError(err)
	req.NoError(f.service.Connect(ctx, bob))
	req.NoError(f.service.SendMessage(ctx, alice, "one"))
	req.NoError(f.service.SendMessage(ctx, alice, "two"))
	f.drain(ctx)

	bobSink := &collectingSink{}
	f.registry.Subscribe("bob", bob, bobSink)

	// When bob gets authorized by some administrative path
	req.NoError(f.store.Transact(ctx, func(tx *storage.Tx) error {
		user, _, err := tx.Users().FindByIdentity(bob)
		if err != nil {
			return err
		}
		user.Authorized = true
		return tx.Users().Update(user)
	}))
	f.drain(ctx)

	// Then he receives his row and the whole feed as a reset
	updates := bobSink.all()
	req.Len(updates, 1)
	req.True(updates[0].ResetMessages)
	req.Len(updates[0].Messages, 2)
	req.True(updates[0].Users[0].Authorized)
}

func TestReplicator_Demotion_Resets_Feed_To_Empty(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	alice, _ := domain.ParseIdentity(adminHex)
	bob := domain.Identity{2}

	_, err := f.service.Init(ctx, adminHex)
	req.NoError(err)
	req.NoError(f.service.Connect(ctx, bob))
	setAuthorized := func(authorized bool) error {
		return f.store.Transact(ctx, func(tx *storage.Tx) error {
			user, _, err := tx.Users().FindByIdentity(bob)
			if err != nil {
				return err
			}
			user.Authorized = authorized
			return tx.Users().Update(user)
		})
	}
	req.NoError(setAuthorized(true))
	req.NoError(f.service.SendMessage(ctx, alice, "one"))
	req.NoError(f.service.SendMessage(ctx, alice, "two"))
	f.drain(ctx)

	bobSink := &collectingSink{}
	f.registry.Subscribe("bob", bob, bobSink)

	// When bob loses his authorization
	req.NoError(setAuthorized(false))
	f.drain(ctx)

	// Then his feed is reset to nothing
	updates := bobSink.all()
	req.Len(updates, 1)
	req.True(updates[0].ResetMessages)
	req.Empty(updates[0].Messages)
	req.False(updates[0].Users[0].Authorized)

	// And later messages do not reach him
	req.NoError(f.service.SendMessage(ctx, alice, "three"))
	f.drain(ctx)
	for _, update := range bobSink.all() {
		req.Empty(update.Messages)
	}
}

func TestReplicator_Slow_Session_Does_Not_Delay_Others(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	alice, _ := domain.ParseIdentity(adminHex)

	_, err := f.service.Init(ctx, adminHex)
	req.NoError(err)
	f.drain(ctx)

	slow := &gatedSink{release: make(chan struct{})}
	fast := &collectingSink{}
	f.registry.Subscribe("slow", alice, slow)
	f.registry.Subscribe("fast", alice, fast)

	req.NoError(f.service.SendMessage(ctx, alice, "hello"))
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.drain(ctx)
	}()

	// The fast session is served while the slow one still holds its delivery
	req.Eventually(func() bool { return len(fast.all()) == 1 }, time.Second, 5*time.Millisecond)
	select {
	case <-done:
		req.Fail("replication should wait for the slow session")
	default:
	}

	close(slow.release)
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("replication did not finish")
	}
	req.Len(slow.all(), 1)
}

func TestReplicator_Consume_Fails_Once_Stopped(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- f.replicator.Run(ctx) }()
	cancel()
	req.NoError(<-done)

	// Nobody drains the buffer anymore
	for len(f.replicator.commits) < cap(f.replicator.commits) {
		f.replicator.commits <- domain.Commit{}
	}

	result := make(chan error, 1)
	go func() { result <- f.replicator.Consume(context.Background(), domain.Commit{}) }()
	select {
	case err := <-result:
		req.ErrorIs(err, chatErrors.ErrReplicationStopped)
	case <-time.After(time.Second):
		req.Fail("consume kept waiting on a stopped replicator")
	}
}

func TestReplicator_Run_Stops_With_Context(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- f.replicator.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("replicator did not stop")
	}
}

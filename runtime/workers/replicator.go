package workers

import (
	"chat-gate/contract"
	"chat-gate/domain"
	"chat-gate/errors"
	"chat-gate/infrastructure/storage"
	"chat-gate/policy"
	"context"
	"log/slog"
	"sync"
)

// Replicator broadcasts committed rows to every live subscription,
// keeping only the rows the subscription's observer is allowed to see.
//
// Deliveries are upserts keyed by primary key: a row may reach an observer
// twice (snapshot then commit) but never out of its own commit order.
//
// Back-pressure: the sessions of one commit are fed concurrently and the next commit
// starts once all of them accepted or gave up. A full subscriber therefore holds
// replication for at most its delivery timeout before being dropped, and writers
// only wait on the replicator once the commit buffer itself is full.
type Replicator struct {
	log      *slog.Logger
	registry contract.IRegistry
	store    *storage.Store
	filters  policy.Filters
	commits  chan domain.Commit
	stopped  chan struct{}
	stopOnce sync.Once
}

func NewReplicator(log *slog.Logger, registry contract.IRegistry, store *storage.Store,
	filters policy.Filters, bufferSize int) *Replicator {
	return &Replicator{
		log:      log,
		registry: registry,
		store:    store,
		filters:  filters,
		commits:  make(chan domain.Commit, bufferSize),
		stopped:  make(chan struct{}),
	}
}

// Consume is called by the store after every commit.
// It fails with ErrReplicationStopped once Run was stopped, instead of waiting
// on a buffer nobody drains anymore.
func (r *Replicator) Consume(ctx context.Context, commit domain.Commit) error {
	select {
	case r.commits <- commit:
		return nil
	case <-r.stopped:
		return errors.ErrReplicationStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending exposes the commit backlog for capacity sampling.
func (r *Replicator) Pending() <-chan domain.Commit {
	return r.commits
}

func (r *Replicator) Run(ctx context.Context) error {
	for {
		select {
		case commit := <-r.commits:
			r.Replicate(ctx, commit)
		case <-ctx.Done():
			r.log.Debug("Context done, stopping replication", "pending", len(r.commits))
			r.stopOnce.Do(func() { close(r.stopped) })
			return nil
		}
	}
}

// Replicate evaluates the visibility rules of each session against one commit.
func (r *Replicator) Replicate(ctx context.Context, commit domain.Commit) {
	sessions := r.registry.Sessions()
	if len(sessions) == 0 {
		return
	}

	var deliveries []delivery
	err := r.store.View(func(tx *storage.Tx) error {
		var feed []domain.Message
		feedLoaded := false
		loadFeed := func() ([]domain.Message, error) {
			if feedLoaded {
				return feed, nil
			}
			var err error
			feed, err = tx.Messages().All()
			feedLoaded = err == nil
			return feed, err
		}

		for _, session := range sessions {
			update, err := r.updateFor(session.Observer, commit, tx.Users(), loadFeed)
			if err != nil {
				return err
			}
			if !update.IsEmpty() {
				deliveries = append(deliveries, delivery{session: session, update: update})
			}
		}
		return nil
	})
	if err != nil {
		r.log.Error("Replication failed", "at", commit.Timestamp, "error", err)
		return
	}
	r.deliver(ctx, deliveries)
}

type delivery struct {
	session contract.Session
	update  domain.Update
}

// deliver hands every update to its session at once and waits for all of them.
func (r *Replicator) deliver(ctx context.Context, deliveries []delivery) {
	var wg sync.WaitGroup
	for _, d := range deliveries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.session.Sink.Consume(ctx, d.update); err != nil {
				r.log.Warn("Failed to deliver update",
					"session", d.session.ID,
					"observer", d.session.Observer.String(),
					"error", err)
			}
		}()
	}
	wg.Wait()
}

// updateFor filters a commit for one observer. When the commit flips the observer's
// own authorization, the whole feed is re-evaluated and sent as a reset.
func (r *Replicator) updateFor(observer domain.Identity, commit domain.Commit,
	users contract.UserFinder, loadFeed func() ([]domain.Message, error)) (domain.Update, error) {
	var update domain.Update
	for _, change := range commit.Users {
		if r.filters.User(change.Current, observer) {
			update.Users = append(update.Users, change.Current)
		}
		if change.Current.Identity == observer && change.AuthorizationChanged() {
			update.ResetMessages = true
		}
	}

	messages := commit.Messages
	if update.ResetMessages {
		feed, err := loadFeed()
		if err != nil {
			return domain.Update{}, err
		}
		messages = feed
	}

	visible, err := r.filters.VisibleMessages(messages, observer, users)
	if err != nil {
		return domain.Update{}, err
	}
	update.Messages = visible
	return update, nil
}

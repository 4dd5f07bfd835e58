package storage

import (
	"chat-gate/contract"
	"chat-gate/domain"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const initializedKey = "meta:initialized"

// Store is the transactional record store shared by every handler.
// Each call to Transact runs inside one serializable badger transaction;
// conflicting commits are retried from scratch with a fresh timestamp.
type Store struct {
	db      *badger.DB
	log     *slog.Logger
	retries int
	now     func() time.Time

	mu    sync.RWMutex
	sinks []contract.CommitSink
}

func NewStore(db *badger.DB, log *slog.Logger, retries int) *Store {
	return &Store{db: db, log: log, retries: retries, now: time.Now}
}

// AddSinks registers consumers notified after every successful commit.
func (s *Store) AddSinks(sinks ...contract.CommitSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, sinks...)
}

// Tx is the handle given to a handler for the duration of one transaction.
type Tx struct {
	txn       *badger.Txn
	timestamp time.Time
	commit    domain.Commit
}

// Timestamp is assigned once per attempt and shared by every row written in it.
func (tx *Tx) Timestamp() time.Time {
	return tx.timestamp
}

func (tx *Tx) Users() *UserTable {
	return &UserTable{tx: tx}
}

func (tx *Tx) Messages() *MessageTable {
	return &MessageTable{tx: tx}
}

// Initialized reports whether the one-time bootstrap already ran on this database.
func (tx *Tx) Initialized() (bool, error) {
	_, err := tx.txn.Get([]byte(initializedKey))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (tx *Tx) MarkInitialized() error {
	return tx.txn.Set([]byte(initializedKey), []byte(tx.timestamp.Format(time.RFC3339Nano)))
}

// Transact runs fn in a read-write transaction.
// If fn returns an error nothing is committed and the error is returned unchanged.
// Commit sinks only see transactions that were actually committed.
func (s *Store) Transact(ctx context.Context, fn func(tx *Tx) error) error {
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tx := &Tx{
			txn:       s.db.NewTransaction(true),
			timestamp: s.now().UTC(),
		}
		tx.commit.Timestamp = tx.timestamp

		if err := fn(tx); err != nil {
			tx.txn.Discard()
			return err
		}

		err := tx.txn.Commit()
		tx.txn.Discard()
		if errors.Is(err, badger.ErrConflict) {
			s.log.Debug("Transaction conflict, retrying", "attempt", attempt+1)
			lastErr = err
			continue
		}
		if err != nil {
			return fmt.Errorf("commit failed: %w", err)
		}

		// The rows are durable now, so sinks must see them even if the caller went away.
		s.publish(context.WithoutCancel(ctx), tx.commit)
		return nil
	}
	return fmt.Errorf("transaction aborted after %d attempts: %w", s.retries+1, lastErr)
}

// View runs fn against a read-only snapshot. Any write attempted through tx fails.
func (s *Store) View(fn func(tx *Tx) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&Tx{txn: txn, timestamp: s.now().UTC()})
	})
}

func (s *Store) publish(ctx context.Context, commit domain.Commit) {
	if commit.IsEmpty() {
		return
	}
	s.mu.RLock()
	sinks := s.sinks
	s.mu.RUnlock()

	for _, sink := range sinks {
		if err := sink.Consume(ctx, commit); err != nil {
			s.log.Error("Commit sink rejected commit", "error", err, "at", commit.Timestamp)
		}
	}
}

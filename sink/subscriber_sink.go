package sink

import (
	"chat-gate/domain"
	"chat-gate/errors"
	"context"
	"log/slog"
	"sync"
	"time"
)

// SubscriberSink buffers the updates of one subscription until the transport sends them.
//
// Updates are never silently dropped: a subscriber that cannot be fed within
// deliveryTimeout is cut off, since a gap would leave its copy of the rows inconsistent.
type SubscriberSink struct {
	Updates         chan domain.Update
	log             *slog.Logger
	deliveryTimeout time.Duration
	dropped         chan struct{}
	once            sync.Once
	closed          chan struct{}
	closeOnce       sync.Once
}

func NewSubscriberSink(log *slog.Logger, bufferSize int, deliveryTimeout time.Duration) *SubscriberSink {
	return &SubscriberSink{
		Updates:         make(chan domain.Update, bufferSize),
		log:             log,
		deliveryTimeout: deliveryTimeout,
		dropped:         make(chan struct{}),
		closed:          make(chan struct{}),
	}
}

// Consume is called by the replicator.
// Redirect the update through the concerned owner of the channel,
// the gRPC handler will take it from now.
func (s *SubscriberSink) Consume(ctx context.Context, u domain.Update) error {
	select {
	case <-s.closed:
		return nil
	case <-s.dropped:
		return errors.ErrSlowSubscriber
	default:
	}

	select {
	case s.Updates <- u:
		return nil
	default:
	}

	timer := time.NewTimer(s.deliveryTimeout)
	defer timer.Stop()
	select {
	case s.Updates <- u:
		return nil
	case <-s.closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		s.drop()
		return errors.ErrSlowSubscriber
	}
}

// Dropped is closed once the subscriber fell too far behind.
func (s *SubscriberSink) Dropped() <-chan struct{} {
	return s.dropped
}

// Close releases a pending Consume once the reader is gone; later updates are discarded.
func (s *SubscriberSink) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

func (s *SubscriberSink) drop() {
	s.once.Do(func() {
		s.log.Warn("Subscriber too slow, dropping it", "buffer", cap(s.Updates))
		close(s.dropped)
	})
}

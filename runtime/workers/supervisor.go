package workers

import (
	"chat-gate/contract"
	"chat-gate/errors"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"
)

// Supervisor keeps the background workers of the server alive.
// A worker returning nil is done for good; a worker returning an error or panicking
// is started again after restartInterval, until the supervisor is stopped.
type Supervisor struct {
	log             *slog.Logger
	restartInterval time.Duration
	workers         []contract.Worker
	wg              sync.WaitGroup

	mu       sync.Mutex
	cancel   context.CancelFunc
	stopped  bool
	restarts map[string]int
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	return &Supervisor{
		log:             log,
		restartInterval: restartInterval,
		restarts:        make(map[string]int),
	}
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Run starts every added worker and blocks until all of them returned,
// either on their own or because ctx was canceled or Stop was called.
func (s *Supervisor) Run(ctx context.Context) {
	supervised, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.cancel = cancel
	if s.stopped {
		cancel()
	}
	s.mu.Unlock()

	for _, worker := range s.workers {
		s.Start(supervised, worker)
	}
	s.wg.Wait()
}

// Start runs one worker in its own goroutine under supervision.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	name := contract.GetWorkerName(worker)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			err := s.runOnce(ctx, worker)
			switch {
			case ctx.Err() != nil:
				s.log.Info("Worker stopped", "name", name)
				return
			case err == nil:
				s.log.Info("Worker finished", "name", name)
				return
			}

			s.mu.Lock()
			s.restarts[name]++
			s.mu.Unlock()
			s.log.Warn("Worker crashed, restarting", "name", name, "error", err, "in", s.restartInterval)

			select {
			case <-ctx.Done():
				return
			case <-time.After(s.restartInterval):
			}
		}
	}()
}

// runOnce turns a panic of the worker into an ErrWorkerPanic error.
func (s *Supervisor) runOnce(ctx context.Context, worker contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return worker.Run(ctx)
}

// Restarts returns how many times each worker was restarted so far.
func (s *Supervisor) Restarts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.restarts)
}

// Stop cancels the workers; Run returns once they are all gone.
// Calling Stop before Run makes Run return right away.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
}

package workers

import (
	"chat-gate/contract"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// PresenceCounter reports how many users are online out of all known users.
type PresenceCounter interface {
	Presence() (online, known int, err error)
}

// RestartCounter reports worker restarts by worker name.
type RestartCounter interface {
	Restarts() map[string]int
}

// HeartbeatWorker periodically logs presence and process health.
type HeartbeatWorker struct {
	log      *slog.Logger
	presence PresenceCounter
	registry contract.IRegistry
	restarts RestartCounter
	interval time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, presence PresenceCounter, registry contract.IRegistry,
	restarts RestartCounter, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, presence: presence, registry: registry, restarts: restarts, interval: interval}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.beat(p)
		}
	}
}

func (w *HeartbeatWorker) beat(p *process.Process) {
	online, known, err := w.presence.Presence()
	if err != nil {
		w.log.Error("Failed to count users", "error", err)
		return
	}
	attrs := []any{
		"online", online,
		"known", known,
		"sessions", len(w.registry.Sessions()),
	}

	for name, count := range w.restarts.Restarts() {
		attrs = append(attrs, "restarts."+name, count)
	}

	rss, cpu, err := selfStats(p)
	if err != nil {
		w.log.Debug("Failed to collect self stats", "error", err)
	} else {
		attrs = append(attrs, "rss_bytes", rss, "cpu_percent", cpu)
	}
	w.log.Info("Heartbeat", attrs...)
}

func selfStats(p *process.Process) (uint64, float64, error) {
	mem, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return mem.RSS, cpu, nil
}

package workers

import (
	"context"
	"log/slog"
	"reflect"
	"time"
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically samples the fill level of internal channels and
// warns when one of them crosses the threshold (percent of its capacity).
// Reading len and cap of a channel is non-blocking.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	channels       []NamedChannel
	threshold      int
	metricInterval time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger, channels []NamedChannel,
	threshold int, metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:            log,
		channels:       channels,
		threshold:      threshold,
		metricInterval: metricInterval,
	}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping capacity sampling")
			return nil
		case <-ticker.C:
			w.Sample()
		}
	}
}

// Sample reports how many channels are above the threshold.
func (w *ChannelCapacityWorker) Sample() int {
	saturated := 0
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		capacity, length := v.Cap(), v.Len()
		if capacity == 0 {
			continue
		}
		if length*100 >= capacity*w.threshold {
			saturated++
			w.log.Warn("Channel close to saturation", "name", nc.Name, "length", length, "capacity", capacity)
			continue
		}
		w.log.Debug("Channel capacity", "name", nc.Name, "length", length, "capacity", capacity)
	}
	return saturated
}

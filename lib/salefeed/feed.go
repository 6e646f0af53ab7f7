// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package salefeed

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/boxoffice-pos/boxoffice/lib/schema/cinema"
)

// DefaultQueueSize is the Feed buffer when none is configured.
const DefaultQueueSize = 1024

// drainTimeout bounds publishing what is still queued at shutdown.
const drainTimeout = 5 * time.Second

// Sink delivers sale events somewhere durable.
type Sink interface {
	Publish(ctx context.Context, event cinema.SaleEvent) error
	Close() error
}

// Feed buffers sale events between the request path and a Sink.
// A Feed with a nil Sink accepts nothing and Run returns immediately.
type Feed struct {
	sink         Sink
	queue        chan cinema.SaleEvent
	drainTimeout time.Duration
	logger       *slog.Logger

	published atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// New creates a feed draining into sink.
func New(sink Sink, queueSize int, logger *slog.Logger) *Feed {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	feed := &Feed{sink: sink, drainTimeout: drainTimeout, logger: logger}
	if sink != nil {
		feed.queue = make(chan cinema.SaleEvent, queueSize)
	}
	return feed
}

// Disabled returns a feed that drops every event silently.
func Disabled() *Feed {
	return New(nil, 0, nil)
}

// Enabled reports whether the feed publishes anywhere.
func (f *Feed) Enabled() bool {
	return f != nil && f.queue != nil
}

// Enqueue offers event for publication without blocking. It reports
// whether the event was queued.
func (f *Feed) Enqueue(event cinema.SaleEvent) bool {
	if !f.Enabled() {
		return false
	}
	select {
	case f.queue <- event:
		return true
	default:
		f.dropped.Add(1)
		f.logger.Warn("sale feed queue full, dropping event", "sale_id", event.SaleID)
		return false
	}
}

// Run publishes queued events until ctx is cancelled, then makes a
// bounded attempt to publish what is still queued and closes the sink.
func (f *Feed) Run(ctx context.Context) {
	if f.queue == nil {
		return
	}
	defer func() {
		if err := f.sink.Close(); err != nil {
			f.logger.Warn("closing sale feed sink", "error", err)
		}
	}()

	for ctx.Err() == nil {
		select {
		case event := <-f.queue:
			f.publish(ctx, event)
		case <-ctx.Done():
		}
	}
	f.drain()
}

// drain publishes queued events until the queue is empty or the drain
// timeout passes. Events still queued at the deadline count as dropped.
func (f *Feed) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), f.drainTimeout)
	defer cancel()
	for ctx.Err() == nil {
		select {
		case event := <-f.queue:
			f.publish(ctx, event)
		default:
			return
		}
	}

	var abandoned uint64
	for len(f.queue) > 0 {
		<-f.queue
		abandoned++
	}
	if abandoned > 0 {
		f.dropped.Add(abandoned)
		f.logger.Warn("sale feed drain timed out, dropping queued events",
			"dropped", abandoned,
			"timeout", f.drainTimeout,
		)
	}
}

func (f *Feed) publish(ctx context.Context, event cinema.SaleEvent) {
	if err := f.sink.Publish(ctx, event); err != nil {
		f.failed.Add(1)
		f.logger.Warn("publishing sale event failed",
			"sale_id", event.SaleID,
			"error", err,
		)
		return
	}
	f.published.Add(1)
}

// Stats reports publication counters.
type Stats struct {
	Published uint64
	Dropped   uint64
	Failed    uint64
}

// Stats returns the feed's counters.
func (f *Feed) Stats() Stats {
	return Stats{
		Published: f.published.Load(),
		Dropped:   f.dropped.Load(),
		Failed:    f.failed.Load(),
	}
}

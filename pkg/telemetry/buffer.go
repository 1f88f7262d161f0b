// Package telemetry decouples metric production from emission to the
// sink by batching records and flushing on size or time triggers.
package telemetry

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/scopewatch/scopewatch/pkg/model"
)

// Sink accepts ordered batches of metrics. A nil error acknowledges the
// whole batch.
type Sink interface {
	Publish(ctx context.Context, batch []model.Metric) error
	Close() error
}

type BufferConfig struct {
	// Capacity triggers a synchronous flush when the pending batch
	// reaches it.
	Capacity int
	// Buffered false makes Record emit immediately, one metric per
	// batch.
	Buffered bool
	// MaxAttempts bounds publish retries per batch; after that the
	// batch is logged and dropped.
	MaxAttempts int
	// RetryBackoff is the initial delay between attempts; it doubles
	// each retry.
	RetryBackoff time.Duration
	// FlushTimeout bounds a single publish attempt so a dead sink
	// cannot stall the monitoring loop.
	FlushTimeout time.Duration
}

func DefaultBufferConfig() BufferConfig {
	return BufferConfig{
		Capacity:     100,
		Buffered:     true,
		MaxAttempts:  3,
		RetryBackoff: 500 * time.Millisecond,
		FlushTimeout: 10 * time.Second,
	}
}

// Buffer accumulates metrics and flushes them to the sink in recording
// order. Record is safe for concurrent use; a flush in progress does
// not block new records, which start the next batch.
type Buffer struct {
	cfg  BufferConfig
	sink Sink

	mu      sync.Mutex // guards pending
	pending []model.Metric

	sendMu sync.Mutex // serializes publishes to keep batch order
}

func NewBuffer(sink Sink, cfg BufferConfig) *Buffer {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultBufferConfig().Capacity
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Buffer{cfg: cfg, sink: sink}
}

// Record appends a metric to the pending batch, flushing synchronously
// when the batch reaches capacity. In non-buffered mode it emits
// immediately.
func (b *Buffer) Record(m model.Metric) {
	if !b.cfg.Buffered {
		b.publish(context.Background(), []model.Metric{m})
		return
	}

	b.mu.Lock()
	b.pending = append(b.pending, m)
	if len(b.pending) < b.cfg.Capacity {
		b.mu.Unlock()
		return
	}
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	b.publish(context.Background(), batch)
}

// Flush emits whatever is pending. Called on the idle timer and on
// monitoring-loop stop so no metric is lost on shutdown.
func (b *Buffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	return b.publish(ctx, batch)
}

// Pending reports the current batch size.
func (b *Buffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// publish delivers one batch with bounded retries. A batch is retried
// whole; acknowledged batches are never re-sent. After the retry budget
// the batch is dropped: monitoring data is best-effort, not
// transactional.
func (b *Buffer) publish(ctx context.Context, batch []model.Metric) error {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()

	backoff := b.cfg.RetryBackoff
	var err error
	for attempt := 1; attempt <= b.cfg.MaxAttempts; attempt++ {
		err = b.attempt(ctx, batch)
		if err == nil {
			return nil
		}
		if attempt < b.cfg.MaxAttempts {
			log.Printf("telemetry: publish failed (attempt=%d), retrying in %s: %v", attempt, backoff, err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				log.Printf("telemetry: dropping batch of %d metrics: %v", len(batch), ctx.Err())
				return ctx.Err()
			}
			backoff *= 2
		}
	}
	log.Printf("telemetry: dropping batch of %d metrics after %d attempts: %v", len(batch), b.cfg.MaxAttempts, err)
	return err
}

func (b *Buffer) attempt(ctx context.Context, batch []model.Metric) error {
	if b.cfg.FlushTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.FlushTimeout)
		defer cancel()
	}
	return b.sink.Publish(ctx, batch)
}

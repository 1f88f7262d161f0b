package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/scopewatch/scopewatch/pkg/model"
)

func metric(name string, value float64) model.Metric {
	return model.NewMetric(name, value, "Security")
}

func testConfig(capacity int) BufferConfig {
	return BufferConfig{
		Capacity:     capacity,
		Buffered:     true,
		MaxAttempts:  3,
		RetryBackoff: time.Millisecond,
		FlushTimeout: time.Second,
	}
}

func TestBufferFlushPreservesOrder(t *testing.T) {
	sink := &CaptureSink{}
	buf := NewBuffer(sink, testConfig(100))

	for i := 0; i < 10; i++ {
		buf.Record(metric(fmt.Sprintf("metric.%d", i), float64(i)))
	}
	if got := buf.Pending(); got != 10 {
		t.Fatalf("pending: got %d, want 10", got)
	}
	if len(sink.Batches()) != 0 {
		t.Fatal("nothing should be published before flush")
	}

	if err := buf.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}

	got := sink.Metrics()
	if len(got) != 10 {
		t.Fatalf("published metrics: got %d, want 10", len(got))
	}
	for i, m := range got {
		if want := fmt.Sprintf("metric.%d", i); m.Name != want {
			t.Errorf("metric %d: got name %q, want %q", i, m.Name, want)
		}
	}
	if got := buf.Pending(); got != 0 {
		t.Errorf("pending after flush: got %d, want 0", got)
	}
}

func TestBufferAutoFlushAtCapacity(t *testing.T) {
	sink := &CaptureSink{}
	buf := NewBuffer(sink, testConfig(5))

	for i := 0; i < 12; i++ {
		buf.Record(metric(fmt.Sprintf("metric.%d", i), float64(i)))
	}

	batches := sink.Batches()
	if len(batches) != 2 {
		t.Fatalf("batches: got %d, want 2", len(batches))
	}
	for _, b := range batches {
		if len(b) != 5 {
			t.Errorf("batch size: got %d, want 5", len(b))
		}
	}
	if got := buf.Pending(); got != 2 {
		t.Errorf("pending remainder: got %d, want 2", got)
	}

	if err := buf.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	got := sink.Metrics()
	if len(got) != 12 {
		t.Fatalf("total metrics: got %d, want 12", len(got))
	}
	for i, m := range got {
		if want := fmt.Sprintf("metric.%d", i); m.Name != want {
			t.Errorf("metric %d: got name %q, want %q", i, m.Name, want)
		}
	}
}

func TestBufferFlushEmptyIsNoop(t *testing.T) {
	sink := &CaptureSink{}
	buf := NewBuffer(sink, testConfig(10))

	if err := buf.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(sink.Batches()) != 0 {
		t.Error("empty flush must not publish a batch")
	}
}

func TestBufferUnbufferedEmitsImmediately(t *testing.T) {
	sink := &CaptureSink{}
	cfg := testConfig(100)
	cfg.Buffered = false
	buf := NewBuffer(sink, cfg)

	buf.Record(metric("risk.score", 73))
	buf.Record(metric("compliance.score", 50))

	batches := sink.Batches()
	if len(batches) != 2 {
		t.Fatalf("batches: got %d, want 2", len(batches))
	}
	if len(batches[0]) != 1 || batches[0][0].Name != "risk.score" {
		t.Errorf("first batch: %+v", batches[0])
	}
}

// failingSink fails the first failures publishes, then delegates to a
// capture sink.
type failingSink struct {
	mu       sync.Mutex
	failures int
	attempts int
	capture  CaptureSink
}

func (s *failingSink) Publish(ctx context.Context, batch []model.Metric) error {
	s.mu.Lock()
	s.attempts++
	fail := s.attempts <= s.failures
	s.mu.Unlock()
	if fail {
		return errors.New("sink unavailable")
	}
	return s.capture.Publish(ctx, batch)
}

func (s *failingSink) Close() error { return nil }

func (s *failingSink) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func TestBufferRetriesThenSucceeds(t *testing.T) {
	sink := &failingSink{failures: 2}
	buf := NewBuffer(sink, testConfig(10))

	buf.Record(metric("risk.score", 73))
	if err := buf.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if got := sink.Attempts(); got != 3 {
		t.Errorf("attempts: got %d, want 3", got)
	}
	if got := len(sink.capture.Metrics()); got != 1 {
		t.Errorf("delivered metrics: got %d, want 1", got)
	}
}

func TestBufferDropsBatchAfterRetryBudget(t *testing.T) {
	sink := &failingSink{failures: 100}
	buf := NewBuffer(sink, testConfig(10))

	buf.Record(metric("risk.score", 73))
	err := buf.Flush(context.Background())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := sink.Attempts(); got != 3 {
		t.Errorf("attempts: got %d, want 3", got)
	}

	// The dropped batch must not be retried by later flushes.
	sink.mu.Lock()
	sink.failures = 0
	sink.mu.Unlock()
	if err := buf.Flush(context.Background()); err != nil {
		t.Fatalf("flush after drop: %v", err)
	}
	if got := len(sink.capture.Metrics()); got != 0 {
		t.Errorf("delivered metrics after drop: got %d, want 0", got)
	}
}

// blockingSink holds the first publish until released so the test can
// record while a flush is in flight.
type blockingSink struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	capture CaptureSink
}

func (s *blockingSink) Publish(ctx context.Context, batch []model.Metric) error {
	var first bool
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.release
	}
	return s.capture.Publish(ctx, batch)
}

func (s *blockingSink) Close() error { return nil }

func TestBufferRecordDuringFlushStartsNewBatch(t *testing.T) {
	sink := &blockingSink{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	cfg := testConfig(2)
	cfg.FlushTimeout = 5 * time.Second
	buf := NewBuffer(sink, cfg)

	done := make(chan struct{})
	go func() {
		buf.Record(metric("metric.0", 0))
		buf.Record(metric("metric.1", 1)) // hits capacity, publishes
		close(done)
	}()

	<-sink.entered
	// Flush in progress; a new record must land in the next batch
	// without blocking.
	buf.Record(metric("metric.2", 2))
	if got := buf.Pending(); got != 1 {
		t.Errorf("pending during flush: got %d, want 1", got)
	}
	close(sink.release)
	<-done

	if err := buf.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	batches := sink.capture.Batches()
	if len(batches) != 2 {
		t.Fatalf("batches: got %d, want 2", len(batches))
	}
	if len(batches[0]) != 2 || len(batches[1]) != 1 {
		t.Errorf("batch sizes: got %d and %d, want 2 and 1", len(batches[0]), len(batches[1]))
	}
	if batches[1][0].Name != "metric.2" {
		t.Errorf("second batch metric: got %q, want metric.2", batches[1][0].Name)
	}
}

func TestHTTPSinkPublish(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type: got %q", ct)
		}
		mu.Lock()
		bodies++
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sink := NewHTTPSink(srv.URL)
	batch := []model.Metric{metric("risk.score", 73)}
	if err := sink.Publish(context.Background(), batch); err != nil {
		t.Fatalf("publish: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if bodies != 1 {
		t.Errorf("requests: got %d, want 1", bodies)
	}
}

func TestHTTPSinkRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewHTTPSink(srv.URL)
	err := sink.Publish(context.Background(), []model.Metric{metric("risk.score", 73)})
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}

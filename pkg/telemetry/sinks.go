package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/scopewatch/scopewatch/pkg/model"
)

// batchEnvelope is the wire shape shared by the HTTP and Kafka sinks.
type batchEnvelope struct {
	BatchID string         `json:"batchId"`
	Count   int            `json:"count"`
	SentAt  time.Time      `json:"sentAt"`
	Metrics []model.Metric `json:"metrics"`
}

func envelope(batch []model.Metric) batchEnvelope {
	return batchEnvelope{
		BatchID: uuid.New().String(),
		Count:   len(batch),
		SentAt:  time.Now().UTC(),
		Metrics: batch,
	}
}

// HTTPSink POSTs each batch as a JSON envelope.
type HTTPSink struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPSink(endpoint string) *HTTPSink {
	return &HTTPSink{
		Endpoint: endpoint,
		Client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (s *HTTPSink) Publish(ctx context.Context, batch []model.Metric) error {
	body, err := json.Marshal(envelope(batch))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("telemetry endpoint returned %s", resp.Status)
	}
	return nil
}

func (s *HTTPSink) Close() error { return nil }

// KafkaSink writes one message per batch to a topic.
type KafkaSink struct {
	writer *kafka.Writer
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.LeastBytes{},
		},
	}
}

func (s *KafkaSink) Publish(ctx context.Context, batch []model.Metric) error {
	data, err := json.Marshal(envelope(batch))
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Value: data,
		Time:  time.Now(),
	})
}

func (s *KafkaSink) Close() error { return s.writer.Close() }

// CaptureSink keeps published batches in memory. Used by tests and the
// one-shot score command.
type CaptureSink struct {
	mu      sync.Mutex
	batches [][]model.Metric
}

func (s *CaptureSink) Publish(_ context.Context, batch []model.Metric) error {
	cp := make([]model.Metric, len(batch))
	copy(cp, batch)
	s.mu.Lock()
	s.batches = append(s.batches, cp)
	s.mu.Unlock()
	return nil
}

func (s *CaptureSink) Close() error { return nil }

// Batches returns the published batches in order.
func (s *CaptureSink) Batches() [][]model.Metric {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]model.Metric, len(s.batches))
	copy(out, s.batches)
	return out
}

// Metrics flattens every published batch in order.
func (s *CaptureSink) Metrics() []model.Metric {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Metric
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

var (
	_ Sink = (*HTTPSink)(nil)
	_ Sink = (*KafkaSink)(nil)
	_ Sink = (*CaptureSink)(nil)
)

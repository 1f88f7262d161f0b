package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/scopewatch/scopewatch/pkg/alerting"
	"github.com/scopewatch/scopewatch/pkg/telemetry"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.IntervalSeconds != 60 {
		t.Errorf("interval: got %d, want 60", cfg.IntervalSeconds)
	}
	if cfg.Framework != "CIS" || cfg.Level != "STANDARD" {
		t.Errorf("framework/level: got %s/%s", cfg.Framework, cfg.Level)
	}
	if cfg.Sink.Type != "none" {
		t.Errorf("sink type: got %q, want none", cfg.Sink.Type)
	}
	if !cfg.Buffer.Buffered || cfg.Buffer.Capacity != 100 {
		t.Errorf("buffer defaults: %+v", cfg.Buffer)
	}
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	raw := `interval_seconds: 30
framework: SOC2
sink:
  type: http
  endpoint: http://collector:9000/metrics
buffer:
  capacity: 50
  buffered: true
  max_attempts: 5
  retry_backoff_ms: 100
  flush_timeout_seconds: 2
rules:
  - name: high-risk
    metric: risk.score.max
    threshold: 80
    operator: GT
    severity: HIGH
    enabled: true
`
	path := filepath.Join(t.TempDir(), "scopewatch.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Interval(); got != 30*time.Second {
		t.Errorf("interval: got %s, want 30s", got)
	}
	if cfg.Framework != "SOC2" {
		t.Errorf("framework: got %q, want SOC2", cfg.Framework)
	}
	// Untouched keys keep their defaults.
	if cfg.Level != "STANDARD" {
		t.Errorf("level: got %q, want STANDARD", cfg.Level)
	}

	bc := cfg.BufferConfig()
	if bc.Capacity != 50 || bc.MaxAttempts != 5 {
		t.Errorf("buffer config: %+v", bc)
	}
	if bc.RetryBackoff != 100*time.Millisecond || bc.FlushTimeout != 2*time.Second {
		t.Errorf("buffer durations: backoff=%s timeout=%s", bc.RetryBackoff, bc.FlushTimeout)
	}

	if len(cfg.Rules) != 1 {
		t.Fatalf("rules: got %d, want 1", len(cfg.Rules))
	}
	r := cfg.Rules[0]
	if r.Name != "high-risk" || r.Operator != alerting.OpGT || r.Threshold != 80 || !r.Enabled {
		t.Errorf("rule: %+v", r)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scopewatch.yaml")
	if err := os.WriteFile(path, []byte("interval_seconds: [not a number"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestBuildSink(t *testing.T) {
	cfg := Default()

	sink, err := cfg.BuildSink()
	if err != nil {
		t.Fatalf("build none sink: %v", err)
	}
	if _, ok := sink.(*telemetry.CaptureSink); !ok {
		t.Errorf("none sink: got %T", sink)
	}

	cfg.Sink = SinkSettings{Type: "http", Endpoint: "http://collector:9000/metrics"}
	sink, err = cfg.BuildSink()
	if err != nil {
		t.Fatalf("build http sink: %v", err)
	}
	if _, ok := sink.(*telemetry.HTTPSink); !ok {
		t.Errorf("http sink: got %T", sink)
	}

	cfg.Sink = SinkSettings{Type: "http"}
	if _, err := cfg.BuildSink(); err == nil {
		t.Error("http sink without endpoint must fail")
	}

	cfg.Sink = SinkSettings{Type: "kafka", Brokers: []string{"localhost:9092"}}
	if _, err := cfg.BuildSink(); err == nil {
		t.Error("kafka sink without topic must fail")
	}

	cfg.Sink = SinkSettings{Type: "statsd"}
	if _, err := cfg.BuildSink(); err == nil {
		t.Error("unknown sink type must fail")
	}
}

// Package config loads the scopewatch configuration file. A missing
// file yields the defaults so the tool runs with zero setup.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scopewatch/scopewatch/pkg/alerting"
	"github.com/scopewatch/scopewatch/pkg/scoring"
	"github.com/scopewatch/scopewatch/pkg/telemetry"
)

type BufferSettings struct {
	Capacity         int  `yaml:"capacity"`
	Buffered         bool `yaml:"buffered"`
	MaxAttempts      int  `yaml:"max_attempts"`
	RetryBackoffMS   int  `yaml:"retry_backoff_ms"`
	FlushTimeoutSecs int  `yaml:"flush_timeout_seconds"`
}

type SinkSettings struct {
	// Type selects the telemetry sink: http, kafka, or none.
	Type     string   `yaml:"type"`
	Endpoint string   `yaml:"endpoint"`
	Brokers  []string `yaml:"brokers"`
	Topic    string   `yaml:"topic"`
}

type Config struct {
	IntervalSeconds int    `yaml:"interval_seconds"`
	Framework       string `yaml:"framework"`
	Level           string `yaml:"level"`
	FrameworksDir   string `yaml:"frameworks_dir"`

	Buffer  BufferSettings  `yaml:"buffer"`
	Sink    SinkSettings    `yaml:"sink"`
	Scoring scoring.Config  `yaml:"scoring"`
	Rules   []alerting.Rule `yaml:"rules"`
}

func Default() *Config {
	return &Config{
		IntervalSeconds: 60,
		Framework:       "CIS",
		Level:           "STANDARD",
		FrameworksDir:   "frameworks",
		Buffer: BufferSettings{
			Capacity:         100,
			Buffered:         true,
			MaxAttempts:      3,
			RetryBackoffMS:   500,
			FlushTimeoutSecs: 10,
		},
		Sink:    SinkSettings{Type: "none"},
		Scoring: scoring.DefaultConfig(),
	}
}

// Load reads the YAML config at path. A missing file returns the
// defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.IntervalSeconds <= 0 {
		cfg.IntervalSeconds = 60
	}
	return cfg, nil
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// BufferConfig maps the settings onto the telemetry buffer.
func (c *Config) BufferConfig() telemetry.BufferConfig {
	return telemetry.BufferConfig{
		Capacity:     c.Buffer.Capacity,
		Buffered:     c.Buffer.Buffered,
		MaxAttempts:  c.Buffer.MaxAttempts,
		RetryBackoff: time.Duration(c.Buffer.RetryBackoffMS) * time.Millisecond,
		FlushTimeout: time.Duration(c.Buffer.FlushTimeoutSecs) * time.Second,
	}
}

// BuildSink constructs the configured telemetry sink. Type "none"
// returns an in-memory capture sink.
func (c *Config) BuildSink() (telemetry.Sink, error) {
	switch c.Sink.Type {
	case "http":
		if c.Sink.Endpoint == "" {
			return nil, fmt.Errorf("sink type http requires an endpoint")
		}
		return telemetry.NewHTTPSink(c.Sink.Endpoint), nil
	case "kafka":
		if len(c.Sink.Brokers) == 0 || c.Sink.Topic == "" {
			return nil, fmt.Errorf("sink type kafka requires brokers and a topic")
		}
		return telemetry.NewKafkaSink(c.Sink.Brokers, c.Sink.Topic), nil
	case "", "none":
		return &telemetry.CaptureSink{}, nil
	default:
		return nil, fmt.Errorf("unknown sink type %q", c.Sink.Type)
	}
}

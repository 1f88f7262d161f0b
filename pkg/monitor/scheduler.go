package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/scopewatch/scopewatch/pkg/alerting"
	"github.com/scopewatch/scopewatch/pkg/compliance"
	"github.com/scopewatch/scopewatch/pkg/model"
	"github.com/scopewatch/scopewatch/pkg/scoring"
	"github.com/scopewatch/scopewatch/pkg/telemetry"
)

// Metric names emitted by the loop. Per-asset values carry an "asset"
// dimension; the aggregate names are the natural alert-rule targets.
const (
	MetricRiskScore       = "risk.score"
	MetricComplianceScore = "compliance.score"
	MetricOpenFindings    = "findings.open"
	MetricRiskScoreMax    = "risk.score.max"
	MetricRiskScoreAvg    = "risk.score.avg"
	MetricNonCompliant    = "compliance.noncompliant"
	MetricAssetsScored    = "assets.scored"
	MetricTickErrors      = "tick.errors"
)

type Config struct {
	// Interval between ticks.
	Interval time.Duration
	// Framework and Level drive the per-asset assessment.
	Framework string
	Level     compliance.Level
}

func DefaultConfig() Config {
	return Config{
		Interval:  60 * time.Second,
		Framework: "CIS",
		Level:     compliance.LevelStandard,
	}
}

// Scheduler is the single control loop. It owns the alert engine's
// rule state and the buffer's pending batch; both are acceptable to
// lose on crash and rebuild from the next tick's facts.
type Scheduler struct {
	cfg     Config
	source  FactSource
	store   AssetStore
	scoring scoring.Config
	agg     *compliance.Aggregator
	buffer  *telemetry.Buffer
	alerts  *alerting.Engine

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewScheduler(cfg Config, source FactSource, store AssetStore, scoringCfg scoring.Config, agg *compliance.Aggregator, buffer *telemetry.Buffer, alerts *alerting.Engine) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Scheduler{
		cfg:     cfg,
		source:  source,
		store:   store,
		scoring: scoringCfg,
		agg:     agg,
		buffer:  buffer,
		alerts:  alerts,
	}
}

// Start launches the background loop. Starting a running scheduler is
// an error.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("scheduler already running")
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stop, s.done)
	return nil
}

// Stop completes the in-flight tick, flushes buffered metrics, and
// returns. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.buffer.Flush(ctx)
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.runTick()
	for {
		select {
		case <-ticker.C:
			s.runTick()
		case <-stop:
			return
		}
	}
}

// runTick isolates one tick: a failed tick is logged and the next tick
// proceeds independently.
func (s *Scheduler) runTick() {
	if err := s.Tick(context.Background()); err != nil {
		log.Printf("monitor: tick: %v", err)
	}
}

// Tick executes one full pass: pull facts, score and assess every
// asset, emit metrics, evaluate alert rules. A failure on one asset is
// logged and does not affect the others.
func (s *Scheduler) Tick(ctx context.Context) error {
	assets, err := s.source.Assets(ctx)
	if err != nil {
		s.buffer.Record(model.NewMetric(MetricTickErrors, 1, "Monitoring"))
		return fmt.Errorf("pull assets: %w", err)
	}

	latest := make(map[string]float64)
	emit := func(m model.Metric) {
		s.buffer.Record(m)
		latest[m.Name] = m.Value
	}

	var (
		scored       int
		scoreSum     float64
		scoreMax     float64
		nonCompliant int
	)

	for i := range assets {
		asset := &assets[i]
		score, assessment, openCount, err := s.processAsset(ctx, asset)
		if err != nil {
			log.Printf("monitor: asset %s: %v", asset.ID, err)
			continue
		}

		scored++
		scoreSum += float64(score)
		if float64(score) > scoreMax {
			scoreMax = float64(score)
		}

		emit(model.NewMetric(MetricRiskScore, float64(score), "Risk").WithDimension("asset", asset.ID))
		emit(model.NewMetric(MetricOpenFindings, float64(openCount), "Risk").WithDimension("asset", asset.ID))
		if assessment != nil {
			cScore := compliance.Score(assessment)
			emit(model.NewMetric(MetricComplianceScore, cScore, "Compliance").WithDimension("asset", asset.ID))
			if !compliance.IsCompliant(assessment) {
				nonCompliant++
			}
		}
	}

	emit(model.NewMetric(MetricAssetsScored, float64(scored), "Monitoring"))
	emit(model.NewMetric(MetricNonCompliant, float64(nonCompliant), "Compliance"))
	emit(model.NewMetric(MetricRiskScoreMax, scoreMax, "Risk"))
	if scored > 0 {
		emit(model.NewMetric(MetricRiskScoreAvg, scoreSum/float64(scored), "Risk"))
	}

	s.alerts.EvaluateAll(ctx, latest)
	return nil
}

// processAsset derives and persists one asset's posture.
func (s *Scheduler) processAsset(ctx context.Context, asset *model.Asset) (int, *compliance.Assessment, int, error) {
	findings, err := s.source.OpenFindings(ctx, asset.ID)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("pull findings: %w", err)
	}

	assessment, err := s.assess(ctx, asset.ID)
	if err != nil {
		return 0, nil, 0, err
	}

	failed := 0
	if assessment != nil {
		failed = assessment.Failed
	}

	score, factors := scoring.Score(asset, findings, failed, s.scoring)
	now := time.Now().UTC()
	if err := asset.SetRiskScore(score, factors, now); err != nil {
		return 0, nil, 0, err
	}
	if err := s.store.SaveScore(ctx, asset.ID, score, factors, now); err != nil {
		return 0, nil, 0, fmt.Errorf("save score: %w", err)
	}
	if assessment != nil {
		if err := s.store.SaveAssessment(ctx, assessment); err != nil {
			return 0, nil, 0, fmt.Errorf("save assessment: %w", err)
		}
	}

	open := 0
	for _, f := range findings {
		if f.IsOpen() {
			open++
		}
	}
	return score, assessment, open, nil
}

// assess folds the collaborator-reported control outcomes into an
// assessment. Outcomes for unknown controls are logged and skipped;
// they never corrupt the counters.
func (s *Scheduler) assess(ctx context.Context, assetID string) (*compliance.Assessment, error) {
	outcomes, err := s.source.ControlOutcomes(ctx, assetID, s.cfg.Framework)
	if err != nil {
		return nil, fmt.Errorf("pull control outcomes: %w", err)
	}
	if len(outcomes) == 0 {
		return nil, nil
	}

	assessment, err := s.agg.NewAssessment(assetID, s.cfg.Framework, s.cfg.Level)
	if err != nil {
		return nil, err
	}
	for _, o := range outcomes {
		var recErr error
		if o.NotApplicable {
			recErr = s.agg.MarkNotApplicable(assessment, o.ControlID, o.Notes)
		} else {
			recErr = s.agg.RecordControlResult(assessment, o.ControlID, o.Passed, o.Evidence, o.Notes)
		}
		if recErr != nil {
			log.Printf("monitor: asset %s control %s: %v", assetID, o.ControlID, recErr)
		}
	}
	return assessment, nil
}

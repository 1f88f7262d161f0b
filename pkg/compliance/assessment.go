// Package compliance folds per-control evaluation outcomes into an
// assessment with a derived score and verdict.
package compliance

import (
	"time"

	"github.com/google/uuid"

	"github.com/scopewatch/scopewatch/pkg/model"
)

// Level is a compliance maturity target.
type Level string

const (
	LevelBasic    Level = "BASIC"
	LevelStandard Level = "STANDARD"
	LevelAdvanced Level = "ADVANCED"
	LevelASVSL1   Level = "ASVS_L1"
	LevelASVSL2   Level = "ASVS_L2"
	LevelASVSL3   Level = "ASVS_L3"
)

const defaultThreshold = 85.0

var levelThresholds = map[Level]float64{
	LevelBasic:    70,
	LevelStandard: 85,
	LevelAdvanced: 95,
	LevelASVSL1:   80,
	LevelASVSL2:   90,
	LevelASVSL3:   95,
}

// Threshold returns the minimum compliance score for a level. Unknown
// levels fall back to the standard threshold.
func Threshold(level Level) float64 {
	if t, ok := levelThresholds[level]; ok {
		return t
	}
	return defaultThreshold
}

// ControlResult is the recorded outcome for one control.
type ControlResult struct {
	Passed        bool      `json:"passed"`
	NotApplicable bool      `json:"notApplicable"`
	Evidence      string    `json:"evidence,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	RecordedAt    time.Time `json:"recordedAt"`
}

// Assessment aggregates control outcomes for one asset/framework pair.
// Score and verdict are derived on read, never stored.
type Assessment struct {
	ID         string                   `json:"id"`
	AssetID    string                   `json:"assetId"`
	Framework  string                   `json:"framework"`
	Level      Level                    `json:"level"`
	AssessedAt time.Time                `json:"assessedAt"`
	Total      int                      `json:"totalControls"`
	Passed     int                      `json:"passedControls"`
	Failed     int                      `json:"failedControls"`
	NA         int                      `json:"notApplicableControls"`
	Results    map[string]ControlResult `json:"controlResults"`
}

// Aggregator validates and records control outcomes against a
// framework registry.
type Aggregator struct {
	registry *Registry
}

func NewAggregator(registry *Registry) *Aggregator {
	return &Aggregator{registry: registry}
}

func (g *Aggregator) NewAssessment(assetID, framework string, level Level) (*Assessment, error) {
	if assetID == "" {
		return nil, model.Validationf("assessment asset id cannot be empty")
	}
	if !g.registry.HasFramework(framework) {
		return nil, model.Validationf("unknown framework %q", framework)
	}
	return &Assessment{
		ID:         uuid.New().String(),
		AssetID:    assetID,
		Framework:  framework,
		Level:      level,
		AssessedAt: time.Now().UTC(),
		Results:    make(map[string]ControlResult),
	}, nil
}

// RecordControlResult appends or overwrites one control's verdict.
// Re-recording a control replaces its prior verdict and adjusts the
// counters; it never double-counts the control in the total.
func (g *Aggregator) RecordControlResult(a *Assessment, controlID string, passed bool, evidence, notes string) error {
	return g.record(a, controlID, ControlResult{
		Passed:     passed,
		Evidence:   evidence,
		Notes:      notes,
		RecordedAt: time.Now().UTC(),
	})
}

// MarkNotApplicable excludes a control from the score denominator.
func (g *Aggregator) MarkNotApplicable(a *Assessment, controlID, notes string) error {
	return g.record(a, controlID, ControlResult{
		NotApplicable: true,
		Notes:         notes,
		RecordedAt:    time.Now().UTC(),
	})
}

func (g *Aggregator) record(a *Assessment, controlID string, result ControlResult) error {
	if !g.registry.Has(a.Framework, controlID) {
		return model.Validationf("control %q not in framework %q", controlID, a.Framework)
	}

	if prior, ok := a.Results[controlID]; ok {
		a.retract(prior)
	} else {
		a.Total++
	}

	a.Results[controlID] = result
	switch {
	case result.NotApplicable:
		a.NA++
	case result.Passed:
		a.Passed++
	default:
		a.Failed++
	}
	return nil
}

func (a *Assessment) retract(prior ControlResult) {
	switch {
	case prior.NotApplicable:
		a.NA--
	case prior.Passed:
		a.Passed--
	default:
		a.Failed--
	}
}

// Score is the compliance percentage over applicable controls. An
// assessment where every control is not-applicable is vacuously 100;
// one with no controls at all is 0.
func Score(a *Assessment) float64 {
	if a.Total == 0 {
		return 0
	}
	applicable := a.Total - a.NA
	if applicable == 0 {
		return 100
	}
	return float64(a.Passed) / float64(applicable) * 100
}

// IsCompliant checks the derived score against the level threshold.
func IsCompliant(a *Assessment) bool {
	return Score(a) >= Threshold(a.Level)
}

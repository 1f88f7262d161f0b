// Package monitor drives the periodic scoring loop: pull facts, derive
// scores and assessments, emit metrics, evaluate alert rules.
package monitor

import (
	"context"
	"time"

	"github.com/scopewatch/scopewatch/pkg/compliance"
	"github.com/scopewatch/scopewatch/pkg/model"
)

// ControlOutcome is one control's raw evaluation result as reported by
// a collaborator, before aggregation.
type ControlOutcome struct {
	ControlID     string `json:"controlId"`
	Passed        bool   `json:"passed"`
	NotApplicable bool   `json:"notApplicable,omitempty"`
	Evidence      string `json:"evidence,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// FactSource supplies current facts. Implementations live with the
// collectors; the loop only consumes this interface.
type FactSource interface {
	Assets(ctx context.Context) ([]model.Asset, error)
	OpenFindings(ctx context.Context, assetID string) ([]model.Finding, error)
	ControlOutcomes(ctx context.Context, assetID, framework string) ([]ControlOutcome, error)
}

// AssetStore persists derived posture back onto the records. The loop
// is the only writer of these fields.
type AssetStore interface {
	SaveScore(ctx context.Context, assetID string, score int, factors model.RiskFactors, at time.Time) error
	SaveAssessment(ctx context.Context, a *compliance.Assessment) error
}

package monitor

import (
	"context"

	"github.com/scopewatch/scopewatch/pkg/compliance"
	"github.com/scopewatch/scopewatch/pkg/model"
)

// BuildReport assembles a posture report from the source's current
// assets and the store's derived records.
func BuildReport(ctx context.Context, source FactSource, store *MemoryStore, alerts []model.Alert) (model.Report, error) {
	assets, err := source.Assets(ctx)
	if err != nil {
		return model.Report{}, err
	}

	postures := make([]model.AssetPosture, 0, len(assets))
	for i := range assets {
		asset := assets[i]
		if rec, ok := store.Score(asset.ID); ok {
			score := rec.Score
			factors := rec.Factors
			at := rec.ScoredAt
			asset.RiskScore = &score
			asset.RiskFactors = &factors
			asset.LastScoredAt = &at
		}

		posture := model.AssetPosture{Asset: asset}
		if a, ok := store.Assessment(asset.ID); ok {
			posture.ComplianceScore = compliance.Score(a)
			posture.Compliant = compliance.IsCompliant(a)
		}
		findings, err := source.OpenFindings(ctx, asset.ID)
		if err == nil {
			for _, f := range findings {
				if f.IsOpen() {
					posture.OpenFindings++
				}
			}
		}
		postures = append(postures, posture)
	}

	return model.NewReport(postures, alerts), nil
}

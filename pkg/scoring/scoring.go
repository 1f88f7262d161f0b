// Package scoring computes an asset's risk score from its open
// findings and descriptive metadata. Scoring is a pure function: the
// caller persists the result and the timestamp.
package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/scopewatch/scopewatch/pkg/model"
)

// Score computes the bounded risk score for one asset.
//
// Five sub-scores are computed independently, each a capped sum of rule
// table lookups, then combined with the configured weights. Caps apply
// before weighting. Missing or unparsable attributes contribute nothing
// rather than erroring.
func Score(asset *model.Asset, findings []model.Finding, failedControls int, cfg Config) (int, model.RiskFactors) {
	cfg = cfg.Normalize()

	factors := model.RiskFactors{
		Vulnerability: vulnerabilityScore(findings, cfg),
		Exposure:      exposureScore(asset, cfg),
		Criticality:   criticalityScore(asset, cfg),
		Age:           ageScore(asset, cfg),
		Compliance:    compliancePenalty(failedControls, cfg),
	}

	weighted := cfg.Weights.Vulnerability*factors.Vulnerability +
		cfg.Weights.Exposure*factors.Exposure +
		cfg.Weights.Criticality*factors.Criticality +
		cfg.Weights.Age*factors.Age +
		cfg.Weights.Compliance*factors.Compliance

	score := int(math.Round(clamp(weighted, 0, 100)))
	return score, factors
}

// vulnerabilityScore sums the severity contributions of open findings.
// Repeated findings of one severity add, they do not multiply.
func vulnerabilityScore(findings []model.Finding, cfg Config) float64 {
	var total float64
	for _, f := range findings {
		if !f.IsOpen() {
			continue
		}
		total += f.Severity.RiskContribution()
	}
	return clamp(total, 0, cfg.FactorCap)
}

func exposureScore(asset *model.Asset, cfg Config) float64 {
	var total float64
	if asset.Meta(model.MetaInternetFacing) == "true" {
		total += cfg.InternetFacingPoints
	}
	for _, class := range splitList(asset.Meta(model.MetaOpenPortClass)) {
		total += cfg.OpenPortClassPoints[class]
	}
	return clamp(total, 0, cfg.FactorCap)
}

func criticalityScore(asset *model.Asset, cfg Config) float64 {
	total := cfg.EnvironmentPoints[asset.Meta(model.MetaEnvironment)]
	for _, tag := range splitList(asset.Meta(model.MetaDataSensitivity)) {
		total += cfg.SensitivityPoints[tag]
	}
	return clamp(total, 0, cfg.FactorCap)
}

func ageScore(asset *model.Asset, cfg Config) float64 {
	total := bandPoints(asset.Meta(model.MetaLastPatchDays), cfg.PatchAgeBands)
	total += bandPoints(asset.Meta(model.MetaOSInstallDays), cfg.OSAgeBands)
	return clamp(total, 0, cfg.FactorCap)
}

func compliancePenalty(failedControls int, cfg Config) float64 {
	if failedControls <= 0 {
		return 0
	}
	return clamp(float64(failedControls)*cfg.FailedControlPenalty, 0, cfg.FactorCap)
}

// bandPoints parses a day-count attribute and returns the points of the
// last band it passes. Missing or malformed values score zero.
func bandPoints(raw string, bands []AgeBand) float64 {
	if raw == "" {
		return 0
	}
	days, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || days < 0 {
		return 0
	}
	var points float64
	for _, b := range bands {
		if days > b.AfterDays {
			points = b.Points
		}
	}
	return points
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToLower(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

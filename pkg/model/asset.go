package model

import (
	"time"

	"github.com/google/uuid"
)

// Metadata keys the scoring engine reads. Collectors are free to set
// additional keys; unknown keys are ignored.
const (
	MetaInternetFacing  = "internet_facing"
	MetaOpenPortClass   = "open_port_class"
	MetaEnvironment     = "environment"
	MetaDataSensitivity = "data_sensitivity"
	MetaLastPatchDays   = "last_patch_days"
	MetaOSInstallDays   = "os_install_days"
)

// RiskFactors is the sub-score breakdown from the last scoring pass.
// Each factor is already capped to [0,100] before weighting.
type RiskFactors struct {
	Vulnerability float64 `json:"vulnerability"`
	Exposure      float64 `json:"exposure"`
	Criticality   float64 `json:"criticality"`
	Age           float64 `json:"age"`
	Compliance    float64 `json:"compliance"`
}

// Asset is a tracked resource whose posture is scored. Descriptive
// fields are owned by collectors; risk fields are written only by the
// scoring pass.
type Asset struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Type         string            `json:"type"`
	Source       string            `json:"source"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Tags         map[string]string `json:"tags,omitempty"`
	RiskScore    *int              `json:"riskScore,omitempty"`
	RiskFactors  *RiskFactors      `json:"riskFactors,omitempty"`
	LastScoredAt *time.Time        `json:"lastScoredAt,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

func NewAsset(id, name, assetType, source string) (*Asset, error) {
	if name == "" {
		return nil, Validationf("asset name cannot be empty")
	}
	if assetType == "" {
		return nil, Validationf("asset type cannot be empty")
	}
	if source == "" {
		return nil, Validationf("asset source cannot be empty")
	}
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	return &Asset{
		ID:        id,
		Name:      name,
		Type:      assetType,
		Source:    source,
		Metadata:  map[string]string{},
		Tags:      map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SetRiskScore records the result of a scoring pass.
func (a *Asset) SetRiskScore(score int, factors RiskFactors, at time.Time) error {
	if score < 0 || score > 100 {
		return Validationf("risk score %d out of range [0,100]", score)
	}
	a.RiskScore = &score
	a.RiskFactors = &factors
	a.LastScoredAt = &at
	a.UpdatedAt = at
	return nil
}

func (a *Asset) Meta(key string) string {
	if a.Metadata == nil {
		return ""
	}
	return a.Metadata[key]
}

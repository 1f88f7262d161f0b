package model

import "time"

const SchemaVersion = "v1"

// AssetPosture is one asset's derived posture in a report.
type AssetPosture struct {
	Asset           Asset   `json:"asset"`
	ComplianceScore float64 `json:"complianceScore"`
	Compliant       bool    `json:"compliant"`
	OpenFindings    int     `json:"openFindings"`
}

type Report struct {
	SchemaVersion string         `json:"schemaVersion"`
	GeneratedAt   time.Time      `json:"generatedAt"`
	Assets        []AssetPosture `json:"assets"`
	Alerts        []Alert        `json:"alerts,omitempty"`
}

func NewReport(assets []AssetPosture, alerts []Alert) Report {
	return Report{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   time.Now().UTC(),
		Assets:        assets,
		Alerts:        alerts,
	}
}

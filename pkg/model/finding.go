package model

import (
	"time"

	"github.com/google/uuid"
)

type FindingStatus string

const (
	StatusOpen          FindingStatus = "OPEN"
	StatusInProgress    FindingStatus = "IN_PROGRESS"
	StatusResolved      FindingStatus = "RESOLVED"
	StatusAccepted      FindingStatus = "ACCEPTED"
	StatusFalsePositive FindingStatus = "FALSE_POSITIVE"
)

// Terminal reports whether the status closes a finding's lifecycle.
func (s FindingStatus) Terminal() bool {
	switch s {
	case StatusResolved, StatusAccepted, StatusFalsePositive:
		return true
	}
	return false
}

// Finding is a discrete detected issue tied to an asset and a
// compliance control.
type Finding struct {
	ID              string            `json:"id"`
	AssetID         string            `json:"assetId"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Severity        Severity          `json:"severity"`
	Framework       string            `json:"framework"`
	ControlID       string            `json:"controlId"`
	Status          FindingStatus     `json:"status"`
	DiscoveredAt    time.Time         `json:"discoveredAt"`
	ResolvedAt      *time.Time        `json:"resolvedAt,omitempty"`
	ResolvedBy      string            `json:"resolvedBy,omitempty"`
	ResolutionNotes string            `json:"resolutionNotes,omitempty"`
	Evidence        map[string]string `json:"evidence,omitempty"`
}

func NewFinding(assetID, title, description string, severity Severity, framework, controlID string) (*Finding, error) {
	if assetID == "" {
		return nil, Validationf("finding asset id cannot be empty")
	}
	if title == "" {
		return nil, Validationf("finding title cannot be empty")
	}
	if !severity.Valid() {
		return nil, Validationf("unknown severity %q", severity)
	}
	if framework == "" {
		return nil, Validationf("finding framework cannot be empty")
	}
	if controlID == "" {
		return nil, Validationf("finding control id cannot be empty")
	}
	return &Finding{
		ID:           uuid.New().String(),
		AssetID:      assetID,
		Title:        title,
		Description:  description,
		Severity:     severity,
		Framework:    framework,
		ControlID:    controlID,
		Status:       StatusOpen,
		DiscoveredAt: time.Now().UTC(),
		Evidence:     map[string]string{},
	}, nil
}

// IsOpen reports whether the finding still contributes to risk.
func (f *Finding) IsOpen() bool {
	return !f.Status.Terminal()
}

// Resolve closes the finding. Closing an already-terminal finding is an
// error and leaves state unchanged.
func (f *Finding) Resolve(by, notes string) error {
	return f.close(StatusResolved, by, notes)
}

func (f *Finding) AcceptRisk(by, justification string) error {
	return f.close(StatusAccepted, by, "Risk accepted: "+justification)
}

func (f *Finding) MarkFalsePositive(by, reason string) error {
	return f.close(StatusFalsePositive, by, "False positive: "+reason)
}

func (f *Finding) close(status FindingStatus, by, notes string) error {
	if f.Status.Terminal() {
		return Validationf("finding %s already closed as %s", f.ID, f.Status)
	}
	now := time.Now().UTC()
	f.Status = status
	f.ResolvedAt = &now
	f.ResolvedBy = by
	f.ResolutionNotes = notes
	return nil
}

package model

import (
	"time"

	"github.com/google/uuid"
)

const AlertStatusActive = "ACTIVE"

// Alert is emitted on a threshold breach and never mutated by this
// core; lifecycle closure belongs to notification collaborators.
type Alert struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
	Status      string    `json:"status"`
}

func NewAlert(title, description string, severity Severity, category string) Alert {
	return Alert{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Severity:    severity,
		Category:    category,
		CreatedAt:   time.Now().UTC(),
		Status:      AlertStatusActive,
	}
}

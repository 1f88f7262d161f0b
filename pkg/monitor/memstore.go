package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/scopewatch/scopewatch/pkg/compliance"
	"github.com/scopewatch/scopewatch/pkg/model"
)

// ScoreRecord is one asset's persisted scoring result.
type ScoreRecord struct {
	Score    int
	Factors  model.RiskFactors
	ScoredAt time.Time
}

// MemoryStore is a mutex-guarded AssetStore for tests and one-shot
// runs. Production deployments plug in the real asset repository.
type MemoryStore struct {
	mu          sync.Mutex
	scores      map[string]ScoreRecord
	assessments map[string]*compliance.Assessment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scores:      make(map[string]ScoreRecord),
		assessments: make(map[string]*compliance.Assessment),
	}
}

func (s *MemoryStore) SaveScore(_ context.Context, assetID string, score int, factors model.RiskFactors, at time.Time) error {
	s.mu.Lock()
	s.scores[assetID] = ScoreRecord{Score: score, Factors: factors, ScoredAt: at}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) SaveAssessment(_ context.Context, a *compliance.Assessment) error {
	s.mu.Lock()
	s.assessments[a.AssetID] = a
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Score(assetID string) (ScoreRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.scores[assetID]
	return rec, ok
}

func (s *MemoryStore) Assessment(assetID string) (*compliance.Assessment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assessments[assetID]
	return a, ok
}

var _ AssetStore = (*MemoryStore)(nil)

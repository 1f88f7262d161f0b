package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/scopewatch/scopewatch/pkg/model"
)

// FactsFile is the offline facts snapshot format consumed by the score
// command and usable for air-gapped monitoring runs.
type FactsFile struct {
	SchemaVersion string                      `json:"schemaVersion"`
	Assets        []model.Asset               `json:"assets"`
	Findings      []model.Finding             `json:"findings"`
	Outcomes      map[string][]ControlOutcome `json:"controlOutcomes"` // keyed by asset id
}

// FileSource reads facts from a snapshot file on every call, so a
// refreshed file is picked up by the next tick.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) load() (*FactsFile, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read facts file: %w", err)
	}
	var file FactsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse facts file: %w", err)
	}
	return &file, nil
}

func (s *FileSource) Assets(_ context.Context) ([]model.Asset, error) {
	file, err := s.load()
	if err != nil {
		return nil, err
	}
	return file.Assets, nil
}

func (s *FileSource) OpenFindings(_ context.Context, assetID string) ([]model.Finding, error) {
	file, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []model.Finding
	for _, f := range file.Findings {
		if f.AssetID == assetID && f.IsOpen() {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *FileSource) ControlOutcomes(_ context.Context, assetID, _ string) ([]ControlOutcome, error) {
	file, err := s.load()
	if err != nil {
		return nil, err
	}
	return file.Outcomes[assetID], nil
}

var _ FactSource = (*FileSource)(nil)

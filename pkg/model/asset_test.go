package model

import (
	"testing"
	"time"
)

func TestNewAssetValidation(t *testing.T) {
	cases := []struct {
		name        string
		n, typ, src string
	}{
		{"missing name", "", "server", "aws"},
		{"missing type", "web-01", "", "aws"},
		{"missing source", "web-01", "server", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewAsset("", tc.n, tc.typ, tc.src)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !IsValidation(err) {
				t.Errorf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestNewAssetGeneratesID(t *testing.T) {
	a, err := NewAsset("", "web-01", "server", "aws")
	if err != nil {
		t.Fatalf("new asset: %v", err)
	}
	if a.ID == "" {
		t.Error("expected generated id")
	}
	if a.RiskScore != nil {
		t.Error("risk score should be nil before first scoring pass")
	}

	b, err := NewAsset("custom-id", "db-01", "database", "azure")
	if err != nil {
		t.Fatalf("new asset: %v", err)
	}
	if b.ID != "custom-id" {
		t.Errorf("id: got %q, want %q", b.ID, "custom-id")
	}
}

func TestSetRiskScore(t *testing.T) {
	a, err := NewAsset("", "web-01", "server", "aws")
	if err != nil {
		t.Fatalf("new asset: %v", err)
	}

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	factors := RiskFactors{Vulnerability: 100, Exposure: 80}
	if err := a.SetRiskScore(73, factors, at); err != nil {
		t.Fatalf("set risk score: %v", err)
	}
	if a.RiskScore == nil || *a.RiskScore != 73 {
		t.Errorf("risk score: got %v, want 73", a.RiskScore)
	}
	if a.RiskFactors == nil || a.RiskFactors.Vulnerability != 100 {
		t.Errorf("risk factors not persisted: %+v", a.RiskFactors)
	}
	if a.LastScoredAt == nil || !a.LastScoredAt.Equal(at) {
		t.Errorf("last scored at: got %v, want %v", a.LastScoredAt, at)
	}

	for _, bad := range []int{-1, 101} {
		if err := a.SetRiskScore(bad, factors, at); err == nil {
			t.Errorf("expected error for score %d", bad)
		}
	}
}

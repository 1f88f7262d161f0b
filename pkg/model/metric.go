package model

import "time"

// Metric is a value object; never mutated after creation.
type Metric struct {
	Name       string            `json:"name"`
	Value      float64           `json:"value"`
	Category   string            `json:"category"`
	Timestamp  time.Time         `json:"timestamp"`
	Properties map[string]string `json:"properties,omitempty"`
	Dimensions map[string]string `json:"dimensions,omitempty"`
}

func NewMetric(name string, value float64, category string) Metric {
	return Metric{
		Name:      name,
		Value:     value,
		Category:  category,
		Timestamp: time.Now().UTC(),
	}
}

// WithDimension returns a copy carrying one extra dimension.
func (m Metric) WithDimension(key, value string) Metric {
	dims := make(map[string]string, len(m.Dimensions)+1)
	for k, v := range m.Dimensions {
		dims[k] = v
	}
	dims[key] = value
	m.Dimensions = dims
	return m
}

package model

// Control is a single requirement within a compliance framework.
// Static reference data, not mutated at runtime.
type Control struct {
	ID        string `json:"id" yaml:"id"`
	Framework string `json:"framework" yaml:"framework"`
	Category  string `json:"category" yaml:"category"`
	Required  bool   `json:"required" yaml:"required"`
	Automated bool   `json:"automated" yaml:"automated"`
}

package scoring

// Weights combine the five sub-scores into the final risk score. They
// are expected to sum to 1.0; Normalize rescales them when they do not.
type Weights struct {
	Vulnerability float64 `yaml:"vulnerability"`
	Exposure      float64 `yaml:"exposure"`
	Criticality   float64 `yaml:"criticality"`
	Age           float64 `yaml:"age"`
	Compliance    float64 `yaml:"compliance"`
}

func (w Weights) sum() float64 {
	return w.Vulnerability + w.Exposure + w.Criticality + w.Age + w.Compliance
}

// AgeBand contributes points once an age attribute passes AfterDays.
// Bands are evaluated in order; the last matching band wins.
type AgeBand struct {
	AfterDays int     `yaml:"after_days"`
	Points    float64 `yaml:"points"`
}

// Config holds every rule table the scorer consults. It is passed in
// explicitly so callers can score with arbitrary rule sets; there is no
// package-level state.
type Config struct {
	Weights Weights `yaml:"weights"`

	// Exposure tables.
	InternetFacingPoints float64            `yaml:"internet_facing_points"`
	OpenPortClassPoints  map[string]float64 `yaml:"open_port_class_points"`

	// Criticality tables.
	EnvironmentPoints map[string]float64 `yaml:"environment_points"`
	SensitivityPoints map[string]float64 `yaml:"sensitivity_points"`

	// Freshness tables.
	PatchAgeBands []AgeBand `yaml:"patch_age_bands"`
	OSAgeBands    []AgeBand `yaml:"os_age_bands"`

	// Compliance penalty.
	FailedControlPenalty float64 `yaml:"failed_control_penalty"`

	// FactorCap bounds every sub-score before weighting, so no single
	// factor can be amplified past its own cap by the weighting step.
	FactorCap float64 `yaml:"factor_cap"`
}

// DefaultConfig returns the default rule tables. The numbers are
// tunables, not contracts; override them through the injected Config.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Vulnerability: 0.30,
			Exposure:      0.25,
			Criticality:   0.20,
			Age:           0.15,
			Compliance:    0.10,
		},
		InternetFacingPoints: 80,
		OpenPortClassPoints: map[string]float64{
			"admin":    40,
			"database": 35,
			"web":      25,
		},
		EnvironmentPoints: map[string]float64{
			"production":  90,
			"staging":     50,
			"development": 20,
		},
		SensitivityPoints: map[string]float64{
			"phi":          40,
			"financial":    35,
			"pii":          30,
			"confidential": 20,
		},
		PatchAgeBands: []AgeBand{
			{AfterDays: 30, Points: 25},
			{AfterDays: 60, Points: 50},
			{AfterDays: 90, Points: 80},
		},
		OSAgeBands: []AgeBand{
			{AfterDays: 365, Points: 10},
			{AfterDays: 730, Points: 20},
		},
		FailedControlPenalty: 25,
		FactorCap:            100,
	}
}

// Normalize rescales the weights to sum to 1.0 and backfills a zero
// factor cap. A config with all-zero weights gets the defaults.
func (c Config) Normalize() Config {
	if c.FactorCap <= 0 {
		c.FactorCap = 100
	}
	s := c.Weights.sum()
	if s <= 0 {
		c.Weights = DefaultConfig().Weights
		return c
	}
	c.Weights.Vulnerability /= s
	c.Weights.Exposure /= s
	c.Weights.Criticality /= s
	c.Weights.Age /= s
	c.Weights.Compliance /= s
	return c
}

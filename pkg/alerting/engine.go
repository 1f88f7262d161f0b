// Package alerting evaluates named threshold rules against metric
// values, with hysteresis so a sustained breach fires exactly once.
package alerting

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/scopewatch/scopewatch/pkg/model"
)

type Operator string

const (
	OpGT  Operator = "GT"
	OpLT  Operator = "LT"
	OpEQ  Operator = "EQ"
	OpNEQ Operator = "NEQ"
)

func (o Operator) Valid() bool {
	switch o {
	case OpGT, OpLT, OpEQ, OpNEQ:
		return true
	}
	return false
}

// Rule is a named threshold over one metric. Name is the unique key.
type Rule struct {
	Name      string         `yaml:"name"`
	Metric    string         `yaml:"metric"`
	Threshold float64        `yaml:"threshold"`
	Operator  Operator       `yaml:"operator"`
	Severity  model.Severity `yaml:"severity"`
	Enabled   bool           `yaml:"enabled"`
}

// Notifier receives emitted alerts. Errors are logged, never fatal.
type Notifier interface {
	Notify(ctx context.Context, alert model.Alert) error
}

// LogNotifier writes alerts to the process log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, alert model.Alert) error {
	log.Printf("alert [%s] %s: %s", alert.Severity, alert.Title, alert.Description)
	return nil
}

// MetricRecorder is the buffering path alert volume is emitted through.
type MetricRecorder interface {
	Record(m model.Metric)
}

// ruleState tracks one rule's hysteresis: armed until breached, fired
// until the value returns within bound.
type ruleState struct {
	rule  Rule
	fired bool
}

// Engine owns every registered rule and its armed/fired state. State
// lives only in memory; rules re-arm on restart.
type Engine struct {
	notifier Notifier
	recorder MetricRecorder

	mu    sync.Mutex
	rules map[string]*ruleState
}

func NewEngine(notifier Notifier, recorder MetricRecorder) *Engine {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Engine{
		notifier: notifier,
		recorder: recorder,
		rules:    make(map[string]*ruleState),
	}
}

// Register adds or replaces a rule. Replacing a rule re-arms it.
func (e *Engine) Register(r Rule) error {
	if r.Name == "" {
		return model.Validationf("alert rule name cannot be empty")
	}
	if r.Metric == "" {
		return model.Validationf("alert rule %q has no metric", r.Name)
	}
	if !r.Operator.Valid() {
		return model.Validationf("alert rule %q has unknown operator %q", r.Name, r.Operator)
	}
	e.mu.Lock()
	e.rules[r.Name] = &ruleState{rule: r}
	e.mu.Unlock()
	return nil
}

// Rules returns the registered rules sorted by name.
func (e *Engine) Rules() []Rule {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Rule, 0, len(e.rules))
	for _, st := range e.rules {
		out = append(out, st.rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Evaluate checks every rule watching the named metric against value.
// An alert is emitted only on the armed-to-fired transition; disabled
// rules track state but stay silent.
func (e *Engine) Evaluate(ctx context.Context, metric string, value float64) []model.Alert {
	e.mu.Lock()
	states := make([]*ruleState, 0, len(e.rules))
	for _, st := range e.rules {
		if st.rule.Metric == metric {
			states = append(states, st)
		}
	}
	sort.Slice(states, func(i, j int) bool { return states[i].rule.Name < states[j].rule.Name })
	e.mu.Unlock()

	var alerts []model.Alert
	for _, st := range states {
		if alert := e.step(ctx, st, value); alert != nil {
			alerts = append(alerts, *alert)
		}
	}
	return alerts
}

// EvaluateAll runs every registered rule once against the latest
// values, skipping rules whose metric has no value yet.
func (e *Engine) EvaluateAll(ctx context.Context, values map[string]float64) []model.Alert {
	e.mu.Lock()
	states := make([]*ruleState, 0, len(e.rules))
	for _, st := range e.rules {
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].rule.Name < states[j].rule.Name })
	e.mu.Unlock()

	var alerts []model.Alert
	for _, st := range states {
		value, ok := values[st.rule.Metric]
		if !ok {
			continue
		}
		if alert := e.step(ctx, st, value); alert != nil {
			alerts = append(alerts, *alert)
		}
	}
	return alerts
}

func (e *Engine) step(ctx context.Context, st *ruleState, value float64) *model.Alert {
	e.mu.Lock()
	breach := breached(st.rule.Operator, value, st.rule.Threshold)
	if !breach {
		st.fired = false
		e.mu.Unlock()
		return nil
	}
	if st.fired {
		e.mu.Unlock()
		return nil
	}
	st.fired = true
	rule := st.rule
	e.mu.Unlock()

	if !rule.Enabled {
		return nil
	}

	alert := model.NewAlert(
		fmt.Sprintf("%s threshold breached", rule.Name),
		fmt.Sprintf("metric %s is %g, threshold %s %g", rule.Metric, value, rule.Operator, rule.Threshold),
		rule.Severity,
		"Alerts",
	)
	if err := e.notifier.Notify(ctx, alert); err != nil {
		log.Printf("alerting: notify %s: %v", rule.Name, err)
	}
	if e.recorder != nil {
		e.recorder.Record(model.NewMetric("alerts.fired", 1, "Alerts").WithDimension("rule", rule.Name))
	}
	return &alert
}

// breached applies strict inequality for GT/LT and exact equality for
// EQ/NEQ.
func breached(op Operator, value, threshold float64) bool {
	switch op {
	case OpGT:
		return value > threshold
	case OpLT:
		return value < threshold
	case OpEQ:
		return value == threshold
	case OpNEQ:
		return value != threshold
	}
	return false
}

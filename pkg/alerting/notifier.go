package alerting

import (
	"context"
	"sync"

	"github.com/scopewatch/scopewatch/pkg/model"
)

// CaptureNotifier keeps emitted alerts in memory. Used by tests and
// the one-shot score command.
type CaptureNotifier struct {
	mu     sync.Mutex
	alerts []model.Alert
}

func (n *CaptureNotifier) Notify(_ context.Context, alert model.Alert) error {
	n.mu.Lock()
	n.alerts = append(n.alerts, alert)
	n.mu.Unlock()
	return nil
}

func (n *CaptureNotifier) Alerts() []model.Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.Alert, len(n.alerts))
	copy(out, n.alerts)
	return out
}

var (
	_ Notifier = (*CaptureNotifier)(nil)
	_ Notifier = LogNotifier{}
)

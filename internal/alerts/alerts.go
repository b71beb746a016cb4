package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/bowerhall/mediaqa/internal/logger"
)

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityWarn:
		return "warn"
	default:
		return "info"
	}
}

type NotifyFunc func(message string)

type window struct {
	sentAt     time.Time
	suppressed int
}

// Alerter notifies the owner about failures, at most once per cooldown for
// the same component and message. Repeats inside the cooldown are counted and
// reported with the next alert that goes out.
type Alerter struct {
	mu       sync.Mutex
	notify   NotifyFunc
	windows  map[string]*window
	cooldown time.Duration
	now      func() time.Time
}

func New(notify NotifyFunc, cooldown time.Duration) *Alerter {
	return &Alerter{
		notify:   notify,
		windows:  make(map[string]*window),
		cooldown: cooldown,
		now:      time.Now,
	}
}

// SetNotify swaps the delivery function, e.g. once a chat bot is connected.
func (a *Alerter) SetNotify(notify NotifyFunc) {
	if a == nil {
		return
	}
	a.mu.Lock()
	a.notify = notify
	a.mu.Unlock()
}

func (a *Alerter) Alert(severity Severity, component, message string, err error) {
	if a == nil {
		return
	}

	a.mu.Lock()
	notify := a.notify
	if notify == nil {
		a.mu.Unlock()
		logger.Debug("alert dropped, no notifier", "component", component, "message", message)
		return
	}

	key := component + ":" + message
	now := a.now()
	w, ok := a.windows[key]
	if ok && now.Sub(w.sentAt) < a.cooldown {
		w.suppressed++
		a.mu.Unlock()
		logger.Debug("alert suppressed (cooldown)", "component", component, "message", message)
		return
	}

	suppressed := 0
	if ok {
		suppressed = w.suppressed
	}
	a.windows[key] = &window{sentAt: now}
	a.mu.Unlock()

	notify(format(severity, component, message, err, suppressed))
	logger.Info("alert sent", "component", component, "severity", severity.String())
}

func format(severity Severity, component, message string, err error, suppressed int) string {
	text := fmt.Sprintf("[mediaqa %s] %s: %s", severity, component, message)
	if err != nil {
		text += fmt.Sprintf("\n\nError: %v", err)
	}
	if suppressed > 0 {
		text += fmt.Sprintf("\n(%d similar alerts suppressed)", suppressed)
	}
	return text
}

func (a *Alerter) Critical(component, message string, err error) {
	a.Alert(SeverityCritical, component, message, err)
}

func (a *Alerter) Warn(component, message string, err error) {
	a.Alert(SeverityWarn, component, message, err)
}

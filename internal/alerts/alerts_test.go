package alerts

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestAlertCooldown(t *testing.T) {
	var sent []string
	a := New(func(msg string) { sent = append(sent, msg) }, time.Minute)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	a.Warn("interactions", "append failed", errors.New("disk full"))
	a.Warn("interactions", "append failed", errors.New("disk full"))

	if len(sent) != 1 {
		t.Fatalf("expected 1 alert within cooldown, got %d", len(sent))
	}
	if !strings.Contains(sent[0], "interactions: append failed") || !strings.Contains(sent[0], "disk full") {
		t.Errorf("unexpected alert text %q", sent[0])
	}

	// different message is not suppressed
	a.Critical("llm", "upstream failing", nil)
	if len(sent) != 2 {
		t.Fatalf("expected distinct alert to be sent, got %d", len(sent))
	}

	now = now.Add(2 * time.Minute)
	a.Warn("interactions", "append failed", nil)
	if len(sent) != 3 {
		t.Fatalf("expected alert after cooldown, got %d", len(sent))
	}
	if !strings.Contains(sent[2], "(1 similar alerts suppressed)") {
		t.Errorf("expected suppressed count in %q", sent[2])
	}
}

func TestAlertFormat(t *testing.T) {
	got := format(SeverityCritical, "llm", "provider down", errors.New("503"), 0)
	if got != "[mediaqa critical] llm: provider down\n\nError: 503" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestAlertWithoutNotifyIsNotRecorded(t *testing.T) {
	a := New(nil, time.Hour)
	a.Warn("c", "m", nil)

	var sent int
	a.SetNotify(func(string) { sent++ })
	a.Warn("c", "m", nil)

	if sent != 1 {
		t.Errorf("alert raised before a notifier existed should not start a cooldown, got %d sends", sent)
	}
}

func TestNilAlerter(t *testing.T) {
	var a *Alerter
	a.Warn("c", "m", nil)
	a.SetNotify(nil)
}

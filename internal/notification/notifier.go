// Package notification provides alert delivery to external channels
// (Telegram, webhooks) for signal lifecycle events.
package notification

import (
	"context"
	"fmt"
	"log"

	"bullsignals/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// SignalOpenedAlert builds the alert for a freshly opened signal.
func SignalOpenedAlert(id string, sig *model.Signal) Alert {
	return Alert{
		Level: AlertInfo,
		Title: fmt.Sprintf("Signal opened: %s %s", sig.Side, sig.Symbol),
		Message: fmt.Sprintf("id=%s entry=%.2f tp=%.2f sl=%.2f prob=%.2f lev=%dx",
			id, sig.EntryPrice, sig.TPPrice, sig.SLPrice, sig.Probability, sig.Leverage),
	}
}

// SignalClosedAlert builds the alert for a TP/SL close. SL closes carry
// WARNING severity so channels can highlight losses.
func SignalClosedAlert(id string, sig *model.Signal) Alert {
	level := AlertInfo
	if sig.Reason == model.ReasonSL {
		level = AlertWarning
	}
	return Alert{
		Level: level,
		Title: fmt.Sprintf("Signal closed (%s): %s %s", sig.Reason, sig.Side, sig.Symbol),
		Message: fmt.Sprintf("id=%s entry=%.2f exit=%.2f opened=%s closed=%s",
			id, sig.EntryPrice, sig.ExitPrice, sig.TimeOpen, sig.TimeClose),
	}
}

// LogNotifier is a simple notifier that logs alerts (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Multi fans an alert out to several backends; delivery failures are
// collected but do not stop the remaining backends.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, alert Alert) error {
	var firstErr error
	for _, n := range m {
		if err := n.Send(ctx, alert); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

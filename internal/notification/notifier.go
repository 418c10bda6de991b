// Package notification delivers scan alerts to external channels
// (Telegram, generic webhooks) when the screener finds strong signals.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"stock-analyzerv1/internal/model"
)

// deliveryTimeout bounds one delivery attempt to an external channel.
const deliveryTimeout = 10 * time.Second

// postJSON delivers a JSON payload and treats any non-2xx response as a
// failure. The response body is drained so the connection can be reused.
func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

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

// SignalAlert formats a screener verdict as an alert. Risk levels are
// included only when they were computable.
func SignalAlert(ticker string, rec model.Recommendation, score, maxScore int, close, stopLoss, takeProfit float64) Alert {
	msg := fmt.Sprintf("%s scored %d/%d at %.2f", ticker, score, maxScore, close)
	if !model.IsMissing(stopLoss) && !model.IsMissing(takeProfit) {
		msg += fmt.Sprintf(" (stop %.2f, target %.2f)", stopLoss, takeProfit)
	}
	return Alert{
		Level:   AlertInfo,
		Title:   fmt.Sprintf("%s: %s", ticker, rec),
		Message: msg,
	}
}

// Multi fans an alert out to every backend; one backend's failure never
// blocks the others.
type Multi struct {
	backends []Notifier
}

// NewMulti builds a fan-out notifier. Nil backends are skipped.
func NewMulti(backends ...Notifier) *Multi {
	m := &Multi{}
	for _, b := range backends {
		if b != nil {
			m.backends = append(m.backends, b)
		}
	}
	return m
}

func (m *Multi) Send(ctx context.Context, alert Alert) error {
	var firstErr error
	for _, b := range m.backends {
		if err := b.Send(ctx, alert); err != nil {
			log.Printf("[notify] backend delivery failed: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
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

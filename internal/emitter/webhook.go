// Package emitter transmits order intents to the downstream execution
// endpoint. The contract is fire-and-forget: failures are reported so the
// caller can skip its ledger commit, never retried here.
package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"signalrelay/internal/intent"
	"signalrelay/internal/logger"
	"signalrelay/internal/pkg/circuit"
)

// Emitter delivers one order intent.
type Emitter interface {
	Emit(ctx context.Context, oi intent.OrderIntent) error
}

// EmissionError wraps a delivery failure with the intent's label so handler
// logs identify which leg failed.
type EmissionError struct {
	Label string
	Err   error
}

func (e *EmissionError) Error() string {
	return fmt.Sprintf("emit %q: %v", e.Label, e.Err)
}

func (e *EmissionError) Unwrap() error { return e.Err }

// Webhook POSTs intents as JSON to a fixed endpoint, guarded by a circuit
// breaker so a dead endpoint does not stall every poll cycle on timeouts.
type Webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(url string, timeout time.Duration) (*Webhook, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("webhook url cannot be empty")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (w *Webhook) SetHTTPClient(client *http.Client) {
	w.client = client
}

func (w *Webhook) Emit(ctx context.Context, oi intent.OrderIntent) error {
	body, err := json.Marshal(oi)
	if err != nil {
		return &EmissionError{Label: oi.Label, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return &EmissionError{Label: oi.Label, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return &EmissionError{Label: oi.Label, Err: err}
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	if resp.StatusCode/100 != 2 {
		return &EmissionError{Label: oi.Label, Err: fmt.Errorf("webhook status=%d", resp.StatusCode)}
	}
	logger.Infof("emitter: %s qty=%d type=%s action=%s", oi.Label, oi.Quantity, oi.OrderType, oi.Action)
	return nil
}

// Guarded wraps an Emitter with a circuit breaker.
type Guarded struct {
	inner   Emitter
	breaker *circuit.Breaker
}

func NewGuarded(inner Emitter) *Guarded {
	return &Guarded{
		inner:   inner,
		breaker: circuit.NewBreaker("order-webhook", 5, 30*time.Second),
	}
}

func (g *Guarded) Emit(ctx context.Context, oi intent.OrderIntent) error {
	if !g.breaker.Allow() {
		return &EmissionError{Label: oi.Label, Err: fmt.Errorf("circuit open, emission suppressed")}
	}
	err := g.inner.Emit(ctx, oi)
	if err != nil {
		g.breaker.RecordFailure()
		return err
	}
	g.breaker.RecordSuccess()
	return nil
}

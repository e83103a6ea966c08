package emitter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"signalrelay/internal/intent"

	"github.com/stretchr/testify/assert"
)

func mustIntent(t *testing.T) intent.OrderIntent {
	t.Helper()
	oi, err := intent.NewMarket("ES1!", intent.ActionBuy, "5000.25", 8, "entry order")
	assert.NoError(t, err)
	return oi
}

func TestWebhookEmit(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w, err := NewWebhook(srv.URL, 0)
	assert.NoError(t, err)
	assert.NoError(t, w.Emit(context.Background(), mustIntent(t)))
	assert.Equal(t, "ES1!", received["ticker"])
	assert.Equal(t, float64(8), received["quantity"])
}

func TestWebhookEmitFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	w, err := NewWebhook(srv.URL, 0)
	assert.NoError(t, err)
	err = w.Emit(context.Background(), mustIntent(t))
	var emitErr *EmissionError
	assert.True(t, errors.As(err, &emitErr))
	assert.Equal(t, "entry order", emitErr.Label)
}

func TestWebhookEmitConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // reject all connections

	w, err := NewWebhook(srv.URL, 0)
	assert.NoError(t, err)
	err = w.Emit(context.Background(), mustIntent(t))
	var emitErr *EmissionError
	assert.True(t, errors.As(err, &emitErr))
}

func TestNewWebhookRejectsEmptyURL(t *testing.T) {
	_, err := NewWebhook("  ", 0)
	assert.Error(t, err)
}

func TestGuardedOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w, err := NewWebhook(srv.URL, 0)
	assert.NoError(t, err)
	g := NewGuarded(w)

	oi := mustIntent(t)
	for i := 0; i < 5; i++ {
		assert.Error(t, g.Emit(context.Background(), oi))
	}
	// Breaker is open now; the failure is reported without hitting the wire.
	err = g.Emit(context.Background(), oi)
	var emitErr *EmissionError
	assert.True(t, errors.As(err, &emitErr))
	assert.Contains(t, emitErr.Error(), "circuit open")
}

package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"signalrelay/internal/alloc"
	"signalrelay/internal/config"
	"signalrelay/internal/intent"
	"signalrelay/internal/ledger"
	"signalrelay/internal/position"
	"signalrelay/internal/source/discord"
	"signalrelay/internal/trader"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type countingEmitter struct {
	count atomic.Int32
}

func (c *countingEmitter) Emit(ctx context.Context, oi intent.OrderIntent) error {
	c.count.Add(1)
	return nil
}

const primaryTrimPayload = `[
  {
    "id": "m-trim-1",
    "content": "trim 1/2",
    "timestamp": "2024-03-04T14:30:00.000000+00:00",
    "mention_everyone": true,
    "embeds": []
  }
]`

type cycleFixture struct {
	svc            *LiveService
	emitter        *countingEmitter
	store          *position.Store
	ledger         *ledger.Ledger
	primaryCalls   *atomic.Int32
	secondaryCalls *atomic.Int32
}

func newCycleFixture(t *testing.T) *cycleFixture {
	t.Helper()
	dir := t.TempDir()
	store, err := position.NewStore(filepath.Join(dir, "position.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	led, err := ledger.Open(filepath.Join(dir, "ledger.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { led.Close() })

	var primaryCalls, secondaryCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/channels/p1/"):
			primaryCalls.Add(1)
			w.Write([]byte(primaryTrimPayload))
		case strings.Contains(r.URL.Path, "/channels/s1/"):
			secondaryCalls.Add(1)
			w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	client, err := discord.NewClient(srv.URL, "tok", 0)
	assert.NoError(t, err)

	em := &countingEmitter{}
	params := trader.Params{Ticker: "ES1!", GlobalQty: 4, StopOffset: decimal.NewFromFloat(3.0)}
	td := trader.New(params, store, led, em, nil)

	cfg := &config.Config{}
	cfg.Discord.PrimaryChannelID = "p1"
	cfg.Discord.SecondaryChannelID = "s1"
	cfg.Position.ExpiryMinutes = 720

	svc := &LiveService{
		cfg:    cfg,
		client: client,
		trader: td,
		store:  store,
		ledger: led,
		now:    time.Now,
	}
	return &cycleFixture{
		svc:            svc,
		emitter:        em,
		store:          store,
		ledger:         led,
		primaryCalls:   &primaryCalls,
		secondaryCalls: &secondaryCalls,
	}
}

func TestCycleWeekendGate(t *testing.T) {
	f := newCycleFixture(t)
	f.svc.now = func() time.Time { return time.Date(2024, 3, 2, 14, 30, 0, 0, time.UTC) } // Saturday

	// Even an open position that would otherwise be swept stays untouched.
	entry := 5000.0
	assert.NoError(t, f.store.Save(context.Background(), &position.Record{
		Action:     "buy",
		Direction:  "long",
		Source:     "primary",
		EntryPrice: &entry,
		Quantities: alloc.Quantities{Personal: 4, External: 8},
		OpenedAt:   time.Now().Add(-13 * time.Hour),
	}))

	f.svc.cycle(context.Background())

	assert.Equal(t, int32(0), f.primaryCalls.Load(), "weekend cycle must not fetch")
	assert.Equal(t, int32(0), f.secondaryCalls.Load())
	assert.Equal(t, int32(0), f.emitter.count.Load())
	pos, err := f.store.Get(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, pos, "weekend cycle must not sweep")
}

func TestCycleSweepPrecedesClassification(t *testing.T) {
	f := newCycleFixture(t)
	f.svc.now = func() time.Time { return time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC) } // Monday

	// Stale position: the sweep clears it before the polled trim can act, so
	// the trim lands on a flat book and closes nothing.
	entry := 5000.0
	assert.NoError(t, f.store.Save(context.Background(), &position.Record{
		Action:     "buy",
		Direction:  "long",
		Source:     "primary",
		EntryPrice: &entry,
		Quantities: alloc.Quantities{Personal: 4, External: 8},
		OpenedAt:   time.Now().Add(-13 * time.Hour),
	}))

	f.svc.cycle(context.Background())

	assert.Equal(t, int32(1), f.primaryCalls.Load())
	assert.Equal(t, int32(1), f.secondaryCalls.Load())
	assert.Equal(t, int32(0), f.emitter.count.Load(), "trim against the swept position must not emit")
	pos, err := f.store.Get(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, pos)
	assert.True(t, f.ledger.IsProcessed(ledger.NamespaceMessage, "m-trim-1"))
}

func TestCycleProcessesBothChannels(t *testing.T) {
	f := newCycleFixture(t)
	f.svc.now = func() time.Time { return time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC) } // Monday

	// Fresh position: the trim from the primary channel closes half.
	entry := 5000.0
	assert.NoError(t, f.store.Save(context.Background(), &position.Record{
		Action:     "buy",
		Direction:  "long",
		Source:     "primary",
		EntryPrice: &entry,
		Quantities: alloc.Quantities{Personal: 4, External: 8},
		OpenedAt:   time.Now().Add(-time.Hour),
	}))

	f.svc.cycle(context.Background())

	assert.Equal(t, int32(1), f.emitter.count.Load())
	pos, err := f.store.Get(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, pos)
	assert.Equal(t, 4, pos.Quantities.External)
}

package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/belexwatch/price-watcher/internal/schedule"
	"github.com/belexwatch/price-watcher/internal/service/alert"
	"github.com/belexwatch/price-watcher/internal/service/hub"
	"github.com/belexwatch/price-watcher/internal/service/source"
	"github.com/belexwatch/price-watcher/internal/service/store"
	"github.com/belexwatch/price-watcher/pkg/decimalx"
	"github.com/belexwatch/price-watcher/pkg/metrics"
	"github.com/shopspring/decimal"
)

// alertThreshold is the absolute change percentage, inclusive on both
// bounds, at which an alert is dispatched.
const alertThreshold = 5.0

// ErrCycleRunning is returned when a cycle is requested while another one
// is still in flight. Cycles never overlap.
var ErrCycleRunning = errors.New("watcher: cycle already running")

// Watcher runs one full sequential pass over the configured symbols:
// fetch with bounded retry, detect significant changes, dispatch alerts,
// update the store and broadcast events.
type Watcher struct {
	symbols []string
	src     source.Source
	store   *store.Store
	events  *hub.Hub
	alerts  *alert.Dispatcher
	metrics metrics.Recorder

	attempts     int
	fetchTimeout time.Duration
	retryDelay   time.Duration
	symbolDelay  time.Duration

	running atomic.Bool
}

type Option func(w *Watcher)

// WithTimings overrides the fetch timeout and the retry/inter-symbol
// delays. Tests use this to keep cycles fast.
func WithTimings(fetchTimeout, retryDelay, symbolDelay time.Duration) Option {
	return func(w *Watcher) {
		w.fetchTimeout = fetchTimeout
		w.retryDelay = retryDelay
		w.symbolDelay = symbolDelay
	}
}

func New(symbols []string, src source.Source, st *store.Store, events *hub.Hub, alerts *alert.Dispatcher, rec metrics.Recorder, opts ...Option) *Watcher {
	w := &Watcher{
		symbols:      symbols,
		src:          src,
		store:        st,
		events:       events,
		alerts:       alerts,
		metrics:      rec,
		attempts:     3,
		fetchTimeout: 45 * time.Second,
		retryDelay:   2 * time.Second,
		symbolDelay:  700 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var _ schedule.Task = (*Watcher)(nil)

func (w *Watcher) Name() string {
	return "price watch cycle"
}

// Run executes one cycle. A concurrent invocation (manual trigger during a
// scheduled run) is rejected with ErrCycleRunning.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		slog.Warn("skipping cycle, previous one still running")
		return ErrCycleRunning
	}
	defer w.running.Store(false)

	for i, symbol := range w.symbols {
		w.checkSymbol(ctx, symbol)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// bound the load on the price source
		if i < len(w.symbols)-1 {
			w.sleep(ctx, w.symbolDelay)
		}
	}
	w.metrics.RecordCycle()
	return nil
}

// checkSymbol is the per-symbol unit of work. No failure inside it may
// abort the cycle; retries exhausted means a logged error plus a status
// event, and the next symbol is still processed.
func (w *Watcher) checkSymbol(ctx context.Context, symbol string) {
	current, err := w.fetchWithRetry(ctx, symbol)
	if err != nil {
		w.metrics.RecordFetchError(symbol)
		slog.Error("failed to check symbol", "symbol", symbol, "error", err)
		w.events.Publish(hub.NewStatus(fmt.Sprintf("Error checking %s: %v", symbol, err)))
		return
	}

	now := time.Now()
	cur := current.InexactFloat64()
	prev, hasPrev := w.store.Get(symbol)
	slog.Info("checked symbol", "symbol", symbol, "current", cur, "prev", prevValue(prev, hasPrev))

	var prevPtr *float64
	if hasPrev {
		v := prev.Last
		prevPtr = &v
	}
	w.events.Publish(hub.NewPrice(symbol, cur, prevPtr, now.UnixMilli()))

	if hasPrev {
		change := decimalx.ChangePct(prev.Last, cur)
		if change <= -alertThreshold || change >= alertThreshold {
			w.alerts.MaybeAlert(ctx, symbol, prev.Last, cur, change)
		}
	}

	w.store.Put(symbol, store.Record{Last: cur, Ts: now.UnixMilli()})
	w.metrics.RecordLastPrice(symbol, cur)
}

func (w *Watcher) fetchWithRetry(ctx context.Context, symbol string) (res decimal.Decimal, err error) {
	for attempt := 1; attempt <= w.attempts; attempt++ {
		res, err = w.fetchOnce(ctx, symbol)
		if err == nil {
			return res, nil
		}
		slog.Warn("fetch attempt failed", "symbol", symbol, "attempt", attempt, "error", err)
		if attempt < w.attempts {
			w.sleep(ctx, w.retryDelay)
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
	}
	return res, err
}

// fetchOnce runs a single attempt inside its own bounded context, released
// on every exit path.
func (w *Watcher) fetchOnce(ctx context.Context, symbol string) (decimal.Decimal, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, w.fetchTimeout)
	defer cancel()
	return w.src.Fetch(fetchCtx, symbol)
}

func (w *Watcher) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func prevValue(rec store.Record, ok bool) any {
	if !ok {
		return nil
	}
	return rec.Last
}

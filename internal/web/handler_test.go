package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/belexwatch/price-watcher/internal/service/hub"
	"github.com/belexwatch/price-watcher/internal/service/store"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nullBackend struct{}

func (nullBackend) Load(context.Context) (store.Snapshot, error) { return store.Snapshot{}, nil }
func (nullBackend) Store(context.Context, store.Snapshot) error  { return nil }

type nopTask struct{ ran chan struct{} }

func (t *nopTask) Run(context.Context) error {
	close(t.ran)
	return nil
}
func (t *nopTask) Name() string { return "nop" }

func newFixture() (*Handler, *store.Store, *echo.Echo) {
	prices := store.New(nullBackend{})
	events := hub.New(prices.Snapshot)
	h := NewHandler(prices, events, &nopTask{ran: make(chan struct{})})
	e := echo.New()
	h.RegisterRoutes(e)
	return h, prices, e
}

func TestGetPriceLowercaseSymbol(t *testing.T) {
	_, prices, e := newFixture()
	prices.Put("NIIS", store.Record{Last: 5638.5, Ts: 1756700000000})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/price/niis", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"symbol":"NIIS"`)
	assert.Contains(t, rec.Body.String(), `"last":5638.5`)
}

func TestGetPriceUnknownSymbol(t *testing.T) {
	_, _, e := newFixture()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/price/ZZZZ", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no data yet")
}

func TestListPrices(t *testing.T) {
	_, prices, e := newFixture()
	prices.Put("AERO", store.Record{Last: 1200, Ts: 1})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/prices", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"AERO"`)
}

func TestTriggerCheckRunsCycle(t *testing.T) {
	prices := store.New(nullBackend{})
	events := hub.New(prices.Snapshot)
	task := &nopTask{ran: make(chan struct{})}
	h := NewHandler(prices, events, task)
	e := echo.New()
	h.RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/check", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	select {
	case <-task.ran:
	case <-time.After(time.Second):
		t.Fatal("cycle was not started")
	}
}

func TestStreamEventsReplaysStatusAndSnapshot(t *testing.T) {
	_, prices, e := newFixture()
	prices.Put("JESV", store.Record{Last: 312, Ts: 1})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		e.ServeHTTP(rec, req)
		close(done)
	}()

	// the greeting frames are buffered at subscribe time, give the handler
	// a moment to drain them before disconnecting
	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not return after disconnect")
	}

	body := rec.Body.String()
	frames := strings.Split(strings.TrimSpace(body), "\n\n")
	require.GreaterOrEqual(t, len(frames), 2)
	assert.Contains(t, frames[0], `"status"`)
	assert.Contains(t, frames[0], "connected")
	assert.Contains(t, frames[1], `"snapshot"`)
	assert.Contains(t, frames[1], "JESV")
}

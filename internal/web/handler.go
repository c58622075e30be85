package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/belexwatch/price-watcher/internal/schedule"
	"github.com/belexwatch/price-watcher/internal/service/hub"
	"github.com/belexwatch/price-watcher/internal/service/store"
	"github.com/belexwatch/price-watcher/internal/service/watcher"
	"github.com/labstack/echo/v4"
)

// Handler serves price state, the SSE event stream and the manual check
// trigger.
type Handler struct {
	prices *store.Store
	events *hub.Hub
	cycle  schedule.Task
}

func NewHandler(prices *store.Store, events *hub.Hub, cycle schedule.Task) *Handler {
	return &Handler{prices: prices, events: events, cycle: cycle}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/prices", h.listPrices)
	e.GET("/api/price/:symbol", h.getPrice)
	e.GET("/events", h.streamEvents)
	e.POST("/api/check", h.triggerCheck)
}

func (h *Handler) listPrices(c echo.Context) error {
	return c.JSON(http.StatusOK, h.prices.Snapshot())
}

func (h *Handler) getPrice(c echo.Context) error {
	symbol := strings.ToUpper(c.Param("symbol"))
	rec, ok := h.prices.Get(symbol)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no data yet"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"symbol": symbol,
		"last":   rec.Last,
		"ts":     rec.Ts,
	})
}

// streamEvents replays the connection status and current snapshot, then
// forwards live events until the client goes away.
func (h *Handler) streamEvents(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	obs := h.events.Subscribe()
	defer h.events.Unsubscribe(obs)

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-obs.C():
			if !ok {
				return nil
			}
			data, err := json.Marshal(ev)
			if err != nil {
				slog.Warn("event not serializable", "err", err)
				continue
			}
			if _, err = fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func (h *Handler) triggerCheck(c echo.Context) error {
	go func() {
		if err := h.cycle.Run(context.Background()); err != nil {
			if errors.Is(err, watcher.ErrCycleRunning) {
				slog.Info("manual check skipped, cycle already running")
				return
			}
			slog.Error("manual check failed", "err", err)
		}
	}()
	return c.JSON(http.StatusAccepted, echo.Map{"status": "started"})
}

package hub

import (
	"github.com/belexwatch/price-watcher/internal/service/store"
)

// Event is one broadcast message. Each concrete event carries a "type" tag
// so the wire shape matches what dashboard observers expect.
type Event any

type PriceEvent struct {
	Type    string   `json:"type"`
	Symbol  string   `json:"symbol"`
	Current float64  `json:"current"`
	Prev    *float64 `json:"prev"`
	Ts      int64    `json:"ts"`
}

type StatusEvent struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

type SnapshotEvent struct {
	Type   string         `json:"type"`
	Prices store.Snapshot `json:"prices"`
}

func NewPrice(symbol string, current float64, prev *float64, ts int64) PriceEvent {
	return PriceEvent{Type: "price", Symbol: symbol, Current: current, Prev: prev, Ts: ts}
}

func NewStatus(msg string) StatusEvent {
	return StatusEvent{Type: "status", Msg: msg}
}

func NewSnapshot(snap store.Snapshot) SnapshotEvent {
	return SnapshotEvent{Type: "snapshot", Prices: snap}
}

package store

import (
	"context"

	"github.com/samber/lo"
)

// Record is the last observed price for one symbol.
type Record struct {
	Last float64 `json:"last"`
	Ts   int64   `json:"ts"` // epoch ms
}

// Snapshot maps every observed symbol to its record. Symbols that were
// never successfully observed are absent.
type Snapshot map[string]Record

func (s Snapshot) Clone() Snapshot {
	return lo.Assign(Snapshot{}, s)
}

// Backend is the durable side of the store.
type Backend interface {
	Load(ctx context.Context) (Snapshot, error)
	Store(ctx context.Context, snap Snapshot) error
}

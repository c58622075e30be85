package store

import (
	"context"

	"github.com/belexwatch/price-watcher/internal/entity"
	"github.com/belexwatch/price-watcher/internal/repo"
	"github.com/samber/lo"
)

// GormBackend persists the snapshot as rows in a relational table.
type GormBackend struct {
	repo repo.SnapshotRepo
}

func NewGormBackend(repo repo.SnapshotRepo) *GormBackend {
	return &GormBackend{repo: repo}
}

func (b *GormBackend) Load(ctx context.Context) (Snapshot, error) {
	rows, err := b.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return lo.SliceToMap(rows, func(row entity.PriceRow) (string, Record) {
		return row.Symbol, Record{Last: row.Last, Ts: row.Ts}
	}), nil
}

func (b *GormBackend) Store(ctx context.Context, snap Snapshot) error {
	rows := lo.MapToSlice(snap, func(symbol string, rec Record) entity.PriceRow {
		return entity.PriceRow{Symbol: symbol, Last: rec.Last, Ts: rec.Ts}
	})
	return b.repo.ReplaceAll(ctx, rows)
}

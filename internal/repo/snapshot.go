package repo

import (
	"context"

	"github.com/belexwatch/price-watcher/internal/entity"
	"gorm.io/gorm"
)

type SnapshotRepo interface {
	ReplaceAll(ctx context.Context, rows []entity.PriceRow) error
	LoadAll(ctx context.Context) ([]entity.PriceRow, error)
}

type snapshotRepo struct {
	db *gorm.DB
}

func NewSnapshotRepo(db *gorm.DB) SnapshotRepo {
	return &snapshotRepo{
		db: db,
	}
}

// ReplaceAll swaps the stored snapshot for the given one in a single transaction.
func (r *snapshotRepo) ReplaceAll(ctx context.Context, rows []entity.PriceRow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&entity.PriceRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (r *snapshotRepo) LoadAll(ctx context.Context) ([]entity.PriceRow, error) {
	var rows []entity.PriceRow
	err := r.db.WithContext(ctx).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

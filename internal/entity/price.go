package entity

import (
	"time"
)

// PriceRow is one persisted snapshot entry.
type PriceRow struct {
	Symbol    string `gorm:"primaryKey"`
	Last      float64
	Ts        int64 // observation time, epoch ms
	UpdatedAt time.Time
}

package repo

import (
	"github.com/belexwatch/price-watcher/internal/entity"
	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(&entity.PriceRow{})
}

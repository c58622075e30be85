package ioc

import (
	"github.com/spf13/viper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func InitDB() *gorm.DB {
	type Config struct {
		Dsn string `mapstructure:"dsn"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("db.sqlite", &cfg); err != nil {
		panic(err)
	}
	if cfg.Dsn == "" {
		cfg.Dsn = "prices.db"
	}

	db, err := gorm.Open(sqlite.Open(cfg.Dsn), &gorm.Config{})
	if err != nil {
		panic(err)
	}
	return db
}

package ioc

import (
	"fmt"

	"github.com/belexwatch/price-watcher/internal/repo"
	"github.com/belexwatch/price-watcher/internal/service/store"
	"github.com/spf13/viper"
)

func InitStore() *store.Store {
	type Config struct {
		Backend string `mapstructure:"backend"`
		Path    string `mapstructure:"path"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("store", &cfg); err != nil {
		panic(err)
	}

	switch cfg.Backend {
	case "", "file":
		if cfg.Path == "" {
			cfg.Path = "prices.json"
		}
		return store.New(store.NewFileBackend(cfg.Path))
	case "sqlite":
		db := InitDB()
		if err := repo.InitTables(db); err != nil {
			panic(err)
		}
		return store.New(store.NewGormBackend(repo.NewSnapshotRepo(db)))
	default:
		panic(fmt.Errorf("unknown store backend: %s", cfg.Backend))
	}
}

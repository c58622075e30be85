package ioc

import (
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	binancesrc "github.com/belexwatch/price-watcher/internal/service/source/binance"

	"github.com/belexwatch/price-watcher/internal/service/source"
	"github.com/belexwatch/price-watcher/internal/service/source/belex"
	"github.com/spf13/viper"
)

func InitSource() source.Source {
	type Config struct {
		Kind    string `mapstructure:"kind"`
		BaseURL string `mapstructure:"base_url"`
		Timeout string `mapstructure:"timeout"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("source", &cfg); err != nil {
		panic(err)
	}

	timeout := 45 * time.Second
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			panic(fmt.Errorf("invalid source timeout: %w", err))
		}
		timeout = d
	}

	switch cfg.Kind {
	case "", "belex":
		var opts []belex.Option
		if cfg.BaseURL != "" {
			opts = append(opts, belex.WithBaseURL(cfg.BaseURL))
		}
		return belex.NewClient(timeout, opts...)
	case "binance":
		return binancesrc.NewService(initBinanceCli())
	default:
		panic(fmt.Errorf("unknown price source: %s", cfg.Kind))
	}
}

func initBinanceCli() *binance.Client {
	type Config struct {
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("source.binance", &cfg); err != nil {
		panic(err)
	}

	return binance.NewClient(cfg.ApiKey, cfg.ApiSecret)
}

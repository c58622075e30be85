package ioc

import (
	"github.com/belexwatch/price-watcher/internal/service/mailbox"
	"github.com/belexwatch/price-watcher/internal/service/mailbox/imapsource"
	"github.com/spf13/viper"
)

// InitMailboxSource returns nil when IMAP is not configured, which disables
// the listener.
func InitMailboxSource() mailbox.Source {
	type Config struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
		User string `mapstructure:"user"`
		Pass string `mapstructure:"pass"`
		TLS  *bool  `mapstructure:"tls"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("imap", &cfg); err != nil {
		panic(err)
	}

	if cfg.Host == "" || cfg.User == "" || cfg.Pass == "" {
		return nil
	}
	if cfg.Port == 0 {
		cfg.Port = 993
	}
	tls := true
	if cfg.TLS != nil {
		tls = *cfg.TLS
	}

	return imapsource.New(imapsource.Options{
		Host: cfg.Host,
		Port: cfg.Port,
		User: cfg.User,
		Pass: cfg.Pass,
		TLS:  tls,
	})
}

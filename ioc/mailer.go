package ioc

import (
	"log/slog"

	"github.com/belexwatch/price-watcher/internal/service/notification"
	"github.com/spf13/viper"
	"github.com/wneessen/go-mail"
)

func InitMailer() notification.EmailService {
	type Config struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
		User string `mapstructure:"user"`
		Pass string `mapstructure:"pass"`
		From string `mapstructure:"from"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("smtp", &cfg); err != nil {
		panic(err)
	}

	if cfg.Host == "" || cfg.User == "" || cfg.Pass == "" {
		slog.Warn("smtp not configured, alerts and replies will only be logged")
		return notification.NewNoopService()
	}
	if cfg.Port == 0 {
		cfg.Port = 465
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Pass),
		mail.WithSSLPort(false),
	)
	if err != nil {
		panic(err)
	}
	return notification.NewSMTPService(client, cfg.From)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/belexwatch/price-watcher/internal/schedule"
	"github.com/belexwatch/price-watcher/internal/service/alert"
	"github.com/belexwatch/price-watcher/internal/service/hub"
	"github.com/belexwatch/price-watcher/internal/service/mailbox"
	"github.com/belexwatch/price-watcher/internal/service/reply"
	"github.com/belexwatch/price-watcher/internal/service/watcher"
	"github.com/belexwatch/price-watcher/internal/web"
	"github.com/belexwatch/price-watcher/ioc"
	"github.com/belexwatch/price-watcher/pkg/metrics"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func initViper() {
	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.yaml", "specify config file")
	pflag.Parse()

	viper.SetDefault("watch.symbols", []string{
		"JESV", "NIIS", "IMPL", "MTLC", "DNOS", "DINN", "DINNPB", "AERO",
		"TGAS", "FINT", "INFM", "ENHL", "ZTPK", "DNREM", "GFOM",
	})
	viper.SetDefault("watch.cron", "*/2 * * * *")
	viper.SetDefault("reply.cooldown", "1h")
	viper.SetDefault("web.host", "0.0.0.0")
	viper.SetDefault("web.port", 3001)

	viper.AutomaticEnv()
	viper.SetConfigFile(*file)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			panic(fmt.Errorf("fatal error config file: %s \n", err))
		}
		slog.Warn("config file not found, using defaults", "file", *file)
	}
}

func initLogger() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

func main() {
	initLogger()
	initViper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	symbols := viper.GetStringSlice("watch.symbols")
	rec := metrics.New()

	prices := ioc.InitStore()
	prices.Load(ctx)
	events := hub.New(prices.Snapshot)

	mailer := ioc.InitMailer()
	alerts := alert.NewDispatcher(mailer, events, viper.GetStringSlice("alert.recipients"), rec)
	cycle := watcher.New(symbols, ioc.InitSource(), prices, events, alerts, rec)

	var extractor reply.Extractor = reply.NewRegexExtractor(symbols)
	if llmSvc := ioc.InitLLM(); llmSvc != nil && viper.GetBool("reply.llm_extract") {
		extractor = reply.NewLLMExtractor(extractor, llmSvc, symbols)
	}
	limiter := reply.NewRateLimiter(viper.GetDuration("reply.cooldown"))
	var replyOpts []reply.Option
	if viper.GetBool("reply.guidance") {
		replyOpts = append(replyOpts, reply.WithGuidanceReply())
	}
	pipeline := reply.NewPipeline(extractor, prices, mailer, limiter, rec, replyOpts...)

	listener := mailbox.New(ioc.InitMailboxSource(), func(ctx context.Context, msg mailbox.Message) {
		pipeline.Handle(ctx, msg)
	})
	go func() {
		if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("mailbox listener stopped", "err", err)
		}
	}()

	cron := schedule.NewCronRunner()
	if err := cron.Add(viper.GetString("watch.cron"), cycle); err != nil {
		panic(err)
	}
	cron.Start()

	// drop limiter entries for senders that went quiet
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Sweep(24 * time.Hour)
			}
		}
	}()

	srv := web.NewServer(web.NewHandler(prices, events, cycle),
		web.WithAddr(viper.GetString("web.host"), viper.GetInt("web.port")))
	srv.Start()

	go func() {
		if err := cycle.Run(ctx); err != nil {
			slog.Error("initial check failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	cron.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "err", err)
	}
	if err := prices.FlushNow(shutdownCtx); err != nil {
		slog.Error("final flush failed", "err", err)
	}
}

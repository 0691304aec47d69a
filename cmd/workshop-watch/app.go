package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/BearBump/RampDesk/config"
	"github.com/BearBump/RampDesk/internal/broker/kafka"
	"github.com/BearBump/RampDesk/internal/cache/rediscache"
	"github.com/BearBump/RampDesk/internal/integrations/platform/fake"
	"github.com/BearBump/RampDesk/internal/integrations/platform/resthttp"
	"github.com/BearBump/RampDesk/internal/metrics"
	"github.com/BearBump/RampDesk/internal/services/watcher"
)

type watchFactories struct {
	newProducer    func(cfg *config.Config, topic string) watcher.Producer
	newRateLimiter func(cfg *config.Config) watcher.RateLimiter
	newLister      func(cfg *config.Config) watcher.JobCardLister
}

func defaultWatchFactories() watchFactories {
	return watchFactories{
		newProducer: func(cfg *config.Config, topic string) watcher.Producer {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewProducer(brokers, topic)
		},
		newRateLimiter: func(cfg *config.Config) watcher.RateLimiter {
			redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
			return rediscache.NewRateLimiter(redisAddr)
		},
		newLister: func(cfg *config.Config) watcher.JobCardLister {
			if cfg.Platform.Mode == "fake" {
				return fake.New()
			}
			return resthttp.New(cfg.Platform.BaseURL, cfg.Platform.APIKey)
		},
	}
}

func RunWorkshopWatch(ctx context.Context, cfg *config.Config, f watchFactories) error {
	topic := cfg.Kafka.JobCardUpdatedTopicName
	if topic == "" {
		topic = "job_card.updated"
	}

	pollInterval := time.Duration(cfg.RampDesk.WatchPollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	pageLimit := cfg.RampDesk.PageLimit
	if pageLimit <= 0 {
		pageLimit = 100
	}
	rlPerMin := int64(cfg.RampDesk.WatchRateLimitPerMinute)
	if rlPerMin <= 0 {
		rlPerMin = 60
	}

	mx := metrics.New("workshop_watch")
	w := watcher.New(f.newLister(cfg), f.newProducer(cfg, topic), f.newRateLimiter(cfg), mx).
		WithSettings(pollInterval, pageLimit, rlPerMin)

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runWatchHTTPServer(ctx, watchHTTPOpts{
			httpAddr:    cfg.RampDesk.WatchHTTPAddr,
			swaggerPath: os.Getenv("swaggerPath"),
			watcher:     w,
			cfg:         cfg,
			mx:          mx,
		})
	}()

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- w.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-httpErr:
		return err
	case err := <-watchErr:
		return err
	}
}

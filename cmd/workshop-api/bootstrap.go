package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/RampDesk/config"
	"github.com/BearBump/RampDesk/internal/broker/kafka"
	"github.com/BearBump/RampDesk/internal/cache/rediscache"
	"github.com/BearBump/RampDesk/internal/integrations/platform"
	"github.com/BearBump/RampDesk/internal/integrations/platform/fake"
	"github.com/BearBump/RampDesk/internal/integrations/platform/resthttp"
	"github.com/BearBump/RampDesk/internal/metrics"
	"github.com/BearBump/RampDesk/internal/services/workshop"
)

type workshopAPIApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     workshopAPIOpts
	svc      *workshop.Service
	consumer *kafka.Consumer
	mx       *metrics.Metrics
}

func mustBootstrapWorkshopAPI() *workshopAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	httpAddr := cfg.RampDesk.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.RampDesk.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "workshop-api"
	}
	topic := cfg.Kafka.JobCardUpdatedTopicName
	if topic == "" {
		topic = "job_card.updated"
	}
	snapshotTTL := time.Duration(cfg.RampDesk.SnapshotTTLSeconds) * time.Second
	if snapshotTTL <= 0 {
		snapshotTTL = 30 * time.Second
	}

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)

	mx := metrics.New("workshop_api")
	svc := workshop.New(newPlatformClient(cfg), rc, mx, snapshotTTL)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	consumer := kafka.NewConsumer(brokers, topic, consumerGroup)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &workshopAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: workshopAPIOpts{
			httpAddr:      httpAddr,
			swaggerPath:   swaggerPath,
			topic:         topic,
			consumerGroup: consumerGroup,
		},
		svc:      svc,
		consumer: consumer,
		mx:       mx,
	}
}

func newPlatformClient(cfg *config.Config) platform.Client {
	if cfg.Platform.Mode == "fake" {
		return fake.New()
	}
	return resthttp.New(cfg.Platform.BaseURL, cfg.Platform.APIKey)
}

func (a *workshopAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
}

func (a *workshopAPIApp) Run() error {
	return runWorkshopAPI(a.ctx, a.opts, a.svc, a.consumer, a.mx)
}

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BearBump/RampDesk/config"
	"github.com/BearBump/RampDesk/internal/integrations/platform"
	"github.com/BearBump/RampDesk/internal/integrations/platform/fake"
	"github.com/BearBump/RampDesk/internal/integrations/platform/resthttp"
	"github.com/BearBump/RampDesk/internal/metrics"
	"github.com/BearBump/RampDesk/internal/services/watcher"
	"github.com/stretchr/testify/require"
)

func TestDefaultWatchFactories_SelectPlatformClient(t *testing.T) {
	f := defaultWatchFactories()

	cfgFake := &config.Config{
		Platform: config.PlatformConfig{Mode: "fake"},
	}
	c1 := f.newLister(cfgFake)
	_, ok := c1.(*fake.FakePlatform)
	require.True(t, ok)

	cfgRest := &config.Config{
		Platform: config.PlatformConfig{Mode: "rest", BaseURL: "http://localhost:9000", APIKey: "k"},
	}
	c2 := f.newLister(cfgRest)
	_, ok = c2.(*resthttp.Client)
	require.True(t, ok)
}

func TestDefaultWatchFactories_ProducerAndRateLimiter_NonNil(t *testing.T) {
	f := defaultWatchFactories()
	cfg := &config.Config{
		Kafka: config.KafkaConfig{Host: "localhost", Port: 9092},
		Redis: config.RedisConfig{Host: "localhost", Port: 6379},
	}
	require.NotNil(t, f.newProducer(cfg, "t"))
	require.NotNil(t, f.newRateLimiter(cfg))
}

type noopProducer struct{}

func (p noopProducer) Publish(ctx context.Context, key, value []byte) error { return nil }

type emptyLister struct{}

func (l emptyLister) ListJobCards(ctx context.Context, limit int) ([]platform.JobCardRow, error) {
	return nil, nil
}

func TestRunWorkshopWatch_ContextCanceled(t *testing.T) {
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))
	t.Setenv("swaggerPath", sw)

	f := watchFactories{
		newProducer:    func(cfg *config.Config, topic string) watcher.Producer { return noopProducer{} },
		newRateLimiter: func(cfg *config.Config) watcher.RateLimiter { return nil },
		newLister:      func(cfg *config.Config) watcher.JobCardLister { return emptyLister{} },
	}

	cfg := &config.Config{
		Kafka:    config.KafkaConfig{JobCardUpdatedTopicName: "t"},
		RampDesk: config.RampDeskConfig{WatchPollIntervalSeconds: 1, WatchHTTPAddr: "127.0.0.1:0"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunWorkshopWatch(ctx, cfg, f)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWatchHTTPServer_StatsAndTrigger(t *testing.T) {
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))

	w := watcher.New(emptyLister{}, noopProducer{}, nil, metrics.New("workshop_watch"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runWatchHTTPServer(ctx, watchHTTPOpts{
			httpAddr:    "127.0.0.1:0",
			swaggerPath: sw,
			watcher:     w,
			onListen:    func(addr string) { addrCh <- addr },
		})
	}()

	addr := <-addrCh

	resp, err := http.Get("http://" + addr + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	var st watcher.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	require.False(t, st.StartedAt.IsZero())

	resp2, err := http.Post("http://"+addr+"/trigger", "application/json", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, 200, resp2.StatusCode)

	require.Eventually(t, func() bool {
		return w.Stats().LastTriggerAt != nil
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-errCh
}

package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/BearBump/RampDesk/internal/broker/messages"
	"github.com/BearBump/RampDesk/internal/integrations/platform/fake"
	"github.com/BearBump/RampDesk/internal/services/workshop"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeConsumer struct {
	events [][]byte
}

func (c *fakeConsumer) Consume(ctx context.Context, handler func(key, value []byte) error) error {
	for _, ev := range c.events {
		if err := handler(nil, ev); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunWorkshopAPI_ServesDashboardAndSwagger(t *testing.T) {
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))

	svc := workshop.New(fake.New(), nil, nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	opts := workshopAPIOpts{
		httpAddr:      "127.0.0.1:0",
		swaggerPath:   sw,
		topic:         "t",
		consumerGroup: "g",
		onListen:      func(httpAddr string) { addrCh <- httpAddr },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- runWorkshopAPI(ctx, opts, svc, &fakeConsumer{}, nil)
	}()

	httpAddr := <-addrCh

	resp, err := http.Get("http://" + httpAddr + "/swagger.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	resp2, err := http.Get("http://" + httpAddr + "/api/v1/dashboard")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, 200, resp2.StatusCode)
	body, _ := io.ReadAll(resp2.Body)
	require.Contains(t, string(body), "jobCards")

	resp3, err := http.Get("http://" + httpAddr + "/healthz")
	require.NoError(t, err)
	defer resp3.Body.Close()
	require.Equal(t, 200, resp3.StatusCode)

	cancel()
	require.Error(t, <-errCh)
}

// flakyConsumer падает на первых failures вызовах Consume, потом
// отдаёт события как обычный fakeConsumer.
type flakyConsumer struct {
	mu       sync.Mutex
	failures int
	calls    int
	events   [][]byte
}

func (c *flakyConsumer) Consume(ctx context.Context, handler func(key, value []byte) error) error {
	c.mu.Lock()
	c.calls++
	failing := c.calls <= c.failures
	c.mu.Unlock()

	if failing {
		return errors.New("broker connection reset")
	}
	for _, ev := range c.events {
		if err := handler(nil, ev); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunWorkshopAPI_ConsumerRestartsAfterError(t *testing.T) {
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))

	svc := workshop.New(fake.New(), nil, nil, 0)

	ev, err := json.Marshal(messages.JobCardUpdated{
		JobCardID: "jc-1",
		TicketID:  "t-1",
		CheckedAt: time.Now().UTC(),
		OldStatus: "in_progress",
		NewStatus: "completed",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	opts := workshopAPIOpts{
		httpAddr:    "127.0.0.1:0",
		swaggerPath: sw,
		onListen:    func(httpAddr string) { addrCh <- httpAddr },
	}

	consumer := &flakyConsumer{failures: 1, events: [][]byte{ev}}
	errCh := make(chan error, 1)
	go func() {
		errCh <- runWorkshopAPI(ctx, opts, svc, consumer, nil)
	}()
	<-addrCh

	// событие доезжает только со второго захода Consume
	require.Eventually(t, func() bool {
		for _, jc := range svc.Snapshot().JobCards {
			if jc.ID == "jc-1" {
				return string(jc.Status) == "ready"
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)

	consumer.mu.Lock()
	calls := consumer.calls
	consumer.mu.Unlock()
	require.GreaterOrEqual(t, calls, 2)

	cancel()
	require.Error(t, <-errCh)
}

func TestRunWorkshopAPI_ConsumerPatchesSnapshot(t *testing.T) {
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0"}`), 0o600))

	svc := workshop.New(fake.New(), nil, nil, 0)

	ev, err := json.Marshal(messages.JobCardUpdated{
		JobCardID: "jc-1",
		TicketID:  "t-1",
		CheckedAt: time.Now().UTC(),
		OldStatus: "in_progress",
		NewStatus: "completed",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrCh := make(chan string, 1)
	opts := workshopAPIOpts{
		httpAddr:    "127.0.0.1:0",
		swaggerPath: sw,
		onListen:    func(httpAddr string) { addrCh <- httpAddr },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- runWorkshopAPI(ctx, opts, svc, &fakeConsumer{events: [][]byte{ev}}, nil)
	}()
	<-addrCh

	require.Eventually(t, func() bool {
		for _, jc := range svc.Snapshot().JobCards {
			if jc.ID == "jc-1" {
				return string(jc.Status) == "ready" // completed -> ready локально
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.Error(t, <-errCh)
}

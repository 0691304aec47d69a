package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	workshopapi "github.com/BearBump/RampDesk/internal/api/workshop_api"
	"github.com/BearBump/RampDesk/internal/broker/messages"
	"github.com/BearBump/RampDesk/internal/metrics"
	"github.com/BearBump/RampDesk/internal/services/workshop"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
)

type workshopAPIOpts struct {
	httpAddr    string
	swaggerPath string

	topic         string
	consumerGroup string

	onListen func(httpAddr string)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

func runWorkshopAPI(ctx context.Context, opts workshopAPIOpts, svc *workshop.Service, consumer kafkaConsumer, mx *metrics.Metrics) error {
	if opts.swaggerPath == "" {
		return fmt.Errorf("swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	// Начальный sync. Лежащая платформа не мешает поднять сервер:
	// снапшот останется пустым с выставленным lastError.
	if err := svc.Refresh(ctx); err != nil {
		slog.Warn("initial sync failed", "error", err.Error())
	}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})
	if mx != nil {
		r.Get("/metrics", mx.Handler().ServeHTTP)
	}

	r.Route("/api/v1", workshopapi.New(svc).Routes)

	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, opts.swaggerPath)
	})
	swaggerURL := "/swagger.json"
	if fi, err := os.Stat(opts.swaggerPath); err == nil {
		swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
	}
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))

	if consumer != nil {
		go func() {
			slog.Info("kafka consumer started", "topic", opts.topic, "group", opts.consumerGroup)
			// Ошибка обработчика роняет Consume; цикл перезапускает его,
			// иначе сервис молча живёт без событий до рестарта процесса.
			for {
				err := consumer.Consume(ctx, func(_key, value []byte) error {
					var m messages.JobCardUpdated
					if err := json.Unmarshal(value, &m); err != nil {
						return err
					}
					return svc.ApplyJobCardEvent(ctx, m)
				})
				if ctx.Err() != nil {
					return
				}
				slog.Error("kafka consumer stopped, restarting", "error", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
			}
		}()
	}

	srv := &http.Server{Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && ctx.Err() != nil {
		return ctx.Err()
	} else if err != nil {
		return err
	}
	return nil
}

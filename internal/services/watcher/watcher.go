package watcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/RampDesk/internal/broker/messages"
	"github.com/BearBump/RampDesk/internal/integrations/platform"
	"github.com/BearBump/RampDesk/internal/metrics"
	"github.com/pkg/errors"
)

type JobCardLister interface {
	ListJobCards(ctx context.Context, limit int) ([]platform.JobCardRow, error)
}

type Producer interface {
	Publish(ctx context.Context, key, value []byte) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// Watcher опрашивает платформу по тикеру, сравнивает статусы job card
// с прошлым циклом и публикует изменения в kafka. Первый цикл только
// запоминает состояние — на старте шторма событий не будет.
type Watcher struct {
	lister   JobCardLister
	producer Producer
	rl       RateLimiter
	mx       *metrics.Metrics

	pollInterval       time.Duration
	pageLimit          int
	rateLimitPerMinute int64

	triggerCh chan struct{}

	// статус платформы по id карточки на момент прошлого цикла
	lastStatuses map[string]string
	primed       bool

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalCycles         atomic.Int64
	totalPublished      atomic.Int64
	totalErrors         atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(lister JobCardLister, producer Producer, rl RateLimiter, mx *metrics.Metrics) *Watcher {
	return &Watcher{
		lister:             lister,
		producer:           producer,
		rl:                 rl,
		mx:                 mx,
		pollInterval:       5 * time.Second,
		pageLimit:          100,
		rateLimitPerMinute: 60,
		triggerCh:          make(chan struct{}, 1),
		lastStatuses:       make(map[string]string),
		startedAtUnixNano:  time.Now().UTC().UnixNano(),
	}
}

func (w *Watcher) WithSettings(pollInterval time.Duration, pageLimit int, rlPerMin int64) *Watcher {
	if pollInterval > 0 {
		w.pollInterval = pollInterval
	}
	if pageLimit > 0 {
		w.pageLimit = pageLimit
	}
	if rlPerMin > 0 {
		w.rateLimitPerMinute = rlPerMin
	}
	return w
}

// Trigger форсирует внеочередной цикл (best-effort, не блокирует).
func (w *Watcher) Trigger() {
	w.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt      time.Time  `json:"startedAt"`
	LastCycleAt    *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt  *time.Time `json:"lastTriggerAt,omitempty"`
	TotalCycles    int64      `json:"totalCycles"`
	TotalPublished int64      `json:"totalPublished"`
	TotalErrors    int64      `json:"totalErrors"`
	LastError      string     `json:"lastError,omitempty"`
}

func (w *Watcher) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, w.startedAtUnixNano).UTC(),
		TotalCycles:    w.totalCycles.Load(),
		TotalPublished: w.totalPublished.Load(),
		TotalErrors:    w.totalErrors.Load(),
	}
	if n := w.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := w.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	w.lastErrorMu.Lock()
	st.LastError = w.lastError
	w.lastErrorMu.Unlock()
	return st
}

func (w *Watcher) Run(ctx context.Context) error {
	t := time.NewTicker(w.pollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			w.runOnce(ctx)
		case <-w.triggerCh:
			w.runOnce(ctx)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) {
	now := time.Now().UTC()
	w.lastCycleUnixNano.Store(now.UnixNano())
	w.totalCycles.Add(1)

	if w.rl != nil && w.rateLimitPerMinute > 0 {
		minuteKey := fmt.Sprintf("rl:platform:list:%s", now.Format("200601021504"))
		allowed, n, err := w.rl.Allow(ctx, minuteKey, w.rateLimitPerMinute, 70*time.Second)
		if err != nil {
			w.fail(errors.Wrap(err, "rate limiter"))
			return
		}
		if !allowed {
			// Платформу и так дёргают все подряд — пропускаем цикл.
			slog.Warn("platform poll rate limit exceeded", "count", n)
			return
		}
	}

	rows, err := w.lister.ListJobCards(ctx, w.pageLimit)
	if err != nil {
		w.fail(errors.Wrap(err, "list job cards"))
		return
	}

	next := make(map[string]string, len(rows))
	for _, row := range rows {
		next[row.ID] = row.Status
	}

	if !w.primed {
		w.lastStatuses = next
		w.primed = true
		return
	}

	for _, row := range rows {
		old, known := w.lastStatuses[row.ID]
		if known && old == row.Status {
			continue
		}
		msg := messages.JobCardUpdated{
			JobCardID:    row.ID,
			TicketID:     row.TicketID,
			CheckedAt:    now,
			OldStatus:    old,
			NewStatus:    row.Status,
			TechnicianID: row.TechnicianID,
		}
		if err := w.publish(ctx, msg); err != nil {
			w.fail(err)
			// не запоминаем новый статус: в следующем цикле попробуем ещё раз
			delete(next, row.ID)
			if old != "" {
				next[row.ID] = old
			}
			continue
		}
		w.totalPublished.Add(1)
		if w.mx != nil {
			w.mx.EventsPublished.Inc()
		}
	}

	w.lastStatuses = next
}

func (w *Watcher) publish(ctx context.Context, msg messages.JobCardUpdated) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	return w.producer.Publish(ctx, []byte(msg.JobCardID), b)
}

func (w *Watcher) fail(err error) {
	w.totalErrors.Add(1)
	w.lastErrorMu.Lock()
	w.lastError = err.Error()
	w.lastErrorMu.Unlock()
	slog.Error("watcher cycle", "error", err.Error())
}

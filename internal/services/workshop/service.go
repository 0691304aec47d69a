package workshop

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/BearBump/RampDesk/internal/broker/messages"
	"github.com/BearBump/RampDesk/internal/cache"
	"github.com/BearBump/RampDesk/internal/integrations/platform"
	"github.com/BearBump/RampDesk/internal/metrics"
	"github.com/BearBump/RampDesk/internal/models"
	"github.com/pkg/errors"
)

var (
	ErrNoRampAvailable = errors.New("no available ramp")
	ErrNotFound        = errors.New("not found")
)

const snapshotCacheKey = "workshop:snapshot"

// Service владеет снапшотом мастерской и проводит все мутации по одной
// схеме: сначала запись на платформу, при ошибке локально не меняется
// ничего, при успехе подтверждённое изменение попадает в снапшот.
// Мутации, задевающие связку подъёмник<->карточка, перечитывают всё.
type Service struct {
	platform platform.Client
	store    *Store
	cache    cache.BytesCache
	mx       *metrics.Metrics

	snapshotTTL time.Duration
	pageLimit   int

	syncMu sync.Mutex
}

func New(p platform.Client, c cache.BytesCache, mx *metrics.Metrics, snapshotTTL time.Duration) *Service {
	return &Service{
		platform:    p,
		store:       NewStore(),
		cache:       c,
		mx:          mx,
		snapshotTTL: snapshotTTL,
		pageLimit:   100,
	}
}

func (s *Service) Snapshot() Snapshot {
	return s.store.Snapshot()
}

// SnapshotJSON отдаёт снапшот для дашборда, с кэшем в redis на TTL.
// Кэш — лучшее усилие: его ошибки только логируются.
func (s *Service) SnapshotJSON(ctx context.Context) ([]byte, error) {
	if s.cache != nil && s.snapshotTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, snapshotCacheKey); err == nil && ok {
			return b, nil
		}
	}

	b, err := json.Marshal(s.store.Snapshot())
	if err != nil {
		return nil, errors.Wrap(err, "marshal snapshot")
	}
	if s.cache != nil && s.snapshotTTL > 0 {
		if err := s.cache.Set(ctx, snapshotCacheKey, b, s.snapshotTTL); err != nil {
			slog.Warn("snapshot cache set", "error", err.Error())
		}
	}
	return b, nil
}

func (s *Service) invalidateCachedSnapshot(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, snapshotCacheKey); err != nil {
		slog.Warn("snapshot cache del", "error", err.Error())
	}
}

func (s *Service) CreateJobCard(ctx context.Context, in models.JobCardCreateInput) (models.JobCard, error) {
	if in.TicketID == "" {
		return models.JobCard{}, errors.New("ticketId is required")
	}

	row, err := s.platform.CreateJobCard(ctx, platform.JobCardInsert{
		TicketID:     in.TicketID,
		TechnicianID: in.TechnicianID,
		Status:       "pending",
		Notes:        in.Notes,
	})
	s.track("create", err)
	if err != nil {
		return models.JobCard{}, errors.Wrap(err, "create job card")
	}

	// Новая карточка попадёт в снапшот вместе со связками только через
	// полный sync.
	if err := s.Refresh(ctx); err != nil {
		return models.JobCard{}, errors.Wrap(err, "refresh after create")
	}
	if jc, ok := s.store.JobCard(row.ID); ok {
		return jc, nil
	}
	return models.JobCard{}, errors.Errorf("job card %s created but missing from snapshot", row.ID)
}

// UpdateJobCardStatus пишет статус на платформу (в её словаре) и после
// подтверждения ставит запрошенный локальный статус в снапшоте. Отказ
// платформы не оставляет следов локально.
func (s *Service) UpdateJobCardStatus(ctx context.Context, id string, st models.JobCardStatus) (models.JobCard, error) {
	if !st.Valid() {
		return models.JobCard{}, errors.Errorf("unknown job card status %q", st)
	}

	row, err := s.platform.PatchJobCardStatus(ctx, id, st.Remote())
	s.track("status", err)
	if err != nil {
		return models.JobCard{}, errors.Wrap(err, "patch job card status")
	}

	jc, ok := s.store.PatchJobCard(id, func(jc *models.JobCard) {
		jc.Status = st
		jc.UpdatedAt = row.UpdatedAt
	})
	if !ok {
		// Карточки нет в снапшоте (например, появилась после последнего
		// sync) — перечитываем целиком.
		if err := s.Refresh(ctx); err != nil {
			return models.JobCard{}, errors.Wrap(err, "refresh after status patch")
		}
		jc, ok = s.store.JobCard(id)
		if !ok {
			return models.JobCard{}, errors.Wrapf(ErrNotFound, "job card %s is not in the snapshot", id)
		}
		return jc, nil
	}

	s.invalidateCachedSnapshot(ctx)
	return jc, nil
}

func (s *Service) AssignTechnician(ctx context.Context, jobCardID, technicianID string) (models.JobCard, error) {
	if technicianID == "" {
		return models.JobCard{}, errors.New("technicianId is required")
	}

	row, err := s.platform.PatchJobCardTechnician(ctx, jobCardID, technicianID)
	s.track("technician", err)
	if err != nil {
		return models.JobCard{}, errors.Wrap(err, "patch job card technician")
	}

	jc, ok := s.store.PatchJobCard(jobCardID, func(jc *models.JobCard) {
		tid := technicianID
		jc.TechnicianID = &tid
		jc.UpdatedAt = row.UpdatedAt
	})
	if !ok {
		return models.JobCard{}, errors.Wrapf(ErrNotFound, "job card %s is not in the snapshot", jobCardID)
	}

	s.invalidateCachedSnapshot(ctx)
	return jc, nil
}

func (s *Service) SetRampStatus(ctx context.Context, rampID string, st models.RampStatus) error {
	if !st.Valid() {
		return errors.Errorf("unknown ramp status %q", st)
	}

	err := s.platform.PatchRampStatus(ctx, rampID, st.Remote())
	s.track("ramp_status", err)
	if err != nil {
		return errors.Wrap(err, "patch ramp status")
	}
	return errors.Wrap(s.Refresh(ctx), "refresh after ramp status")
}

// AssignJobToRamp занимает подъёмник тикетом карточки. Связку
// подъёмник->карточка после записи пересобирает полный sync.
func (s *Service) AssignJobToRamp(ctx context.Context, rampID, jobCardID string) error {
	jc, ok := s.store.JobCard(jobCardID)
	if !ok {
		return errors.Wrapf(ErrNotFound, "job card %s is not in the snapshot", jobCardID)
	}

	techName := ""
	if jc.TechnicianID != nil {
		for _, t := range s.store.Snapshot().Technicians {
			if t.ID == *jc.TechnicianID {
				techName = t.Name
				break
			}
		}
	}

	err := s.platform.OccupyRamp(ctx, rampID, jc.TicketID, techName)
	s.track("ramp_assign", err)
	if err != nil {
		return errors.Wrap(err, "occupy ramp")
	}
	return errors.Wrap(s.Refresh(ctx), "refresh after ramp assign")
}

func (s *Service) ReleaseRamp(ctx context.Context, rampID string) error {
	err := s.platform.ReleaseRamp(ctx, rampID)
	s.track("ramp_release", err)
	if err != nil {
		return errors.Wrap(err, "release ramp")
	}
	return errors.Wrap(s.Refresh(ctx), "refresh after ramp release")
}

// AutoAssignRamp берёт первый свободный подъёмник в порядке выдачи платформы.
// Никакого приоритета или подбора по типу машины здесь нет и не было.
func (s *Service) AutoAssignRamp(ctx context.Context, jobCardID string) (models.Ramp, error) {
	snap := s.store.Snapshot()
	for _, r := range snap.Ramps {
		if r.Status == models.RampAvailable {
			err := s.AssignJobToRamp(ctx, r.ID, jobCardID)
			s.track("auto_assign", err)
			if err != nil {
				return models.Ramp{}, err
			}
			return r, nil
		}
	}
	s.track("auto_assign", ErrNoRampAvailable)
	return models.Ramp{}, ErrNoRampAvailable
}

// ApproveTechnician — двухшаговая запись: сначала approved на staff-записи,
// затем activate на связанном профиле, если платформа его вернула.
// Компенсации нет: если второй шаг упал, staff уже approved — ошибка
// называет это частичное состояние явно.
func (s *Service) ApproveTechnician(ctx context.Context, staffID string) error {
	row, err := s.platform.ApproveStaff(ctx, staffID)
	s.track("approve", err)
	if err != nil {
		return errors.Wrap(err, "approve staff")
	}

	if row.ProfileID != "" {
		if err := s.platform.ActivateProfile(ctx, row.ProfileID); err != nil {
			return errors.Wrapf(err, "staff %s approved but profile %s is still inactive", staffID, row.ProfileID)
		}
	}

	return errors.Wrap(s.Refresh(ctx), "refresh after approve")
}

// ApplyJobCardEvent — обработчик kafka-события от watcher-а: точечно
// обновляет карточку в снапшоте, не дожидаясь следующего sync.
func (s *Service) ApplyJobCardEvent(ctx context.Context, msg messages.JobCardUpdated) error {
	if msg.JobCardID == "" {
		return errors.New("job_card_id is required")
	}
	if s.mx != nil {
		s.mx.EventsConsumed.Inc()
	}

	_, ok := s.store.PatchJobCard(msg.JobCardID, func(jc *models.JobCard) {
		jc.Status = models.JobStatusFromRemote(msg.NewStatus)
		if msg.TechnicianID != nil {
			jc.TechnicianID = msg.TechnicianID
		}
		jc.UpdatedAt = msg.CheckedAt
	})
	if !ok {
		// Карточка появилась на платформе мимо нас — забираем всё.
		return s.Refresh(ctx)
	}

	s.invalidateCachedSnapshot(ctx)
	return nil
}

func (s *Service) track(op string, err error) {
	if s.mx != nil {
		s.mx.Mutation(op, err)
	}
}

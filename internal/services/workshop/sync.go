package workshop

import (
	"context"
	"time"

	"github.com/BearBump/RampDesk/internal/integrations/platform"
	"github.com/BearBump/RampDesk/internal/models"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Refresh перечитывает пять коллекций платформы параллельно, собирает из них
// снапшот и целиком заменяет им предыдущий. Join намеренно fail-fast: частично
// собранный снапшот хуже устаревшего, поэтому при любой из пяти ошибок прежние
// данные остаются, а в снапшоте взводится флаг ошибки.
//
// Перекрывающиеся Refresh сериализуются: кто взял мьютекс позже, тот и
// закончит позже, гонки "чей ответ последний" больше нет.
func (s *Service) Refresh(ctx context.Context) error {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	var (
		jobCards []platform.JobCardRow
		tickets  []platform.TicketRow
		ramps    []platform.RampRow
		staff    []platform.StaffRow
		tasks    []platform.TaskRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		jobCards, err = s.platform.ListJobCards(gctx, s.pageLimit)
		return errors.Wrap(err, "list job cards")
	})
	g.Go(func() error {
		var err error
		tickets, err = s.platform.ListTickets(gctx, s.pageLimit)
		return errors.Wrap(err, "list tickets")
	})
	g.Go(func() error {
		var err error
		ramps, err = s.platform.ListRamps(gctx, s.pageLimit)
		return errors.Wrap(err, "list ramps")
	})
	g.Go(func() error {
		var err error
		staff, err = s.platform.ListStaff(gctx, s.pageLimit)
		return errors.Wrap(err, "list staff")
	})
	g.Go(func() error {
		var err error
		tasks, err = s.platform.ListTasks(gctx, s.pageLimit)
		return errors.Wrap(err, "list tasks")
	})

	if err := g.Wait(); err != nil {
		s.store.SetError(err.Error())
		if s.mx != nil {
			s.mx.SyncErrorsTotal.Inc()
		}
		return err
	}

	s.store.Replace(buildSnapshot(jobCards, tickets, ramps, staff, tasks, time.Now().UTC()))
	s.invalidateCachedSnapshot(ctx)
	if s.mx != nil {
		s.mx.SyncsTotal.Inc()
	}
	return nil
}

func buildSnapshot(
	jobCards []platform.JobCardRow,
	tickets []platform.TicketRow,
	ramps []platform.RampRow,
	staff []platform.StaffRow,
	tasks []platform.TaskRow,
	now time.Time,
) Snapshot {
	ticketsByID := make(map[string]platform.TicketRow, len(tickets))
	for _, t := range tickets {
		ticketsByID[t.ID] = t
	}

	snap := Snapshot{SyncedAt: now}

	// ticket id -> job card и ticket id -> подъёмник, связка в обе стороны
	jobByTicket := make(map[string]string, len(jobCards))
	rampByTicket := make(map[string]string, len(ramps))
	for _, row := range ramps {
		if row.CurrentTicketID != nil {
			rampByTicket[*row.CurrentTicketID] = row.ID
		}
	}
	activeByTech := make(map[string]int)

	snap.JobCards = make([]models.JobCard, 0, len(jobCards))
	for _, row := range jobCards {
		jc := mapJobCard(row, ticketsByID)
		if rid, ok := rampByTicket[jc.TicketID]; ok {
			id := rid
			jc.RampID = &id
		}
		snap.JobCards = append(snap.JobCards, jc)
		jobByTicket[jc.TicketID] = jc.ID
		if jc.TechnicianID != nil && jc.Status != models.JobStatusDelivered {
			activeByTech[*jc.TechnicianID]++
		}
	}

	snap.Ramps = make([]models.Ramp, 0, len(ramps))
	for _, row := range ramps {
		r := models.Ramp{
			ID:              row.ID,
			Name:            row.Name,
			Status:          models.RampStatusFromRemote(row.Status),
			TechnicianName:  row.TechnicianName,
			CurrentTicketID: row.CurrentTicketID,
		}
		// Связка пересчитывается на каждом sync; повисшая ссылка на тикет —
		// это просто подъёмник без карточки, не ошибка.
		if row.CurrentTicketID != nil {
			if jcID, ok := jobByTicket[*row.CurrentTicketID]; ok {
				id := jcID
				r.CurrentJobCardID = &id
			}
			if t, ok := ticketsByID[*row.CurrentTicketID]; ok && t.Vehicle.Registration != "" {
				reg := t.Vehicle.Registration
				r.CurrentVehicleRegistration = &reg
			}
		}
		snap.Ramps = append(snap.Ramps, r)
	}

	snap.Technicians = make([]models.Technician, 0, len(staff))
	for _, row := range staff {
		t := models.Technician{
			ID:         row.ID,
			ProfileID:  row.ProfileID,
			Name:       row.Name,
			AvatarURL:  row.AvatarURL,
			ActiveJobs: activeByTech[row.ID],
			Capacity:   models.TechnicianCapacity,
		}
		switch {
		case row.Status != "approved":
			t.Status = models.TechnicianPending
		case t.ActiveJobs >= t.Capacity:
			t.Status = models.TechnicianBusy
		default:
			t.Status = models.TechnicianActive
		}
		snap.Technicians = append(snap.Technicians, t)
	}

	snap.ServiceTypes = make([]models.ServiceType, 0, len(tasks))
	for _, row := range tasks {
		snap.ServiceTypes = append(snap.ServiceTypes, models.ServiceType{
			ID:                row.ID,
			Name:              row.Name,
			LaborRate:         row.LaborRate,
			EstimatedDuration: row.EstimatedDuration,
		})
	}

	return snap
}

func mapJobCard(row platform.JobCardRow, ticketsByID map[string]platform.TicketRow) models.JobCard {
	jc := models.JobCard{
		ID:           row.ID,
		TicketID:     row.TicketID,
		JobNumber:    row.JobNumber,
		Complaint:    row.Notes,
		Status:       models.JobStatusFromRemote(row.Status),
		TechnicianID: row.TechnicianID,
		Cost: models.CostBreakdown{
			Labor:    row.LaborCost,
			Parts:    row.PartsCost,
			Discount: row.Discount,
			Total:    row.TotalCost,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}

	for _, it := range row.Items {
		jc.Items = append(jc.Items, models.ServiceItem{
			Description: it.Description,
			Cost:        it.Cost,
			Status:      it.Status,
		})
	}

	// Клиент и машина вложены в тикет; карточка без тикета остаётся
	// с пустыми полями, join не падает.
	if t, ok := ticketsByID[row.TicketID]; ok {
		jc.CustomerName = t.Customer.Name
		jc.CustomerPhone = t.Customer.Phone
		jc.VehicleModel = t.Vehicle.Model
		jc.VehicleRegistration = t.Vehicle.Registration
		if jc.Complaint == "" {
			jc.Complaint = t.Complaint
		}
	}

	return jc
}

package fake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BearBump/RampDesk/internal/integrations/platform"
	"github.com/pkg/errors"
)

// FakePlatform — локальная заглушка платформы дилера для демо и запуска
// без настоящего backend. Держит коллекции в памяти и честно отрабатывает
// все PATCH/POST, чтобы поток синхронизации было видно целиком.
type FakePlatform struct {
	mu sync.Mutex

	jobCards []platform.JobCardRow
	tickets  []platform.TicketRow
	ramps    []platform.RampRow
	staff    []platform.StaffRow
	tasks    []platform.TaskRow

	profilesActivated map[string]bool

	seq int
}

func New() *FakePlatform {
	now := time.Now().UTC()
	f := &FakePlatform{profilesActivated: map[string]bool{}}

	f.tickets = []platform.TicketRow{
		{ID: "t-1", Complaint: "engine rattle on cold start",
			Customer: platform.Customer{Name: "R. Sharma", Phone: "+91-98-0000-0001"},
			Vehicle:  platform.Vehicle{Model: "Swift VXI", Registration: "KA-01-AB-1234"}},
		{ID: "t-2", Complaint: "brake pedal spongy",
			Customer: platform.Customer{Name: "M. Iqbal", Phone: "+91-98-0000-0002"},
			Vehicle:  platform.Vehicle{Model: "Creta SX", Registration: "KA-05-CD-5678"}},
	}

	tech := "s-1"
	f.jobCards = []platform.JobCardRow{
		{ID: "jc-1", TicketID: "t-1", JobNumber: "JOB-0001", Status: "in_progress",
			TechnicianID: &tech, LaborCost: 1200, PartsCost: 450, TotalCost: 1650,
			CreatedAt: now, UpdatedAt: now},
		{ID: "jc-2", TicketID: "t-2", JobNumber: "JOB-0002", Status: "pending",
			CreatedAt: now, UpdatedAt: now},
	}

	t1 := "t-1"
	techName := "Arun"
	f.ramps = []platform.RampRow{
		{ID: "r-1", Name: "Ramp 1", Status: "occupied", CurrentTicketID: &t1, TechnicianName: &techName},
		{ID: "r-2", Name: "Ramp 2", Status: "idle"},
		{ID: "r-3", Name: "Ramp 3", Status: "maintenance"},
	}

	f.staff = []platform.StaffRow{
		{ID: "s-1", ProfileID: "p-1", Name: "Arun", Status: "approved"},
		{ID: "s-2", ProfileID: "p-2", Name: "Deepa", Status: "pending"},
	}

	f.tasks = []platform.TaskRow{
		{ID: "svc-1", Name: "General Service", LaborRate: 800, EstimatedDuration: "3h"},
		{ID: "svc-2", Name: "Brake Overhaul", LaborRate: 1200, EstimatedDuration: "2h"},
		{ID: "svc-3", Name: "AC Diagnostics", LaborRate: 600, EstimatedDuration: "1h"},
	}

	return f
}

func capped[T any](in []T, limit int) []T {
	if limit <= 0 || limit > len(in) {
		limit = len(in)
	}
	out := make([]T, limit)
	copy(out, in[:limit])
	return out
}

func (f *FakePlatform) ListJobCards(ctx context.Context, limit int) ([]platform.JobCardRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return capped(f.jobCards, limit), nil
}

func (f *FakePlatform) ListTickets(ctx context.Context, limit int) ([]platform.TicketRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return capped(f.tickets, limit), nil
}

func (f *FakePlatform) ListRamps(ctx context.Context, limit int) ([]platform.RampRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return capped(f.ramps, limit), nil
}

func (f *FakePlatform) ListStaff(ctx context.Context, limit int) ([]platform.StaffRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return capped(f.staff, limit), nil
}

func (f *FakePlatform) ListTasks(ctx context.Context, limit int) ([]platform.TaskRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return capped(f.tasks, limit), nil
}

func (f *FakePlatform) CreateJobCard(ctx context.Context, in platform.JobCardInsert) (platform.JobCardRow, error) {
	if in.TicketID == "" {
		return platform.JobCardRow{}, errors.New("ticket_id is required")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	now := time.Now().UTC()
	row := platform.JobCardRow{
		ID:        fmt.Sprintf("jc-fake-%d", f.seq),
		TicketID:  in.TicketID,
		JobNumber: fmt.Sprintf("JOB-%04d", len(f.jobCards)+1),
		Status:    in.Status,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.TechnicianID != "" {
		id := in.TechnicianID
		row.TechnicianID = &id
	}
	f.jobCards = append(f.jobCards, row)
	return row, nil
}

func (f *FakePlatform) PatchJobCardStatus(ctx context.Context, id, status string) (platform.JobCardRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.jobCards {
		if f.jobCards[i].ID == id {
			f.jobCards[i].Status = status
			f.jobCards[i].UpdatedAt = time.Now().UTC()
			return f.jobCards[i], nil
		}
	}
	return platform.JobCardRow{}, errors.Errorf("job card %s not found", id)
}

func (f *FakePlatform) PatchJobCardTechnician(ctx context.Context, id, technicianID string) (platform.JobCardRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.jobCards {
		if f.jobCards[i].ID == id {
			tid := technicianID
			f.jobCards[i].TechnicianID = &tid
			f.jobCards[i].UpdatedAt = time.Now().UTC()
			return f.jobCards[i], nil
		}
	}
	return platform.JobCardRow{}, errors.Errorf("job card %s not found", id)
}

func (f *FakePlatform) PatchRampStatus(ctx context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.ramps {
		if f.ramps[i].ID == id {
			f.ramps[i].Status = status
			return nil
		}
	}
	return errors.Errorf("ramp %s not found", id)
}

func (f *FakePlatform) OccupyRamp(ctx context.Context, id, ticketID, technicianName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.ramps {
		if f.ramps[i].ID == id {
			t := ticketID
			f.ramps[i].CurrentTicketID = &t
			f.ramps[i].Status = "occupied"
			if technicianName != "" {
				n := technicianName
				f.ramps[i].TechnicianName = &n
			}
			return nil
		}
	}
	return errors.Errorf("ramp %s not found", id)
}

func (f *FakePlatform) ReleaseRamp(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.ramps {
		if f.ramps[i].ID == id {
			f.ramps[i].CurrentTicketID = nil
			f.ramps[i].TechnicianName = nil
			f.ramps[i].Status = "idle"
			return nil
		}
	}
	return errors.Errorf("ramp %s not found", id)
}

func (f *FakePlatform) ApproveStaff(ctx context.Context, id string) (platform.StaffRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.staff {
		if f.staff[i].ID == id {
			f.staff[i].Status = "approved"
			return f.staff[i], nil
		}
	}
	return platform.StaffRow{}, errors.Errorf("staff %s not found", id)
}

func (f *FakePlatform) ActivateProfile(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profilesActivated[id] = true
	return nil
}

// ProfileActivated — для проверок в тестах.
func (f *FakePlatform) ProfileActivated(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profilesActivated[id]
}

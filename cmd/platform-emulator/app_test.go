package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/BearBump/RampDesk/internal/integrations/platform"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// fakeStore — платформенное хранилище в памяти, только то, что нужно роутеру.
type fakeStore struct {
	mu       sync.Mutex
	jobCards []platform.JobCardRow
	tickets  []platform.TicketRow
	tasks    []platform.TaskRow
	ramps    []platform.RampRow
	staff    []platform.StaffRow
}

func (f *fakeStore) ListJobCards(_ context.Context, limit int) ([]platform.JobCardRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return capRows(f.jobCards, limit), nil
}

func (f *fakeStore) CreateJobCard(_ context.Context, in platform.JobCardInsert) (platform.JobCardRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := platform.JobCardRow{ID: "jc-new", TicketID: in.TicketID, Status: in.Status, Notes: in.Notes}
	f.jobCards = append(f.jobCards, row)
	return row, nil
}

func (f *fakeStore) PatchJobCardStatus(_ context.Context, id, status string) (platform.JobCardRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.jobCards {
		if f.jobCards[i].ID == id {
			f.jobCards[i].Status = status
			return f.jobCards[i], nil
		}
	}
	return platform.JobCardRow{}, errors.Errorf("job card %s not found", id)
}

func (f *fakeStore) PatchJobCardTechnician(_ context.Context, id, technicianID string) (platform.JobCardRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.jobCards {
		if f.jobCards[i].ID == id {
			f.jobCards[i].TechnicianID = &technicianID
			return f.jobCards[i], nil
		}
	}
	return platform.JobCardRow{}, errors.Errorf("job card %s not found", id)
}

func (f *fakeStore) ListTickets(_ context.Context, limit int) ([]platform.TicketRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return capRows(f.tickets, limit), nil
}

func (f *fakeStore) InsertTicket(_ context.Context, t platform.TicketRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickets = append(f.tickets, t)
	return nil
}

func (f *fakeStore) ListTasks(_ context.Context, limit int) ([]platform.TaskRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return capRows(f.tasks, limit), nil
}

func (f *fakeStore) InsertTask(_ context.Context, t platform.TaskRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t)
	return nil
}

func (f *fakeStore) ListRamps(_ context.Context, limit int) ([]platform.RampRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return capRows(f.ramps, limit), nil
}

func (f *fakeStore) InsertRamp(_ context.Context, r platform.RampRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ramps = append(f.ramps, r)
	return nil
}

func (f *fakeStore) PatchRampStatus(_ context.Context, id, status string) error {
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

func (f *fakeStore) OccupyRamp(_ context.Context, id, ticketID, technicianName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.ramps {
		if f.ramps[i].ID == id {
			f.ramps[i].Status = "occupied"
			f.ramps[i].CurrentTicketID = &ticketID
			f.ramps[i].TechnicianName = &technicianName
			return nil
		}
	}
	return errors.Errorf("ramp %s not found", id)
}

func (f *fakeStore) ReleaseRamp(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.ramps {
		if f.ramps[i].ID == id {
			f.ramps[i].Status = "idle"
			f.ramps[i].CurrentTicketID = nil
			f.ramps[i].TechnicianName = nil
			return nil
		}
	}
	return errors.Errorf("ramp %s not found", id)
}

func (f *fakeStore) ListStaff(_ context.Context, limit int) ([]platform.StaffRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return capRows(f.staff, limit), nil
}

func (f *fakeStore) InsertStaff(_ context.Context, s platform.StaffRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staff = append(f.staff, s)
	return nil
}

func (f *fakeStore) ApproveStaff(_ context.Context, id string) (platform.StaffRow, error) {
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

func (f *fakeStore) ActivateProfile(_ context.Context, _ string) error { return nil }

func capRows[T any](rows []T, limit int) []T {
	out := make([]T, len(rows))
	copy(out, rows)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func startEmulator(t *testing.T, st platformStore) (string, context.CancelFunc, chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	addrCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runEmulatorHTTP(ctx, emulatorOpts{
			httpAddr: "127.0.0.1:0",
			onListen: func(httpAddr string) { addrCh <- httpAddr },
		}, st)
	}()
	return <-addrCh, cancel, errCh
}

func postJSON(t *testing.T, url string, body any) envelope {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func getData(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.True(t, env.Success, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func TestEmulatorHTTP_SeedEndpointsForEveryCollection(t *testing.T) {
	addr, cancel, errCh := startEmulator(t, &fakeStore{})
	defer cancel()
	base := "http://" + addr + "/api/v1"

	env := postJSON(t, base+"/service_tickets", platform.TicketRow{
		ID: "t-9", Complaint: "misfire",
		Customer: platform.Customer{Name: "K. Rao", Phone: "+91-98-0000-0009"},
		Vehicle:  platform.Vehicle{Model: "Nexon XZ", Registration: "KA-09-ZZ-0009"},
	})
	require.True(t, env.Success, env.Error)

	// статус не передан — должен лечь дефолтный idle
	env = postJSON(t, base+"/service_ramps", platform.RampRow{ID: "r-9", Name: "Ramp 9"})
	require.True(t, env.Success, env.Error)

	env = postJSON(t, base+"/service_staff", platform.StaffRow{ID: "s-9", ProfileID: "p-9", Name: "Vikram"})
	require.True(t, env.Success, env.Error)

	env = postJSON(t, base+"/service_tasks", platform.TaskRow{ID: "svc-9", Name: "Wheel Alignment", LaborRate: 500, EstimatedDuration: "1h"})
	require.True(t, env.Success, env.Error)

	var tickets []platform.TicketRow
	getData(t, base+"/service_tickets", &tickets)
	require.Len(t, tickets, 1)
	require.Equal(t, "t-9", tickets[0].ID)
	require.Equal(t, "K. Rao", tickets[0].Customer.Name)

	var ramps []platform.RampRow
	getData(t, base+"/service_ramps", &ramps)
	require.Len(t, ramps, 1)
	require.Equal(t, "idle", ramps[0].Status)

	var staff []platform.StaffRow
	getData(t, base+"/service_staff", &staff)
	require.Len(t, staff, 1)
	require.Equal(t, "pending", staff[0].Status)

	var tasks []platform.TaskRow
	getData(t, base+"/service_tasks", &tasks)
	require.Len(t, tasks, 1)
	require.Equal(t, float64(500), tasks[0].LaborRate)

	cancel()
	require.Error(t, <-errCh)
}

func TestEmulatorHTTP_SeedRejectsRowWithoutID(t *testing.T) {
	st := &fakeStore{}
	addr, cancel, errCh := startEmulator(t, st)
	defer cancel()
	base := "http://" + addr + "/api/v1"

	for _, path := range []string{"/service_tickets", "/service_ramps", "/service_staff", "/service_tasks"} {
		env := postJSON(t, base+path, map[string]string{"name": "no id"})
		require.False(t, env.Success, path)
		require.Contains(t, env.Error, "id is required")
	}

	rows, err := st.ListTickets(context.Background(), 100)
	require.NoError(t, err)
	require.Empty(t, rows)

	cancel()
	require.Error(t, <-errCh)
}

func TestEmulatorHTTP_JobCardFlow(t *testing.T) {
	addr, cancel, errCh := startEmulator(t, &fakeStore{})
	defer cancel()
	base := "http://" + addr + "/api/v1"

	env := postJSON(t, base+"/job_cards", platform.JobCardInsert{TicketID: "t-1", Status: "pending"})
	require.True(t, env.Success, env.Error)
	var created platform.JobCardRow
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, "t-1", created.TicketID)

	req, err := http.NewRequest(http.MethodPatch, base+"/job_cards/"+created.ID, bytes.NewReader([]byte(`{"status":"in_progress"}`)))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var patched envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&patched))
	require.True(t, patched.Success, patched.Error)

	var cards []platform.JobCardRow
	getData(t, base+"/job_cards", &cards)
	require.Len(t, cards, 1)
	require.Equal(t, "in_progress", cards[0].Status)

	cancel()
	require.Error(t, <-errCh)
}

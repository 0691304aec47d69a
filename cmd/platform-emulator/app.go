package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/BearBump/RampDesk/config"
	"github.com/BearBump/RampDesk/internal/integrations/platform"
	"github.com/BearBump/RampDesk/internal/storage/pgplatform"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

type emulatorOpts struct {
	httpAddr string
	onListen func(httpAddr string)
}

// platformStore — то, что нужно HTTP-слою эмулятора от хранилища.
type platformStore interface {
	ListJobCards(ctx context.Context, limit int) ([]platform.JobCardRow, error)
	CreateJobCard(ctx context.Context, in platform.JobCardInsert) (platform.JobCardRow, error)
	PatchJobCardStatus(ctx context.Context, id, status string) (platform.JobCardRow, error)
	PatchJobCardTechnician(ctx context.Context, id, technicianID string) (platform.JobCardRow, error)

	ListTickets(ctx context.Context, limit int) ([]platform.TicketRow, error)
	InsertTicket(ctx context.Context, t platform.TicketRow) error
	ListTasks(ctx context.Context, limit int) ([]platform.TaskRow, error)
	InsertTask(ctx context.Context, t platform.TaskRow) error

	ListRamps(ctx context.Context, limit int) ([]platform.RampRow, error)
	InsertRamp(ctx context.Context, ramp platform.RampRow) error
	PatchRampStatus(ctx context.Context, id, status string) error
	OccupyRamp(ctx context.Context, id, ticketID, technicianName string) error
	ReleaseRamp(ctx context.Context, id string) error

	ListStaff(ctx context.Context, limit int) ([]platform.StaffRow, error)
	InsertStaff(ctx context.Context, s platform.StaffRow) error
	ApproveStaff(ctx context.Context, id string) (platform.StaffRow, error)
	ActivateProfile(ctx context.Context, id string) error
}

func runEmulator(ctx context.Context, cfg *config.Config, opts emulatorOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = cfg.RampDesk.EmulatorHTTPAddr
	}
	if opts.httpAddr == "" {
		opts.httpAddr = ":9000"
	}

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st, err := pgplatform.New(connString)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := seedDemoData(ctx, st); err != nil {
		return errors.Wrap(err, "seed demo data")
	}

	return runEmulatorHTTP(ctx, opts, st)
}

func runEmulatorHTTP(ctx context.Context, opts emulatorOpts, st platformStore) error {
	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/job_cards", func(w http.ResponseWriter, r *http.Request) {
			rows, err := st.ListJobCards(r.Context(), queryLimit(r))
			respond(w, rows, err)
		})
		r.Post("/job_cards", func(w http.ResponseWriter, r *http.Request) {
			var in platform.JobCardInsert
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				respondError(w, errors.New("invalid body"))
				return
			}
			row, err := st.CreateJobCard(r.Context(), in)
			respond(w, row, err)
		})
		r.Patch("/job_cards/{id}", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			var body struct {
				Status       *string `json:"status"`
				TechnicianID *string `json:"technician_id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				respondError(w, errors.New("invalid body"))
				return
			}
			var row platform.JobCardRow
			var err error
			switch {
			case body.TechnicianID != nil:
				row, err = st.PatchJobCardTechnician(r.Context(), id, *body.TechnicianID)
			case body.Status != nil:
				row, err = st.PatchJobCardStatus(r.Context(), id, *body.Status)
			default:
				err = errors.New("nothing to patch")
			}
			respond(w, row, err)
		})

		r.Get("/service_tickets", func(w http.ResponseWriter, r *http.Request) {
			rows, err := st.ListTickets(r.Context(), queryLimit(r))
			respond(w, rows, err)
		})
		// POST-ручки на остальных коллекциях — для наливки данных
		r.Post("/service_tickets", func(w http.ResponseWriter, r *http.Request) {
			var in platform.TicketRow
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				respondError(w, errors.New("invalid body"))
				return
			}
			if in.ID == "" {
				respondError(w, errors.New("id is required"))
				return
			}
			respond(w, in, st.InsertTicket(r.Context(), in))
		})
		r.Get("/service_tasks", func(w http.ResponseWriter, r *http.Request) {
			rows, err := st.ListTasks(r.Context(), queryLimit(r))
			respond(w, rows, err)
		})
		r.Post("/service_tasks", func(w http.ResponseWriter, r *http.Request) {
			var in platform.TaskRow
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				respondError(w, errors.New("invalid body"))
				return
			}
			if in.ID == "" {
				respondError(w, errors.New("id is required"))
				return
			}
			respond(w, in, st.InsertTask(r.Context(), in))
		})

		r.Get("/service_ramps", func(w http.ResponseWriter, r *http.Request) {
			rows, err := st.ListRamps(r.Context(), queryLimit(r))
			respond(w, rows, err)
		})
		r.Post("/service_ramps", func(w http.ResponseWriter, r *http.Request) {
			var in platform.RampRow
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				respondError(w, errors.New("invalid body"))
				return
			}
			if in.ID == "" {
				respondError(w, errors.New("id is required"))
				return
			}
			if in.Status == "" {
				in.Status = "idle"
			}
			respond(w, in, st.InsertRamp(r.Context(), in))
		})
		r.Patch("/service_ramps/{id}", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			var body struct {
				Status          *string `json:"status"`
				CurrentTicketID *string `json:"current_ticket_id"`
				TechnicianName  string  `json:"technician_name"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				respondError(w, errors.New("invalid body"))
				return
			}
			var err error
			switch {
			case body.Status != nil && *body.Status == "occupied" && body.CurrentTicketID != nil:
				err = st.OccupyRamp(r.Context(), id, *body.CurrentTicketID, body.TechnicianName)
			case body.Status != nil && *body.Status == "idle":
				err = st.ReleaseRamp(r.Context(), id)
			case body.Status != nil:
				err = st.PatchRampStatus(r.Context(), id, *body.Status)
			default:
				err = errors.New("nothing to patch")
			}
			respond(w, nil, err)
		})

		r.Get("/service_staff", func(w http.ResponseWriter, r *http.Request) {
			rows, err := st.ListStaff(r.Context(), queryLimit(r))
			respond(w, rows, err)
		})
		r.Post("/service_staff", func(w http.ResponseWriter, r *http.Request) {
			var in platform.StaffRow
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				respondError(w, errors.New("invalid body"))
				return
			}
			if in.ID == "" {
				respondError(w, errors.New("id is required"))
				return
			}
			if in.Status == "" {
				in.Status = "pending"
			}
			respond(w, in, st.InsertStaff(r.Context(), in))
		})
		r.Patch("/service_staff/{id}", func(w http.ResponseWriter, r *http.Request) {
			row, err := st.ApproveStaff(r.Context(), chi.URLParam(r, "id"))
			respond(w, row, err)
		})
		r.Patch("/profiles/{id}", func(w http.ResponseWriter, r *http.Request) {
			respond(w, nil, st.ActivateProfile(r.Context(), chi.URLParam(r, "id")))
		})
	})

	srv := &http.Server{Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	slog.Info("platform emulator listening", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && ctx.Err() != nil {
		return ctx.Err()
	} else if err != nil {
		return err
	}
	return nil
}

func queryLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 100
	}
	return limit
}

func respond(w http.ResponseWriter, data any, err error) {
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func respondError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": err.Error()})
}

// seedDemoData наполняет пустые коллекции демо-набором. Идемпотентно:
// вставки идут с ON CONFLICT DO NOTHING.
func seedDemoData(ctx context.Context, st platformStore) error {
	tickets := []platform.TicketRow{
		{ID: "t-1", Complaint: "engine rattle on cold start",
			Customer: platform.Customer{Name: "R. Sharma", Phone: "+91-98-0000-0001"},
			Vehicle:  platform.Vehicle{Model: "Swift VXI", Registration: "KA-01-AB-1234"}},
		{ID: "t-2", Complaint: "brake pedal spongy",
			Customer: platform.Customer{Name: "M. Iqbal", Phone: "+91-98-0000-0002"},
			Vehicle:  platform.Vehicle{Model: "Creta SX", Registration: "KA-05-CD-5678"}},
	}
	for _, t := range tickets {
		if err := st.InsertTicket(ctx, t); err != nil {
			return err
		}
	}

	ramps := []platform.RampRow{
		{ID: "r-1", Name: "Ramp 1", Status: "idle"},
		{ID: "r-2", Name: "Ramp 2", Status: "idle"},
		{ID: "r-3", Name: "Ramp 3", Status: "maintenance"},
	}
	for _, r := range ramps {
		if err := st.InsertRamp(ctx, r); err != nil {
			return err
		}
	}

	staff := []platform.StaffRow{
		{ID: "s-1", ProfileID: "p-1", Name: "Arun", Status: "approved"},
		{ID: "s-2", ProfileID: "p-2", Name: "Deepa", Status: "pending"},
	}
	for _, s := range staff {
		if err := st.InsertStaff(ctx, s); err != nil {
			return err
		}
	}

	tasks := []platform.TaskRow{
		{ID: "svc-1", Name: "General Service", LaborRate: 800, EstimatedDuration: "3h"},
		{ID: "svc-2", Name: "Brake Overhaul", LaborRate: 1200, EstimatedDuration: "2h"},
		{ID: "svc-3", Name: "AC Diagnostics", LaborRate: 600, EstimatedDuration: "1h"},
	}
	for _, task := range tasks {
		if err := st.InsertTask(ctx, task); err != nil {
			return err
		}
	}

	return nil
}

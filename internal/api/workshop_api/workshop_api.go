package workshop_api

import (
	"encoding/json"
	"net/http"

	"github.com/BearBump/RampDesk/internal/models"
	"github.com/BearBump/RampDesk/internal/services/workshop"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// WorkshopAPI — REST-фасад над сервисом мастерской. Читает из снапшота,
// мутации проксирует в сервис как есть.
type WorkshopAPI struct {
	svc *workshop.Service
}

func New(svc *workshop.Service) *WorkshopAPI {
	return &WorkshopAPI{svc: svc}
}

func (a *WorkshopAPI) Routes(r chi.Router) {
	r.Get("/dashboard", a.getDashboard)
	r.Post("/refresh", a.postRefresh)

	r.Get("/job-cards", a.listJobCards)
	r.Post("/job-cards", a.createJobCard)
	r.Patch("/job-cards/{id}/status", a.patchJobCardStatus)
	r.Patch("/job-cards/{id}/technician", a.patchJobCardTechnician)
	r.Post("/job-cards/{id}/auto-assign-ramp", a.autoAssignRamp)

	r.Get("/ramps", a.listRamps)
	r.Patch("/ramps/{id}/status", a.patchRampStatus)
	r.Post("/ramps/{id}/assign", a.assignRamp)
	r.Post("/ramps/{id}/release", a.releaseRamp)

	r.Get("/technicians", a.listTechnicians)
	r.Post("/technicians/{id}/approve", a.approveTechnician)

	r.Get("/service-types", a.listServiceTypes)
}

func (a *WorkshopAPI) getDashboard(w http.ResponseWriter, r *http.Request) {
	b, err := a.svc.SnapshotJSON(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

func (a *WorkshopAPI) postRefresh(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"refreshed": true})
}

func (a *WorkshopAPI) listJobCards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.Snapshot().JobCards)
}

func (a *WorkshopAPI) createJobCard(w http.ResponseWriter, r *http.Request) {
	var in models.JobCardCreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "invalid body")
		return
	}
	if in.TicketID == "" {
		writeBadRequest(w, "ticketId is required")
		return
	}
	jc, err := a.svc.CreateJobCard(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, jc)
}

func (a *WorkshopAPI) patchJobCardStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status models.JobCardStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid body")
		return
	}
	if !body.Status.Valid() {
		writeBadRequest(w, "unknown status "+string(body.Status))
		return
	}
	jc, err := a.svc.UpdateJobCardStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jc)
}

func (a *WorkshopAPI) patchJobCardTechnician(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TechnicianID string `json:"technicianId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid body")
		return
	}
	if body.TechnicianID == "" {
		writeBadRequest(w, "technicianId is required")
		return
	}
	jc, err := a.svc.AssignTechnician(r.Context(), chi.URLParam(r, "id"), body.TechnicianID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jc)
}

func (a *WorkshopAPI) autoAssignRamp(w http.ResponseWriter, r *http.Request) {
	ramp, err := a.svc.AutoAssignRamp(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ramp)
}

func (a *WorkshopAPI) listRamps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.Snapshot().Ramps)
}

func (a *WorkshopAPI) patchRampStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status models.RampStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid body")
		return
	}
	if !body.Status.Valid() {
		writeBadRequest(w, "unknown status "+string(body.Status))
		return
	}
	if err := a.svc.SetRampStatus(r.Context(), chi.URLParam(r, "id"), body.Status); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (a *WorkshopAPI) assignRamp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		JobCardID string `json:"jobCardId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid body")
		return
	}
	if body.JobCardID == "" {
		writeBadRequest(w, "jobCardId is required")
		return
	}
	if err := a.svc.AssignJobToRamp(r.Context(), chi.URLParam(r, "id"), body.JobCardID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assigned": true})
}

func (a *WorkshopAPI) releaseRamp(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.ReleaseRamp(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"released": true})
}

func (a *WorkshopAPI) listTechnicians(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.Snapshot().Technicians)
}

func (a *WorkshopAPI) approveTechnician(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.ApproveTechnician(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"approved": true})
}

func (a *WorkshopAPI) listServiceTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.Snapshot().ServiceTypes)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workshop.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, workshop.ErrNoRampAvailable):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		// всё прочее — отказ платформы или sync, для клиента это bad gateway
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
}

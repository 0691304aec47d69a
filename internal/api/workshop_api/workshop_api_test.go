package workshop_api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BearBump/RampDesk/internal/integrations/platform/fake"
	"github.com/BearBump/RampDesk/internal/models"
	"github.com/BearBump/RampDesk/internal/services/workshop"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *workshop.Service) {
	t.Helper()

	svc := workshop.New(fake.New(), nil, nil, 0)
	require.NoError(t, svc.Refresh(context.Background()))

	r := chi.NewRouter()
	r.Route("/api/v1", New(svc).Routes)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var m map[string]json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&m)
	return resp, m
}

func TestAPI_Dashboard(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/dashboard", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cards []models.JobCard
	require.NoError(t, json.Unmarshal(body["jobCards"], &cards))
	require.Len(t, cards, 2)
	require.Contains(t, body, "technicians")
	require.Contains(t, body, "ramps")
}

func TestAPI_PatchJobCardStatus(t *testing.T) {
	srv, svc := newTestServer(t)

	resp, body := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/job-cards/jc-1/status", `{"status":"ready"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status models.JobCardStatus
	require.NoError(t, json.Unmarshal(body["status"], &status))
	require.Equal(t, models.JobStatusReady, status)

	jc, ok := findJobCard(svc, "jc-1")
	require.True(t, ok)
	require.Equal(t, models.JobStatusReady, jc.Status)
}

func TestAPI_PatchJobCardStatus_UnknownStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/job-cards/jc-1/status", `{"status":"running"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_CreateJobCard_RequiresTicket(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/job-cards", `{"notes":"no ticket"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_CreateJobCard(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/job-cards", `{"ticketId":"t-1","notes":"brakes"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var id string
	require.NoError(t, json.Unmarshal(body["id"], &id))
	require.NotEmpty(t, id)
}

func TestAPI_AutoAssignRamp(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/job-cards/jc-1/auto-assign-ramp", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rampID string
	require.NoError(t, json.Unmarshal(body["id"], &rampID))
	require.Equal(t, "r-2", rampID) // единственный свободный в посеве
}

func TestAPI_AutoAssignRamp_NoneAvailable(t *testing.T) {
	srv, _ := newTestServer(t)

	// убираем единственный свободный подъёмник
	resp, _ := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/ramps/r-2/status", `{"status":"maintenance"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/job-cards/jc-1/auto-assign-ramp", "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_AutoAssignRamp_UnknownJobCard(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/job-cards/jc-ghost/auto-assign-ramp", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ReleaseRamp(t *testing.T) {
	srv, svc := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/ramps/r-1/release", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, r := range svc.Snapshot().Ramps {
		if r.ID == "r-1" {
			require.Equal(t, models.RampAvailable, r.Status)
			require.Nil(t, r.CurrentJobCardID)
		}
	}
}

func TestAPI_ApproveTechnician(t *testing.T) {
	srv, svc := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/technicians/s-2/approve", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, tech := range svc.Snapshot().Technicians {
		if tech.ID == "s-2" {
			require.NotEqual(t, models.TechnicianPending, tech.Status)
		}
	}
}

func TestAPI_PlatformFailureIsBadGateway(t *testing.T) {
	srv, _ := newTestServer(t)

	// платформа не знает такую карточку — запись отклонена
	resp, _ := doJSON(t, http.MethodPatch, srv.URL+"/api/v1/job-cards/jc-ghost/status", `{"status":"ready"}`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func findJobCard(svc *workshop.Service, id string) (models.JobCard, bool) {
	for _, jc := range svc.Snapshot().JobCards {
		if jc.ID == id {
			return jc, true
		}
	}
	return models.JobCard{}, false
}

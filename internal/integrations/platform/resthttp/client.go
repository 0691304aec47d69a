package resthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/BearBump/RampDesk/internal/integrations/platform"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
)

// Client ходит в backend платформы дилера (/api/v1/...).
// Все ответы приходят в конверте {success, data}.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	cb      *gobreaker.CircuitBreaker
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9000"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
		// Мёртвая платформа не должна вешать каждый refresh на таймаут:
		// после пяти подряд ошибок запросы падают сразу, пока платформа
		// не оживёт.
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "platform",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.doOnce(ctx, method, path, query, body, out)
	})
	if err == gobreaker.ErrOpenState {
		return errors.Wrap(err, "platform unavailable")
	}
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return errors.Wrap(err, "parse base url")
	}
	u.Path = path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal body")
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("platform http %d (%s %s)", resp.StatusCode, method, path)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return errors.Wrap(err, "decode")
	}
	if !env.Success {
		return fmt.Errorf("platform rejected %s %s: %s", method, path, env.Error)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.Wrap(err, "unmarshal data")
		}
	}
	return nil
}

func (c *Client) list(ctx context.Context, collection string, limit int, out any) error {
	if limit <= 0 {
		limit = 100
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	return c.do(ctx, http.MethodGet, "/api/v1/"+collection, q, nil, out)
}

func (c *Client) ListJobCards(ctx context.Context, limit int) ([]platform.JobCardRow, error) {
	var out []platform.JobCardRow
	if err := c.list(ctx, "job_cards", limit, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListTickets(ctx context.Context, limit int) ([]platform.TicketRow, error) {
	var out []platform.TicketRow
	if err := c.list(ctx, "service_tickets", limit, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListRamps(ctx context.Context, limit int) ([]platform.RampRow, error) {
	var out []platform.RampRow
	if err := c.list(ctx, "service_ramps", limit, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListStaff(ctx context.Context, limit int) ([]platform.StaffRow, error) {
	var out []platform.StaffRow
	if err := c.list(ctx, "service_staff", limit, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListTasks(ctx context.Context, limit int) ([]platform.TaskRow, error) {
	var out []platform.TaskRow
	if err := c.list(ctx, "service_tasks", limit, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateJobCard(ctx context.Context, in platform.JobCardInsert) (platform.JobCardRow, error) {
	var out platform.JobCardRow
	if err := c.do(ctx, http.MethodPost, "/api/v1/job_cards", nil, in, &out); err != nil {
		return platform.JobCardRow{}, err
	}
	return out, nil
}

func (c *Client) PatchJobCardStatus(ctx context.Context, id, status string) (platform.JobCardRow, error) {
	var out platform.JobCardRow
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPatch, "/api/v1/job_cards/"+url.PathEscape(id), nil, body, &out); err != nil {
		return platform.JobCardRow{}, err
	}
	return out, nil
}

func (c *Client) PatchJobCardTechnician(ctx context.Context, id, technicianID string) (platform.JobCardRow, error) {
	var out platform.JobCardRow
	body := map[string]string{"technician_id": technicianID}
	if err := c.do(ctx, http.MethodPatch, "/api/v1/job_cards/"+url.PathEscape(id), nil, body, &out); err != nil {
		return platform.JobCardRow{}, err
	}
	return out, nil
}

func (c *Client) PatchRampStatus(ctx context.Context, id, status string) error {
	body := map[string]string{"status": status}
	return c.do(ctx, http.MethodPatch, "/api/v1/service_ramps/"+url.PathEscape(id), nil, body, nil)
}

func (c *Client) OccupyRamp(ctx context.Context, id, ticketID, technicianName string) error {
	body := map[string]string{
		"current_ticket_id": ticketID,
		"status":            "occupied",
		"technician_name":   technicianName,
	}
	return c.do(ctx, http.MethodPatch, "/api/v1/service_ramps/"+url.PathEscape(id), nil, body, nil)
}

func (c *Client) ReleaseRamp(ctx context.Context, id string) error {
	// current_ticket_id должен уйти именно как null, не как пустая строка.
	body := struct {
		CurrentTicketID *string `json:"current_ticket_id"`
		Status          string  `json:"status"`
	}{nil, "idle"}
	return c.do(ctx, http.MethodPatch, "/api/v1/service_ramps/"+url.PathEscape(id), nil, body, nil)
}

func (c *Client) ApproveStaff(ctx context.Context, id string) (platform.StaffRow, error) {
	var out platform.StaffRow
	body := map[string]string{"status": "approved"}
	if err := c.do(ctx, http.MethodPatch, "/api/v1/service_staff/"+url.PathEscape(id), nil, body, &out); err != nil {
		return platform.StaffRow{}, err
	}
	return out, nil
}

func (c *Client) ActivateProfile(ctx context.Context, id string) error {
	body := map[string]string{"status": "active"}
	return c.do(ctx, http.MethodPatch, "/api/v1/profiles/"+url.PathEscape(id), nil, body, nil)
}

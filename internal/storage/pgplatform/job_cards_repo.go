package pgplatform

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/BearBump/RampDesk/internal/integrations/platform"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const defaultJobCardStatus = "pending"

func (s *Storage) ListJobCards(ctx context.Context, limit int) ([]platform.JobCardRow, error) {
	rows, err := s.db.Query(ctx, `
SELECT
  id, ticket_id, job_number, status, technician_id, notes, items,
  labor_cost, parts_cost, discount, total_cost,
  created_at, updated_at
FROM job_cards
ORDER BY created_at ASC
LIMIT $1
`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select job cards")
	}
	defer rows.Close()

	out := make([]platform.JobCardRow, 0, limit)
	for rows.Next() {
		jc, err := scanJobCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, jc)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) GetJobCard(ctx context.Context, id string) (platform.JobCardRow, error) {
	rows, err := s.db.Query(ctx, `
SELECT
  id, ticket_id, job_number, status, technician_id, notes, items,
  labor_cost, parts_cost, discount, total_cost,
  created_at, updated_at
FROM job_cards
WHERE id = $1
`, id)
	if err != nil {
		return platform.JobCardRow{}, errors.Wrap(err, "select job card")
	}
	defer rows.Close()

	if !rows.Next() {
		if rows.Err() != nil {
			return platform.JobCardRow{}, errors.Wrap(rows.Err(), "rows")
		}
		return platform.JobCardRow{}, errors.Errorf("job card %s not found", id)
	}
	return scanJobCard(rows)
}

func (s *Storage) CreateJobCard(ctx context.Context, in platform.JobCardInsert) (platform.JobCardRow, error) {
	now := time.Now().UTC()
	id := uuid.NewString()
	jobNumber := "JOB-" + strings.ToUpper(id[:8])

	status := in.Status
	if status == "" {
		status = defaultJobCardStatus
	}

	var techID *string
	if in.TechnicianID != "" {
		techID = &in.TechnicianID
	}

	_, err := s.db.Exec(ctx, `
INSERT INTO job_cards (
  id, ticket_id, job_number, status, technician_id, notes, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
`, id, in.TicketID, jobNumber, status, techID, in.Notes, now)
	if err != nil {
		return platform.JobCardRow{}, errors.Wrap(err, "insert job card")
	}

	return s.GetJobCard(ctx, id)
}

func (s *Storage) PatchJobCardStatus(ctx context.Context, id, status string) (platform.JobCardRow, error) {
	tag, err := s.db.Exec(ctx, `UPDATE job_cards SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return platform.JobCardRow{}, errors.Wrap(err, "update job card status")
	}
	if tag.RowsAffected() == 0 {
		return platform.JobCardRow{}, errors.Errorf("job card %s not found", id)
	}
	return s.GetJobCard(ctx, id)
}

func (s *Storage) PatchJobCardTechnician(ctx context.Context, id, technicianID string) (platform.JobCardRow, error) {
	tag, err := s.db.Exec(ctx, `UPDATE job_cards SET technician_id = $2, updated_at = now() WHERE id = $1`, id, technicianID)
	if err != nil {
		return platform.JobCardRow{}, errors.Wrap(err, "update job card technician")
	}
	if tag.RowsAffected() == 0 {
		return platform.JobCardRow{}, errors.Errorf("job card %s not found", id)
	}
	return s.GetJobCard(ctx, id)
}

func scanJobCard(rows pgx.Rows) (platform.JobCardRow, error) {
	var jc platform.JobCardRow
	var techID *string
	var items []byte
	if err := rows.Scan(
		&jc.ID, &jc.TicketID, &jc.JobNumber, &jc.Status, &techID, &jc.Notes, &items,
		&jc.LaborCost, &jc.PartsCost, &jc.Discount, &jc.TotalCost,
		&jc.CreatedAt, &jc.UpdatedAt,
	); err != nil {
		return platform.JobCardRow{}, errors.Wrap(err, "scan job card")
	}
	jc.TechnicianID = techID
	if len(items) > 0 {
		if err := json.Unmarshal(items, &jc.Items); err != nil {
			return platform.JobCardRow{}, errors.Wrap(err, "decode items")
		}
	}
	return jc, nil
}

package pgplatform

import (
	"context"

	"github.com/BearBump/RampDesk/internal/integrations/platform"
	"github.com/pkg/errors"
)

func (s *Storage) ListRamps(ctx context.Context, limit int) ([]platform.RampRow, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, name, status, technician_name, current_ticket_id
FROM service_ramps
ORDER BY name ASC
LIMIT $1
`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select ramps")
	}
	defer rows.Close()

	out := make([]platform.RampRow, 0, limit)
	for rows.Next() {
		var r platform.RampRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Status, &r.TechnicianName, &r.CurrentTicketID); err != nil {
			return nil, errors.Wrap(err, "scan ramp")
		}
		out = append(out, r)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) PatchRampStatus(ctx context.Context, id, status string) error {
	tag, err := s.db.Exec(ctx, `UPDATE service_ramps SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return errors.Wrap(err, "update ramp status")
	}
	if tag.RowsAffected() == 0 {
		return errors.Errorf("ramp %s not found", id)
	}
	return nil
}

func (s *Storage) OccupyRamp(ctx context.Context, id, ticketID, technicianName string) error {
	tag, err := s.db.Exec(ctx, `
UPDATE service_ramps
SET status = 'occupied', current_ticket_id = $2, technician_name = $3, updated_at = now()
WHERE id = $1
`, id, ticketID, technicianName)
	if err != nil {
		return errors.Wrap(err, "occupy ramp")
	}
	if tag.RowsAffected() == 0 {
		return errors.Errorf("ramp %s not found", id)
	}
	return nil
}

func (s *Storage) ReleaseRamp(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `
UPDATE service_ramps
SET status = 'idle', current_ticket_id = NULL, technician_name = NULL, updated_at = now()
WHERE id = $1
`, id)
	if err != nil {
		return errors.Wrap(err, "release ramp")
	}
	if tag.RowsAffected() == 0 {
		return errors.Errorf("ramp %s not found", id)
	}
	return nil
}

func (s *Storage) InsertRamp(ctx context.Context, r platform.RampRow) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO service_ramps (id, name, status, technician_name, current_ticket_id)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO NOTHING
`, r.ID, r.Name, r.Status, r.TechnicianName, r.CurrentTicketID)
	return errors.Wrap(err, "insert ramp")
}

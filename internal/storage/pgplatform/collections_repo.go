package pgplatform

import (
	"context"

	"github.com/BearBump/RampDesk/internal/integrations/platform"
	"github.com/pkg/errors"
)

func (s *Storage) ListTickets(ctx context.Context, limit int) ([]platform.TicketRow, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, complaint, customer_name, customer_phone, vehicle_model, vehicle_registration
FROM service_tickets
ORDER BY created_at ASC
LIMIT $1
`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select tickets")
	}
	defer rows.Close()

	out := make([]platform.TicketRow, 0, limit)
	for rows.Next() {
		var t platform.TicketRow
		if err := rows.Scan(
			&t.ID, &t.Complaint,
			&t.Customer.Name, &t.Customer.Phone,
			&t.Vehicle.Model, &t.Vehicle.Registration,
		); err != nil {
			return nil, errors.Wrap(err, "scan ticket")
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) ListTasks(ctx context.Context, limit int) ([]platform.TaskRow, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, name, labor_rate, estimated_duration
FROM service_tasks
ORDER BY name ASC
LIMIT $1
`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select tasks")
	}
	defer rows.Close()

	out := make([]platform.TaskRow, 0, limit)
	for rows.Next() {
		var t platform.TaskRow
		if err := rows.Scan(&t.ID, &t.Name, &t.LaborRate, &t.EstimatedDuration); err != nil {
			return nil, errors.Wrap(err, "scan task")
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) InsertTicket(ctx context.Context, t platform.TicketRow) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO service_tickets (id, complaint, customer_name, customer_phone, vehicle_model, vehicle_registration)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO NOTHING
`, t.ID, t.Complaint, t.Customer.Name, t.Customer.Phone, t.Vehicle.Model, t.Vehicle.Registration)
	return errors.Wrap(err, "insert ticket")
}

func (s *Storage) InsertTask(ctx context.Context, t platform.TaskRow) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO service_tasks (id, name, labor_rate, estimated_duration)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO NOTHING
`, t.ID, t.Name, t.LaborRate, t.EstimatedDuration)
	return errors.Wrap(err, "insert task")
}

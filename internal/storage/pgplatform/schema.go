package pgplatform

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS service_tickets (
  id TEXT PRIMARY KEY,
  complaint TEXT NOT NULL DEFAULT '',
  customer_name TEXT NOT NULL DEFAULT '',
  customer_phone TEXT NOT NULL DEFAULT '',
  vehicle_model TEXT NOT NULL DEFAULT '',
  vehicle_registration TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`
CREATE TABLE IF NOT EXISTS job_cards (
  id TEXT PRIMARY KEY,
  ticket_id TEXT NOT NULL REFERENCES service_tickets(id),
  job_number TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL,
  technician_id TEXT NULL,
  notes TEXT NOT NULL DEFAULT '',
  items JSONB NULL,
  labor_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
  parts_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
  discount DOUBLE PRECISION NOT NULL DEFAULT 0,
  total_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_job_cards_ticket_id ON job_cards(ticket_id)`,
		`CREATE INDEX IF NOT EXISTS idx_job_cards_status ON job_cards(status)`,
		`
CREATE TABLE IF NOT EXISTS service_ramps (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  status TEXT NOT NULL,
  technician_name TEXT NULL,
  current_ticket_id TEXT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`
CREATE TABLE IF NOT EXISTS service_staff (
  id TEXT PRIMARY KEY,
  profile_id TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL,
  avatar_url TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`
CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`
CREATE TABLE IF NOT EXISTS service_tasks (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  labor_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
  estimated_duration TEXT NOT NULL DEFAULT ''
)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}

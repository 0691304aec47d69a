package pgplatform

import (
	"context"

	"github.com/BearBump/RampDesk/internal/integrations/platform"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

func (s *Storage) ListStaff(ctx context.Context, limit int) ([]platform.StaffRow, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, profile_id, name, avatar_url, status
FROM service_staff
ORDER BY name ASC
LIMIT $1
`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select staff")
	}
	defer rows.Close()

	out := make([]platform.StaffRow, 0, limit)
	for rows.Next() {
		var st platform.StaffRow
		if err := rows.Scan(&st.ID, &st.ProfileID, &st.Name, &st.AvatarURL, &st.Status); err != nil {
			return nil, errors.Wrap(err, "scan staff")
		}
		out = append(out, st)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// ApproveStaff переводит сотрудника в approved. Связанный профиль
// платформа НЕ активирует — это отдельный вызов ActivateProfile.
func (s *Storage) ApproveStaff(ctx context.Context, id string) (platform.StaffRow, error) {
	var st platform.StaffRow
	err := s.db.QueryRow(ctx, `
UPDATE service_staff
SET status = 'approved', updated_at = now()
WHERE id = $1
RETURNING id, profile_id, name, avatar_url, status
`, id).Scan(&st.ID, &st.ProfileID, &st.Name, &st.AvatarURL, &st.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return platform.StaffRow{}, errors.Errorf("staff %s not found", id)
	}
	if err != nil {
		return platform.StaffRow{}, errors.Wrap(err, "approve staff")
	}
	return st, nil
}

func (s *Storage) ActivateProfile(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `UPDATE profiles SET status = 'active', updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "activate profile")
	}
	if tag.RowsAffected() == 0 {
		return errors.Errorf("profile %s not found", id)
	}
	return nil
}

func (s *Storage) ProfileStatus(ctx context.Context, id string) (string, error) {
	var status string
	err := s.db.QueryRow(ctx, `SELECT status FROM profiles WHERE id = $1`, id).Scan(&status)
	if err != nil {
		return "", errors.Wrap(err, "select profile")
	}
	return status, nil
}

func (s *Storage) InsertStaff(ctx context.Context, st platform.StaffRow) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO service_staff (id, profile_id, name, avatar_url, status)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO NOTHING
`, st.ID, st.ProfileID, st.Name, st.AvatarURL, st.Status)
	if err != nil {
		return errors.Wrap(err, "insert staff")
	}
	if st.ProfileID != "" {
		_, err = s.db.Exec(ctx, `
INSERT INTO profiles (id, status) VALUES ($1, 'inactive')
ON CONFLICT (id) DO NOTHING
`, st.ProfileID)
		if err != nil {
			return errors.Wrap(err, "insert profile")
		}
	}
	return nil
}

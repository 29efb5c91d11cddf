package sqlite

import (
	"context"
	"time"

	"github.com/inkwell/inkwell/internal/auth/domain"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) Create(ctx context.Context, s domain.DeviceSession) error {
	// Upsert on the composite key: logging in again from a known device
	// replaces that device's session rather than stacking a second one.
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (device_id, user_id, iat, exp, ip, device_name)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, device_id) DO UPDATE SET
		   iat = excluded.iat, exp = excluded.exp,
		   ip = excluded.ip, device_name = excluded.device_name`,
		s.DeviceID, s.UserID, s.IssuedAt, s.ExpiresAt, s.IP, s.DeviceName)
	return mapConstraint(err)
}

func (r *sessionsRepo) Get(ctx context.Context, userID, deviceID string) (domain.DeviceSession, error) {
	var s domain.DeviceSession
	err := r.db.QueryRowContext(ctx,
		`SELECT device_id, user_id, iat, exp, ip, device_name
		 FROM sessions WHERE user_id = ? AND device_id = ?`,
		userID, deviceID).
		Scan(&s.DeviceID, &s.UserID, &s.IssuedAt, &s.ExpiresAt, &s.IP, &s.DeviceName)
	if err != nil {
		return domain.DeviceSession{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sessionsRepo) GetByDeviceID(ctx context.Context, deviceID string) (domain.DeviceSession, error) {
	var s domain.DeviceSession
	err := r.db.QueryRowContext(ctx,
		`SELECT device_id, user_id, iat, exp, ip, device_name
		 FROM sessions WHERE device_id = ?`,
		deviceID).
		Scan(&s.DeviceID, &s.UserID, &s.IssuedAt, &s.ExpiresAt, &s.IP, &s.DeviceName)
	if err != nil {
		return domain.DeviceSession{}, mapNotFound(err)
	}
	return s, nil
}

// Update is rotation's update-in-place. A single UPDATE matched on the
// composite key is atomic, so two concurrent rotations cannot interleave
// partial writes; the loser simply overwrites whole-row.
func (r *sessionsRepo) Update(ctx context.Context, s domain.DeviceSession) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET iat = ?, exp = ?, ip = ?, device_name = ?
		 WHERE user_id = ? AND device_id = ?`,
		s.IssuedAt, s.ExpiresAt, s.IP, s.DeviceName, s.UserID, s.DeviceID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *sessionsRepo) Delete(ctx context.Context, userID, deviceID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = ? AND device_id = ?`, userID, deviceID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *sessionsRepo) DeleteByDeviceID(ctx context.Context, deviceID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE device_id = ?`, deviceID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *sessionsRepo) DeleteOthers(ctx context.Context, userID, keepDeviceID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = ? AND device_id != ?`, userID, keepDeviceID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *sessionsRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

func (r *sessionsRepo) ListByUser(ctx context.Context, userID string) ([]domain.DeviceSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT device_id, user_id, iat, exp, ip, device_name
		 FROM sessions WHERE user_id = ? ORDER BY iat ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.DeviceSession
	for rows.Next() {
		var s domain.DeviceSession
		if err := rows.Scan(&s.DeviceID, &s.UserID, &s.IssuedAt, &s.ExpiresAt, &s.IP, &s.DeviceName); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *sessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE exp < ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

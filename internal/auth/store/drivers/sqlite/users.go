package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/inkwell/inkwell/internal/auth/domain"
	"github.com/inkwell/inkwell/internal/auth/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, login, email, password_hash, created_at,
	confirmation_code, confirmation_expires_at, is_confirmed,
	recovery_code, recovery_expires_at,
	is_banned, ban_date, ban_reason`

func (r *usersRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetByLoginOrEmail(ctx context.Context, loginOrEmail string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE login = ? OR email = ?`,
		loginOrEmail, loginOrEmail)
	return scanUser(row)
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) GetByConfirmationCode(ctx context.Context, code string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE confirmation_code = ?`, code)
	return scanUser(row)
}

func (r *usersRepo) GetByRecoveryCode(ctx context.Context, code string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE recovery_code = ?`, code)
	return scanUser(row)
}

func (r *usersRepo) Create(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Login, u.Email, u.PasswordHash, u.CreatedAt,
		mapOptionalString(u.ConfirmationCode), mapOptionalTime(u.ConfirmationExpiresAt), u.IsConfirmed,
		mapOptionalString(u.RecoveryCode), mapOptionalTime(u.RecoveryExpiresAt),
		u.Ban.IsBanned, mapOptionalTime(u.Ban.BanDate), mapOptionalString(u.Ban.BanReason),
	)
	return mapConstraint(err)
}

func (r *usersRepo) Confirm(ctx context.Context, userID string) error {
	// Clearing the code and flipping the flag in one statement is what makes
	// a confirmation code single-use.
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET is_confirmed = 1, confirmation_code = NULL, confirmation_expires_at = NULL
		 WHERE id = ? AND is_confirmed = 0`, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) SetConfirmationCode(ctx context.Context, userID, code string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET confirmation_code = ?, confirmation_expires_at = ? WHERE id = ?`,
		code, expiresAt, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) SetRecoveryCode(ctx context.Context, userID, code string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET recovery_code = ?, recovery_expires_at = ? WHERE id = ?`,
		code, expiresAt, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET password_hash = ?, recovery_code = NULL, recovery_expires_at = NULL
		 WHERE id = ?`, newHash, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) SetBan(ctx context.Context, userID string, ban domain.BanInfo) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_banned = ?, ban_date = ?, ban_reason = ? WHERE id = ?`,
		ban.IsBanned, mapOptionalTime(ban.BanDate), mapOptionalString(ban.BanReason), userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) Delete(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u                  domain.User
		confirmationCode   sql.NullString
		confirmationExpiry sql.NullTime
		recoveryCode       sql.NullString
		recoveryExpiry     sql.NullTime
		banDate            sql.NullTime
		banReason          sql.NullString
	)

	err := row.Scan(
		&u.ID, &u.Login, &u.Email, &u.PasswordHash, &u.CreatedAt,
		&confirmationCode, &confirmationExpiry, &u.IsConfirmed,
		&recoveryCode, &recoveryExpiry,
		&u.Ban.IsBanned, &banDate, &banReason,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.ConfirmationCode = mapNullStringPtr(confirmationCode)
	u.ConfirmationExpiresAt = mapNullTimePtr(confirmationExpiry)
	u.RecoveryCode = mapNullStringPtr(recoveryCode)
	u.RecoveryExpiresAt = mapNullTimePtr(recoveryExpiry)
	u.Ban.BanDate = mapNullTimePtr(banDate)
	u.Ban.BanReason = mapNullStringPtr(banReason)
	return u, nil
}

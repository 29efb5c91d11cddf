package store

import (
	"context"
	"errors"
	"time"

	"github.com/inkwell/inkwell/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// Sub-repositories keep concerns tidy and stop callers from accidentally
// opening transactions within transactions.
type Store interface {
	Users() Users
	Sessions() Sessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction; an error from fn rolls the
	// transaction back, nil commits it. Preferred over Tx directly.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetByID returns a user by id.
	GetByID(ctx context.Context, id string) (domain.User, error)

	// GetByLoginOrEmail resolves a user by exact login or email match.
	// Both columns are unique, so at most one row matches.
	GetByLoginOrEmail(ctx context.Context, loginOrEmail string) (domain.User, error)

	// GetByEmail returns a user by email.
	GetByEmail(ctx context.Context, email string) (domain.User, error)

	// GetByConfirmationCode returns the user holding an unconsumed
	// confirmation code.
	GetByConfirmationCode(ctx context.Context, code string) (domain.User, error)

	// GetByRecoveryCode returns the user holding an unconsumed recovery code.
	GetByRecoveryCode(ctx context.Context, code string) (domain.User, error)

	// Create inserts a new user including confirmation and ban state.
	// A duplicate login or email maps to ErrAlreadyExists.
	Create(ctx context.Context, u domain.User) error

	// Confirm marks the user confirmed and clears the confirmation code in
	// the same statement, so a code cannot be consumed twice.
	Confirm(ctx context.Context, userID string) error

	// SetConfirmationCode replaces the confirmation code and its expiry.
	SetConfirmationCode(ctx context.Context, userID, code string, expiresAt time.Time) error

	// SetRecoveryCode replaces the recovery code and its expiry.
	SetRecoveryCode(ctx context.Context, userID, code string, expiresAt time.Time) error

	// UpdatePasswordHash sets the password hash and clears any recovery code.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// SetBan writes the full ban state as a unit.
	SetBan(ctx context.Context, userID string, ban domain.BanInfo) error

	// Delete removes the user; sessions cascade per schema.
	Delete(ctx context.Context, userID string) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type Sessions interface {
	// Create inserts the device session row, replacing any existing row for
	// the same (userID, deviceID). A device holds at most one session.
	Create(ctx context.Context, s domain.DeviceSession) error

	// Get returns the session for (userID, deviceID).
	Get(ctx context.Context, userID, deviceID string) (domain.DeviceSession, error)

	// GetByDeviceID returns the session for a bare device id. Used for the
	// ownership check before terminating someone's named device.
	GetByDeviceID(ctx context.Context, deviceID string) (domain.DeviceSession, error)

	// Update overwrites iat/exp/ip/device_name of the (userID, deviceID) row
	// in a single statement. Zero rows updated maps to ErrNotFound; that is
	// how a stale or foreign device id surfaces.
	Update(ctx context.Context, s domain.DeviceSession) error

	// Delete removes the (userID, deviceID) row. Zero rows maps to
	// ErrNotFound.
	Delete(ctx context.Context, userID, deviceID string) error

	// DeleteByDeviceID removes the row for a bare device id. Ownership
	// checks belong to the caller.
	DeleteByDeviceID(ctx context.Context, deviceID string) error

	// DeleteOthers removes every session for userID except keepDeviceID and
	// returns how many rows went away.
	DeleteOthers(ctx context.Context, userID, keepDeviceID string) (int64, error)

	// DeleteAllForUser removes every session for a user (ban, password reset).
	DeleteAllForUser(ctx context.Context, userID string) error

	// ListByUser returns the user's sessions, oldest first.
	ListByUser(ctx context.Context, userID string) ([]domain.DeviceSession, error)

	// DeleteExpired removes sessions whose exp is before now and reports how
	// many rows went away. Housekeeping only; expired sessions are already
	// unusable.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

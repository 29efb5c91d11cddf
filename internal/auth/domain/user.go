package domain

import "time"

// Login length bounds enforced at registration.
const (
	MinLoginLength = 3
	MaxLoginLength = 10
)

type User struct {
	ID           string
	Login        string // unique, 3-10 chars
	Email        string // unique
	PasswordHash string // bcrypt encoded
	CreatedAt    time.Time

	// Email confirmation state. A user with IsConfirmed=false cannot
	// authenticate; the code is single-use and cleared on confirm.
	ConfirmationCode      *string
	ConfirmationExpiresAt *time.Time
	IsConfirmed           bool

	// Password recovery state, same single-use semantics as confirmation.
	RecoveryCode      *string
	RecoveryExpiresAt *time.Time

	Ban BanInfo
}

// BanInfo is written as a unit: either all fields are set (banned) or none.
type BanInfo struct {
	IsBanned  bool
	BanDate   *time.Time
	BanReason *string
}

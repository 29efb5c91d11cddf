package domain

import "time"

// DeviceSession binds a user and a client device to a token-rotation
// lineage. Exactly one row exists per (UserID, DeviceID); refresh overwrites
// IssuedAt/ExpiresAt/IP/DeviceName in place.
type DeviceSession struct {
	DeviceID   string // server-generated
	UserID     string
	IssuedAt   time.Time // iat of the currently honoured refresh token
	ExpiresAt  time.Time
	IP         string
	DeviceName string // client user-agent string
}

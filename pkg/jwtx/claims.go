package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes. Access tokens stay short so a stolen bearer token
// ages out quickly; refresh tokens only need to outlive them by enough to
// mint the next pair.
const (
	DefaultAccessTokenTTL  = 10 * time.Minute
	DefaultRefreshTokenTTL = 20 * time.Minute
)

// Claims are the claims carried by both token kinds. Access tokens carry the
// registered set only (sub/iat/exp/jti); refresh tokens additionally carry
// the device id so a session row can be resolved from the token alone.
type Claims struct {
	jwt.RegisteredClaims

	// DeviceID binds a refresh token to its device session row.
	// Empty on access tokens.
	DeviceID string `json:"did,omitempty"`
}

// UserID returns the subject claim under its domain name.
func (c Claims) UserID() string { return c.Subject }

// IssuedAtTime returns the iat claim as a concrete time, zero if absent.
func (c Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns the exp claim as a concrete time, zero if absent.
func (c Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

func newClaims(userID, deviceID, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        newJTI(),
		},
		DeviceID: deviceID,
	}
}

// newJTI returns a URL-safe random identifier for the "jti" claim.
func newJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

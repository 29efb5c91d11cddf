package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkwell/inkwell/internal/auth/domain"
	"github.com/inkwell/inkwell/internal/auth/store"
	"github.com/inkwell/inkwell/pkg/jwtx"
)

var (
	// ErrUnauthorized is the single answer to any token-auth failure; bad
	// signature, expired, superseded, revoked and banned all collapse into
	// it so a caller cannot probe which check tripped.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionNotFound reports a termination or rotation target that does
	// not exist. Termination paths may say so; rotation callers map it to
	// the generic unauthorized answer.
	ErrSessionNotFound = errors.New("session_not_found")
)

// SessionService owns device sessions: issuing token pairs, rotating them in
// place and terminating them. One session row exists per (user, device);
// logging in again from the same device replaces that device's session.
// Token validation for these operations belongs to AuthorityService.
type SessionService struct {
	Store store.Store
	Codec *jwtx.Codec
}

// issuePair mints an access/refresh pair and reads the concrete iat/exp the
// library stamped into the refresh token. Decoding unchecked is fine here;
// the token was signed one line up.
func (s *SessionService) issuePair(userID, deviceID string) (domain.TokenPair, jwtx.Claims, error) {
	now := time.Now().UTC()

	access, err := s.Codec.IssueAccess(userID, now)
	if err != nil {
		return domain.TokenPair{}, jwtx.Claims{}, fmt.Errorf("issuing access token: %w", err)
	}
	refresh, err := s.Codec.IssueRefresh(userID, deviceID, now)
	if err != nil {
		return domain.TokenPair{}, jwtx.Claims{}, fmt.Errorf("issuing refresh token: %w", err)
	}

	claims, err := s.Codec.DecodeUnchecked(refresh)
	if err != nil {
		return domain.TokenPair{}, jwtx.Claims{}, fmt.Errorf("decoding issued refresh token: %w", err)
	}

	pair := domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.Codec.AccessTTL(),
	}
	return pair, claims, nil
}

// CreateSession mints a token pair for the user on the given device and
// records the session row carrying the refresh token's own iat/exp.
func (s *SessionService) CreateSession(ctx context.Context, deviceID, ip, deviceName, userID string) (domain.TokenPair, error) {
	pair, claims, err := s.issuePair(userID, deviceID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	session := domain.DeviceSession{
		DeviceID:   deviceID,
		UserID:     userID,
		IssuedAt:   claims.IssuedAtTime(),
		ExpiresAt:  claims.ExpiresAtTime(),
		IP:         ip,
		DeviceName: deviceName,
	}
	if err := s.Store.Sessions().Create(ctx, session); err != nil {
		return domain.TokenPair{}, fmt.Errorf("storing session: %w", err)
	}

	return pair, nil
}

// RotateSession issues a fresh pair for an existing (userID, deviceID)
// session and moves the stored row forward in place. The single conditional
// UPDATE is the atomicity boundary; with two concurrent rotations the loser
// overwrites whole-row and both refresh tokens carry an iat no older than
// the stored one. Zero rows updated means the session is gone and returns
// ErrSessionNotFound.
func (s *SessionService) RotateSession(ctx context.Context, userID, deviceID, ip, deviceName string) (domain.TokenPair, error) {
	pair, claims, err := s.issuePair(userID, deviceID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	err = s.Store.Sessions().Update(ctx, domain.DeviceSession{
		DeviceID:   deviceID,
		UserID:     userID,
		IssuedAt:   claims.IssuedAtTime(),
		ExpiresAt:  claims.ExpiresAtTime(),
		IP:         ip,
		DeviceName: deviceName,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrSessionNotFound
		}
		return domain.TokenPair{}, err
	}

	return pair, nil
}

// TerminateSession removes the (userID, deviceID) session. Zero rows is
// ErrSessionNotFound, never silent success.
func (s *SessionService) TerminateSession(ctx context.Context, userID, deviceID string) error {
	if err := s.Store.Sessions().Delete(ctx, userID, deviceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// TerminateByDeviceID removes a session by bare device id. Ownership must
// already be established by the caller.
func (s *SessionService) TerminateByDeviceID(ctx context.Context, deviceID string) error {
	if err := s.Store.Sessions().DeleteByDeviceID(ctx, deviceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// TerminateOthers removes every session of the user except keepDeviceID and
// returns how many were dropped.
func (s *SessionService) TerminateOthers(ctx context.Context, userID, keepDeviceID string) (int64, error) {
	return s.Store.Sessions().DeleteOthers(ctx, userID, keepDeviceID)
}

// ListDevices returns the user's active sessions, one per device.
func (s *SessionService) ListDevices(ctx context.Context, userID string) ([]domain.DeviceSession, error) {
	return s.Store.Sessions().ListByUser(ctx, userID)
}

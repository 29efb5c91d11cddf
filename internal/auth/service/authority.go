package service

import (
	"context"
	"errors"

	"github.com/inkwell/inkwell/internal/auth/domain"
	"github.com/inkwell/inkwell/internal/auth/store"
	"github.com/inkwell/inkwell/pkg/jwtx"
)

// AuthorityService answers "who is this token" for request handling. It is
// read-only; nothing here mutates a user or a session.
type AuthorityService struct {
	Store store.Store
	Codec *jwtx.Codec
}

// AuthorizeAccessToken resolves an access token to its user. The token must
// verify, must not be a refresh token, and the user must still exist. Any
// failure is ErrUnauthorized.
func (s *AuthorityService) AuthorizeAccessToken(ctx context.Context, raw string) (domain.User, error) {
	claims, err := s.Codec.Verify(raw)
	if err != nil {
		return domain.User{}, ErrUnauthorized
	}
	if claims.DeviceID != "" {
		// Refresh tokens do not open the access gate.
		return domain.User{}, ErrUnauthorized
	}

	// Existence only. Ban gating is endpoint-specific and handled by the
	// callers that care; this gate stays narrow on purpose.
	user, err := s.Store.Users().GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUnauthorized
		}
		return domain.User{}, err
	}

	return user, nil
}

// AuthorizeSessionToken resolves a refresh token to its user and the live
// device session it names. It applies the full session checks: signature,
// expiry, session existence and the iat ordering rule. Any failure is
// ErrUnauthorized.
func (s *AuthorityService) AuthorizeSessionToken(ctx context.Context, raw string) (domain.User, domain.DeviceSession, error) {
	claims, err := s.Codec.Verify(raw)
	if err != nil {
		return domain.User{}, domain.DeviceSession{}, ErrUnauthorized
	}
	if claims.DeviceID == "" {
		return domain.User{}, domain.DeviceSession{}, ErrUnauthorized
	}

	// A deleted account invalidates every token it ever held, even ones
	// whose session row has not been swept yet. Bans need no check here:
	// banning purges the user's sessions in the same transaction, so the
	// session lookup below already refuses a banned user's token.
	user, err := s.Store.Users().GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.DeviceSession{}, ErrUnauthorized
		}
		return domain.User{}, domain.DeviceSession{}, err
	}

	session, err := s.Store.Sessions().Get(ctx, claims.UserID(), claims.DeviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.DeviceSession{}, ErrUnauthorized
		}
		return domain.User{}, domain.DeviceSession{}, err
	}

	// Strictly earlier than the stored iat means a later rotation has
	// superseded this token. Compared at second resolution, the resolution
	// of the iat claim itself.
	if claims.IssuedAtTime().Unix() < session.IssuedAt.Unix() {
		return domain.User{}, domain.DeviceSession{}, ErrUnauthorized
	}

	return user, session, nil
}

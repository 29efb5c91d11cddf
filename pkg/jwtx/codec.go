package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is the single error reported for any externally
	// supplied token that fails verification. Expired, malformed and
	// bad-signature tokens are deliberately indistinguishable at this
	// boundary.
	ErrInvalidToken = errors.New("jwtx: invalid token")

	ErrNoSecret = errors.New("jwtx: signing secret is required")
	ErrTTLOrder = errors.New("jwtx: refresh TTL must exceed access TTL")
)

// Config carries everything the codec needs at construction. There is no
// ambient secret lookup; the caller owns where the secret comes from.
type Config struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Codec signs and verifies compact HS256 tokens with a process-wide
// symmetric secret.
type Codec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Secret == "" {
		return nil, ErrNoSecret
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTokenTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTokenTTL
	}
	// A refresh token that outlives its access token is the whole point:
	// it must still be usable once the access token has lapsed.
	if cfg.RefreshTTL <= cfg.AccessTTL {
		return nil, ErrTTLOrder
	}
	return &Codec{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess mints a short-lived access token for a user.
func (c *Codec) IssueAccess(userID string, now time.Time) (string, error) {
	return c.sign(newClaims(userID, "", c.issuer, c.accessTTL, now))
}

// IssueRefresh mints a refresh token bound to a device session.
func (c *Codec) IssueRefresh(userID, deviceID string, now time.Time) (string, error) {
	return c.sign(newClaims(userID, deviceID, c.issuer, c.refreshTTL, now))
}

func (c *Codec) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify checks signature and expiry and returns the decoded claims.
// Every failure collapses to ErrInvalidToken.
func (c *Codec) Verify(raw string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// DecodeUnchecked extracts claims without validating signature or expiry.
// It exists for reading iat/exp off a token this process just issued itself;
// it must never be used on an externally supplied token.
func (c *Codec) DecodeUnchecked(raw string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

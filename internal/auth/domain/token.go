package domain

import "time"

// TokenPair is what a successful login or refresh returns: the short-lived
// access token and the session-bound refresh token. The refresh token is
// transported by the HTTP layer as an HTTP-only cookie, never in the body.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration // time until access token expiry
}

package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/inkwell/inkwell/internal/auth/service"
	"github.com/inkwell/inkwell/pkg/httpx"
)

// RefreshCookieName is the HTTP-only cookie carrying the refresh token.
const RefreshCookieName = "refreshToken"

// AccessGateMiddleware resolves the bearer token, if any, into a caller
// identity. A missing header passes through anonymous; an invalid token is
// refused. Endpoints that demand a user follow up with RequireUser.
func AccessGateMiddleware(authority *service.AuthorityService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := httpx.BearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := authority.AuthorizeAccessToken(r.Context(), raw)
			if err != nil {
				httpx.WriteUnauthorized(w)
				return
			}

			ctx := httpx.ContextWithIdentity(r.Context(), user.ID, "")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous callers that AccessGateMiddleware let
// through.
func RequireUser() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if httpx.UserIDFromContext(r.Context()) == "" {
				httpx.WriteUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BasicAdminAuth guards super-admin routes with HTTP basic auth. With no
// password configured the routes stay closed rather than open.
func BasicAdminAuth(login, password string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if password == "" || !ok ||
				subtle.ConstantTimeCompare([]byte(user), []byte(login)) != 1 ||
				subtle.ConstantTimeCompare([]byte(pass), []byte(password)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="restricted"`)
				httpx.WriteUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionGateMiddleware authorizes the refresh cookie against the session
// store and attaches the resolved (user, device) identity. Absent cookie,
// bad token, dead session and superseded token all get the same answer.
func SessionGateMiddleware(authority *service.AuthorityService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(RefreshCookieName)
			if err != nil || cookie.Value == "" {
				httpx.WriteUnauthorized(w)
				return
			}

			user, session, err := authority.AuthorizeSessionToken(r.Context(), cookie.Value)
			if err != nil {
				httpx.WriteUnauthorized(w)
				return
			}

			ctx := httpx.ContextWithIdentity(r.Context(), user.ID, session.DeviceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

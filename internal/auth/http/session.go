package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/inkwell/inkwell/internal/auth/domain"
	"github.com/inkwell/inkwell/internal/auth/service"
	"github.com/inkwell/inkwell/pkg/httpx"
	"github.com/inkwell/inkwell/pkg/slogx"
)

type SessionHandler struct {
	Credentials *service.CredentialService
	Sessions    *service.SessionService
	Authority   *service.AuthorityService
}

type loginRequest struct {
	LoginOrEmail string `json:"loginOrEmail"`
	Password     string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

// HandleLogin verifies credentials and opens a device session. The access
// token comes back in the body; the refresh token travels only as an
// HTTP-only cookie. Bad credentials, unconfirmed accounts and bans all get
// the same 401.
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LoginOrEmail == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "loginOrEmail and password are required")
		return
	}

	user, err := h.Credentials.VerifyCredentials(ctx, req.LoginOrEmail, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteUnauthorized(w)
			return
		}
		log.Error("credential verification failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}
	if user.Ban.IsBanned {
		httpx.WriteUnauthorized(w)
		return
	}

	// Each login gets a fresh server-generated device id; the client never
	// chooses its own.
	deviceID := uuid.NewString()
	pair, err := h.Sessions.CreateSession(ctx, deviceID,
		httpx.IPKeyExtractor(r), r.UserAgent(), user.ID)
	if err != nil {
		log.Error("session creation failed", "user_id", user.ID, "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, "server_error", "")
		return
	}

	h.setRefreshCookie(w, pair)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{AccessToken: pair.AccessToken})
}

// HandleRefresh rotates the caller's session and returns a fresh pair. The
// presented refresh token must still be the session's current one.
func (h *SessionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		httpx.WriteUnauthorized(w)
		return
	}

	user, session, err := h.Authority.AuthorizeSessionToken(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			httpx.WriteUnauthorized(w)
			return
		}
		log.Error("session authorization failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	pair, err := h.Sessions.RotateSession(ctx, user.ID, session.DeviceID,
		httpx.IPKeyExtractor(r), r.UserAgent())
	if err != nil {
		// Lost a race with a logout or termination; the token no longer
		// names a live session.
		if errors.Is(err, service.ErrSessionNotFound) {
			httpx.WriteUnauthorized(w)
			return
		}
		log.Error("session rotation failed", "user_id", user.ID, "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable, "server_error", "")
		return
	}

	h.setRefreshCookie(w, pair)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{AccessToken: pair.AccessToken})
}

// HandleLogout terminates the caller's own session and drops the cookie.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		httpx.WriteUnauthorized(w)
		return
	}

	user, session, err := h.Authority.AuthorizeSessionToken(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			httpx.WriteUnauthorized(w)
			return
		}
		log.Error("session authorization failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	if err := h.Sessions.TerminateSession(ctx, user.ID, session.DeviceID); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			httpx.WriteUnauthorized(w)
			return
		}
		log.Error("logout failed", "user_id", user.ID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) setRefreshCookie(w http.ResponseWriter, pair domain.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(h.Sessions.Codec.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *SessionHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

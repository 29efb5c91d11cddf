package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/inkwell/inkwell/internal/auth/service"
	"github.com/inkwell/inkwell/pkg/httpx"
	"github.com/inkwell/inkwell/pkg/slogx"
)

type RecoveryHandler struct {
	Credentials *service.CredentialService
}

type recoveryRequest struct {
	Email string `json:"email"`
}

// HandleRequest starts password recovery. The response is 204 whether or not
// the email has an account; anything else would enumerate addresses.
func (h *RecoveryHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req recoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	if err := h.Credentials.RequestRecovery(ctx, req.Email); err != nil {
		log.Error("recovery request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type newPasswordRequest struct {
	RecoveryCode string `json:"recoveryCode"`
	NewPassword  string `json:"newPassword"`
}

// HandleReset consumes a recovery code and sets the new password. All of the
// user's device sessions are revoked as part of the reset.
func (h *RecoveryHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req newPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RecoveryCode == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "recoveryCode and newPassword are required")
		return
	}

	err := h.Credentials.ResetPassword(ctx, req.RecoveryCode, req.NewPassword)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, service.ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "password out of range")
	case errors.Is(err, service.ErrInvalidCode):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_code", "recovery code is invalid or already used")
	case errors.Is(err, service.ErrCodeExpired):
		httpx.WriteError(w, http.StatusBadRequest, "code_expired", "recovery code has expired")
	default:
		log.Error("password reset failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
	}
}

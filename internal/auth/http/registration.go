package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/inkwell/inkwell/internal/auth/service"
	"github.com/inkwell/inkwell/pkg/httpx"
	"github.com/inkwell/inkwell/pkg/slogx"
)

type RegistrationHandler struct {
	Credentials *service.CredentialService
}

type registrationRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates a new unconfirmed account and sends the
// confirmation code. 204 on success; field-level conflicts are reported so
// the client can point at the offending input.
func (h *RegistrationHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	_, err := h.Credentials.Register(ctx, req.Login, req.Email, req.Password)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, service.ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "login, email or password out of range")
	case errors.Is(err, service.ErrLoginTaken):
		httpx.WriteError(w, http.StatusBadRequest, "login_taken", "login is already in use")
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusBadRequest, "email_taken", "email is already in use")
	default:
		log.Error("registration failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
	}
}

type confirmationRequest struct {
	Code string `json:"code"`
}

// HandleConfirm redeems a confirmation code. Expired and already-consumed
// codes both come back 400.
func (h *RegistrationHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req confirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	err := h.Credentials.Confirm(ctx, req.Code)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, service.ErrInvalidCode):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_code", "confirmation code is invalid or already used")
	case errors.Is(err, service.ErrCodeExpired):
		httpx.WriteError(w, http.StatusBadRequest, "code_expired", "confirmation code has expired")
	default:
		log.Error("confirmation failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
	}
}

type resendRequest struct {
	Email string `json:"email"`
}

// HandleResend issues a fresh confirmation code for an unconfirmed account.
func (h *RegistrationHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req resendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	err := h.Credentials.ResendConfirmation(ctx, req.Email)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, service.ErrEmailNotFound):
		httpx.WriteError(w, http.StatusBadRequest, "email_not_found", "no account for this email")
	case errors.Is(err, service.ErrAlreadyConfirmed):
		httpx.WriteError(w, http.StatusBadRequest, "already_confirmed", "account is already confirmed")
	default:
		log.Error("confirmation resend failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
	}
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/inkwell/inkwell/internal/auth/service"
	"github.com/inkwell/inkwell/internal/auth/store"
	"github.com/inkwell/inkwell/pkg/httpx"
	"github.com/inkwell/inkwell/pkg/slogx"
)

type BanHandler struct {
	Credentials *service.CredentialService
}

type banRequest struct {
	IsBanned  bool   `json:"isBanned"`
	BanReason string `json:"banReason"`
}

// ServeHTTP sets or clears a user's ban. Banning terminates every device
// session the user holds in the same transaction. Super-admin only; the
// router guards this route with basic auth.
func (h *BanHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := r.PathValue("userId")
	if userID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "userId is required")
		return
	}

	var req banRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.IsBanned && req.BanReason == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "banReason is required when banning")
		return
	}

	var err error
	if req.IsBanned {
		err = h.Credentials.Ban(ctx, userID, req.BanReason)
	} else {
		err = h.Credentials.Unban(ctx, userID)
	}

	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "no such user")
	default:
		log.Error("ban update failed", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
	}
}

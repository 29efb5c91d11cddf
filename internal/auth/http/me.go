package http

import (
	"net/http"

	"github.com/inkwell/inkwell/internal/auth/service"
	"github.com/inkwell/inkwell/pkg/httpx"
	"github.com/inkwell/inkwell/pkg/slogx"
)

type MeHandler struct {
	Credentials *service.CredentialService
}

type meResponse struct {
	UserID string `json:"userId"`
	Login  string `json:"login"`
	Email  string `json:"email"`
}

// ServeHTTP returns the authenticated caller's own identity. The access
// gate has already resolved the user id into the context.
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	user, err := h.Credentials.GetUserByID(ctx, userID)
	if err != nil {
		log.Warn("failed to load user", "user_id", userID, "err", err)
		httpx.WriteUnauthorized(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, meResponse{
		UserID: user.ID,
		Login:  user.Login,
		Email:  user.Email,
	})
}

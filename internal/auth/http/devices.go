package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/inkwell/inkwell/internal/auth/service"
	"github.com/inkwell/inkwell/internal/auth/store"
	"github.com/inkwell/inkwell/pkg/httpx"
	"github.com/inkwell/inkwell/pkg/slogx"
)

type DevicesHandler struct {
	Sessions *service.SessionService
}

type deviceResponse struct {
	DeviceID       string    `json:"deviceId"`
	IP             string    `json:"ip"`
	Title          string    `json:"title"`
	LastActiveDate time.Time `json:"lastActiveDate"`
}

// HandleList returns the caller's active device sessions.
func (h *DevicesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	sessions, err := h.Sessions.ListDevices(ctx, userID)
	if err != nil {
		log.Error("device listing failed", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	devices := make([]deviceResponse, 0, len(sessions))
	for _, s := range sessions {
		devices = append(devices, deviceResponse{
			DeviceID:       s.DeviceID,
			IP:             s.IP,
			Title:          s.DeviceName,
			LastActiveDate: s.IssuedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, devices)
}

// HandleTerminateOthers drops every session of the caller except the one
// backing this request.
func (h *DevicesHandler) HandleTerminateOthers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	deviceID := httpx.DeviceIDFromContext(ctx)

	if _, err := h.Sessions.TerminateOthers(ctx, userID, deviceID); err != nil {
		log.Error("terminating other sessions failed", "user_id", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTerminateByID drops one of the caller's sessions by device id.
// Someone else's device is 403, an unknown one 404.
func (h *DevicesHandler) HandleTerminateByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	deviceID := r.PathValue("deviceId")
	if deviceID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "deviceId is required")
		return
	}

	target, err := h.Sessions.Store.Sessions().GetByDeviceID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "no session for this device")
			return
		}
		log.Error("device lookup failed", "device_id", deviceID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}
	if target.UserID != userID {
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "device belongs to another user")
		return
	}

	if err := h.Sessions.TerminateByDeviceID(ctx, deviceID); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "no session for this device")
			return
		}
		log.Error("device termination failed", "device_id", deviceID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

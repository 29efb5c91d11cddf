package httpx

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const (
	CtxKeyUserID   ctxKey = "user_id"
	CtxKeyDeviceID ctxKey = "device_id"
)

// ContextWithIdentity attaches the resolved caller identity for downstream
// handlers. deviceID is empty for access-token authenticated requests.
func ContextWithIdentity(ctx context.Context, userID, deviceID string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, userID)
	if deviceID != "" {
		ctx = context.WithValue(ctx, CtxKeyDeviceID, deviceID)
	}
	return ctx
}

// UserIDFromContext returns the authenticated user id, empty for anonymous
// callers.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// DeviceIDFromContext returns the device id resolved by the session gate.
func DeviceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyDeviceID).(string); ok {
		return v
	}
	return ""
}

// BearerToken extracts the bearer token from the Authorization header.
// Returns false if the header is absent or not a bearer scheme.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer")), true
}

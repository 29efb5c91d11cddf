package service_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/inkwell/inkwell/internal/auth/domain"
	"github.com/inkwell/inkwell/internal/auth/service"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingSweep(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.registerConfirmed(t, "alice", "alice@example.com", "pw123456")

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, env.store.Sessions().Create(ctx, domain.DeviceSession{
		DeviceID:   "stale",
		UserID:     alice.ID,
		IssuedAt:   now.Add(-time.Hour),
		ExpiresAt:  now.Add(-30 * time.Minute),
		IP:         "1.1.1.1",
		DeviceName: "chrome",
	}))
	require.NoError(t, env.store.Sessions().Create(ctx, domain.DeviceSession{
		DeviceID:   "live",
		UserID:     alice.ID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(30 * time.Minute),
		IP:         "1.1.1.1",
		DeviceName: "chrome",
	}))

	hk := service.NewHousekeepingService(env.store, slog.Default(), time.Hour)
	hk.Start()
	hk.Stop()

	devices, err := env.sessions.ListDevices(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	require.Equal(t, "live", devices[0].DeviceID)
}

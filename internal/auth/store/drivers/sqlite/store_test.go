package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/inkwell/inkwell/internal/auth/domain"
	"github.com/inkwell/inkwell/internal/auth/store"
	"github.com/inkwell/inkwell/internal/auth/store/drivers/sqlite"
	"github.com/inkwell/inkwell/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newUser(login, email string) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		Login:        login,
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
		IsConfirmed:  true,
	}
}

func TestUsersRepo(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	alice := newUser("alice", "alice@example.com")
	require.NoError(t, st.Users().Create(ctx, alice))

	t.Run("lookup by id, login and email", func(t *testing.T) {
		got, err := st.Users().GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "alice", got.Login)

		got, err = st.Users().GetByLoginOrEmail(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)

		got, err = st.Users().GetByLoginOrEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)
	})

	t.Run("unknown user maps to ErrNotFound", func(t *testing.T) {
		_, err := st.Users().GetByLoginOrEmail(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("duplicate login maps to ErrAlreadyExists", func(t *testing.T) {
		dup := newUser("alice", "other@example.com")
		require.ErrorIs(t, st.Users().Create(ctx, dup), store.ErrAlreadyExists)

		dup = newUser("other", "alice@example.com")
		require.ErrorIs(t, st.Users().Create(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("confirm is single-use", func(t *testing.T) {
		code := "confirm-code"
		expires := time.Now().UTC().Add(time.Hour)
		bob := newUser("bob", "bob@example.com")
		bob.IsConfirmed = false
		bob.ConfirmationCode = &code
		bob.ConfirmationExpiresAt = &expires
		require.NoError(t, st.Users().Create(ctx, bob))

		got, err := st.Users().GetByConfirmationCode(ctx, code)
		require.NoError(t, err)
		require.Equal(t, bob.ID, got.ID)

		require.NoError(t, st.Users().Confirm(ctx, bob.ID))

		got, err = st.Users().GetByID(ctx, bob.ID)
		require.NoError(t, err)
		require.True(t, got.IsConfirmed)
		require.Nil(t, got.ConfirmationCode)

		// second confirm finds no unconfirmed row
		require.ErrorIs(t, st.Users().Confirm(ctx, bob.ID), store.ErrNotFound)
	})

	t.Run("ban state round trips", func(t *testing.T) {
		now := time.Now().UTC()
		reason := "spam"
		require.NoError(t, st.Users().SetBan(ctx, alice.ID, domain.BanInfo{
			IsBanned: true, BanDate: &now, BanReason: &reason,
		}))

		got, err := st.Users().GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.True(t, got.Ban.IsBanned)
		require.Equal(t, "spam", *got.Ban.BanReason)

		require.NoError(t, st.Users().SetBan(ctx, alice.ID, domain.BanInfo{}))
		got, err = st.Users().GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.False(t, got.Ban.IsBanned)
		require.Nil(t, got.Ban.BanReason)
	})

	t.Run("password update clears recovery code", func(t *testing.T) {
		require.NoError(t, st.Users().SetRecoveryCode(ctx, alice.ID, "rec-code", time.Now().UTC().Add(time.Hour)))

		got, err := st.Users().GetByRecoveryCode(ctx, "rec-code")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)

		require.NoError(t, st.Users().UpdatePasswordHash(ctx, alice.ID, "new-hash"))

		_, err = st.Users().GetByRecoveryCode(ctx, "rec-code")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestSessionsRepo(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	alice := newUser("alice", "alice@example.com")
	carol := newUser("carol", "carol@example.com")
	require.NoError(t, st.Users().Create(ctx, alice))
	require.NoError(t, st.Users().Create(ctx, carol))

	now := time.Now().UTC().Truncate(time.Second)
	session := func(userID, deviceID string) domain.DeviceSession {
		return domain.DeviceSession{
			DeviceID:   deviceID,
			UserID:     userID,
			IssuedAt:   now,
			ExpiresAt:  now.Add(20 * time.Minute),
			IP:         "1.1.1.1",
			DeviceName: "chrome",
		}
	}

	require.NoError(t, st.Sessions().Create(ctx, session(alice.ID, "dev1")))
	require.NoError(t, st.Sessions().Create(ctx, session(alice.ID, "dev2")))
	require.NoError(t, st.Sessions().Create(ctx, session(carol.ID, "dev1")))

	t.Run("get by composite key", func(t *testing.T) {
		got, err := st.Sessions().Get(ctx, alice.ID, "dev1")
		require.NoError(t, err)
		require.Equal(t, now.Unix(), got.IssuedAt.Unix())
	})

	t.Run("create replaces an existing row for the same device", func(t *testing.T) {
		again := session(alice.ID, "dev1")
		again.IP = "5.5.5.5"
		require.NoError(t, st.Sessions().Create(ctx, again))

		got, err := st.Sessions().Get(ctx, alice.ID, "dev1")
		require.NoError(t, err)
		require.Equal(t, "5.5.5.5", got.IP)

		// restore the original row for the subtests below
		require.NoError(t, st.Sessions().Create(ctx, session(alice.ID, "dev1")))
	})

	t.Run("get by bare device id", func(t *testing.T) {
		got, err := st.Sessions().GetByDeviceID(ctx, "dev2")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.UserID)

		_, err = st.Sessions().GetByDeviceID(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete expired sweeps only dead rows", func(t *testing.T) {
		stale := session(alice.ID, "old-device")
		stale.ExpiresAt = now.Add(-time.Minute)
		require.NoError(t, st.Sessions().Create(ctx, stale))

		n, err := st.Sessions().DeleteExpired(ctx, now)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		_, err = st.Sessions().Get(ctx, alice.ID, "old-device")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = st.Sessions().Get(ctx, alice.ID, "dev1")
		require.NoError(t, err)
	})

	t.Run("update overwrites in place", func(t *testing.T) {
		rotated := session(alice.ID, "dev1")
		rotated.IssuedAt = now.Add(time.Minute)
		rotated.IP = "1.1.1.2"
		rotated.DeviceName = "firefox"
		require.NoError(t, st.Sessions().Update(ctx, rotated))

		got, err := st.Sessions().Get(ctx, alice.ID, "dev1")
		require.NoError(t, err)
		require.Equal(t, "1.1.1.2", got.IP)
		require.Equal(t, "firefox", got.DeviceName)
		require.Equal(t, rotated.IssuedAt.Unix(), got.IssuedAt.Unix())
	})

	t.Run("update of absent row maps to ErrNotFound", func(t *testing.T) {
		stale := session(alice.ID, "missing")
		require.ErrorIs(t, st.Sessions().Update(ctx, stale), store.ErrNotFound)
	})

	t.Run("delete others keeps caller and foreign sessions", func(t *testing.T) {
		n, err := st.Sessions().DeleteOthers(ctx, alice.ID, "dev1")
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		_, err = st.Sessions().Get(ctx, alice.ID, "dev2")
		require.ErrorIs(t, err, store.ErrNotFound)

		// carol's session with the same device id is untouched
		_, err = st.Sessions().Get(ctx, carol.ID, "dev1")
		require.NoError(t, err)
	})

	t.Run("delete reports not found for absent row", func(t *testing.T) {
		require.NoError(t, st.Sessions().Delete(ctx, alice.ID, "dev1"))
		require.ErrorIs(t, st.Sessions().Delete(ctx, alice.ID, "dev1"), store.ErrNotFound)
	})

	t.Run("deleting a user cascades to sessions", func(t *testing.T) {
		require.NoError(t, st.Users().Delete(ctx, carol.ID))
		sessions, err := st.Sessions().ListByUser(ctx, carol.ID)
		require.NoError(t, err)
		require.Empty(t, sessions)
	})
}

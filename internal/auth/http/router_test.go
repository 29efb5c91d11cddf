package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	authhttp "github.com/inkwell/inkwell/internal/auth/http"
	"github.com/inkwell/inkwell/internal/auth/service"
	"github.com/inkwell/inkwell/internal/auth/store/drivers/sqlite"
	"github.com/inkwell/inkwell/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router      *authhttp.Router
	credentials *service.CredentialService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	codec, err := jwtx.NewCodec(jwtx.Config{Secret: "test-secret", Issuer: "inkwell-test"})
	require.NoError(t, err)

	credentials := &service.CredentialService{Store: st, Mailer: service.LogMailer{}}

	r := authhttp.NewRouter("test", st, slog.Default())
	r.Credentials = credentials
	r.Sessions = &service.SessionService{Store: st, Codec: codec}
	r.Authority = &service.AuthorityService{Store: st, Codec: codec}
	r.AdminLogin = "admin"
	r.AdminPassword = "qwerty"
	r.ApplyRoutes()

	return &testServer{router: r, credentials: credentials}
}

// do performs a request against the router. Each call can carry its own
// client ip so the per-IP limiter never trips across unrelated subtests.
func (s *testServer) do(t *testing.T, method, path, ip string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Forwarded-For", ip)
	req.Header.Set("User-Agent", "test-agent")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == authhttp.RefreshCookieName {
			return c
		}
	}
	t.Fatal("no refresh cookie in response")
	return nil
}

// registerAndConfirm walks an account through the public endpoints.
func (s *testServer) registerAndConfirm(t *testing.T, login, email, password, ip string) {
	t.Helper()

	rec := s.do(t, "POST", "/v1/auth/registration", ip, map[string]string{
		"login": login, "email": email, "password": password,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	user, err := s.credentials.Store.Users().GetByEmail(t.Context(), email)
	require.NoError(t, err)
	require.NotNil(t, user.ConfirmationCode)

	rec = s.do(t, "POST", "/v1/auth/registration-confirmation", ip, map[string]string{
		"code": *user.ConfirmationCode,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLoginFlow(t *testing.T) {
	srv := newTestServer(t)
	srv.registerAndConfirm(t, "alice", "alice@example.com", "pw123456", "9.0.0.1")

	t.Run("wrong password is a generic 401", func(t *testing.T) {
		rec := srv.do(t, "POST", "/v1/auth/login", "9.0.0.2", map[string]string{
			"loginOrEmail": "alice", "password": "wrong",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("login returns access token and refresh cookie", func(t *testing.T) {
		rec := srv.do(t, "POST", "/v1/auth/login", "9.0.0.3", map[string]string{
			"loginOrEmail": "alice", "password": "pw123456",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			AccessToken string `json:"accessToken"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotEmpty(t, body.AccessToken)

		cookie := refreshCookie(t, rec)
		require.True(t, cookie.HttpOnly)
		require.True(t, cookie.Secure)
		require.NotEmpty(t, cookie.Value)

		// The access token opens /me.
		req := httptest.NewRequest("GET", "/v1/auth/me", nil)
		req.Header.Set("X-Forwarded-For", "9.0.0.3")
		req.Header.Set("Authorization", "Bearer "+body.AccessToken)
		meRec := httptest.NewRecorder()
		srv.router.ServeHTTP(meRec, req)
		require.Equal(t, http.StatusOK, meRec.Code)

		var me struct {
			Login string `json:"login"`
		}
		require.NoError(t, json.Unmarshal(meRec.Body.Bytes(), &me))
		require.Equal(t, "alice", me.Login)
	})

	t.Run("me without a token is 401", func(t *testing.T) {
		rec := srv.do(t, "GET", "/v1/auth/me", "9.0.0.4", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRefreshAndLogout(t *testing.T) {
	srv := newTestServer(t)
	srv.registerAndConfirm(t, "bob", "bob@example.com", "pw123456", "9.0.1.1")

	login := srv.do(t, "POST", "/v1/auth/login", "9.0.1.2", map[string]string{
		"loginOrEmail": "bob", "password": "pw123456",
	})
	require.Equal(t, http.StatusOK, login.Code)
	cookie := refreshCookie(t, login)

	t.Run("refresh rotates the cookie", func(t *testing.T) {
		rec := srv.do(t, "POST", "/v1/auth/refresh-token", "9.0.1.3", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		rotated := refreshCookie(t, rec)
		require.NotEmpty(t, rotated.Value)
		cookie = rotated
	})

	t.Run("refresh without a cookie is 401", func(t *testing.T) {
		rec := srv.do(t, "POST", "/v1/auth/refresh-token", "9.0.1.4", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("logout kills the session", func(t *testing.T) {
		rec := srv.do(t, "POST", "/v1/auth/logout", "9.0.1.5", nil, cookie)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = srv.do(t, "POST", "/v1/auth/refresh-token", "9.0.1.6", nil, cookie)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestDeviceManagement(t *testing.T) {
	srv := newTestServer(t)
	srv.registerAndConfirm(t, "carol", "carol@example.com", "pw123456", "9.0.2.1")
	srv.registerAndConfirm(t, "dan", "dan@example.com", "pw123456", "9.0.2.2")

	loginAs := func(login, ip string) *http.Cookie {
		rec := srv.do(t, "POST", "/v1/auth/login", ip, map[string]string{
			"loginOrEmail": login, "password": "pw123456",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		return refreshCookie(t, rec)
	}

	carolA := loginAs("carol", "9.0.2.3")
	_ = loginAs("carol", "9.0.2.4")
	danCookie := loginAs("dan", "9.0.2.5")

	listDevices := func(cookie *http.Cookie) []map[string]any {
		rec := srv.do(t, "GET", "/v1/security/devices", "9.0.2.6", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		var devices []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &devices))
		return devices
	}

	t.Run("lists one entry per device", func(t *testing.T) {
		require.Len(t, listDevices(carolA), 2)
		require.Len(t, listDevices(danCookie), 1)
	})

	t.Run("terminating someone else's device is 403", func(t *testing.T) {
		danDevice := listDevices(danCookie)[0]["deviceId"].(string)

		rec := srv.do(t, "DELETE", "/v1/security/devices/"+danDevice, "9.0.2.7", nil, carolA)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown device is 404", func(t *testing.T) {
		rec := srv.do(t, "DELETE", "/v1/security/devices/no-such-device", "9.0.2.8", nil, carolA)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("terminate others keeps only the caller", func(t *testing.T) {
		rec := srv.do(t, "DELETE", "/v1/security/devices", "9.0.2.9", nil, carolA)
		require.Equal(t, http.StatusNoContent, rec.Code)

		require.Len(t, listDevices(carolA), 1)
		require.Len(t, listDevices(danCookie), 1)
	})

	t.Run("devices endpoint without a cookie is 401", func(t *testing.T) {
		rec := srv.do(t, "GET", "/v1/security/devices", "9.0.2.10", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, "GET", "/livez", "9.0.3.1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, "GET", "/readyz", "9.0.3.2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminBan(t *testing.T) {
	srv := newTestServer(t)
	srv.registerAndConfirm(t, "erin", "erin@example.com", "pw123456", "9.0.4.1")

	user, err := srv.credentials.Store.Users().GetByEmail(t.Context(), "erin@example.com")
	require.NoError(t, err)
	banPath := "/v1/sa/users/" + user.ID + "/ban"

	doAdmin := func(t *testing.T, login, password, path, ip string, body any) *httptest.ResponseRecorder {
		t.Helper()
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest("PUT", path, bytes.NewReader(buf))
		req.Header.Set("X-Forwarded-For", ip)
		req.SetBasicAuth(login, password)
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)
		return rec
	}

	login := func(t *testing.T, ip string) *httptest.ResponseRecorder {
		t.Helper()
		return srv.do(t, "POST", "/v1/auth/login", ip, map[string]string{
			"loginOrEmail": "erin", "password": "pw123456",
		})
	}

	rec := login(t, "9.0.4.2")
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := refreshCookie(t, rec)

	t.Run("wrong admin credentials are refused", func(t *testing.T) {
		req := httptest.NewRequest("PUT", banPath, nil)
		req.Header.Set("X-Forwarded-For", "9.0.4.3")
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = doAdmin(t, "admin", "guess", banPath, "9.0.4.4", map[string]any{
			"isBanned": true, "banReason": "spam in the comment section",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ban requires a reason", func(t *testing.T) {
		rec := doAdmin(t, "admin", "qwerty", banPath, "9.0.4.5", map[string]any{
			"isBanned": true,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ban locks out login and live sessions", func(t *testing.T) {
		rec := doAdmin(t, "admin", "qwerty", banPath, "9.0.4.6", map[string]any{
			"isBanned": true, "banReason": "spam in the comment section",
		})
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = login(t, "9.0.4.7")
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = srv.do(t, "POST", "/v1/auth/refresh-token", "9.0.4.8", nil, cookie)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unban restores login", func(t *testing.T) {
		rec := doAdmin(t, "admin", "qwerty", banPath, "9.0.4.9", map[string]any{
			"isBanned": false,
		})
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = login(t, "9.0.4.10")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown user is 404", func(t *testing.T) {
		rec := doAdmin(t, "admin", "qwerty", "/v1/sa/users/nope/ban", "9.0.4.11", map[string]any{
			"isBanned": true, "banReason": "spam in the comment section",
		})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

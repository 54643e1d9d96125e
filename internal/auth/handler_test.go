package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/osmacan/weather-api/internal/config"
	"github.com/osmacan/weather-api/internal/token"
	"github.com/osmacan/weather-api/internal/user"
)

type apiFixture struct {
	repo      *fakeUserRepo
	blacklist *token.Blacklist
	server    *httptest.Server
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := zap.NewNop()

	repo := newFakeUserRepo()
	tokens := token.NewService(logger, &config.JWTConfig{
		Secret: []byte("test-secret"),
		Issuer: "osma-weather-api",
		TTL:    24 * time.Hour,
	})
	blacklist := token.NewBlacklist(logger)
	verifier := NewCredentialVerifier(repo, logger)
	throttle := NewThrottle(&config.ThrottleConfig{
		MaxAttempts:   5,
		LockoutWindow: 15 * time.Minute,
	}, logger)
	svc := NewService(repo, verifier, throttle, tokens, logger)
	mw := NewMiddleware(tokens, blacklist, logger)
	handler := NewHandler(svc, blacklist, mw, logger)

	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)

	return &apiFixture{repo: repo, blacklist: blacklist, server: srv}
}

func (f *apiFixture) do(t *testing.T, method, path, bearer string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func (f *apiFixture) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token     string `json:"token"`
		ExpiresIn int64  `json:"expiresIn"`
	}
	decodeInto(t, resp, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func TestEndToEnd_RegisterLoginVerifyLogout(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/register", "", map[string]string{
		"firstname": "Alice",
		"lastname":  "Smith",
		"email":     "alice@example.com",
		"city":      "Berlin",
		"password":  "Passw0rdX",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	tok := f.login(t, "alice@example.com", "Passw0rdX")

	resp = f.do(t, http.MethodGet, "/verify", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var verify struct {
		Valid bool `json:"valid"`
		User  struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	decodeInto(t, resp, &verify)
	assert.True(t, verify.Valid)
	assert.Equal(t, "alice@example.com", verify.User.Email)
	assert.Equal(t, "user", verify.User.Role)

	resp = f.do(t, http.MethodPost, "/logout", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// same token is rejected once revoked
	resp = f.do(t, http.MethodGet, "/verify", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_MissingFields(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	resp := f.do(t, http.MethodPost, "/login", "", map[string]string{"email": "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	f.repo.addUser(t, "alice@example.com", "Passw0rdX", user.RoleUser)

	resp := f.do(t, http.MethodPost, "/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_LockedOutReturns429(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	f.repo.addUser(t, "alice@example.com", "Passw0rdX", user.RoleUser)

	for i := 0; i < 5; i++ {
		resp := f.do(t, http.MethodPost, "/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp := f.do(t, http.MethodPost, "/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "Passw0rdX",
	})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	body := map[string]string{
		"firstname": "Alice",
		"lastname":  "Smith",
		"email":     "alice@example.com",
		"city":      "Berlin",
		"password":  "Passw0rdX",
	}

	resp := f.do(t, http.MethodPost, "/register", "", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/register", "", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestProfile_ReflectsClaims(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	f.repo.addUser(t, "admin@example.com", "Passw0rdX", user.RoleAdmin)
	tok := f.login(t, "admin@example.com", "Passw0rdX")

	resp := f.do(t, http.MethodGet, "/profile", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		User struct {
			UserID string `json:"userId"`
			Email  string `json:"email"`
			Role   string `json:"role"`
		} `json:"user"`
		TokenValid bool `json:"tokenValid"`
	}
	decodeInto(t, resp, &body)
	assert.True(t, body.TokenValid)
	assert.Equal(t, "admin@example.com", body.User.Email)
	assert.Equal(t, "admin", body.User.Role)
	assert.NotEmpty(t, body.User.UserID)
}

func TestLogoutAll_RevokesPresentedToken(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	f.repo.addUser(t, "alice@example.com", "Passw0rdX", user.RoleUser)
	tok := f.login(t, "alice@example.com", "Passw0rdX")

	resp := f.do(t, http.MethodPost, "/logout-all", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/profile", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBlacklistStats_AdminOnly(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	f.repo.addUser(t, "alice@example.com", "Passw0rdX", user.RoleUser)
	f.repo.addUser(t, "admin@example.com", "Passw0rdX", user.RoleAdmin)

	userTok := f.login(t, "alice@example.com", "Passw0rdX")
	resp := f.do(t, http.MethodGet, "/blacklist-stats", userTok, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	adminTok := f.login(t, "admin@example.com", "Passw0rdX")
	resp = f.do(t, http.MethodGet, "/blacklist-stats", adminTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		TotalEntries int `json:"totalEntries"`
	}
	decodeInto(t, resp, &stats)
	assert.GreaterOrEqual(t, stats.TotalEntries, 0)
}

func TestProtectedRoutes_WithoutToken(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodPost, "/logout"},
		{http.MethodPost, "/logout-all"},
		{http.MethodGet, "/profile"},
		{http.MethodGet, "/verify"},
		{http.MethodGet, "/blacklist-stats"},
	} {
		resp := f.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

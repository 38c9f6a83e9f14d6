package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shafisadique/school-project-sub003/client"
	"github.com/shafisadique/school-project-sub003/client/session"
	"github.com/shafisadique/school-project-sub003/core/auth"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// statusServer answers every request with status and records the Authorization headers it got.
type statusServer struct {
	*httptest.Server
	mu     sync.Mutex
	status int
	body   string
	auth   map[string]string
}

func newStatusServer(t *testing.T, status int, body string) *statusServer {
	s := &statusServer{status: status, body: body, auth: make(map[string]string)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.auth[r.URL.Path] = r.Header.Get("Authorization")
		status, body := s.status, s.body
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *statusServer) respond(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status, s.body = status, body
}

func (s *statusServer) authHeader(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auth[path]
}

func adminSession() session.Session {
	return session.Session{Token: "abc", Role: auth.RoleAdmin, TenantID: "school-1", UserID: "u-1"}
}

func TestTransport_token(t *testing.T) {
	srv := newStatusServer(t, http.StatusOK, `{"success":true,"message":"ok"}`)
	f := newClient(t, srv.URL, nil)
	ctx := context.Background()

	require.NoError(t, f.client.AdminPing(ctx))
	assert.Empty(t, srv.authHeader("/v1/admin/ping"), "anonymous requests carry no token")

	require.NoError(t, f.store.Set(adminSession()))
	require.NoError(t, f.client.AdminPing(ctx))
	assert.Equal(t, "Bearer abc", srv.authHeader("/v1/admin/ping"))

	_, err := f.client.ForgotPassword(ctx, "tom@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", srv.authHeader("/v1/auth/forgot-password"))

	// login calls never send the current token
	srv.respond(http.StatusOK, `{"token":"def","role":"teacher","tenantId":"school-1","userId":"u-2","expiresAt":1772355600}`)
	s, err := f.client.Login(ctx, "tom", "pwd")
	require.NoError(t, err)
	assert.Empty(t, srv.authHeader("/v1/auth/login"))
	assert.Equal(t, "def", s.Token)
	assert.Equal(t, auth.RoleTeacher, s.Role)
	assert.Equal(t, int64(1772355600), s.ExpiresAt.Unix())
}

func TestTransport_rejectedSession(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		call          func(ctx context.Context, c *client.Client) error
		wantLoggedOut bool
	}{
		{
			name:          "unauthorized",
			status:        http.StatusUnauthorized,
			call:          func(ctx context.Context, c *client.Client) error { return c.AdminPing(ctx) },
			wantLoggedOut: true,
		},
		{
			name:          "forbidden",
			status:        http.StatusForbidden,
			call:          func(ctx context.Context, c *client.Client) error { return c.AdminPing(ctx) },
			wantLoggedOut: true,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			call:   func(ctx context.Context, c *client.Client) error { return c.AdminPing(ctx) },
		},
		{
			name:   "validation error",
			status: http.StatusBadRequest,
			call: func(ctx context.Context, c *client.Client) error {
				_, err := c.ForgotPassword(ctx, "")
				return err
			},
		},
		{
			name:   "failed login",
			status: http.StatusUnauthorized,
			call: func(ctx context.Context, c *client.Client) error {
				_, err := c.Login(ctx, "ada", "wrong")
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newStatusServer(t, tt.status, `{"success":false,"message":"nope"}`)
			f := newClient(t, srv.URL, nil)
			require.NoError(t, f.store.Set(adminSession()))

			err := tt.call(context.Background(), f.client)
			var apiErr *client.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, "nope", apiErr.Message)
			assert.False(t, client.IsNetworkFailure(err))

			if tt.wantLoggedOut {
				assert.False(t, f.store.IsLoggedIn())
				assert.Equal(t, []string{"/dashboard"}, f.nav.redirects)
				assert.Equal(t, []client.Notice{{Level: client.NoticeWarning, Message: client.SessionExpiredNotice}}, f.notices.All())
			} else {
				assert.True(t, f.store.IsLoggedIn())
				assert.Empty(t, f.nav.redirects)
				assert.Empty(t, f.notices.All())
			}
		})
	}
}

func TestTransport_networkFailure(t *testing.T) {
	refused := errors.New("connection refused")
	f := newClient(t, "http://api.invalid", roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, refused
	}))
	require.NoError(t, f.store.Set(adminSession()))

	err := f.client.AdminPing(context.Background())
	require.Error(t, err)
	assert.True(t, client.IsNetworkFailure(err))
	assert.False(t, client.IsUnauthorized(err))
	assert.True(t, errors.Is(err, refused))

	assert.True(t, f.store.IsLoggedIn(), "no response is not a rejected session")
	assert.Empty(t, f.nav.redirects)
	assert.Empty(t, f.notices.All())
}

func TestClient_apiError(t *testing.T) {
	srv := newStatusServer(t, http.StatusBadRequest,
		`{"success":false,"message":"invalid data","errors":{"email":"email is a required field"}}`)
	f := newClient(t, srv.URL, nil)

	_, err := f.client.ForgotPassword(context.Background(), "")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, &client.APIError{
		Status:  http.StatusBadRequest,
		Message: "invalid data",
		Errors:  map[string]string{"email": "email is a required field"},
	}, apiErr)

	// no JSON body: the status text stands in
	srv.respond(http.StatusBadGateway, "<html>bad gateway</html>")
	_, err = f.client.ForgotPassword(context.Background(), "tom@example.com")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestNew(t *testing.T) {
	_, err := client.New(client.Options{BaseURL: "http://localhost"})
	assert.EqualError(t, err, "a session store is required")
}

func TestTransport_basePath(t *testing.T) {
	srv := newStatusServer(t, http.StatusUnauthorized, `{"success":false,"message":"invalid credentials"}`)
	f := newClient(t, srv.URL+"/api", nil)
	require.NoError(t, f.store.Set(adminSession()))
	ctx := context.Background()

	_, err := f.client.Login(ctx, "ada", "wrong")
	assert.True(t, client.IsUnauthorized(err))
	assert.Empty(t, srv.authHeader("/api/v1/auth/login"), "login calls never send the current token")
	assert.True(t, f.store.IsLoggedIn(), "a failed login is not a rejected session")
	assert.Empty(t, f.nav.redirects)

	_, err = f.client.SuperadminLogin(ctx, "root@example.com", "wrong", "key", "fp")
	assert.True(t, client.IsUnauthorized(err))
	assert.Empty(t, srv.authHeader("/api/v1/superadmin/login"))
	assert.True(t, f.store.IsLoggedIn())

	// refresh is authenticated, even though it answers with a new session
	_, err = f.client.RefreshToken(ctx)
	assert.True(t, client.IsUnauthorized(err))
	assert.Equal(t, "Bearer abc", srv.authHeader("/api/v1/auth/token-refresh"))
	assert.False(t, f.store.IsLoggedIn())
	assert.Equal(t, []string{"/dashboard"}, f.nav.redirects)
}

func TestTransport_anonymousContext(t *testing.T) {
	srv := newStatusServer(t, http.StatusForbidden, `{"success":false,"message":"permission denied"}`)
	store, err := session.NewStore(nil)
	require.NoError(t, err)
	require.NoError(t, store.Set(adminSession()))
	nav := &fakeNavigator{current: "/dashboard"}
	httpClient := &http.Client{Transport: &client.Transport{Store: store, Navigator: nav}}

	req, err := http.NewRequestWithContext(client.Anonymous(context.Background()), http.MethodGet, srv.URL+"/custom/login", nil)
	require.NoError(t, err)
	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, srv.authHeader("/custom/login"))
	assert.True(t, store.IsLoggedIn())
	assert.Empty(t, nav.redirects)
}

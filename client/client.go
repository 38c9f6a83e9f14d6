// Package client is the Go SDK of the API: login/logout, password reset and the calls
// the client-side router needs, with session handling done by Transport.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	echoapi "github.com/shafisadique/school-project-sub003/apps/api/echo"
	"github.com/shafisadique/school-project-sub003/client/session"
	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/user"
)

type Options struct {
	BaseURL   string
	Store     *session.Store
	Navigator Navigator
	Notifier  Notifier
	Logger    core.Logger
	Base      http.RoundTripper // underlying transport
	Timeout   time.Duration
}

type Client struct {
	baseURL *url.URL
	store   *session.Store
	http    *http.Client
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing base URL")
	}
	if opts.Store == nil {
		return nil, errors.New("a session store is required")
	}
	return &Client{
		baseURL: base,
		store:   opts.Store,
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &Transport{
				Base:      opts.Base,
				Store:     opts.Store,
				Navigator: opts.Navigator,
				Notifier:  opts.Notifier,
				Logger:    opts.Logger,
			},
		},
	}, nil
}

func (c *Client) Store() *session.Store { return c.store }

// Login authenticates a school account and stores its session.
func (c *Client) Login(ctx context.Context, identifier, password string) (session.Session, error) {
	return c.login(Anonymous(ctx), "/v1/auth/login", echoapi.LoginRequest{Identifier: identifier, Password: password}, nil)
}

// SuperadminLogin authenticates a superadmin. masterKey & deviceFp are the superadmin gate headers.
func (c *Client) SuperadminLogin(ctx context.Context, email, password, masterKey, deviceFp string) (session.Session, error) {
	headers := http.Header{}
	headers.Set("X-Master-Key", masterKey)
	headers.Set("X-Device-Fp", deviceFp)
	return c.login(Anonymous(ctx), "/v1/superadmin/login", echoapi.SuperadminLoginRequest{Email: email, Password: password}, headers)
}

func (c *Client) login(ctx context.Context, path string, body interface{}, headers http.Header) (session.Session, error) {
	var resp echoapi.TokenResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp, headers); err != nil {
		return session.Session{}, err
	}
	s := session.Session{
		Token:     resp.Token,
		Role:      resp.Role,
		TenantID:  resp.TenantID,
		UserID:    resp.UserID,
		ExpiresAt: time.Unix(resp.ExpiresAt, 0).UTC(),
	}
	if err := c.store.Set(s); err != nil {
		return session.Session{}, err
	}
	return s, nil
}

// Logout drops the session. Tokens are stateless: there is nothing to tell the server,
// and requests already in flight finish with the token they were sent with.
func (c *Client) Logout() error {
	return c.store.Clear()
}

// ForgotPassword asks for a reset link. The answer is the same whether or not the account exists.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var resp echoapi.SuccessResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/forgot-password", echoapi.ForgotPasswordRequest{Email: email}, &resp, nil); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ResetPassword redeems the token received by email.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) (string, error) {
	data := user.ResetPassword{Token: token, NewPassword: newPassword, ConfirmPassword: confirmPassword}
	var resp echoapi.SuccessResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/reset-password", data, &resp, nil); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// RefreshToken re-issues the current session while the refresh window allows it.
func (c *Client) RefreshToken(ctx context.Context) (session.Session, error) {
	return c.login(ctx, "/v1/auth/token-refresh", nil, nil)
}

func (c *Client) Me(ctx context.Context) (user.User, error) {
	var usr user.User
	err := c.do(ctx, http.MethodGet, "/v1/auth/me", nil, &usr, nil)
	return usr, err
}

// AdminPing succeeds for admins only.
func (c *Client) AdminPing(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/admin/ping", nil, nil, nil)
}

// Feature reports whether the current school is entitled to feature.
func (c *Client) Feature(ctx context.Context, feature string) (bool, error) {
	var resp echoapi.FeatureResponse
	if err := c.do(ctx, http.MethodGet, "/v1/schools/current/features/"+url.PathEscape(feature), nil, &resp, nil); err != nil {
		return false, err
	}
	return resp.Enabled, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, headers http.Header) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var netErr *NetworkError
		if errors.As(err, &netErr) {
			return netErr
		}
		return &NetworkError{Method: method, URL: req.URL.String(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		var errResp echoapi.ErrorResponse
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Message != "" {
			apiErr.Message = errResp.Message
			apiErr.Errors = errResp.Errors
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	return nil
}

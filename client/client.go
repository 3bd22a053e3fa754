// Package client is a Go client for the task manager API. It keeps the
// caller's session and transparently refreshes it when the server rejects
// an expired access token.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	taskdomain "github.com/Rishi-0007/tm-assignment/domain/task"
	domain "github.com/Rishi-0007/tm-assignment/domain/user"
)

// DefaultTimeout bounds each HTTP round trip of the default transport.
const DefaultTimeout = 30 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport used for all requests.
func WithHTTPClient(hc Doer) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// Client talks to the task manager API on behalf of one session.
type Client struct {
	baseURL string
	http    Doer
	authed  Doer
	session *Session
}

// New creates a Client for the server at baseURL.
func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		session: session,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.authed = Authenticated(c.http, session, c)
	return c
}

// Session returns the session the client acts for.
func (c *Client) Session() *Session {
	return c.session
}

type credentials struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}

// Register creates an account and returns its id. It does not log in.
func (c *Client) Register(ctx context.Context, email, password string, name *string) (string, error) {
	var resp struct {
		Message string `json:"message"`
		UserID  string `json:"userId"`
	}
	err := c.do(ctx, c.http, http.MethodPost, "/auth/register", credentials{
		Email:    email,
		Password: password,
		Name:     name,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.UserID, nil
}

// Login authenticates and starts the session with the returned pair.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	var res domain.LoginResult
	err := c.do(ctx, c.http, http.MethodPost, "/auth/login", credentials{
		Email:    email,
		Password: password,
	}, &res)
	if err != nil {
		return nil, err
	}
	if err := c.session.Begin(ctx, res.TokenPair); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return &res, nil
}

// Refresh exchanges refreshToken for a new pair. It does not touch the
// session; the request pipeline uses it as its Refresher.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	var pair domain.TokenPair
	err := c.do(ctx, c.http, http.MethodPost, "/auth/refresh", map[string]string{
		"refreshToken": refreshToken,
	}, &pair)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// Logout revokes the session on the server and then clears it locally.
// The local session is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	var serverErr error
	if c.session.State() == LoggedIn {
		serverErr = c.do(ctx, c.authed, http.MethodPost, "/auth/logout", nil, nil)
		if errors.Is(serverErr, ErrSessionExpired) {
			serverErr = nil
		}
	}
	return errors.Join(serverErr, c.session.End(ctx))
}

// Me returns the caller's profile.
func (c *Client) Me(ctx context.Context) (*domain.Public, error) {
	var user domain.Public
	if err := c.do(ctx, c.authed, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListTasks returns one page of the caller's tasks.
func (c *Client) ListTasks(ctx context.Context, filter taskdomain.Filter) (*taskdomain.Page, error) {
	query := url.Values{}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}

	path := "/tasks"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page taskdomain.Page
	if err := c.do(ctx, c.authed, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateTask adds a task.
func (c *Client) CreateTask(ctx context.Context, draft taskdomain.Draft) (*taskdomain.Task, error) {
	var created taskdomain.Task
	if err := c.do(ctx, c.authed, http.MethodPost, "/tasks", draft, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetTask fetches one task.
func (c *Client) GetTask(ctx context.Context, id string) (*taskdomain.Task, error) {
	var found taskdomain.Task
	if err := c.do(ctx, c.authed, http.MethodGet, taskPath(id), nil, &found); err != nil {
		return nil, err
	}
	return &found, nil
}

// UpdateTask applies patch to a task.
func (c *Client) UpdateTask(ctx context.Context, id string, patch taskdomain.Patch) (*taskdomain.Task, error) {
	var updated taskdomain.Task
	if err := c.do(ctx, c.authed, http.MethodPatch, taskPath(id), patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ToggleTask flips a task between pending and completed.
func (c *Client) ToggleTask(ctx context.Context, id string) (*taskdomain.Task, error) {
	var toggled taskdomain.Task
	if err := c.do(ctx, c.authed, http.MethodPatch, taskPath(id)+"/toggle", nil, &toggled); err != nil {
		return nil, err
	}
	return &toggled, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, c.authed, http.MethodDelete, taskPath(id), nil, nil)
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

// do sends a JSON request through doer and decodes a JSON reply into out.
func (c *Client) do(ctx context.Context, doer Doer, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := doer.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

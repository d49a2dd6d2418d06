// Package client is a Go client for the task tracker REST API together with
// the small amount of local state the command-line shell keeps between runs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/TaskTracker/internal/models"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client calls the API on behalf of one session. It is not safe for
// concurrent use while the token is being changed.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a Client for baseURL. A nil hc uses a client with a 30s timeout.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Token returns the current session token, or "" when logged out.
func (c *Client) Token() string { return c.token }

// SetToken resumes a saved session.
func (c *Client) SetToken(token string) { c.token = token }

type sessionResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Register creates an account and keeps its first session token.
func (c *Client) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	var resp sessionResponse
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/users", body, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp.User, nil
}

// Login opens a new session and keeps its token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp sessionResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/users/login", body, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp.User, nil
}

// Logout revokes the current token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/users/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// LogoutAll revokes every token of the account, including the current one.
func (c *Client) LogoutAll(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/users/logoutAll", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// Me returns the caller's profile.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateMe changes the caller's profile.
func (c *Client) UpdateMe(ctx context.Context, patch models.UserPatch) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPatch, "/users/me", patch, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteMe deletes the account and all of its tasks.
func (c *Client) DeleteMe(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodDelete, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	c.token = ""
	return &u, nil
}

// CreateTask adds a task.
func (c *Client) CreateTask(ctx context.Context, in models.NewTask) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListOptions are the query parameters of a task listing.
type ListOptions struct {
	Completed *bool
	// SortBy is "field" or "field:asc|desc".
	SortBy string
	Limit  int
	Skip   int
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	if o.Completed != nil {
		v.Set("completed", strconv.FormatBool(*o.Completed))
	}
	if o.SortBy != "" {
		v.Set("sortBy", o.SortBy)
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Skip > 0 {
		v.Set("skip", strconv.Itoa(o.Skip))
	}
	return v
}

// ListTasks returns the caller's tasks.
func (c *Client) ListTasks(ctx context.Context, opts ListOptions) ([]models.Task, error) {
	path := "/tasks"
	if q := opts.values().Encode(); q != "" {
		path += "?" + q
	}
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns one task.
func (c *Client) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask applies patch to a task.
func (c *Client) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(id), patch, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTask removes a task and returns it.
func (c *Client) DeleteTask(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

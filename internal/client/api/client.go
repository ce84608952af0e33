// Package api is a typed HTTP client for the task manager server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"github.com/atinyakov/taskmanager/internal/models"
)

// Error is a non-2xx response from the server.
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return fmt.Sprintf("%d: %s (%s)", e.Status, e.Message, strings.Join(parts, "; "))
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Client talks to one server on behalf of one session.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Token is sent as the bearer token when set.
	Token string
}

// New returns a Client for baseURL using httpClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient}
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{Status: resp.StatusCode}
		var payload struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil {
			apiErr.Message, apiErr.Fields = payload.Error, payload.Fields
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if b, ok := out.(*[]byte); ok {
		*b, err = io.ReadAll(resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	if in == nil {
		return c.do(ctx, method, path, "", nil, out)
	}
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, method, path, "application/json", bytes.NewReader(b), out)
}

// Register creates an account and stores the returned token on c.
func (c *Client) Register(ctx context.Context, r models.Registration) (*AuthResult, error) {
	var res AuthResult
	if err := c.doJSON(ctx, http.MethodPost, "/user/create", r, &res); err != nil {
		return nil, err
	}
	c.Token = res.Token
	return &res, nil
}

// Login authenticates and stores the returned token on c.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var res AuthResult
	in := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/user/login", in, &res); err != nil {
		return nil, err
	}
	c.Token = res.Token
	return &res, nil
}

// Logout revokes the current token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/user/logout", nil, nil); err != nil {
		return err
	}
	c.Token = ""
	return nil
}

// LogoutAll revokes every token of the account.
func (c *Client) LogoutAll(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/user/logoutAll", nil, nil); err != nil {
		return err
	}
	c.Token = ""
	return nil
}

// Profile returns the current user.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodGet, "/user/profile", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Users lists every registered user.
func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.doJSON(ctx, http.MethodGet, "/user/all", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateProfile sends a partial profile update.
func (c *Client) UpdateProfile(ctx context.Context, fields map[string]any) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodPatch, "/user/update", fields, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteAccount removes the account and every task it owns.
func (c *Client) DeleteAccount(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.doJSON(ctx, http.MethodDelete, "/user/delete", nil, &u); err != nil {
		return nil, err
	}
	c.Token = ""
	return &u, nil
}

// UploadAvatar uploads the image at filename with content data.
func (c *Client) UploadAvatar(ctx context.Context, filename string, data []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("avatar", filepath.Base(filename))
	if err != nil {
		return err
	}
	if _, err := fw.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/user/profile/avatar", mw.FormDataContentType(), &buf, nil)
}

// DeleteAvatar removes the current user's avatar.
func (c *Client) DeleteAvatar(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/user/profile/avatar", nil, nil)
}

// Avatar downloads the PNG avatar of the user with id.
func (c *Client) Avatar(ctx context.Context, id string) ([]byte, error) {
	var png []byte
	if err := c.do(ctx, http.MethodGet, "/user/profile/avatar?id="+url.QueryEscape(id), "", nil, &png); err != nil {
		return nil, err
	}
	return png, nil
}

// CreateTask adds a task.
func (c *Client) CreateTask(ctx context.Context, nt models.NewTask) (*models.Task, error) {
	var t models.Task
	if err := c.doJSON(ctx, http.MethodPost, "/task/create", nt, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTasks lists tasks; q carries completed, limit, skip and sortBy.
func (c *Client) ListTasks(ctx context.Context, q url.Values) ([]models.Task, error) {
	path := "/task/all"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var tasks []models.Task
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask fetches a single task.
func (c *Client) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := c.doJSON(ctx, http.MethodGet, "/task/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask sends a partial task update.
func (c *Client) UpdateTask(ctx context.Context, id string, fields map[string]any) (*models.Task, error) {
	var t models.Task
	if err := c.doJSON(ctx, http.MethodPatch, "/task/"+url.PathEscape(id), fields, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTask removes a task and returns it.
func (c *Client) DeleteTask(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := c.doJSON(ctx, http.MethodDelete, "/task/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

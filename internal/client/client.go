package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"taskhub/internal/model"
)

// APIError is a failed API call, carrying the server's status and message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

// loginData is the data payload of login and refresh responses.
type loginData struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// Client talks to the task service API. It holds the current token pair and
// transparently refreshes the access token once when a request comes back
// 401, matching the single-retry behavior of the web frontend.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	accessToken  string
	refreshToken string
}

// New creates a client for the API rooted at baseURL (e.g.
// "http://localhost:4000/api/v1").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// LoggedIn reports whether the client holds an access token.
func (c *Client) LoggedIn() bool {
	return c.accessToken != ""
}

// Register creates a new account. It does not log in.
func (c *Client) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var user model.User
	if err := c.do(ctx, http.MethodPost, "/users/register", body, &user, false); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates with a username or email and stores the token pair.
func (c *Client) Login(ctx context.Context, identifier, password string) (*model.User, error) {
	body := map[string]string{"username": identifier, "password": password}
	var data loginData
	if err := c.do(ctx, http.MethodPost, "/users/login", body, &data, false); err != nil {
		return nil, err
	}
	c.accessToken = data.AccessToken
	c.refreshToken = data.RefreshToken
	return data.User, nil
}

// Logout ends the session server-side and drops the local tokens.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/users/logout", nil, nil, true)
	c.accessToken = ""
	c.refreshToken = ""
	return err
}

// Refresh rotates the token pair using the stored refresh token.
func (c *Client) Refresh(ctx context.Context) error {
	body := map[string]string{"refreshToken": c.refreshToken}
	var data loginData
	if err := c.do(ctx, http.MethodPost, "/users/refresh-token", body, &data, false); err != nil {
		c.accessToken = ""
		c.refreshToken = ""
		return err
	}
	c.accessToken = data.AccessToken
	c.refreshToken = data.RefreshToken
	return nil
}

// ChangePassword replaces the current user's password.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	body := map[string]string{"oldPassword": oldPassword, "newPassword": newPassword}
	return c.do(ctx, http.MethodPost, "/users/change-password", body, nil, true)
}

// Me fetches the current user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &user, true); err != nil {
		return nil, err
	}
	return &user, nil
}

// Tasks lists the caller's tasks.
func (c *Client) Tasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/", nil, &tasks, true); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask creates a task and returns the server-confirmed row.
func (c *Client) CreateTask(ctx context.Context, title, description, deadline string) (*model.Task, error) {
	body := map[string]string{"title": title}
	if description != "" {
		body["description"] = description
	}
	if deadline != "" {
		body["deadline"] = deadline
	}
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/tasks/", body, &task, true); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask applies a partial update; only non-nil fields are sent.
func (c *Client) UpdateTask(ctx context.Context, id string, title, description, deadline *string, isCompleted *bool) (*model.Task, error) {
	body := map[string]interface{}{}
	if title != nil {
		body["title"] = *title
	}
	if description != nil {
		body["description"] = *description
	}
	if deadline != nil {
		body["deadline"] = *deadline
	}
	if isCompleted != nil {
		body["isCompleted"] = *isCompleted
	}
	var task model.Task
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+id, body, &task, true); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task and returns the deleted row.
func (c *Client) DeleteTask(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodDelete, "/tasks/"+id, nil, &task, true); err != nil {
		return nil, err
	}
	return &task, nil
}

// ToggleTask flips a task's completed flag.
func (c *Client) ToggleTask(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/tasks/"+id, nil, &task, true); err != nil {
		return nil, err
	}
	return &task, nil
}

// do runs one request/response cycle. When authed is set and the server
// answers 401, the client refreshes the token pair once and retries.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, authed bool) error {
	env, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}

	if env.StatusCode == http.StatusUnauthorized && authed && c.refreshToken != "" {
		if err := c.Refresh(ctx); err != nil {
			return err
		}
		env, err = c.send(ctx, method, path, body)
		if err != nil {
			return err
		}
	}

	if !env.Success {
		return &APIError{StatusCode: env.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}) (*envelope, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if env.StatusCode == 0 {
		env.StatusCode = resp.StatusCode
	}
	return &env, nil
}

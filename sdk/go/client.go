package tasklinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Taskline HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// User represents the signed-in identity.
type User struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Session is a user plus the bearer token issued for it.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Task represents the API task model.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"dueDate"`
	DueLabel    string `json:"dueLabel,omitempty"`
	Time        string `json:"time"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}

// TaskList partitions tasks by status.
type TaskList struct {
	Open     []Task `json:"open"`
	Complete []Task `json:"complete"`
	Total    int    `json:"total"`
}

// Calendar is a month grid plus per-date task counts.
type Calendar struct {
	Year   int            `json:"year"`
	Month  int            `json:"month"`
	Cells  []int          `json:"cells"`
	Counts map[string]int `json:"counts"`
}

// Profile represents the stored user profile.
type Profile struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	CreatedAt string `json:"createdAt"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// SignIn authenticates and stores the returned token on the client.
func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	body := map[string]any{"email": email, "password": password}
	var resp Session
	if err := c.do(ctx, http.MethodPost, "v1/auth/signin", body, &resp); err != nil {
		return Session{}, err
	}
	c.BearerToken = resp.Token
	return resp, nil
}

// SignUp registers, signs in, and stores the returned token on the client.
func (c *Client) SignUp(ctx context.Context, fullName, email, password string) (Session, error) {
	body := map[string]any{"fullName": fullName, "email": email, "password": password}
	var resp Session
	if err := c.do(ctx, http.MethodPost, "v1/auth/signup", body, &resp); err != nil {
		return Session{}, err
	}
	c.BearerToken = resp.Token
	return resp, nil
}

// SignOut clears the stored session server-side and drops the local token.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "v1/auth/signout", nil, nil); err != nil {
		return err
	}
	c.BearerToken = ""
	return nil
}

// Me returns the current user.
func (c *Client) Me(ctx context.Context) (User, error) {
	var resp User
	err := c.do(ctx, http.MethodGet, "v1/me", nil, &resp)
	return resp, err
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, title, description, dueDate, at string) (Task, error) {
	body := map[string]any{
		"title":       title,
		"description": description,
		"dueDate":     dueDate,
		"time":        at,
	}
	var resp Task
	err := c.do(ctx, http.MethodPost, "v1/tasks", body, &resp)
	return resp, err
}

// Tasks lists tasks, optionally filtered by title search and due date.
func (c *Client) Tasks(ctx context.Context, query, date string) (TaskList, error) {
	endpoint := "v1/tasks"
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	if date != "" {
		params.Set("date", date)
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	var resp TaskList
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Task fetches a task by id.
func (c *Client) Task(ctx context.Context, id string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodGet, "v1/tasks/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// ToggleTask flips a task between open and complete.
func (c *Client) ToggleTask(ctx context.Context, id string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("v1/tasks/%s/toggle", url.PathEscape(id)), nil, &resp)
	return resp, err
}

// DeleteTask removes a task. Unknown ids succeed.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "v1/tasks/"+url.PathEscape(id), nil, nil)
}

// CalendarMonth returns the month grid and per-date counts.
func (c *Client) CalendarMonth(ctx context.Context, year, month int) (Calendar, error) {
	var resp Calendar
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("v1/views/calendar/%d/%d", year, month), nil, &resp)
	return resp, err
}

// Profile returns the stored user profile.
func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var resp Profile
	err := c.do(ctx, http.MethodGet, "v1/profile", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}

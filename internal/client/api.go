// Package client drives the task API the way the task list page does: a
// modal form for create and edit, toasts for outcomes and bulk deletion.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gurkanbulca/tasklist/pkg/envelope"
)

const csrfHeader = "X-CSRF-TOKEN"

// APIError is a non-2xx response. Envelope is nil when the body was not JSON.
type APIError struct {
	Status   int
	Envelope *envelope.Raw
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, strings.Join(e.Messages(), " "))
}

// Messages returns the lines to show the user.
func (e *APIError) Messages() []string {
	if e.Envelope != nil {
		if lines := e.Envelope.Messages(); len(lines) > 0 {
			return lines
		}
	}
	return []string{http.StatusText(e.Status)}
}

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Task struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	DueDate     string `json:"due_date"`
	Creator     *User  `json:"creator,omitempty"`
	Assignee    *User  `json:"assignee,omitempty"`
	// URL is only set on show/edit responses.
	URL string `json:"url,omitempty"`
}

type Page struct {
	Page     int `json:"page"`
	PerPage  int `json:"per_page"`
	Total    int `json:"total"`
	LastPage int `json:"last_page"`
}

type ListQuery struct {
	Status     string
	SearchName string
	Page       int
	PerPage    int
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.SearchName != "" {
		v.Set("searchName", q.SearchName)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	return v
}

// APIClient sends every request with the bearer token and CSRF token the
// page would read from its metadata.
type APIClient struct {
	baseURL    *url.URL
	token      string
	csrfToken  string
	httpClient *http.Client
}

// NewAPIClient creates a client for the API at baseURL. httpClient may be nil.
func NewAPIClient(baseURL, token, csrfToken string, httpClient *http.Client) (*APIClient, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &APIClient{
		baseURL:    base,
		token:      token,
		csrfToken:  csrfToken,
		httpClient: httpClient,
	}, nil
}

// SetCSRFToken replaces the token sent in X-CSRF-TOKEN. Call it before the
// client is shared.
func (c *APIClient) SetCSRFToken(token string) {
	c.csrfToken = token
}

// URL resolves a path against the base URL. Absolute URLs are returned as is.
func (c *APIClient) URL(target string) (string, error) {
	ref, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", target, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	// Relative to the base path, not the host root.
	ref.Path = strings.TrimLeft(ref.Path, "/")
	return c.baseURL.ResolveReference(ref).String(), nil
}

// Do sends form as a urlencoded body, or as the query string for GET.
func (c *APIClient) Do(ctx context.Context, method, target string, form url.Values) (*envelope.Raw, error) {
	endpoint, err := c.URL(target)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if len(form) > 0 {
		if method == http.MethodGet {
			endpoint += "?" + form.Encode()
		} else {
			body = strings.NewReader(form.Encode())
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.csrfToken != "" {
		req.Header.Set(csrfHeader, c.csrfToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	var raw envelope.Raw
	decodeErr := json.NewDecoder(resp.Body).Decode(&raw)

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Envelope = &raw
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	return &raw, nil
}

func (c *APIClient) List(ctx context.Context, q ListQuery) ([]Task, Page, error) {
	raw, err := c.Do(ctx, http.MethodGet, "tasks", q.values())
	if err != nil {
		return nil, Page{}, err
	}

	var tasks []Task
	if err := raw.DecodeData(&tasks); err != nil {
		return nil, Page{}, fmt.Errorf("decode tasks: %w", err)
	}
	var page Page
	if len(raw.Meta) > 0 {
		if err := json.Unmarshal(raw.Meta, &page); err != nil {
			return nil, Page{}, fmt.Errorf("decode meta: %w", err)
		}
	}
	return tasks, page, nil
}

// Get returns the task as the edit form sees it, URL included.
func (c *APIClient) Get(ctx context.Context, id string) (*Task, error) {
	raw, err := c.Do(ctx, http.MethodGet, "tasks/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeTask(raw)
}

func (c *APIClient) Create(ctx context.Context, form Form) (*Task, string, error) {
	return c.mutate(ctx, http.MethodPost, "tasks", form.Values())
}

func (c *APIClient) Update(ctx context.Context, id string, form Form) (*Task, string, error) {
	return c.mutate(ctx, http.MethodPut, "tasks/"+url.PathEscape(id), form.Values())
}

func (c *APIClient) ChangeStatus(ctx context.Context, id, status string) (*Task, string, error) {
	return c.mutate(ctx, http.MethodPatch, "tasks/"+url.PathEscape(id)+"/status", url.Values{"status": {status}})
}

func (c *APIClient) ChangeDueDate(ctx context.Context, id, dueDate string) (*Task, string, error) {
	return c.mutate(ctx, http.MethodPatch, "tasks/"+url.PathEscape(id)+"/due-date", url.Values{"due_date": {dueDate}})
}

// Delete removes the given tasks and returns the server message.
func (c *APIClient) Delete(ctx context.Context, ids ...string) (string, error) {
	raw, err := c.Do(ctx, http.MethodDelete, "tasks", url.Values{"ids": ids})
	if err != nil {
		return "", err
	}
	msg, _ := raw.Text()
	return msg, nil
}

// CSRFToken fetches the token bound to the authenticated user.
func (c *APIClient) CSRFToken(ctx context.Context) (string, error) {
	raw, err := c.Do(ctx, http.MethodGet, "csrf-token", nil)
	if err != nil {
		return "", err
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := raw.DecodeData(&data); err != nil {
		return "", fmt.Errorf("decode csrf token: %w", err)
	}
	return data.Token, nil
}

func (c *APIClient) mutate(ctx context.Context, method, target string, form url.Values) (*Task, string, error) {
	raw, err := c.Do(ctx, method, target, form)
	if err != nil {
		return nil, "", err
	}
	task, err := decodeTask(raw)
	if err != nil {
		return nil, "", err
	}
	msg, _ := raw.Text()
	return task, msg, nil
}

func decodeTask(raw *envelope.Raw) (*Task, error) {
	var task Task
	if err := raw.DecodeData(&task); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	return &task, nil
}

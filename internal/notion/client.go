// Package notion is the record store adapter. It translates task operations
// into Notion API calls and maps the store's property trees into canonical
// task.Task values. No other package sees the wire shapes.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"taskpilot/internal/task"
)

const notionVersion = "2022-06-28"

// StoreError reports a transport or API failure from the backing store.
// Status is the HTTP status code, zero when the request never completed.
type StoreError struct {
	Status  int
	Message string
}

func (e *StoreError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("notion: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("notion: %s", e.Message)
}

// Config holds connection settings for the Notion client.
type Config struct {
	APIKey     string
	DatabaseID string
	BaseURL    string
	Timeout    time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(apiKey, databaseID string) Config {
	return Config{
		APIKey:     apiKey,
		DatabaseID: databaseID,
		BaseURL:    "https://api.notion.com/v1",
		Timeout:    30 * time.Second,
	}
}

// Client talks to the Notion API. Every call is a single round trip: no
// caching, no batching, no retries — failures surface to the caller.
type Client struct {
	apiKey     string
	baseURL    string
	databaseID string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a client with default settings.
func NewClient(apiKey, databaseID string, log *zap.Logger) *Client {
	return NewClientWithConfig(DefaultConfig(apiKey, databaseID), log)
}

// NewClientWithConfig creates a client with custom settings.
func NewClientWithConfig(config Config, log *zap.Logger) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.notion.com/v1"
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		apiKey:     config.APIKey,
		baseURL:    baseURL,
		databaseID: config.DatabaseID,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do issues one request and decodes the response into out. Non-2xx responses
// become StoreError with the API's own message when one is present.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &StoreError{Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &StoreError{Message: fmt.Sprintf("failed to read response: %v", err)}
	}

	c.log.Debug("notion request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		msg := string(data)
		if err := json.Unmarshal(data, &ae); err == nil && ae.Message != "" {
			msg = ae.Message
		}
		return &StoreError{Status: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &StoreError{Status: resp.StatusCode, Message: fmt.Sprintf("failed to parse response: %v", err)}
		}
	}
	return nil
}

func (c *Client) query(ctx context.Context, filter *propertyFilter) ([]page, error) {
	var resp queryResponse
	path := fmt.Sprintf("/databases/%s/query", c.databaseID)
	if err := c.do(ctx, http.MethodPost, path, queryRequest{Filter: filter}, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// ListPending returns all non-archived tasks whose status is not Done, in
// store order.
func (c *Client) ListPending(ctx context.Context) ([]task.Task, error) {
	pages, err := c.query(ctx, &propertyFilter{
		Property: "Status",
		Select:   &selectFilter{DoesNotEqual: string(task.StatusDone)},
	})
	if err != nil {
		return nil, err
	}
	tasks := make([]task.Task, 0, len(pages))
	for i := range pages {
		if pages[i].Archived {
			continue
		}
		tasks = append(tasks, *pageToTask(&pages[i]))
	}
	return tasks, nil
}

// FindByName returns the first task whose title contains name, in store
// order. First match wins; ambiguity is not resolved. Returns nil when
// nothing matches.
func (c *Client) FindByName(ctx context.Context, name string) (*task.Task, error) {
	pages, err := c.query(ctx, &propertyFilter{
		Property: "Name",
		Title:    &textFilter{Contains: name},
	})
	if err != nil {
		return nil, err
	}
	for i := range pages {
		if pages[i].Archived {
			continue
		}
		return pageToTask(&pages[i]), nil
	}
	return nil, nil
}

// FindByNumericID returns the task with the given unique_id number, or nil.
func (c *Client) FindByNumericID(ctx context.Context, n int) (*task.Task, error) {
	pages, err := c.query(ctx, &propertyFilter{
		Property: "ID",
		UniqueID: &uniqueIDFilter{Equals: n},
	})
	if err != nil {
		return nil, err
	}
	for i := range pages {
		if pages[i].Archived {
			continue
		}
		return pageToTask(&pages[i]), nil
	}
	return nil, nil
}

// FetchByID retrieves one task by page ID. Returns nil when the page does
// not exist or has been archived.
func (c *Client) FetchByID(ctx context.Context, id string) (*task.Task, error) {
	var p page
	err := c.do(ctx, http.MethodGet, "/pages/"+id, nil, &p)
	if err != nil {
		var se *StoreError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if p.Archived {
		return nil, nil
	}
	return pageToTask(&p), nil
}

// Create inserts a new task. Blank draft fields fall back to the defaults:
// "Untitled Task", Pending, Medium.
func (c *Client) Create(ctx context.Context, draft task.Draft) (*task.Task, error) {
	if draft.Title == "" {
		draft.Title = task.DefaultTitle
	}
	if draft.Status == "" {
		draft.Status = task.DefaultStatus
	}
	if draft.Priority == "" {
		draft.Priority = task.DefaultPriority
	}

	props := map[string]any{
		"Name":     titleProperty{Title: []richText{{Text: &textContent{Content: draft.Title}}}},
		"Status":   selectProperty{Select: &selectOption{Name: string(draft.Status)}},
		"Priority": selectProperty{Select: &selectOption{Name: string(draft.Priority)}},
	}
	if draft.Description != "" {
		props["Description"] = richTextProperty{RichText: []richText{{Text: &textContent{Content: draft.Description}}}}
	}
	if draft.DueDate != nil {
		props["Due Date"] = dateProperty{Date: &dateValue{Start: draft.DueDate.String()}}
	}

	body := createRequest{
		Parent:     parent{DatabaseID: c.databaseID},
		Properties: props,
	}
	var p page
	if err := c.do(ctx, http.MethodPost, "/pages", body, &p); err != nil {
		return nil, err
	}
	return pageToTask(&p), nil
}

// Update patches only the properties present in fields and returns the
// post-update task. ClearDueDate sends an explicit null date.
func (c *Client) Update(ctx context.Context, id string, fields task.Fields) (*task.Task, error) {
	props := updateProperties(fields)
	var p page
	if err := c.do(ctx, http.MethodPatch, "/pages/"+id, updateRequest{Properties: props}, &p); err != nil {
		return nil, err
	}
	return pageToTask(&p), nil
}

// Archive soft-deletes the task. Archiving an already-archived task succeeds.
func (c *Client) Archive(ctx context.Context, id string) error {
	archived := true
	return c.do(ctx, http.MethodPatch, "/pages/"+id, updateRequest{Archived: &archived}, nil)
}

package queue

import (
	"bytes"
	stdcontext "context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"remi/internal/logger"
	"remi/internal/retry"
)

const (
	// defaultRequestTimeout is the default timeout for queue API requests.
	defaultRequestTimeout = 15 * time.Second
	// requestMaxRetries is the maximum number of attempts for transient failures.
	requestMaxRetries = 3
)

// ClientConfig contains configuration for the queue REST client.
type ClientConfig struct {
	BaseURL        string `json:"base_url"`        // Queue API base URL
	Project        string `json:"project"`         // Project identifier
	Location       string `json:"location"`        // Queue location
	Queue          string `json:"queue"`           // Queue name
	AuthToken      string `json:"auth_token"`      // Bearer token for the queue API
	TimeoutSeconds int    `json:"timeout_seconds"` // Timeout for HTTP requests in seconds
}

// Client implements Dispatcher against a Cloud Tasks-style REST API.
type Client struct {
	client *http.Client
	config ClientConfig
	parent string // projects/{p}/locations/{l}/queues/{q}
	logger *logger.Logger
}

// createTaskRequest is the task creation payload.
type createTaskRequest struct {
	Task taskResource `json:"task"`
}

// taskResource represents a task in the queue API format.
type taskResource struct {
	Name         string       `json:"name,omitempty"`         // Fully qualified task name
	HTTPRequest  *httpRequest `json:"httpRequest,omitempty"`  // Callback to deliver
	ScheduleTime string       `json:"scheduleTime,omitempty"` // RFC3339 fire time
}

// httpRequest describes the callback the queue performs when the task fires.
type httpRequest struct {
	HTTPMethod string            `json:"httpMethod"`
	URL        string            `json:"url"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body,omitempty"` // base64-encoded
}

// apiError represents an error response from the queue API.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewClient creates a queue REST client.
func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		config: cfg,
		parent: fmt.Sprintf("projects/%s/locations/%s/queues/%s",
			cfg.Project, cfg.Location, cfg.Queue),
		logger: log,
	}
}

// Enqueue registers a task with the queue. Named tasks collide with live or
// recently completed tasks of the same name; that surfaces as ErrAlreadyExists.
func (c *Client) Enqueue(ctx stdcontext.Context, task Task) (string, error) {
	req := createTaskRequest{
		Task: taskResource{
			HTTPRequest: &httpRequest{
				HTTPMethod: http.MethodPost,
				URL:        task.URL,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       base64.StdEncoding.EncodeToString(task.Payload),
			},
			ScheduleTime: task.ScheduleAt.UTC().Format(time.RFC3339),
		},
	}
	if task.Name != "" {
		req.Task.Name = c.taskPath(task.Name)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task: %w", err)
	}

	url := fmt.Sprintf("%s/v2/%s/tasks", strings.TrimRight(c.config.BaseURL, "/"), c.parent)

	var created taskResource
	err = retry.Do(ctx, func() error {
		resp, reqErr := c.doRequest(ctx, http.MethodPost, url, body)
		if reqErr != nil {
			return reqErr
		}
		return json.Unmarshal(resp, &created)
	}, retry.Config{MaxAttempts: requestMaxRetries})

	if err != nil {
		if isAlreadyExists(err) {
			return "", ErrAlreadyExists
		}
		return "", fmt.Errorf("failed to create task: %w", err)
	}

	c.logger.DebugCtx(ctx, "task enqueued",
		logger.Field{Key: "task_name", Value: created.Name},
		logger.Field{Key: "schedule_time", Value: req.Task.ScheduleTime})

	return created.Name, nil
}

// Delete removes a named task. A task that already fired or was never
// created is treated as deleted.
func (c *Client) Delete(ctx stdcontext.Context, name string) error {
	url := fmt.Sprintf("%s/v2/%s", strings.TrimRight(c.config.BaseURL, "/"), c.taskPath(name))

	err := retry.Do(ctx, func() error {
		_, reqErr := c.doRequest(ctx, http.MethodDelete, url, nil)
		return reqErr
	}, retry.Config{MaxAttempts: requestMaxRetries})

	if err != nil {
		if isStatus(err, http.StatusNotFound, "NOT_FOUND") {
			c.logger.DebugCtx(ctx, "task already gone",
				logger.Field{Key: "task_name", Value: name})
			return nil
		}
		return fmt.Errorf("failed to delete task %s: %w", name, err)
	}

	return nil
}

// doRequest executes a single HTTP request against the queue API.
func (c *Client) doRequest(ctx stdcontext.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.AuthToken != "" {
		httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.config.AuthToken))
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.ErrorCtx(ctx, "failed to execute queue API request", err,
			logger.Field{Key: "method", Value: method},
			logger.Field{Key: "url", Value: url})
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &retry.HTTPError{
			StatusCode: httpResp.StatusCode,
			Body:       string(respBody),
		}
	}

	return respBody, nil
}

// taskPath returns the fully qualified task name for a short name.
func (c *Client) taskPath(name string) string {
	return fmt.Sprintf("%s/tasks/%s", c.parent, name)
}

// isAlreadyExists reports whether the error is a named-task collision.
func isAlreadyExists(err error) bool {
	return isStatus(err, http.StatusConflict, "ALREADY_EXISTS")
}

// isStatus reports whether err wraps an HTTPError with the given status
// code, or whose body carries the canonical status string for it.
func isStatus(err error, code int, status string) bool {
	var httpErr *retry.HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.StatusCode == code || strings.Contains(httpErr.Body, status)
}

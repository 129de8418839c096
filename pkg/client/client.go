// Package client is a Go SDK for the SQL Detective Game API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// Client is a Go SDK for the game API. The underlying HTTP client carries a
// cookie jar so the server-assigned player identity persists across calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new game API client
func NewClient(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// QueryResult is one query execution outcome
type QueryResult struct {
	Columns     []string    `json:"columns"`
	Rows        [][]any     `json:"rows"`
	RowCount    int         `json:"row_count"`
	ExecutionMS float64     `json:"execution_time"`
	Truncated   bool        `json:"truncated"`
	Error       *QueryError `json:"error,omitempty"`
}

// QueryError is a classified execution failure
type QueryError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validation is the outcome of a dry validation call
type Validation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// Verdict is the correctness decision for one check attempt
type Verdict struct {
	Correct    bool         `json:"correct"`
	Message    string       `json:"message"`
	Issue      string       `json:"issue,omitempty"`
	Hints      []string     `json:"hints,omitempty"`
	UserResult *QueryResult `json:"user_result,omitempty"`
	NextLevel  *int         `json:"next_level,omitempty"`
}

// Progress is the player's game state
type Progress struct {
	PlayerID        string         `json:"player_id"`
	CurrentLevel    int            `json:"current_level"`
	CompletedLevels []int          `json:"completed_levels"`
	Attempts        map[string]int `json:"attempts"`
	TotalQueries    int            `json:"total_queries"`
	CorrectAnswers  int            `json:"correct_answers"`
}

// CheckResult pairs the verdict with the resulting progress
type CheckResult struct {
	Verdict  *Verdict  `json:"verdict"`
	Progress *Progress `json:"progress"`
}

// Level is the client-safe view of one case
type Level struct {
	ID             int      `json:"id"`
	Title          string   `json:"title"`
	Story          string   `json:"story"`
	Objective      string   `json:"objective"`
	Hint           string   `json:"hint"`
	SQLConcepts    []string `json:"sql_concepts"`
	TablesUnlocked []string `json:"tables_unlocked"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type checkRequest struct {
	LevelID int    `json:"level_id"`
	Query   string `json:"query"`
}

// Validate screens a query without executing it
func (c *Client) Validate(ctx context.Context, query string) (*Validation, error) {
	var out Validation
	if err := c.post(ctx, "/api/v1/query/validate", queryRequest{Query: query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Execute runs a query in the investigation console
func (c *Client) Execute(ctx context.Context, query string) (*QueryResult, error) {
	var out QueryResult
	if err := c.post(ctx, "/api/v1/query/execute", queryRequest{Query: query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Check submits a query as the answer to a level
func (c *Client) Check(ctx context.Context, levelID int, query string) (*CheckResult, error) {
	var out CheckResult
	if err := c.post(ctx, "/api/v1/query/check", checkRequest{LevelID: levelID, Query: query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BlockedKeywords returns the server's SQL denylist
func (c *Client) BlockedKeywords(ctx context.Context) ([]string, error) {
	var out struct {
		Keywords []string `json:"keywords"`
		Total    int      `json:"total"`
	}
	if err := c.get(ctx, "/api/v1/query/blocked-keywords", &out); err != nil {
		return nil, err
	}
	return out.Keywords, nil
}

// Levels retrieves all case summaries
func (c *Client) Levels(ctx context.Context) ([]*Level, error) {
	var out struct {
		Levels []*Level `json:"levels"`
		Total  int      `json:"total"`
	}
	if err := c.get(ctx, "/api/v1/game/levels", &out); err != nil {
		return nil, err
	}
	return out.Levels, nil
}

// Level retrieves one case, if the player has unlocked it
func (c *Client) Level(ctx context.Context, id int) (*Level, error) {
	var out Level
	if err := c.get(ctx, fmt.Sprintf("/api/v1/game/levels/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Progress retrieves the player's game state
func (c *Client) Progress(ctx context.Context) (*Progress, error) {
	var out Progress
	if err := c.get(ctx, "/api/v1/game/progress", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetProgress restarts the investigation from the first case
func (c *Client) ResetProgress(ctx context.Context) (*Progress, error) {
	var out Progress
	if err := c.post(ctx, "/api/v1/game/progress/reset", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, "GET", "/health", nil)
	return err
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return err
	}
	return decodeEnvelope(resp, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	resp, err := c.doRequest(ctx, "POST", path, reader)
	if err != nil {
		return err
	}
	return decodeEnvelope(resp, out)
}

// decodeEnvelope unwraps the API's success/data/error envelope
func decodeEnvelope(resp []byte, out interface{}) error {
	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		if result.Error != nil {
			return fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
		}
		return fmt.Errorf("API error: request failed")
	}

	if out != nil && len(result.Data) > 0 {
		if err := json.Unmarshal(result.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal response data: %w", err)
		}
	}

	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

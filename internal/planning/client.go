package planning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"erp-planning/internal/core"
)

// submitPath is where make orders are posted on the production-planning service.
const submitPath = "/api/production/planning"

// Client submits make orders to the production-planning service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client with the given base URL and request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type submitResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Submit posts the submission. A non-2xx status or a body with success=false is an error.
func (c *Client) Submit(ctx context.Context, companyID string, submission core.PlanningSubmission) error {
	data, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("production planning marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("production planning request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Company-ID", companyID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("production planning POST %s: %w", submitPath, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("production planning read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("production planning HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var result submitResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("production planning decode: %w", err)
	}
	if result.Success != nil && !*result.Success {
		msg := result.Message
		if msg == "" {
			msg = result.Error
		}
		return fmt.Errorf("production planning rejected orders: %s", msg)
	}
	return nil
}

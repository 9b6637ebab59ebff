package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"ddfmonitor/pkg/api"
)

// MonitorClient handles calls to the monitor's status API.
type MonitorClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewMonitorClient creates a client for the given base URL.
func NewMonitorClient(baseURL string) *MonitorClient {
	return &MonitorClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (c *MonitorClient) get(endpoint string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		msg := string(body)
		var apiErr api.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return resp, nil
}

// GetStatus sends GET /status and returns the latest cycle report.
func (c *MonitorClient) GetStatus() (*api.StatusReport, error) {
	resp, err := c.get("/status")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var report api.StatusReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &report, nil
}

// GetFieldLogs sends GET /fields/{id}/logs and returns the captured output.
func (c *MonitorClient) GetFieldLogs(fieldID, kind string) (string, error) {
	endpoint := fmt.Sprintf("/fields/%s/logs?kind=%s", url.PathEscape(fieldID), url.QueryEscape(kind))
	resp, err := c.get(endpoint)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(body), nil
}

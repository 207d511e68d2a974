package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TranscriberClient is a thin HTTP client for the transcriber API
type TranscriberClient struct {
	baseURL string
	client  *http.Client
}

// NewTranscriberClient creates a new transcriber client
func NewTranscriberClient(baseURL string) *TranscriberClient {
	return &TranscriberClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// GetStatus fetches the current job snapshot from the transcriber
func (c *TranscriberClient) GetStatus() (*StatusResponse, error) {
	resp, err := c.client.Get(c.baseURL + "/api/status")
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &status, nil
}

// StartJob submits a URL for transcription
func (c *TranscriberClient) StartJob(url string) error {
	body, _ := json.Marshal(map[string]string{"url": url})
	resp, err := c.client.Post(c.baseURL+"/api/jobs", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to start job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(data))
	}
	return nil
}

// Reset cancels the current job
func (c *TranscriberClient) Reset() error {
	resp, err := c.client.Post(c.baseURL+"/api/jobs/reset", "application/json", bytes.NewReader([]byte("{}")))
	if err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}
	defer resp.Body.Close()
	return nil
}

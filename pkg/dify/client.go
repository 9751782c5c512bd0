package dify

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a typed wrapper for the Dify workflow API. One workflow key per
// client; the workflow itself is selected by the API key.
type Client struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	// streamClient carries no timeout so long workflow streams are not cut
	// off mid-run. Cancellation comes from the request context.
	streamClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
		streamClient: &http.Client{},
	}
}

type workflowRequest struct {
	Inputs       map[string]string `json:"inputs"`
	ResponseMode string            `json:"response_mode"`
	User         string            `json:"user"`
}

func (c *Client) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	url := c.BaseURL + "/workflows/run"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	return req, nil
}

// RunWorkflow executes the workflow in blocking mode and returns the raw
// response body. The workflow output schema is owned by the workflow author,
// so the gateway passes it through untouched.
func (c *Client) RunWorkflow(ctx context.Context, content, user string) (json.RawMessage, error) {
	body, err := json.Marshal(workflowRequest{
		Inputs:       map[string]string{"content": content},
		ResponseMode: "blocking",
		User:         user,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("run workflow: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read workflow response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("run workflow: status %d: %s", resp.StatusCode, string(respBody))
	}
	return json.RawMessage(respBody), nil
}

// RunWorkflowStreaming executes the workflow in streaming mode and forwards
// each SSE data line as-is. The channel closes when the upstream stream ends
// or ctx is cancelled.
func (c *Client) RunWorkflowStreaming(ctx context.Context, content, user string) (<-chan string, error) {
	body, err := json.Marshal(workflowRequest{
		Inputs:       map[string]string{"content": content},
		ResponseMode: "streaming",
		User:         user,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("run workflow stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("run workflow stream: status %d: %s", resp.StatusCode, string(respBody))
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

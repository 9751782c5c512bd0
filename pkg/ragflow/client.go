package ragflow

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

// Client talks to a RAGFlow-style chat assistant. Sessions and completions
// live under /api/v1/chats/{chat_id}; the backend multiplexes session
// creation and question answering on the completions endpoint, distinguished
// only by whether a session id is supplied.
type Client struct {
	BaseURL string
	APIKey  string
	ChatID  string
	Client  *http.Client

	// streamClient carries no total timeout: a streaming completion stays
	// open as long as the backend keeps emitting. Cancellation comes from
	// the request context instead.
	streamClient *http.Client
}

func NewClient(baseURL, apiKey, chatID string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		ChatID:  chatID,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
		streamClient: &http.Client{},
	}
}

func (c *Client) sessionsURL() string {
	return fmt.Sprintf("%s/api/v1/chats/%s/sessions", c.BaseURL, c.ChatID)
}

func (c *Client) completionsURL() string {
	return fmt.Sprintf("%s/api/v1/chats/%s/completions", c.BaseURL, c.ChatID)
}

func (c *Client) newRequest(ctx context.Context, url string, payload interface{}) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	return req, nil
}

// CreateSession opens a new conversation on the backend and returns its id.
func (c *Client) CreateSession(ctx context.Context, name string) (string, error) {
	req, err := c.newRequest(ctx, c.sessionsURL(), sessionCreateRequest{Name: name})
	if err != nil {
		return "", err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("session creation request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &SessionCreationError{StatusCode: resp.StatusCode, Message: string(bodyBytes)}
	}

	var parsed sessionCreateResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return "", &SessionCreationError{StatusCode: resp.StatusCode, Message: "unparseable response body"}
	}
	if parsed.Code != 0 || parsed.Data == nil || parsed.Data.ID == "" {
		return "", &SessionCreationError{StatusCode: resp.StatusCode, Message: parsed.Message}
	}

	return parsed.Data.ID, nil
}

// ProbeSession sends the real question to the completions endpoint without a
// session id, purely to obtain the id the backend mints for it. The answer
// content of this call is discarded; the caller re-asks the same question on
// the new session.
func (c *Client) ProbeSession(ctx context.Context, question string) (string, error) {
	req, err := c.newRequest(ctx, c.completionsURL(), completionRequest{Question: question, Stream: false})
	if err != nil {
		return "", err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("session probe request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &SessionCreationError{StatusCode: resp.StatusCode, Message: string(bodyBytes)}
	}

	// Some deployments frame even this first response as a stream line.
	payload := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(string(bodyBytes)), streamPrefix))

	var parsed probeResponse
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return "", &SessionCreationError{StatusCode: resp.StatusCode, Message: "unparseable probe response"}
	}
	if parsed.Data == nil || parsed.Data.SessionID == "" {
		return "", &SessionCreationError{StatusCode: resp.StatusCode, Message: "probe response carried no session id"}
	}

	return parsed.Data.SessionID, nil
}

// Completion asks a question on an existing session and returns the typed
// answer payload.
func (c *Client) Completion(ctx context.Context, question, sessionID string) (*CompletionData, error) {
	req, err := c.newRequest(ctx, c.completionsURL(), completionRequest{
		Question:  question,
		Stream:    false,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Op: "completion", Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Op: "completion", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Op: "completion", StatusCode: resp.StatusCode, Message: string(bodyBytes)}
	}

	var parsed completionResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, &UpstreamError{Op: "completion", Err: fmt.Errorf("unmarshal response: %w", err)}
	}
	if parsed.Code != 0 || parsed.Data == nil {
		return nil, &UpstreamError{Op: "completion", StatusCode: resp.StatusCode, Message: parsed.Message}
	}

	return parsed.Data, nil
}

// StreamAnswer asks a question on an existing session with stream=true and
// returns a channel of normalized delta lines. The channel is closed after
// the terminal marker. Cancelling ctx releases the upstream subscription; no
// line is parsed after cancellation is observed.
func (c *Client) StreamAnswer(ctx context.Context, question, sessionID string) (<-chan string, error) {
	req, err := c.newRequest(ctx, c.completionsURL(), completionRequest{
		Question:  question,
		Stream:    true,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Op: "stream completion", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &UpstreamError{Op: "stream completion", StatusCode: resp.StatusCode, Message: string(bodyBytes)}
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		normalizer := NewNormalizer()
		scanner := bufio.NewScanner(resp.Body)
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)

		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			delta, ok := normalizer.Next(scanner.Text())
			if !ok {
				continue
			}
			select {
			case out <- delta:
			case <-ctx.Done():
				return
			}
		}

		select {
		case out <- TerminalChunk:
		case <-ctx.Done():
		}
	}()

	return out, nil
}

package keyword

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-affairs-gateway/internal/pkg/logger"
)

// Extractor pulls the single most important keyword out of a question using
// an OpenAI-compatible chat completions endpoint. Extraction is best-effort:
// any transport or shape problem degrades to an empty keyword instead of
// failing the caller's turn. Only context cancellation surfaces as an error.
type Extractor struct {
	BaseURL   string
	APIKey    string
	ModelName string
	Client    *http.Client

	log logger.ILogger
}

func NewExtractor(baseURL, apiKey, modelName string, log logger.ILogger) *Extractor {
	return &Extractor{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

const promptTemplate = "You are a keyword extraction tool. Extract the single most " +
	"important keyword or short phrase from the question below. Return only that " +
	"word or phrase, with no quotes, no JSON, no explanation and nothing else. " +
	"Question: %q"

// --- Request/Response structs (Internal to this package) ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	// No omitempty: the backend must see an explicit temperature of 0.
	Temperature float64 `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ExtractPrimaryKeyword returns the primary keyword of the question, or ""
// when the backend misbehaves in any way.
func (e *Extractor) ExtractPrimaryKeyword(ctx context.Context, question string) (string, error) {
	payload := chatCompletionRequest{
		Model: e.ModelName,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(promptTemplate, question)},
		},
		Temperature: 0,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := e.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		e.log.Warn("keyword", "Keyword extraction request failed", map[string]interface{}{
			"error": err.Error(),
		})
		return "", nil
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		e.log.Warn("keyword", "Failed to read keyword response", map[string]interface{}{
			"error": err.Error(),
		})
		return "", nil
	}

	if resp.StatusCode != http.StatusOK {
		e.log.Warn("keyword", "Keyword backend returned non-success status", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(bodyBytes),
		})
		return "", nil
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil || len(parsed.Choices) == 0 {
		e.log.Warn("keyword", "Keyword response had unexpected shape", map[string]interface{}{
			"body": string(bodyBytes),
		})
		return "", nil
	}

	kw := strings.ReplaceAll(strings.TrimSpace(parsed.Choices[0].Message.Content), `"`, "")
	return kw, nil
}

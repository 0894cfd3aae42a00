// Package llm provides a thin client for a local Ollama instance.
// Both the feature estimator and the set curator talk to the model through
// the single Chat primitive and parse the JSON payload themselves.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mixbooth/internal/config"
)

const defaultBaseURL = "http://localhost:11434"

// Chatter is the planner port the estimator and curator depend on.
// Tests plug in a canned implementation.
type Chatter interface {
	Chat(ctx context.Context, model, system, user string) (string, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FromConfig builds a client from the planner section of the config.
func FromConfig(cfg *config.Config) *Client {
	return NewClient(cfg.Planner.BaseURL, time.Duration(cfg.Planner.TimeoutSeconds)*time.Second)
}

// Chat sends one system+user exchange and returns the raw assistant text.
// Format is pinned to "json" so the model is steered towards parseable output,
// though callers still validate what comes back.
func (c *Client) Chat(ctx context.Context, model, system, user string) (string, error) {
	payload := chatRequest{
		Model:  model,
		Stream: false,
		Format: "json",
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("llm: unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("llm: %s", parsed.Error)
	}

	if strings.TrimSpace(parsed.Message.Content) == "" {
		return "", fmt.Errorf("llm: empty response")
	}

	return parsed.Message.Content, nil
}

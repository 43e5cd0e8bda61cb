// Package completion calls a hosted chat-completion endpoint with the
// Azure OpenAI request shape.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/solobill/solobill/internal/config"
)

const (
	apiVersion  = "2023-05-15"
	temperature = 0.7
	maxTokens   = 2000
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Messages    []message `json:"messages"`
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// StatusError is returned for non-2xx upstream responses so callers
// can tell transport failures apart from parse failures.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion endpoint returned status %d: %s", e.StatusCode, e.Detail)
}

type Client struct {
	endpoint   string
	deployment string
	apiKey     string
	client     *http.Client
}

func New(cfg config.Config) *Client {
	timeout := time.Duration(cfg.Draft.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   cfg.Draft.Endpoint,
		deployment: cfg.Draft.Deployment,
		apiKey:     cfg.Draft.APIKey,
		client:     &http.Client{Timeout: timeout},
	}
}

// Configured reports whether an endpoint and key are set.
func (c *Client) Configured() bool {
	return c.endpoint != "" && c.apiKey != ""
}

// Complete sends one system+user exchange and returns the raw
// assistant content.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	payload := completionRequest{
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Model:       c.deployment,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, c.deployment, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call completion endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &StatusError{StatusCode: resp.StatusCode, Detail: string(bytes.TrimSpace(detail))}
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("completion response has no content")
	}
	return parsed.Choices[0].Message.Content, nil
}

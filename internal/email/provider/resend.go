package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultResendBaseURL = "https://api.resend.com"

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// Resend posts messages to the Resend HTTP API with an owner-supplied
// API key.
type Resend struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type ResendOption func(*Resend)

func WithResendBaseURL(url string) ResendOption {
	return func(r *Resend) { r.baseURL = url }
}

func WithResendHTTPClient(client *http.Client) ResendOption {
	return func(r *Resend) { r.client = client }
}

func NewResend(apiKey string, opts ...ResendOption) *Resend {
	r := &Resend{
		apiKey:  apiKey,
		baseURL: defaultResendBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resend) Name() string { return "resend" }

func (r *Resend) Send(ctx context.Context, msg Message) (string, error) {
	payload := resendRequest{
		From:    formatSender(msg.FromName, msg.FromEmail),
		To:      []string{msg.To},
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("resend API error: status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	var parsed resendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		// Delivery succeeded; a missing id is not worth failing over.
		return "", nil
	}
	return parsed.ID, nil
}

func formatSender(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

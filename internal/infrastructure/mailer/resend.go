package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"IdeaScanner/internal/ports"
)

const defaultResendEndpoint = "https://api.resend.com/emails"

// ResendMailer sends transactional email through the Resend HTTP API.
type ResendMailer struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

var _ ports.Mailer = (*ResendMailer)(nil)

// NewResendMailer registers the API key; endpoint defaults to the public API.
func NewResendMailer(endpoint, apiKey string) *ResendMailer {
	if endpoint == "" {
		endpoint = defaultResendEndpoint
	}
	return &ResendMailer{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Send posts one email and returns the provider message id.
func (m *ResendMailer) Send(ctx context.Context, email ports.Email) (string, error) {
	if m.apiKey == "" {
		return "", fmt.Errorf("resend mailer misconfigured")
	}
	body, err := json.Marshal(resendRequest{
		From:    email.From,
		To:      []string{email.To},
		Subject: email.Subject,
		HTML:    email.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("resend error %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var decoded resendResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode resend response: %w", err)
	}
	return decoded.ID, nil
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"IdeaScanner/internal/domain"
	"IdeaScanner/internal/ports"
)

// Config is the subset of OpenAI settings the client needs.
type Config struct {
	Endpoint            string
	Model               string
	APIKey              string
	AnalyzeTemperature  float64
	GenerateTemperature float64
}

// ChatGPTClient implements ports.IdeaModel backed by OpenAI-compatible APIs in JSON mode.
type ChatGPTClient struct {
	cfg        Config
	httpClient *http.Client
}

var _ ports.IdeaModel = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg Config, httpClient *http.Client) *ChatGPTClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &ChatGPTClient{cfg: cfg, httpClient: httpClient}
}

// AnalyzePainPoints asks the model for pain points across items.
func (c *ChatGPTClient) AnalyzePainPoints(ctx context.Context, items []domain.SourceItem) ([]domain.PainPoint, error) {
	content, err := c.complete(ctx, analyzeSystemPrompt, analysisUserMessage(items), c.cfg.AnalyzeTemperature)
	if err != nil {
		return nil, fmt.Errorf("analyze pain points: %w", err)
	}
	return ParseAnalysis(content)
}

// GenerateConcept asks the model for one product idea.
func (c *ChatGPTClient) GenerateConcept(ctx context.Context, painPoint string) (domain.ConceptDraft, error) {
	user := "Generate a SaaS product idea for this pain point: " + painPoint
	content, err := c.complete(ctx, generateSystemPrompt, user, c.cfg.GenerateTemperature)
	if err != nil {
		return domain.ConceptDraft{}, fmt.Errorf("generate concept: %w", err)
	}
	draft, err := ParseConcept(content)
	if err != nil {
		return domain.ConceptDraft{}, err
	}
	draft.PainPoint = painPoint
	return draft, nil
}

func analysisUserMessage(items []domain.SourceItem) string {
	var b strings.Builder
	b.WriteString("Analyze the following posts and extract pain points. Each post is prefixed with its REDDIT_ID - include these IDs in the source_ids array for each pain point you identify:\n\n")
	for i, it := range items {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		body := it.BodyText()
		if body == "" {
			body = "No content"
		}
		fmt.Fprintf(&b, "[REDDIT_ID: %s]\nTitle: %s\nContent: %s\nSubreddit: %s", it.ExternalID, it.Title, body, it.Topic)
	}
	return b.String()
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *ChatGPTClient) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	if c.cfg.APIKey == "" || c.cfg.Endpoint == "" || c.cfg.Model == "" {
		return "", fmt.Errorf("chatgpt client misconfigured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chatgpt error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("no response content from model")
	}
	return decoded.Choices[0].Message.Content, nil
}

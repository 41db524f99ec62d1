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

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

const defaultOpenRouterURL = "https://openrouter.ai/api/v1"

// OpenRouterClient calls the OpenRouter chat completions API.
type OpenRouterClient struct {
	config     Config
	httpClient *http.Client
}

func NewOpenRouterClient(cfg Config) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenRouterURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &OpenRouterClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message  string                 `json:"message"`
		Code     interface{}            `json:"code"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"error"`
}

func (c *OpenRouterClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.config.Model
	}
	payload := chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: req.Prompt}},
	}
	if req.JSON {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	if c.config.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.config.Referer)
	}
	if c.config.Title != "" {
		httpReq.Header.Set("X-Title", c.config.Title)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", transportError(ctx, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(ctx, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: openrouter status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, snippet(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: failed to decode openrouter response: %v", domain.ErrUpstreamUnavailable, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: openrouter error: %s", domain.ErrUpstreamUnavailable, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: openrouter returned no choices", domain.ErrUpstreamUnavailable)
	}
	return parsed.Choices[0].Message.Content, nil
}

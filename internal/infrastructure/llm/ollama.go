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

const defaultOllamaURL = "http://localhost:11434"

// OllamaClient calls a local Ollama server's non-streaming generate endpoint.
type OllamaClient struct {
	config     Config
	httpClient *http.Client
}

func NewOllamaClient(cfg Config) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOllamaURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &OllamaClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

func (c *OllamaClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.config.Model
	}
	payload := generateRequest{Model: model, Prompt: req.Prompt}
	if req.JSON {
		payload.Format = "json"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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
		return "", fmt.Errorf("%w: ollama status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, snippet(respBody))
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: failed to decode ollama response: %v", domain.ErrUpstreamUnavailable, err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("%w: ollama error: %s", domain.ErrUpstreamUnavailable, parsed.Error)
	}
	return parsed.Response, nil
}

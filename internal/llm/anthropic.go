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

	"github.com/vizor-ai/vizor/internal/apperr"
)

const anthropicVersion = "2023-06-01"

// AnthropicConfig configures the Anthropic messages client.
type AnthropicConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// AnthropicProvider selects tools via the messages tool-use API.
type AnthropicProvider struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewAnthropic creates an Anthropic provider.
func NewAnthropic(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperr.New(apperr.KindProviderUnavailable, "ANTHROPIC_API_KEY is not configured")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AnthropicProvider{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// SelectTool sends the question with the tool declarations and parses the
// first tool_use block, falling back to text blocks.
func (p *AnthropicProvider) SelectTool(ctx context.Context, req Request) (Decision, error) {
	tools := make([]anthropicTool, len(req.Tools))
	for i, t := range req.Tools {
		tools[i] = anthropicTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}
	}

	payload := map[string]any{
		"model":      p.model,
		"max_tokens": 1024,
		"system":     systemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": userPrompt(req)},
		},
		"tools": tools,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Decision{}, fmt.Errorf("llm: marshal anthropic payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return Decision{}, fmt.Errorf("llm: build anthropic request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Decision{}, apperr.Wrap(apperr.KindProviderUnavailable, err, "anthropic request")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Decision{}, apperr.Wrap(apperr.KindProviderUnavailable, err, "read anthropic response")
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return Decision{}, apperr.New(apperr.KindRateLimited, "anthropic rate limit exceeded")
	}
	if resp.StatusCode >= 400 {
		return Decision{}, apperr.New(apperr.KindProviderUnavailable,
			"anthropic returned status %d: %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	var parsed struct {
		Content []struct {
			Type  string         `json:"type"`
			Text  string         `json:"text"`
			Name  string         `json:"name"`
			Input map[string]any `json:"input"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Decision{}, apperr.Wrap(apperr.KindProviderUnavailable, err, "decode anthropic response")
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		switch block.Type {
		case "tool_use":
			return Decision{Tool: &ToolCall{Name: block.Name, Arguments: block.Input}}, nil
		case "text":
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) != "" {
		return Decision{Message: text.String()}, nil
	}
	return Decision{}, apperr.New(apperr.KindNoToolCall, "anthropic returned neither a tool call nor text")
}

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

// OpenAIConfig configures the OpenAI chat-completions client. BaseURL lets
// tests and OpenAI-compatible gateways redirect the endpoint.
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAIProvider selects tools via the chat-completions tools API.
type OpenAIProvider struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperr.New(apperr.KindProviderUnavailable, "OPENAI_API_KEY is not configured")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIProvider{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type openAITool struct {
	Type     string             `json:"type"`
	Function openAIToolFunction `json:"function"`
}

type openAIToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SelectTool sends the question with the tool declarations and parses the
// first tool call, falling back to the text content.
func (p *OpenAIProvider) SelectTool(ctx context.Context, req Request) (Decision, error) {
	tools := make([]openAITool, len(req.Tools))
	for i, t := range req.Tools {
		tools[i] = openAITool{
			Type: "function",
			Function: openAIToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		}
	}

	payload := map[string]any{
		"model": p.model,
		"messages": []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(req)},
		},
		"tools": tools,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Decision{}, fmt.Errorf("llm: marshal openai payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Decision{}, fmt.Errorf("llm: build openai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Decision{}, apperr.Wrap(apperr.KindProviderUnavailable, err, "openai request")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Decision{}, apperr.Wrap(apperr.KindProviderUnavailable, err, "read openai response")
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return Decision{}, apperr.New(apperr.KindRateLimited, "openai rate limit exceeded")
	}
	if resp.StatusCode >= 400 {
		return Decision{}, apperr.New(apperr.KindProviderUnavailable,
			"openai returned status %d: %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content   string `json:"content"`
				ToolCalls []struct {
					Function struct {
						Name      string `json:"name"`
						Arguments string `json:"arguments"`
					} `json:"function"`
				} `json:"tool_calls"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Decision{}, apperr.Wrap(apperr.KindProviderUnavailable, err, "decode openai response")
	}
	if len(parsed.Choices) == 0 {
		return Decision{}, apperr.New(apperr.KindNoToolCall, "openai returned no choices")
	}

	msg := parsed.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		var args map[string]any
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return Decision{}, apperr.Wrap(apperr.KindNoToolCall, err,
				"openai tool call %q has malformed arguments", call.Function.Name)
		}
		return Decision{Tool: &ToolCall{Name: call.Function.Name, Arguments: args}}, nil
	}
	if strings.TrimSpace(msg.Content) != "" {
		return Decision{Message: msg.Content}, nil
	}
	return Decision{}, apperr.New(apperr.KindNoToolCall, "openai returned neither a tool call nor text")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

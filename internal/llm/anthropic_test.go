package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vizor-ai/vizor/internal/apperr"
)

func newAnthropicServer(t *testing.T, status int, response string, capture *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
}

func TestAnthropic_SelectTool(t *testing.T) {
	var captured map[string]any
	srv := newAnthropicServer(t, http.StatusOK, `{
		"content": [
			{"type": "text", "text": "Let me query that."},
			{"type": "tool_use", "name": "advanced_query",
			 "input": {"sql": "SELECT 1", "chart_type": "bar"}}
		]
	}`, &captured)
	defer srv.Close()

	p, err := NewAnthropic(AnthropicConfig{BaseURL: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	decision, err := p.SelectTool(context.Background(), testRequest())
	require.NoError(t, err)
	require.NotNil(t, decision.Tool)
	assert.Equal(t, "advanced_query", decision.Tool.Name)
	assert.Equal(t, "SELECT 1", decision.Tool.Arguments["sql"])

	assert.Equal(t, "claude-sonnet-4-20250514", captured["model"])
	assert.NotEmpty(t, captured["system"])
	tools := captured["tools"].([]any)
	require.Len(t, tools, 1)
	assert.Equal(t, "simple_query", tools[0].(map[string]any)["name"])
}

func TestAnthropic_TextOnly(t *testing.T) {
	srv := newAnthropicServer(t, http.StatusOK, `{
		"content": [{"type": "text", "text": "That question has no chartable answer."}]
	}`, nil)
	defer srv.Close()

	p, err := NewAnthropic(AnthropicConfig{BaseURL: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	decision, err := p.SelectTool(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Nil(t, decision.Tool)
	assert.Equal(t, "That question has no chartable answer.", decision.Message)
}

func TestAnthropic_RateLimited(t *testing.T) {
	srv := newAnthropicServer(t, http.StatusTooManyRequests, `{}`, nil)
	defer srv.Close()

	p, err := NewAnthropic(AnthropicConfig{BaseURL: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	_, err = p.SelectTool(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindRateLimited))
}

func TestAnthropic_EmptyContent(t *testing.T) {
	srv := newAnthropicServer(t, http.StatusOK, `{"content": []}`, nil)
	defer srv.Close()

	p, err := NewAnthropic(AnthropicConfig{BaseURL: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	_, err = p.SelectTool(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNoToolCall))
}

func TestNewAnthropic_RequiresKey(t *testing.T) {
	_, err := NewAnthropic(AnthropicConfig{})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindProviderUnavailable))
}

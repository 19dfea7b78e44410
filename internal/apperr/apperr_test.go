package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(KindUnsafeQuery, "blocked keyword %q", "DROP")
	assert.Equal(t, KindUnsafeQuery, KindOf(err))
	assert.True(t, IsKind(err, KindUnsafeQuery))
	assert.False(t, IsKind(err, KindInternal))

	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindOf_Wrapped(t *testing.T) {
	cause := New(KindExecutionFailed, "timeout")
	err := fmt.Errorf("outer: %w", cause)
	assert.Equal(t, KindExecutionFailed, KindOf(err))
}

func TestWrap_UnwrapsToCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindCatalogUnavailable, cause, "read schema")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "catalog_unavailable")
	assert.Contains(t, err.Error(), "read schema")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRetryable(t *testing.T) {
	retryable := []Kind{KindUnknownTool, KindSchemaViolation, KindInvalidArgument, KindUnsafeQuery, KindExecutionFailed}
	for _, k := range retryable {
		assert.True(t, Retryable(k), "%s should permit the single retry", k)
	}

	terminal := []Kind{KindCatalogUnavailable, KindProviderUnavailable, KindRateLimited, KindNoToolCall, KindInternal}
	for _, k := range terminal {
		assert.False(t, Retryable(k), "%s should be terminal", k)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindUnknownTool, http.StatusBadRequest},
		{KindSchemaViolation, http.StatusBadRequest},
		{KindInvalidArgument, http.StatusBadRequest},
		{KindUnsafeQuery, http.StatusBadRequest},
		{KindNoToolCall, http.StatusBadRequest},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindCatalogUnavailable, http.StatusServiceUnavailable},
		{KindProviderUnavailable, http.StatusServiceUnavailable},
		{KindExecutionFailed, http.StatusBadGateway},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(New(tt.kind, "x")), "kind %s", tt.kind)
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

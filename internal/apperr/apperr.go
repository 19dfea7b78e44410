// Package apperr defines Vizor's error taxonomy.
//
// Every failure that crosses a package boundary is classified into a Kind so
// the orchestration layer can decide whether a single retry is worthwhile and
// the HTTP layer can map it to a status code. Wrapped causes stay reachable
// through errors.Is/errors.As.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	// KindCatalogUnavailable means the schema metadata store was unreachable.
	// Infrastructure, retryable by the caller, not a validation failure.
	KindCatalogUnavailable Kind = "catalog_unavailable"

	// KindUnknownTool means the orchestrator selected a nonexistent tool name.
	KindUnknownTool Kind = "unknown_tool"

	// KindSchemaViolation means tool arguments failed the declared input
	// schema. The message names the failing field(s).
	KindSchemaViolation Kind = "schema_violation"

	// KindInvalidArgument means structured-path semantic validation failed:
	// unknown table, column, enum value, or a non-positive limit.
	KindInvalidArgument Kind = "invalid_argument"

	// KindUnsafeQuery means the raw-path safety filter rejected the SQL.
	// Never silently repaired.
	KindUnsafeQuery Kind = "unsafe_query"

	// KindExecutionFailed means the database rejected or timed out the
	// statement after it passed validation.
	KindExecutionFailed Kind = "execution_failed"

	// KindProviderUnavailable means the AI provider could not be reached or
	// returned a server-side failure, or no provider is configured.
	KindProviderUnavailable Kind = "provider_unavailable"

	// KindRateLimited means the AI provider throttled the request.
	KindRateLimited Kind = "rate_limited"

	// KindNoToolCall means the provider reply contained neither a tool call
	// nor a text answer.
	KindNoToolCall Kind = "no_tool_call"

	// KindInternal is the fallback for unclassified failures.
	KindInternal Kind = "internal"
)

// Error is a classified error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error without a cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind of err, or KindInternal if err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether a tool-call failure of this kind permits the
// single orchestrator retry. Infrastructure and provider failures are not
// retried through the orchestrator: a different tool choice won't fix them.
func Retryable(kind Kind) bool {
	switch kind {
	case KindUnknownTool, KindSchemaViolation, KindInvalidArgument,
		KindUnsafeQuery, KindExecutionFailed:
		return true
	}
	return false
}

// HTTPStatus maps an error to the status code of the outer HTTP layer.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnknownTool, KindSchemaViolation, KindInvalidArgument,
		KindUnsafeQuery, KindNoToolCall:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindCatalogUnavailable, KindProviderUnavailable:
		return http.StatusServiceUnavailable
	case KindExecutionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

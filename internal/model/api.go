package model

import "time"

// QueryRequest is the inbound body of POST /v1/query.
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryResponse is the outbound body of POST /v1/query.
// SQL echoes the executed statement text so the caller can display it.
type QueryResponse struct {
	Success   bool       `json:"success"`
	Question  string     `json:"question"`
	SQL       string     `json:"sql,omitempty"`
	ChartType ChartType  `json:"chart_type,omitempty"`
	Message   string     `json:"message,omitempty"`
	Data      *ChartData `json:"data,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// ErrorDetail carries a machine-readable code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError is the standard error envelope.
type APIError struct {
	Error ErrorDetail  `json:"error"`
	Meta  ResponseMeta `json:"meta"`
}

// ResponseMeta carries per-request metadata on every response.
type ResponseMeta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// MaxQuestionLen bounds the inbound question so a single oversized request
// cannot blow up the provider prompt or log lines.
const MaxQuestionLen = 2000

// Package llm talks to the reasoning orchestrator: an AI provider's
// function-calling endpoint that, given the question, the tool declarations,
// and the schema description, selects exactly one tool with arguments or
// answers in plain text.
//
// The package defines the contract the core relies on and two thin HTTP
// clients (OpenAI chat completions, Anthropic messages). No SDK: the wire
// formats are small and stable enough to speak directly.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vizor-ai/vizor/internal/model"
)

// Tool declares one callable tool to the provider. InputSchema is the same
// raw JSON Schema the dispatcher validates against.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// ToolCall is the provider's selection: a tool name plus decoded arguments.
type ToolCall struct {
	Name      string
	Arguments map[string]any
}

// Decision is the provider's reply for one turn: either a tool call or a
// terminal text answer (the "no chart" case). Exactly one side is set.
type Decision struct {
	Tool    *ToolCall
	Message string
}

// Request carries everything a provider needs for one selection turn.
// PriorError, when set, is the failure text of the previous attempt and
// signals the single permitted retry.
type Request struct {
	Question   string
	Tools      []Tool
	Schema     model.Schema
	PriorError string
}

// Provider selects a tool (or answers in text) for one question.
type Provider interface {
	SelectTool(ctx context.Context, req Request) (Decision, error)
}

const systemPrompt = "You are a data analyst. Based on the user's question, " +
	"call the appropriate function to query the database. Prefer simple_query " +
	"for single-table aggregations and advanced_query when a JOIN or custom " +
	"expression is needed. Only call one function."

// userPrompt renders the question with the schema description the way the
// provider sees it.
func userPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Database schema:\n")
	for _, t := range req.Schema.Tables {
		b.WriteString("- ")
		b.WriteString(t.Name)
		b.WriteString("(")
		for i, c := range t.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Name)
			b.WriteString(" ")
			b.WriteString(c.Type)
		}
		b.WriteString(")\n")
	}
	b.WriteString("\nUser question: ")
	b.WriteString(req.Question)
	if req.PriorError != "" {
		fmt.Fprintf(&b, "\n\nYour previous attempt failed with: %s\nChoose a different tool or corrected arguments.", req.PriorError)
	}
	return b.String()
}

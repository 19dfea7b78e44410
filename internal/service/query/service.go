// Package query orchestrates one question end to end: schema description,
// tool selection by the AI provider, dispatch, and chart normalization.
package query

import (
	"context"
	"log/slog"

	"github.com/vizor-ai/vizor/internal/apperr"
	"github.com/vizor-ai/vizor/internal/catalog"
	"github.com/vizor-ai/vizor/internal/chart"
	"github.com/vizor-ai/vizor/internal/dispatch"
	"github.com/vizor-ai/vizor/internal/llm"
	"github.com/vizor-ai/vizor/internal/model"
)

// Service answers natural-language questions with chart payloads.
type Service struct {
	catalog    *catalog.Catalog
	dispatcher *dispatch.Dispatcher
	provider   llm.Provider
	logger     *slog.Logger
}

// New creates a Service.
func New(cat *catalog.Catalog, d *dispatch.Dispatcher, p llm.Provider, logger *slog.Logger) *Service {
	return &Service{catalog: cat, dispatcher: d, provider: p, logger: logger}
}

// Answer handles one question. When the provider's tool call fails with a
// retryable kind, the provider is re-invoked exactly once with the failure
// text appended to its context; a second failure of any kind is final.
// Errors never degrade into an empty chart.
func (s *Service) Answer(ctx context.Context, question string) (model.Answer, error) {
	schema, err := s.catalog.Describe(ctx)
	if err != nil {
		return model.Answer{}, err
	}

	req := llm.Request{
		Question: question,
		Tools:    s.toolDecls(),
		Schema:   schema,
	}

	decision, err := s.provider.SelectTool(ctx, req)
	if err != nil {
		return model.Answer{}, err
	}
	if decision.Tool == nil {
		return textAnswer(question, decision.Message), nil
	}

	result, err := s.dispatcher.Call(ctx, decision.Tool.Name, decision.Tool.Arguments)
	if err != nil {
		if !apperr.Retryable(apperr.KindOf(err)) {
			return model.Answer{}, err
		}

		s.logger.Warn("query: tool call failed, retrying once",
			"tool", decision.Tool.Name, "error", err)

		req.PriorError = err.Error()
		decision, retryErr := s.provider.SelectTool(ctx, req)
		if retryErr != nil {
			return model.Answer{}, retryErr
		}
		if decision.Tool == nil {
			return textAnswer(question, decision.Message), nil
		}
		result, retryErr = s.dispatcher.Call(ctx, decision.Tool.Name, decision.Tool.Arguments)
		if retryErr != nil {
			return model.Answer{}, retryErr
		}
	}

	answer := chart.Normalize(question, result.ChartType, result.Rows)
	answer.SQL = result.SQL
	return answer, nil
}

// toolDecls converts the dispatcher's registry into the provider's shape.
func (s *Service) toolDecls() []llm.Tool {
	specs := s.dispatcher.Tools()
	tools := make([]llm.Tool, len(specs))
	for i, spec := range specs {
		tools[i] = llm.Tool{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.InputSchema,
		}
	}
	return tools
}

func textAnswer(question, message string) model.Answer {
	return model.Answer{
		Question: question,
		Message:  message,
		Data:     model.EmptyChartData(),
	}
}

// Package reasoning runs the bounded tool-calling loop against the language
// model. Each iteration either yields final text or a batch of tool calls;
// calls within one iteration are dispatched concurrently, and iterations are
// strictly sequential so the next model call sees every result. A hard cap
// bounds cost and latency.
package reasoning

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mealmind/v1/internal/application/tools"
	"github.com/mealmind/v1/internal/ports/outbound"
	"github.com/mealmind/v1/pkg/errors"
)

// MaxIterations caps the tool-calling loop; on cap, whatever text exists is
// used as the reply.
const MaxIterations = 5

// Outcome is what one reasoning run produced: the model's final text, the
// merged proposal (if any tool built one), and every successful tool result
// keyed by tool name.
type Outcome struct {
	Text     string
	Proposal *tools.Proposal
	Gathered map[string][]any
}

// Engine drives the loop.
type Engine struct {
	llm      outbound.LanguageModel
	registry *tools.Registry
	logger   *zap.Logger
}

// NewEngine creates a reasoning engine.
func NewEngine(llm outbound.LanguageModel, registry *tools.Registry, logger *zap.Logger) *Engine {
	return &Engine{
		llm:      llm,
		registry: registry,
		logger:   logger.Named("reasoning-engine"),
	}
}

// Run executes the loop for one turn. messages is the bounded transcript for
// this turn (history plus the current utterance); the system prompt is
// prepended. Individual tool failures become error envelopes in the
// transcript and never abort the run; only a model failure does.
func (e *Engine) Run(ctx context.Context, userID, systemPrompt string, messages []outbound.ChatMessage) (*Outcome, error) {
	transcript := make([]outbound.ChatMessage, 0, len(messages)+1)
	transcript = append(transcript, outbound.ChatMessage{Role: outbound.RoleSystem, Content: systemPrompt})
	transcript = append(transcript, messages...)

	gathered := make(map[string][]any)
	var proposals []*tools.Proposal
	var finalText string

	for iteration := 0; iteration < MaxIterations; iteration++ {
		resp, err := e.llm.Chat(ctx, transcript, e.registry.Definitions())
		if err != nil {
			return nil, errors.NewExternalServiceError("language model", err)
		}
		if resp.Content != "" {
			finalText = resp.Content
		}
		if len(resp.ToolCalls) == 0 {
			break
		}

		e.logger.Debug("dispatching tool calls",
			zap.Int("iteration", iteration),
			zap.Int("calls", len(resp.ToolCalls)))

		transcript = append(transcript, outbound.ChatMessage{
			Role:      outbound.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		results := e.dispatch(ctx, userID, resp.ToolCalls)
		for i, call := range resp.ToolCalls {
			result := results[i]
			if env, failed := result.(errors.Envelope); failed {
				transcript = append(transcript, toolMessage(call, env))
				continue
			}
			if p, ok := result.(*tools.Proposal); ok {
				proposals = append(proposals, p)
			}
			gathered[call.Name] = append(gathered[call.Name], result)
			transcript = append(transcript, toolMessage(call, result))
		}
	}

	return &Outcome{
		Text:     finalText,
		Proposal: tools.MergeProposals(proposals),
		Gathered: gathered,
	}, nil
}

// dispatch executes one iteration's calls concurrently. Failures are
// converted to envelopes in place; order of results matches order of calls.
func (e *Engine) dispatch(ctx context.Context, userID string, calls []outbound.ToolCall) []any {
	results := make([]any, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			value, err := e.registry.Execute(gctx, userID, call.Name, call.Arguments)
			if err != nil {
				results[i] = errors.ToEnvelope(err)
				return nil
			}
			results[i] = value
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func toolMessage(call outbound.ToolCall, result any) outbound.ChatMessage {
	payload, err := json.Marshal(result)
	if err != nil {
		payload = []byte(`{"error": true, "code": "EXTERNAL_SERVICE_ERROR", "message": "unserializable tool result"}`)
	}
	return outbound.ChatMessage{
		Role:       outbound.RoleTool,
		ToolCallID: call.ID,
		Name:       call.Name,
		Content:    string(payload),
	}
}

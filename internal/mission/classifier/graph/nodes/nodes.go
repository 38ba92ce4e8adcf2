package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/AstroAssist-core/server/internal/mission/classifier/graph/conversations"
	"github.com/AstroAssist-core/server/internal/mission/classifier/graph/parsers"
	"github.com/AstroAssist-core/server/internal/mission/classifier/graph/prompts"
	"github.com/AstroAssist-core/server/internal/mission/model"
	logx "github.com/AstroAssist-core/server/pkg/logger"
)

// NewInputConverterPreHandler resets per-command state.
func NewInputConverterPreHandler(modelName string) func(context.Context, string, *model.ClassifyState) (string, error) {
	return func(ctx context.Context, in string, s *model.ClassifyState) (string, error) {
		s.Command = in
		s.ModelName = modelName
		s.RawOutput = ""
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewInputConverterNode builds the system prompt and the user message with
// recent command context.
func NewInputConverterNode(cb *conversations.ContextBuilder) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, command string) ([]*schema.Message, error) {
		systemPrompt, err := prompts.RenderIntentSystem(ctx)
		if err != nil {
			return nil, fmt.Errorf("render intent system prompt: %w", err)
		}
		return []*schema.Message{
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(cb.Build(command)),
		}, nil
	})
}

// NewIntentChatModelPostHandler records raw output and usage cost.
func NewIntentChatModelPostHandler() func(context.Context, *schema.Message, *model.ClassifyState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.ClassifyState) (*schema.Message, error) {
		if out == nil {
			return nil, fmt.Errorf("intent model returned no message")
		}
		state.RawOutput = out.Content

		if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			cost := model.NewUsageCost(state.ModelName, out.ResponseMeta.Usage)
			if out.Extra == nil {
				out.Extra = map[string]any{}
			}
			out.Extra["usage_cost"] = cost.Extra()
			state.TotalCostUSD += cost.TotalUSD

			logx.Debug().
				Str("node", NodeIntentChatModel).
				Str("model", state.ModelName).
				Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
				Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
				Float64("total_cost_usd", state.TotalCostUSD).
				Msg("LLM usage")
		}
		return out, nil
	}
}

// NewParserNode parses the model's tuple output.
func NewParserNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resp *schema.Message) (model.IntentAnalysis, error) {
		result, err := parsers.ParseIntentResponse(resp.Content)
		if err != nil {
			logx.Error().Err(err).Msg("Error parsing intent response")
			return model.IntentAnalysis{}, err
		}
		if result == nil {
			return model.IntentAnalysis{}, fmt.Errorf("parsing returned nil result")
		}
		return *result, nil
	})
}

// NewConfidenceCondition routes confident analyses to NodeAccept.
func NewConfidenceCondition(minConfidence float64) func(context.Context, model.IntentAnalysis) (string, error) {
	minConfidence = normalizeMinConfidence(minConfidence)
	return func(ctx context.Context, in model.IntentAnalysis) (string, error) {
		if in.PrimaryIntent != "" && in.Confidence >= minConfidence {
			return NodeAccept, nil
		}
		logx.Debug().
			Str("primary_intent", in.PrimaryIntent).
			Float64("confidence", in.Confidence).
			Float64("min_confidence", minConfidence).
			Msg("Intent below confidence threshold")
		return NodeReject, nil
	}
}

// NewAcceptNode maps the primary label onto the closed set.
func NewAcceptNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.IntentAnalysis) (model.IntentResult, error) {
		return model.NewIntentResult(in.PrimaryIntent), nil
	})
}

// NewRejectNode yields unknown, keeping whatever the model leaned towards.
func NewRejectNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.IntentAnalysis) (model.IntentResult, error) {
		return model.IntentResult{Label: model.IntentUnknown, RawModelLabel: in.PrimaryIntent}, nil
	})
}

package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/AstroAssist-core/server/internal/mission/model"
	logx "github.com/AstroAssist-core/server/pkg/logger"
)

// IntentChatModel is the chat model bound into the graph with its pricing name.
type IntentChatModel struct {
	Model     einomodel.BaseChatModel
	ModelName string
}

// NewIntentChatModel creates the Gemini chat model used for classification.
func NewIntentChatModel(ctx context.Context, cfg model.IntentModelConfig) (*IntentChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("intent model: GEMINI_API_KEY is not set")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens
	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		// classification answers are short, skip thinking
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(0)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating intent model")
		return nil, fmt.Errorf("error creating intent model: %w", err)
	}

	return &IntentChatModel{Model: cm, ModelName: cfg.Model}, nil
}

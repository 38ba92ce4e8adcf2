package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	errx "github.com/AstroAssist-core/server/internal/core/error"
	"github.com/AstroAssist-core/server/internal/mission/classifier"
	"github.com/AstroAssist-core/server/internal/mission/classifier/graph/conversations"
	"github.com/AstroAssist-core/server/internal/mission/classifier/graph/nodes"
	"github.com/AstroAssist-core/server/internal/mission/classifier/graph/observers"
	"github.com/AstroAssist-core/server/internal/mission/model"
	logx "github.com/AstroAssist-core/server/pkg/logger"
)

// Config holds everything needed to build the classifier graph end-to-end.
type Config struct {
	IntentModel   model.IntentModelConfig
	History       conversations.HistoryReader
	MinConfidence float64
}

// GraphConfig holds the already constructed parts of the graph.
type GraphConfig struct {
	ChatModel      *nodes.IntentChatModel
	ContextBuilder *conversations.ContextBuilder
	MinConfidence  float64
}

// Runner classifies commands through the compiled graph.
type Runner struct {
	runnable compose.Runnable[string, model.IntentResult]
}

var _ classifier.Classifier = (*Runner)(nil)

// Classify implements classifier.Classifier. Commands naming a known hazard
// are emergencies without a model round trip.
func (r *Runner) Classify(ctx context.Context, text string) (model.IntentResult, error) {
	command, err := classifier.NormalizeCommand(text)
	if err != nil {
		return model.IntentResult{}, err
	}

	if word, ok := classifier.MatchEmergencyKeyword(command); ok {
		logx.Debug().Str("keyword", word).Msg("Emergency keyword matched")
		return model.NewIntentResult(string(model.IntentEmergency)), nil
	}

	out, err := r.runnable.Invoke(ctx, command, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		logx.Warn().Err(err).Msg("Intent graph failed")
		return model.IntentResult{}, errx.RequestFailure(err)
	}
	return out, nil
}

// BuildClassifier creates the Gemini chat model and returns a ready Runner.
func BuildClassifier(ctx context.Context, cfg Config) (*Runner, error) {
	cm, err := nodes.NewIntentChatModel(ctx, cfg.IntentModel)
	if err != nil {
		return nil, err
	}

	runner, err := NewRunner(ctx, &GraphConfig{
		ChatModel:      cm,
		ContextBuilder: conversations.NewContextBuilder(cfg.History, cfg.IntentModel.ContextTurns),
		MinConfidence:  cfg.MinConfidence,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Str("model", cm.ModelName).Msg("Intent graph built successfully")
	return runner, nil
}

// NewRunner compiles the graph from prepared parts.
func NewRunner(ctx context.Context, config *GraphConfig) (*Runner, error) {
	runnable, err := BuildGraph(ctx, config)
	if err != nil {
		return nil, err
	}
	return &Runner{runnable: runnable}, nil
}

// GraphBuilder handles the construction of the classification graph.
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[string, model.IntentResult]
}

// BuildGraph constructs and returns the compiled classification graph.
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[string, model.IntentResult], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModel == nil || config.ChatModel.Model == nil {
		return nil, fmt.Errorf("chat model is not initialized")
	}
	if config.ContextBuilder == nil {
		config.ContextBuilder = conversations.NewContextBuilder(nil, 0)
	}

	b := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[string, model.IntentResult](
			compose.WithGenLocalState(func(ctx context.Context) *model.ClassifyState {
				return &model.ClassifyState{}
			}),
		),
	}

	if err := b.addNodes(); err != nil {
		return nil, err
	}
	if err := b.addEdges(); err != nil {
		return nil, err
	}
	if err := b.addBranches(); err != nil {
		return nil, err
	}
	return b.compile(ctx)
}

func (b *GraphBuilder) addNodes() error {
	steps := []func() error{
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeInputConverter,
				nodes.NewInputConverterNode(b.config.ContextBuilder),
				compose.WithStatePreHandler(nodes.NewInputConverterPreHandler(b.config.ChatModel.ModelName)),
			)
		},
		func() error {
			return b.graph.AddChatModelNode(nodes.NodeIntentChatModel,
				b.config.ChatModel.Model,
				compose.WithStatePostHandler(nodes.NewIntentChatModelPostHandler()),
			)
		},
		func() error { return b.graph.AddLambdaNode(nodes.NodeParser, nodes.NewParserNode()) },
		func() error { return b.graph.AddLambdaNode(nodes.NodeAccept, nodes.NewAcceptNode()) },
		func() error { return b.graph.AddLambdaNode(nodes.NodeReject, nodes.NewRejectNode()) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			logx.Error().Err(err).Msg("Error adding graph node")
			return fmt.Errorf("error adding graph node: %w", err)
		}
	}
	return nil
}

func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInputConverter, nodes.NodeIntentChatModel},
		{nodes.NodeIntentChatModel, nodes.NodeParser},
		{nodes.NodeAccept, compose.END},
		{nodes.NodeReject, compose.END},
	}
	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

func (b *GraphBuilder) addBranches() error {
	confidenceBranch := compose.NewGraphBranch(
		nodes.NewConfidenceCondition(b.config.MinConfidence),
		map[string]bool{
			nodes.NodeAccept: true,
			nodes.NodeReject: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeParser, confidenceBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding confidence branch")
		return fmt.Errorf("error adding confidence branch: %w", err)
	}
	return nil
}

func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[string, model.IntentResult], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(10))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}
	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}

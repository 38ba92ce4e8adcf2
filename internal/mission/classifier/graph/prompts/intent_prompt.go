package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/AstroAssist-core/server/internal/mission/model"
)

//go:embed template/intent_prompt.txt
var intentSystemPrompt string

// RenderIntentSystem renders the intent system prompt via the Eino prompt
// component, which triggers prompt callbacks.
func RenderIntentSystem(ctx context.Context) (string, error) {
	labels := make([]string, len(model.IntentLabels))
	for i, l := range model.IntentLabels {
		labels[i] = string(l)
	}

	// Replace known tokens only; the template contains literal parens and braces.
	content := strings.NewReplacer(
		"{TD}", "<||>",
		"{RD}", "##",
		"{CD}", "<|COMPLETE|>",
		"{intent_labels}", strings.Join(labels, ", "),
	).Replace(intentSystemPrompt)

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("intent prompt callbacks: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("intent prompt callbacks: empty result")
	}
	return msgs[0].Content, nil
}

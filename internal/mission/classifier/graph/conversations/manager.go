package conversations

import (
	"strings"

	"github.com/AstroAssist-core/server/internal/mission/model"
)

// HistoryReader exposes the most recent history entries, newest first.
type HistoryReader interface {
	Recent(n int) []model.HistoryEntry
}

// ContextBuilder assembles the user message for the intent model from the
// current command and the operator's recent commands.
type ContextBuilder struct {
	history  HistoryReader
	maxTurns int
}

func NewContextBuilder(history HistoryReader, maxTurns int) *ContextBuilder {
	return &ContextBuilder{history: history, maxTurns: maxTurns}
}

// Build returns the model input for command.
func (cb *ContextBuilder) Build(command string) string {
	var b strings.Builder
	b.WriteString(cb.buildRecentContext())
	b.WriteString("\n<current_command_to_classify>\n")
	b.WriteString("Command(" + command + ")\n")
	b.WriteString("</current_command_to_classify>")
	return b.String()
}

func (cb *ContextBuilder) buildRecentContext() string {
	var b strings.Builder
	b.WriteString("<recent_commands>\n")

	if cb.history != nil && cb.maxTurns > 0 {
		entries := cb.history.Recent(cb.maxTurns)
		// oldest first reads naturally for the model
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			if e.Auto || e.Command == "" {
				continue
			}
			b.WriteString("Command(" + e.Command + ") -> " + e.Intent + "\n")
		}
	}

	b.WriteString("</recent_commands>")
	return b.String()
}

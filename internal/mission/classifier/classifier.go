package classifier

import (
	"context"
	"errors"
	"strings"

	errx "github.com/AstroAssist-core/server/internal/core/error"
	"github.com/AstroAssist-core/server/internal/mission/model"
)

// ErrEmptyCommand is returned for commands that are blank after trimming.
var ErrEmptyCommand = errors.New("command is empty")

// Classifier turns operator text into an intent.
type Classifier interface {
	Classify(ctx context.Context, text string) (model.IntentResult, error)
}

// Func adapts a function to Classifier.
type Func func(ctx context.Context, text string) (model.IntentResult, error)

func (f Func) Classify(ctx context.Context, text string) (model.IntentResult, error) {
	return f(ctx, text)
}

// NormalizeCommand trims text and rejects empty input before any network call.
func NormalizeCommand(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errx.InvalidInput(ErrEmptyCommand)
	}
	return text, nil
}

var emergencyKeywords = []string{
	"fire", "smoke", "leak", "toxic", "fumes",
	"explosion", "blast", "suffocating", "can't breathe",
	"pressure dropping", "hull breach", "gas leak",
	"support failing", "danger", "emergency",
}

// MatchEmergencyKeyword reports whether text mentions a known hazard, in which
// case the command is an emergency regardless of what a model would say.
func MatchEmergencyKeyword(text string) (string, bool) {
	t := strings.ToLower(text)
	for _, word := range emergencyKeywords {
		if strings.Contains(t, word) {
			return word, true
		}
	}
	return "", false
}

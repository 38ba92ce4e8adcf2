package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errx "github.com/AstroAssist-core/server/internal/core/error"
	"github.com/AstroAssist-core/server/internal/mission/model"
	logx "github.com/AstroAssist-core/server/pkg/logger"
)

// Response keys carrying the label, in lookup order.
var labelKeys = []string{"predicted_intent", "intent"}

const maxResponseBytes = 1 << 20

type predictRequest struct {
	Text string `json:"text"`
}

// HTTPClient posts commands to a prediction endpoint. It never retries.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPClient builds a client for cfg.PredictURL. A zero cfg.Timeout leaves
// requests without deadline.
func NewHTTPClient(cfg model.ClassifierConfig, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPClient{endpoint: cfg.PredictURL, httpClient: httpClient}
}

// Classify sends {"text": text} and parses the label from the response.
func (c *HTTPClient) Classify(ctx context.Context, text string) (model.IntentResult, error) {
	text, err := NormalizeCommand(text)
	if err != nil {
		return model.IntentResult{}, err
	}

	body, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return model.IntentResult{}, fmt.Errorf("marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return model.IntentResult{}, errx.RequestFailure(err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logx.Error().Err(err).Str("endpoint", c.endpoint).Msg("prediction request failed")
		return model.IntentResult{}, errx.RequestFailure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logx.Error().Int("status", resp.StatusCode).Str("endpoint", c.endpoint).Msg("prediction endpoint returned error status")
		return model.IntentResult{}, errx.RequestFailure(fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return model.IntentResult{}, errx.RequestFailure(fmt.Errorf("read response: %w", err))
	}

	label, err := parseLabel(raw)
	if err != nil {
		logx.Error().Err(err).Str("endpoint", c.endpoint).Msg("unparsable prediction response")
		return model.IntentResult{}, errx.RequestFailure(err)
	}

	result := model.NewIntentResult(label)
	logx.Debug().
		Str("label", string(result.Label)).
		Str("raw_label", result.RawModelLabel).
		Dur("latency", time.Since(start)).
		Msg("command classified")
	return result, nil
}

// parseLabel decodes a JSON object and returns the first string label found.
// A missing or non-string label yields "" (unknown), not an error.
func parseLabel(raw []byte) (string, error) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if body == nil {
		return "", fmt.Errorf("decode response: not a JSON object")
	}
	for _, key := range labelKeys {
		if s, ok := body[key].(string); ok && s != "" {
			return s, nil
		}
	}
	return "", nil
}

var _ Classifier = (*HTTPClient)(nil)

package model

import (
	"github.com/cloudwego/eino/schema"
)

// Pricing is the USD price per 1M text tokens.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

var classifierPricing = map[string]Pricing{
	"gemini-2.5-flash":      {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite": {InputPerM: 0.10, OutputPerM: 0.40},
}

// ResolvePricing returns the price list of an intent model, zero for unknown models.
func ResolvePricing(modelName string) Pricing {
	return classifierPricing[modelName]
}

// UsageCost is the token usage and price of one classification call.
type UsageCost struct {
	Model            string  `json:"model"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	InputUSD         float64 `json:"input_cost"`
	OutputUSD        float64 `json:"output_cost"`
	TotalUSD         float64 `json:"total_cost"`
}

// NewUsageCost prices usage at the rate of modelName. A nil usage costs nothing.
func NewUsageCost(modelName string, usage *schema.TokenUsage) UsageCost {
	c := UsageCost{Model: modelName}
	if usage == nil {
		return c
	}
	p := ResolvePricing(modelName)
	c.PromptTokens = usage.PromptTokens
	c.CompletionTokens = usage.CompletionTokens
	c.TotalTokens = usage.TotalTokens
	c.InputUSD = p.InputPerM * float64(usage.PromptTokens) / 1_000_000.0
	c.OutputUSD = p.OutputPerM * float64(usage.CompletionTokens) / 1_000_000.0
	c.TotalUSD = c.InputUSD + c.OutputUSD
	return c
}

// Extra renders the cost as a message extra.
func (c UsageCost) Extra() map[string]any {
	return map[string]any{
		"currency":          "USD",
		"model":             c.Model,
		"prompt_tokens":     c.PromptTokens,
		"completion_tokens": c.CompletionTokens,
		"total_tokens":      c.TotalTokens,
		"input_cost":        c.InputUSD,
		"output_cost":       c.OutputUSD,
		"total_cost":        c.TotalUSD,
	}
}

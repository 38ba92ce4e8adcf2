package parsers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	errx "github.com/AstroAssist-core/server/internal/core/error"
	"github.com/AstroAssist-core/server/internal/mission/model"
	logx "github.com/AstroAssist-core/server/pkg/logger"
)

const (
	recDelim = "##"
	tupDelim = "<||>"
	endDelim = "<|COMPLETE|>"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 16 * 1024
	maxRecords    = 50
	maxTupleLen   = 1024
	maxErrSnippet = 200
)

type rawTuple struct {
	Type  string
	Parts []string
}

func parseRawTuple(s string) (*rawTuple, error) {
	if s == "" {
		return nil, fmt.Errorf("empty tuple")
	}
	if len(s) > maxTupleLen {
		return nil, fmt.Errorf("tuple too large")
	}

	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, fmt.Errorf("invalid tuple parens")
	}
	inner := s[1 : len(s)-1]
	parts := strings.SplitN(inner, tupDelim, 4)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid tuple parts")
	}
	return &rawTuple{Type: strings.TrimSpace(parts[0]), Parts: parts}, nil
}

func parseFloatInRange(s, name string, min, max float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse: %w", name, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s invalid number", name)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s out of range", name)
	}
	return v, nil
}

// ParseIntentResponse reads "(intent<||>label<||>confidence)" records separated
// by "##" and picks the most confident label. Bad records are skipped and noted
// in ParsingMetadata.
func ParseIntentResponse(content string) (resp *model.IntentAnalysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "intent_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("intent parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			resp = nil
		}
	}()

	resp = &model.IntentAnalysis{
		Intents:         []model.ScoredIntent{},
		ParsingMetadata: map[string]any{},
	}

	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "intent_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = cutAtRune(content, maxContentLen)
		resp.ParsingMetadata["truncated"] = true
	}
	if idx := strings.Index(content, endDelim); idx >= 0 {
		content = content[:idx]
	}

	addErr := func(msg string) {
		v, _ := resp.ParsingMetadata["parsing_errors"].([]string)
		resp.ParsingMetadata["parsing_errors"] = append(v, msg)
	}

	processed := 0
	for _, rec := range strings.Split(content, recDelim) {
		if processed >= maxRecords {
			resp.ParsingMetadata["records_capped"] = true
			break
		}
		rec = strings.TrimSpace(rec)
		if rec == "" {
			continue
		}
		processed++

		rt, rerr := parseRawTuple(rec)
		if rerr != nil {
			addErr(fmt.Sprintf("bad_record: %s", safeSnippet(rec)))
			continue
		}
		if rt.Type != "intent" {
			addErr("unknown tuple type")
			continue
		}
		if len(rt.Parts) < 3 {
			addErr("intent: insufficient parts")
			continue
		}
		name := strings.ToLower(strings.TrimSpace(rt.Parts[1]))
		if !utf8.ValidString(name) || name == "" {
			addErr("intent: invalid name")
			continue
		}
		conf, err := parseFloatInRange(rt.Parts[2], "intent.confidence", 0, 1)
		if err != nil {
			addErr("intent: invalid confidence")
			continue
		}
		resp.Intents = append(resp.Intents, model.ScoredIntent{Name: name, Confidence: conf})
	}

	best := -1.0
	for _, it := range resp.Intents {
		if it.Confidence > best {
			best = it.Confidence
			resp.PrimaryIntent = it.Name
			resp.Confidence = it.Confidence
		}
	}

	return resp, nil
}

func safeSnippet(s string) string {
	return cutAtRune(strings.TrimSpace(s), maxErrSnippet)
}

// cutAtRune returns at most n bytes of s without splitting a UTF-8 sequence.
func cutAtRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

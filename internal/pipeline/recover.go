package pipeline

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// The generator is told to emit JSON but routinely wraps it in prose or
// code fences, and occasionally emits almost-valid output. Parsing is
// therefore two-stage: strict parse validated against a schema, then a
// regex field-by-field salvage of the minimal shape. Only when both fail
// is the chunk counted as a failure; a fake zero result is never made up.

var analysisSchema = jsonschema.MustCompileString("analysis.json", `{
	"type": "object",
	"required": ["plagiarismScore", "aiScore"],
	"properties": {
		"plagiarismScore": {"type": "number", "minimum": 0, "maximum": 100},
		"aiScore":         {"type": "number", "minimum": 0, "maximum": 100},
		"critique":        {"type": "string"},
		"issues":          {"type": "array"},
		"paragraphs":      {"type": "array"}
	}
}`)

var rewriteSchema = jsonschema.MustCompileString("rewrite.json", `{
	"type": "object",
	"required": ["rewrittenText"],
	"properties": {
		"rewrittenText": {"type": "string", "minLength": 1},
		"improvements":  {"type": "array"},
		"bibliography":  {"type": "array"}
	}
}`)

var (
	fenceRe    = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	scoreRe    = regexp.MustCompile(`"(plagiarismScore|aiScore)"\s*:\s*"?([0-9]+(?:\.[0-9]+)?)"?`)
	critiqueRe = regexp.MustCompile(`"critique"\s*:\s*("(?:[^"\\]|\\.)*")`)
	rewriteRe  = regexp.MustCompile(`(?s)"rewrittenText"\s*:\s*("(?:[^"\\]|\\.)*")`)
	issuesRe   = regexp.MustCompile(`"issues"\s*:`)
)

// ParseAnalysis recovers an AnalysisResult from raw model output. ok is
// false when nothing usable could be extracted.
func ParseAnalysis(raw string) (*AnalysisResult, bool) {
	body := extractJSON(raw)

	var v any
	if err := json.Unmarshal([]byte(body), &v); err == nil {
		if err := analysisSchema.Validate(v); err == nil {
			var out AnalysisResult
			if err := json.Unmarshal([]byte(body), &out); err == nil {
				return &out, true
			}
		}
	}

	// Salvage path: pull the minimal fields out of the broken payload.
	scores := scoreRe.FindAllStringSubmatch(raw, -1)
	if len(scores) == 0 {
		return nil, false
	}
	out := &AnalysisResult{}
	for _, m := range scores {
		n, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		switch m[1] {
		case "plagiarismScore":
			out.PlagiarismScore = clampScore(int(n + 0.5))
		case "aiScore":
			out.AIScore = clampScore(int(n + 0.5))
		}
	}
	if m := critiqueRe.FindStringSubmatch(raw); m != nil {
		out.Critique = unquote(m[1])
	}
	if issuesRe.MatchString(raw) {
		out.Issues = []Issue{}
	}
	return out, true
}

// ParseRewrite recovers a RewriteResult from raw model output.
func ParseRewrite(raw string) (*RewriteResult, bool) {
	body := extractJSON(raw)

	var v any
	if err := json.Unmarshal([]byte(body), &v); err == nil {
		if err := rewriteSchema.Validate(v); err == nil {
			var out RewriteResult
			if err := json.Unmarshal([]byte(body), &out); err == nil {
				return &out, true
			}
		}
	}

	if m := rewriteRe.FindStringSubmatch(raw); m != nil {
		if text := unquote(m[1]); text != "" {
			return &RewriteResult{Text: text}, true
		}
	}
	return nil, false
}

// extractJSON strips code fences and surrounding prose, slicing from the
// first opening brace/bracket to the last closing one.
func extractJSON(raw string) string {
	s := raw
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	start := strings.IndexAny(s, "{[")
	end := strings.LastIndexAny(s, "}]")
	if start < 0 || end <= start {
		return strings.TrimSpace(s)
	}
	return s[start : end+1]
}

// unquote decodes one JSON string token; on failure it returns the token
// with the outer quotes trimmed.
func unquote(tok string) string {
	var s string
	if err := json.Unmarshal([]byte(tok), &s); err == nil {
		return s
	}
	return strings.Trim(tok, `"`)
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

package pipeline

import (
	"testing"
)

func TestParseAnalysisCleanJSON(t *testing.T) {
	raw := `{"plagiarismScore": 30, "aiScore": 70, "critique": "robotic phrasing", "issues": [{"type": "repetition", "excerpt": "very very"}]}`
	got, ok := ParseAnalysis(raw)
	if !ok {
		t.Fatal("expected ok")
	}
	if got.PlagiarismScore != 30 || got.AIScore != 70 {
		t.Fatalf("scores wrong: %+v", got)
	}
	if len(got.Issues) != 1 || got.Issues[0].Type != "repetition" {
		t.Fatalf("issues wrong: %+v", got.Issues)
	}
}

func TestParseAnalysisStripsFencesAndProse(t *testing.T) {
	raw := "Sure! ```json\n{\"plagiarismScore\": 42, \"aiScore\": 12, \"critique\": \"ok\"}\n``` Thanks!"
	got, ok := ParseAnalysis(raw)
	if !ok {
		t.Fatal("expected ok")
	}
	if got.PlagiarismScore != 42 || got.Critique != "ok" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestParseAnalysisProseWithoutFences(t *testing.T) {
	raw := `Here is the analysis you asked for: {"plagiarismScore": 55, "aiScore": 20} hope it helps`
	got, ok := ParseAnalysis(raw)
	if !ok || got.PlagiarismScore != 55 {
		t.Fatalf("unexpected: ok=%v got=%+v", ok, got)
	}
}

func TestParseAnalysisFallbackExtraction(t *testing.T) {
	// trailing comma makes the strict parse fail
	raw := `{"plagiarismScore": 61, "aiScore": 44, "critique": "close \"match\" found", "issues": [],}`
	got, ok := ParseAnalysis(raw)
	if !ok {
		t.Fatal("fallback should have salvaged this")
	}
	if got.PlagiarismScore != 61 || got.AIScore != 44 {
		t.Fatalf("scores wrong: %+v", got)
	}
	if got.Critique != `close "match" found` {
		t.Fatalf("critique not unescaped: %q", got.Critique)
	}
	if got.Issues == nil {
		t.Fatal("issues marker should yield an empty list")
	}
}

func TestParseAnalysisRejectsGarbage(t *testing.T) {
	if _, ok := ParseAnalysis("I cannot analyze this document."); ok {
		t.Fatal("expected failure on score-free prose")
	}
	if _, ok := ParseAnalysis(""); ok {
		t.Fatal("expected failure on empty input")
	}
}

func TestParseAnalysisSchemaRejectsWrongTypes(t *testing.T) {
	// parses as JSON but violates the schema; score regex still saves it
	raw := `{"plagiarismScore": "85", "aiScore": 10}`
	got, ok := ParseAnalysis(raw)
	if !ok {
		t.Fatal("fallback should have salvaged this")
	}
	if got.PlagiarismScore != 85 {
		t.Fatalf("expected salvaged score 85, got %d", got.PlagiarismScore)
	}
}

func TestParseRewriteCleanJSON(t *testing.T) {
	raw := "```json\n{\"rewrittenText\": \"better text\", \"improvements\": [\"simpler wording\"], \"bibliography\": [{\"url\": \"https://a\", \"title\": \"A\"}]}\n```"
	got, ok := ParseRewrite(raw)
	if !ok {
		t.Fatal("expected ok")
	}
	if got.Text != "better text" || len(got.Improvements) != 1 || len(got.Bibliography) != 1 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestParseRewriteFallback(t *testing.T) {
	raw := `{"rewrittenText": "salvaged\nline", "improvements": [broken`
	got, ok := ParseRewrite(raw)
	if !ok {
		t.Fatal("expected fallback to recover text")
	}
	if got.Text != "salvaged\nline" {
		t.Fatalf("text not recovered: %q", got.Text)
	}
}

func TestParseRewriteRejectsEmpty(t *testing.T) {
	if _, ok := ParseRewrite(`{"rewrittenText": ""}`); ok {
		t.Fatal("empty rewrite must not pass")
	}
	if _, ok := ParseRewrite("no structure at all"); ok {
		t.Fatal("expected failure")
	}
}

package llm

import (
	"context"
	"fmt"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"

	"github.com/plagiafix/plagiafix/internal/pipeline"
)

// VertexGemini implements Classifier and Rewriter on Vertex AI. The model
// is asked for application/json, but callers still run the output through
// response recovery since the instruction is not always honored.
type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	m.GenerationConfig.ResponseMIMEType = "application/json"
	return &VertexGemini{client: c, model: m}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) Classify(ctx context.Context, chunk string, opts pipeline.Options) (string, error) {
	prompt := fmt.Sprintf(`You are a plagiarism and AI-writing detector. Analyze the passage below.
Respond with JSON only: {"plagiarismScore": 0-100, "aiScore": 0-100, "critique": string, "issues": [{"type", "excerpt", "suggestion", "severity"}], "paragraphs": [{"index", "risk", "reason"}], "forensics": {"perplexity", "burstiness", "uniformity", "predictability"}}.
%s
Passage:
%s`, dialectLine(opts), chunk)
	return v.generate(ctx, prompt)
}

func (v *VertexGemini) Rewrite(ctx context.Context, chunk string, opts pipeline.Options) (string, error) {
	style := opts.Style
	if style == "" {
		style = "natural"
	}
	var b strings.Builder
	fmt.Fprintf(&b, `You are a writing humanizer. Rewrite the passage below in a %s voice so it reads as original human writing while keeping its meaning.
Respond with JSON only: {"rewrittenText": string, "improvements": [string]`, style)
	if opts.Citations {
		b.WriteString(`, "bibliography": [{"url", "title", "authors", "year"}]`)
	}
	b.WriteString("}.\n")
	if l := dialectLine(opts); l != "" {
		b.WriteString(l + "\n")
	}
	b.WriteString("Passage:\n")
	b.WriteString(chunk)
	return v.generate(ctx, b.String())
}

func (v *VertexGemini) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := v.model.GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				out.WriteString(string(t))
			}
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("empty model response")
	}
	return out.String(), nil
}

func dialectLine(opts pipeline.Options) string {
	if opts.Dialect == "" {
		return ""
	}
	return "Write in the " + opts.Dialect + " dialect."
}

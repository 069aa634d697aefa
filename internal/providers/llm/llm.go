package llm

import (
	"context"

	"github.com/plagiafix/plagiafix/internal/pipeline"
)

// Classifier scores one chunk for plagiarism/AI likelihood and returns the
// raw model output; response recovery happens in the pipeline.
type Classifier interface {
	Classify(ctx context.Context, chunk string, opts pipeline.Options) (string, error)
}

// Rewriter humanizes one chunk and returns the raw model output.
type Rewriter interface {
	Rewrite(ctx context.Context, chunk string, opts pipeline.Options) (string, error)
}

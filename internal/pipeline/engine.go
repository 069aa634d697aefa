package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/plagiafix/plagiafix/internal/telemetry"
	"github.com/plagiafix/plagiafix/internal/utils"
)

// ClassifyFunc submits one chunk for detection and returns the raw model
// output. RewriteFunc does the same for humanizing. Both are remote calls
// owned by a provider; the engine never interprets transport details.
type (
	ClassifyFunc func(ctx context.Context, chunk string, opts Options) (string, error)
	RewriteFunc  func(ctx context.Context, chunk string, opts Options) (string, error)
)

// ProgressFunc receives advisory progress for a UI: a 0-100 percentage and
// a human-readable status line.
type ProgressFunc func(percent int, message string)

const (
	DefaultChunkSize  = 12000
	DefaultBatchSize  = 3
	DefaultBatchDelay = 2 * time.Second
)

// Engine is the consolidated document pipeline: Chunker -> bounded-
// concurrency batches -> (retry -> remote call -> response recovery) ->
// aggregation. Collaborators are injected so the whole thing runs against
// fakes in tests. One bad chunk is contained; only a document where every
// chunk failed surfaces an error.
type Engine struct {
	Classify ClassifyFunc
	Rewrite  RewriteFunc

	ChunkSize  int
	BatchSize  int
	BatchDelay time.Duration
	Retry      Retrier

	Telemetry telemetry.Recorder
	Logger    *logrus.Logger
}

// AnalyzeDocument classifies text of unbounded size and merges the
// per-chunk partials into one document-level analysis.
func (e *Engine) AnalyzeDocument(ctx context.Context, text string, opts Options, progress ProgressFunc) (*AnalysisResult, error) {
	const op = "Engine.AnalyzeDocument"
	if e.Classify == nil {
		return nil, utils.E(utils.CodeInternal, op, "no classifier configured", nil)
	}

	partials, err := runChunks(ctx, e, op, text, opts, progress, e.Classify, ParseAnalysis)
	if err != nil {
		return nil, err
	}
	out, err := AggregateAnalysis(partials)
	if err != nil {
		return nil, err
	}
	e.record("analysis_completed", map[string]any{
		"chunks":           len(partials),
		"plagiarism_score": out.PlagiarismScore,
		"ai_score":         out.AIScore,
	})
	return out, nil
}

// HumanizeDocument rewrites text chunk by chunk and stitches the segments
// back together in order.
func (e *Engine) HumanizeDocument(ctx context.Context, text string, opts Options, progress ProgressFunc) (*RewriteResult, error) {
	const op = "Engine.HumanizeDocument"
	if e.Rewrite == nil {
		return nil, utils.E(utils.CodeInternal, op, "no rewriter configured", nil)
	}

	partials, err := runChunks(ctx, e, op, text, opts, progress, e.Rewrite, ParseRewrite)
	if err != nil {
		return nil, err
	}
	out, err := AggregateRewrite(partials)
	if err != nil {
		return nil, err
	}
	e.record("humanize_completed", map[string]any{
		"chunks":       len(partials),
		"improvements": len(out.Improvements),
	})
	return out, nil
}

// runChunks is the shared fan-out: each chunk goes through the retry
// policy and response recovery; failures become nil slots for the
// aggregator to skip.
func runChunks[R any](
	ctx context.Context,
	e *Engine,
	op string,
	text string,
	opts Options,
	progress ProgressFunc,
	call func(ctx context.Context, chunk string, opts Options) (string, error),
	parse func(raw string) (*R, bool),
) ([]*R, error) {
	if text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "empty document", nil)
	}

	chunkSize := e.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	batchSize := e.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	delay := e.BatchDelay
	if delay <= 0 {
		delay = DefaultBatchDelay
	}

	chunks := Chunk(text, chunkSize)
	report := serializeProgress(progress)
	report(0, fmt.Sprintf("processing %d segments", len(chunks)))

	task := func(ctx context.Context, chunk string, index int) (*R, error) {
		retry := e.Retry
		retry.OnRetry = func(msg string) {
			report(-1, msg)
		}

		var raw string
		err := retry.Do(ctx, fmt.Sprintf("segment %d/%d", index+1, len(chunks)), func(ctx context.Context) error {
			var cerr error
			raw, cerr = call(ctx, chunk, opts)
			return cerr
		})
		if err != nil {
			return nil, err
		}

		parsed, ok := parse(raw)
		if !ok {
			return nil, utils.E(utils.CodeMalformedResponse, op,
				fmt.Sprintf("segment %d returned unusable output", index+1), nil)
		}
		report((index+1)*100/len(chunks), fmt.Sprintf("finished segment %d of %d", index+1, len(chunks)))
		return parsed, nil
	}

	results, errs := InBatches(ctx, chunks, batchSize, delay, task, nil)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, err := range errs {
		if err == nil {
			continue
		}
		if e.Logger != nil {
			e.Logger.WithError(err).WithFields(logrus.Fields{
				"op":    op,
				"chunk": i,
			}).Warn("chunk failed, excluded from aggregation")
		}
		e.record("chunk_failed", map[string]any{"op": op, "chunk": i, "error": err.Error()})
	}
	report(100, "merging results")
	return results, nil
}

// serializeProgress wraps the caller's callback so concurrent completions
// never report a lower percentage than one already shown. A percent < 0
// re-reports the last value with a new message (used for retry notices).
func serializeProgress(fn ProgressFunc) ProgressFunc {
	if fn == nil {
		return func(int, string) {}
	}
	var (
		mu   sync.Mutex
		high int
	)
	return func(percent int, message string) {
		mu.Lock()
		defer mu.Unlock()
		if percent > high {
			high = percent
		}
		fn(high, message)
	}
}

func (e *Engine) record(event string, details map[string]any) {
	if e.Telemetry != nil {
		e.Telemetry.Record(event, details)
	}
}

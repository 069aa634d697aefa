package pipeline

import (
	"strings"

	"github.com/plagiafix/plagiafix/internal/utils"
)

// AggregateAnalysis merges per-chunk analysis partials into one document
// result. nil entries (failed chunks) are skipped; if every entry is nil
// the whole operation fails with NO_VALID_RESULTS. Percentage scores are
// the rounded mean, forensic metrics are averaged per metric, issues are a
// first-seen union, paragraph annotations are concatenated in chunk order
// (they describe disjoint spans), and the critique comes from the partial
// with the highest risk score, first one winning ties.
func AggregateAnalysis(partials []*AnalysisResult) (*AnalysisResult, error) {
	const op = "pipeline.AggregateAnalysis"

	valid := compact(partials)
	if len(valid) == 0 {
		return nil, utils.E(utils.CodeNoValidResults, op, "every chunk failed analysis", nil)
	}

	out := &AnalysisResult{}
	var (
		plagSum, aiSum int
		forSum         Forensics
		seenIssue      = map[string]struct{}{}
		bestRisk       = -1
	)
	for _, p := range valid {
		plagSum += p.PlagiarismScore
		aiSum += p.AIScore
		forSum.Perplexity += p.Forensics.Perplexity
		forSum.Burstiness += p.Forensics.Burstiness
		forSum.Uniformity += p.Forensics.Uniformity
		forSum.Predictability += p.Forensics.Predictability

		for _, is := range p.Issues {
			key := is.Type + "\x00" + is.Excerpt
			if _, ok := seenIssue[key]; ok {
				continue
			}
			seenIssue[key] = struct{}{}
			out.Issues = append(out.Issues, is)
		}

		base := len(out.Paragraphs)
		for _, pr := range p.Paragraphs {
			pr.Index = base + pr.Index
			out.Paragraphs = append(out.Paragraphs, pr)
		}

		if p.riskScore() > bestRisk {
			bestRisk = p.riskScore()
			out.Critique = p.Critique
		}
	}

	n := float64(len(valid))
	out.PlagiarismScore = roundMean(plagSum, len(valid))
	out.AIScore = roundMean(aiSum, len(valid))
	out.Forensics = Forensics{
		Perplexity:     forSum.Perplexity / n,
		Burstiness:     forSum.Burstiness / n,
		Uniformity:     forSum.Uniformity / n,
		Predictability: forSum.Predictability / n,
	}
	return out, nil
}

// AggregateRewrite merges per-chunk rewrite partials: text segments are
// joined in chunk order with a paragraph break, improvements are a
// first-seen union, and the
// bibliography deduplicates by URL with last write winning but first-seen
// ordering kept.
func AggregateRewrite(partials []*RewriteResult) (*RewriteResult, error) {
	const op = "pipeline.AggregateRewrite"

	valid := compact(partials)
	if len(valid) == 0 {
		return nil, utils.E(utils.CodeNoValidResults, op, "every chunk failed rewriting", nil)
	}

	out := &RewriteResult{}
	seenImp := map[string]struct{}{}
	bibIdx := map[string]int{}
	for _, p := range valid {
		seg := strings.TrimSpace(p.Text)
		if seg != "" {
			if out.Text != "" {
				out.Text += "\n\n"
			}
			out.Text += seg
		}

		for _, im := range p.Improvements {
			if _, ok := seenImp[im]; ok {
				continue
			}
			seenImp[im] = struct{}{}
			out.Improvements = append(out.Improvements, im)
		}

		for _, c := range p.Bibliography {
			if i, ok := bibIdx[c.URL]; ok {
				out.Bibliography[i] = c
				continue
			}
			bibIdx[c.URL] = len(out.Bibliography)
			out.Bibliography = append(out.Bibliography, c)
		}
	}
	return out, nil
}

func compact[T any](in []*T) []*T {
	out := make([]*T, 0, len(in))
	for _, p := range in {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func roundMean(sum, n int) int {
	if n == 0 {
		return 0
	}
	return (2*sum + n) / (2 * n) // round half up
}

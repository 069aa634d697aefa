package pipeline

// Options carries the contextual parameters threaded through every chunk
// call: writing style profile, citation preference, and target dialect.
type Options struct {
	Style     string `json:"style,omitempty"`   // academic|casual|professional
	Citations bool   `json:"citations"`         // request a bibliography
	Dialect   string `json:"dialect,omitempty"` // en-US|en-GB|...
}

// Issue is one detected problem in a scanned document.
type Issue struct {
	Type       string `json:"type"`
	Excerpt    string `json:"excerpt,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Severity   string `json:"severity,omitempty"` // low|medium|high
}

// ParagraphRisk annotates one paragraph of the source with a risk level.
type ParagraphRisk struct {
	Index  int    `json:"index"`
	Risk   int    `json:"risk"` // 0-100
	Reason string `json:"reason,omitempty"`
}

// Forensics are the stylometric metrics reported per chunk and averaged
// per metric across the document.
type Forensics struct {
	Perplexity     float64 `json:"perplexity"`
	Burstiness     float64 `json:"burstiness"`
	Uniformity     float64 `json:"uniformity"`
	Predictability float64 `json:"predictability"`
}

// AnalysisResult is the parsed output of classifying one chunk, and also
// the document-level shape after aggregation.
type AnalysisResult struct {
	PlagiarismScore int             `json:"plagiarismScore"` // 0-100
	AIScore         int             `json:"aiScore"`         // 0-100
	Critique        string          `json:"critique,omitempty"`
	Issues          []Issue         `json:"issues,omitempty"`
	Paragraphs      []ParagraphRisk `json:"paragraphs,omitempty"`
	Forensics       Forensics       `json:"forensics"`
}

// riskScore ranks partials when electing the representative critique.
func (r *AnalysisResult) riskScore() int {
	if r.AIScore > r.PlagiarismScore {
		return r.AIScore
	}
	return r.PlagiarismScore
}

// Citation is one bibliography entry, identified by URL.
type Citation struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Authors string `json:"authors,omitempty"`
	Year    string `json:"year,omitempty"`
}

// RewriteResult is the parsed output of rewriting one chunk, and the
// document-level shape after aggregation.
type RewriteResult struct {
	Text         string     `json:"rewrittenText"`
	Improvements []string   `json:"improvements,omitempty"`
	Bibliography []Citation `json:"bibliography,omitempty"`
}

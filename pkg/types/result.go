package types

// Status describes how a query concluded.
type Status string

const (
	// StatusOK means an answer was generated from retrieved context.
	StatusOK Status = "ok"
	// StatusNotFound means no channel surfaced any entry; the answer is the canned message.
	StatusNotFound Status = "not_found"
	// StatusDegraded means retrieval succeeded but generation failed; the answer carries the error text.
	StatusDegraded Status = "degraded"
	// StatusFailed means retrieval failed; no answer was produced.
	StatusFailed Status = "failed"
)

// FailureKind tags the class of failure carried by a result.
type FailureKind string

const (
	FailureConnectivity FailureKind = "connectivity"
	FailureQuery        FailureKind = "query"
	FailureGeneration   FailureKind = "generation"
	FailureInternal     FailureKind = "internal"
)

// Failure describes why a query did not produce a normal answer.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Source cites one entry used to build the answer.
type Source struct {
	KnowledgeBase  string  `json:"knowledge_base"`
	EntryTitle     string  `json:"entry_title"`
	Category       string  `json:"category"`
	RelevanceScore float64 `json:"relevance_score"`
}

// QueryResult is the outcome of one question.
type QueryResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
	Context string   `json:"context,omitempty"`
	Status  Status   `json:"status"`
	Failure *Failure `json:"failure,omitempty"`
}

// OK reports whether the result carries no failure.
func (r *QueryResult) OK() bool {
	return r != nil && r.Failure == nil
}

// SourcesFrom converts fused hits into source citations, preserving rank order.
func SourcesFrom(hits []ScoredHit) []Source {
	sources := make([]Source, 0, len(hits))
	for _, h := range hits {
		sources = append(sources, Source{
			KnowledgeBase:  h.KnowledgeBaseName,
			EntryTitle:     h.Title,
			Category:       h.Category,
			RelevanceScore: h.Combined,
		})
	}
	return sources
}

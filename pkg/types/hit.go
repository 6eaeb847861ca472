package types

// Channel names used by the default retrieval pipeline.
const (
	ChannelSemantic = "semantic"
	ChannelKeyword  = "keyword"
	ChannelRelated  = "related"
)

// Hit is a single entry surfaced by one retrieval channel.
type Hit struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Category          string  `json:"category"`
	Content           string  `json:"content"`
	KnowledgeBaseName string  `json:"knowledge_base_name"`
	Score             float64 `json:"score"`

	// Distance is the hop count for relational hits, zero otherwise.
	Distance int `json:"distance,omitempty"`
}

// ScoredHit is the fused record for one entry within a single query.
type ScoredHit struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Category          string             `json:"category"`
	Content           string             `json:"content"`
	KnowledgeBaseName string             `json:"knowledge_base_name"`
	Scores            map[string]float64 `json:"scores"`
	Combined          float64            `json:"combined_score"`
}

// NewScoredHit seeds a fused record from a channel hit with no scores yet.
func NewScoredHit(h Hit) *ScoredHit {
	return &ScoredHit{
		ID:                h.ID,
		Title:             h.Title,
		Category:          h.Category,
		Content:           h.Content,
		KnowledgeBaseName: h.KnowledgeBaseName,
		Scores:            make(map[string]float64),
	}
}

// Score returns the score contributed by a channel, zero when the channel did not surface the entry.
func (s *ScoredHit) Score(channel string) float64 {
	return s.Scores[channel]
}

// Semantic returns the vector similarity score.
func (s *ScoredHit) Semantic() float64 { return s.Score(ChannelSemantic) }

// Keyword returns the full-text relevance score.
func (s *ScoredHit) Keyword() float64 { return s.Score(ChannelKeyword) }

// Related returns the relational expansion score.
func (s *ScoredHit) Related() float64 { return s.Score(ChannelRelated) }

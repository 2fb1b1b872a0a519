package domain

// Strategy selects how a retrieval request is executed.
type Strategy string

const (
	StrategyVector     Strategy = "vector"
	StrategyKeyword    Strategy = "keyword"
	StrategyHybrid     Strategy = "hybrid"
	StrategyMultiQuery Strategy = "multi_query"
	StrategyHyde       Strategy = "hyde"
)

// ParseStrategy maps a strategy name to the closed enum. Unknown or empty
// names fall back to hybrid rather than failing the request.
func ParseStrategy(name string) Strategy {
	switch Strategy(name) {
	case StrategyVector, StrategyKeyword, StrategyHybrid, StrategyMultiQuery, StrategyHyde:
		return Strategy(name)
	default:
		return StrategyHybrid
	}
}

// SearchFilter narrows retrieval to matching document metadata. Empty fields
// match everything.
type SearchFilter struct {
	DocumentType string
	DateFrom     string
	DateTo       string
}

func (f SearchFilter) IsZero() bool {
	return f.DocumentType == "" && f.DateFrom == "" && f.DateTo == ""
}

// SearchResult is one retrieved passage. Score semantics depend on the
// strategy that produced it (cosine similarity, BM25, fused score) and are
// not comparable across strategies. ID is the dedup key during fusion.
type SearchResult struct {
	ID         string         `json:"id"`
	Score      float64        `json:"score"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	DocumentID string         `json:"document_id,omitempty"`
}

// IndexedDocument is the keyword index input unit.
type IndexedDocument struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// RetrievalRequest is the orchestrator entry point payload.
type RetrievalRequest struct {
	Query    string
	TopK     int
	Strategy Strategy
	Filter   SearchFilter
}

// Source is a SearchResult annotated with its 1-based display number in a
// generated answer.
type Source struct {
	Number     int            `json:"number"`
	Content    string         `json:"content"`
	Score      float64        `json:"score"`
	DocumentID string         `json:"document_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// RAGAnswer is the result of a retrieve-then-generate request.
// GenerationError is set when answer synthesis failed after a successful
// retrieval; the sources are still populated in that case.
type RAGAnswer struct {
	Answer          string   `json:"answer"`
	Sources         []Source `json:"sources"`
	Confidence      float64  `json:"confidence"`
	StrategyUsed    Strategy `json:"strategy_used"`
	ExecutionTime   float64  `json:"execution_time"`
	GenerationError string   `json:"generation_error,omitempty"`
}

package keyword

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/aleksworks/docintel/internal/core/domain"
)

// Parameters holds the BM25 tuning constants.
type Parameters struct {
	K1 float64
	B  float64
}

func DefaultParameters() Parameters {
	return Parameters{K1: 1.5, B: 0.75}
}

// Engine is the process-wide lexical index. The scoring structure is
// immutable once built; Index/Add/Remove construct a full replacement and
// swap it in under the write lock, so readers never observe a half-built
// index. Rebuild cost is O(corpus size) per mutation, acceptable for the
// corpora this serves.
type Engine struct {
	params Parameters

	mu     sync.RWMutex
	docs   []domain.IndexedDocument
	scorer *scorer
}

func NewEngine(params Parameters) *Engine {
	if params.K1 <= 0 {
		params.K1 = DefaultParameters().K1
	}
	if params.B < 0 || params.B > 1 {
		params.B = DefaultParameters().B
	}
	return &Engine{params: params}
}

// Index replaces the whole corpus with docs and rebuilds the scorer.
func (e *Engine) Index(docs []domain.IndexedDocument) {
	corpus := make([]domain.IndexedDocument, len(docs))
	copy(corpus, docs)
	built := buildScorer(corpus, e.params)

	e.mu.Lock()
	e.docs = corpus
	e.scorer = built
	e.mu.Unlock()
}

// Add upserts a single document and rebuilds. An existing id keeps its
// original corpus position.
func (e *Engine) Add(doc domain.IndexedDocument) {
	e.mu.Lock()
	defer e.mu.Unlock()

	replaced := false
	corpus := make([]domain.IndexedDocument, len(e.docs))
	copy(corpus, e.docs)
	for i := range corpus {
		if corpus[i].ID == doc.ID {
			corpus[i] = doc
			replaced = true
			break
		}
	}
	if !replaced {
		corpus = append(corpus, doc)
	}

	e.docs = corpus
	e.scorer = buildScorer(corpus, e.params)
}

// Remove deletes a document by id and rebuilds. Unknown ids are a no-op.
func (e *Engine) Remove(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	corpus := make([]domain.IndexedDocument, 0, len(e.docs))
	for _, doc := range e.docs {
		if doc.ID != id {
			corpus = append(corpus, doc)
		}
	}
	if len(corpus) == len(e.docs) {
		return
	}

	e.docs = corpus
	e.scorer = buildScorer(corpus, e.params)
}

func (e *Engine) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}

// Search scores every indexed document against query and returns the topK by
// descending score, dropping scores below minScore. Ties keep corpus
// insertion order. An empty index yields an empty slice.
func (e *Engine) Search(query string, topK int, minScore float64) []domain.SearchResult {
	e.mu.RLock()
	s := e.scorer
	docs := e.docs
	e.mu.RUnlock()

	if s == nil || len(docs) == 0 || topK <= 0 {
		return []domain.SearchResult{}
	}

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return []domain.SearchResult{}
	}

	type scored struct {
		pos   int
		score float64
	}
	candidates := make([]scored, 0, len(docs))
	for i := range docs {
		score := s.score(i, queryTerms)
		if score <= 0 || score < minScore {
			continue
		}
		candidates = append(candidates, scored{pos: i, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	out := make([]domain.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		doc := docs[c.pos]
		out = append(out, domain.SearchResult{
			ID:         doc.ID,
			Score:      c.score,
			Content:    doc.Content,
			Metadata:   doc.Metadata,
			DocumentID: metadataString(doc.Metadata, "document_id"),
		})
	}
	return out
}

func metadataString(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	v, _ := metadata[key].(string)
	return v
}

// scorer holds the precomputed term statistics for one corpus snapshot.
type scorer struct {
	params      Parameters
	avgDocLen   float64
	totalDocs   int
	docFreq     map[string]int
	docTermFreq []map[string]int
	docLengths  []int
}

func buildScorer(docs []domain.IndexedDocument, params Parameters) *scorer {
	s := &scorer{
		params:      params,
		totalDocs:   len(docs),
		docFreq:     make(map[string]int),
		docTermFreq: make([]map[string]int, len(docs)),
		docLengths:  make([]int, len(docs)),
	}

	totalLen := 0
	for i, doc := range docs {
		terms := tokenize(doc.Content)
		s.docLengths[i] = len(terms)
		totalLen += len(terms)

		termFreq := make(map[string]int, len(terms))
		for _, term := range terms {
			termFreq[term]++
		}
		s.docTermFreq[i] = termFreq

		for term := range termFreq {
			s.docFreq[term]++
		}
	}

	if s.totalDocs > 0 {
		s.avgDocLen = float64(totalLen) / float64(s.totalDocs)
	}
	return s
}

func (s *scorer) score(doc int, queryTerms []string) float64 {
	if s.avgDocLen == 0 {
		return 0
	}

	score := 0.0
	docLen := float64(s.docLengths[doc])
	for _, term := range queryTerms {
		tf, ok := s.docTermFreq[doc][term]
		if !ok {
			continue
		}

		df := float64(s.docFreq[term])
		idf := math.Log(1.0 + (float64(s.totalDocs)-df+0.5)/(df+0.5))

		numerator := float64(tf) * (s.params.K1 + 1.0)
		denominator := float64(tf) + s.params.K1*(1.0-s.params.B+s.params.B*(docLen/s.avgDocLen))
		score += idf * (numerator / denominator)
	}
	return score
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "in": {}, "is": {}, "it": {},
	"of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "to": {}, "was": {},
	"were": {}, "will": {}, "with": {},
}

// tokenize lowercases, strips non-alphanumeric runes, splits on the
// boundaries, and drops stopwords. Query and document text go through the
// same rules. Light plural stemming keeps "cats" matching "cat".
func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	out := make([]string, 0, 24)
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		token := stemPlural(b.String())
		b.Reset()
		if _, skip := stopwords[token]; skip || token == "" {
			return
		}
		out = append(out, token)
	}

	for _, r := range text {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}

func stemPlural(token string) string {
	if len(token) > 3 && strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss") {
		return token[:len(token)-1]
	}
	return token
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aleksworks/docintel/internal/core/domain"
	"github.com/aleksworks/docintel/internal/core/ports"
)

// RetrievalConfig carries the tuning knobs for the retrieval strategies.
// Zero values are replaced with the reference defaults.
type RetrievalConfig struct {
	DefaultTopK         int
	HybridCandidates    int
	FusionStrategy      string // "rrf" or "weighted"
	FusionRRFK          int
	VectorWeight        float64
	KeywordWeight       float64
	SimilarityThreshold float64
	KeywordMinScore     float64
	MultiQueryCount     int
	HydeUseBoth         bool
	MaxContextChars     int
}

func (c RetrievalConfig) normalize() RetrievalConfig {
	out := c
	if out.DefaultTopK <= 0 {
		out.DefaultTopK = 10
	}
	if out.HybridCandidates <= 0 {
		out.HybridCandidates = 30
	}
	if out.FusionStrategy != fusionWeighted {
		out.FusionStrategy = fusionRRF
	}
	if out.FusionRRFK <= 0 {
		out.FusionRRFK = 60
	}
	if out.VectorWeight <= 0 {
		out.VectorWeight = 0.7
	}
	if out.KeywordWeight <= 0 {
		out.KeywordWeight = 0.3
	}
	if out.SimilarityThreshold <= 0 {
		out.SimilarityThreshold = 0.7
	}
	if out.MultiQueryCount <= 1 {
		out.MultiQueryCount = 3
	}
	if out.MaxContextChars <= 0 {
		out.MaxContextChars = 8000
	}
	return out
}

// SearchUseCase is the retrieval orchestrator: it dispatches a request to
// one of the strategies and converges the output into a single ranked list.
type SearchUseCase struct {
	embedder  ports.Embedder
	vectorDB  ports.VectorIndex
	keywordDB ports.KeywordIndex
	generator ports.TextGenerator
	cfg       RetrievalConfig
}

func NewSearchUseCase(
	embedder ports.Embedder,
	vectorDB ports.VectorIndex,
	keywordDB ports.KeywordIndex,
	generator ports.TextGenerator,
	cfg RetrievalConfig,
) *SearchUseCase {
	return &SearchUseCase{
		embedder:  embedder,
		vectorDB:  vectorDB,
		keywordDB: keywordDB,
		generator: generator,
		cfg:       cfg.normalize(),
	}
}

// Search executes one retrieval request. The strategy switch is exhaustive
// over the closed enum; requests that arrive with an unparsed strategy are
// normalized to hybrid first.
func (uc *SearchUseCase) Search(ctx context.Context, req domain.RetrievalRequest) ([]domain.SearchResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", fmt.Errorf("query is required"))
	}
	if req.TopK <= 0 {
		req.TopK = uc.cfg.DefaultTopK
	}

	switch domain.ParseStrategy(string(req.Strategy)) {
	case domain.StrategyVector:
		return uc.vectorSearch(ctx, req.Query, req.TopK, req.Filter)
	case domain.StrategyKeyword:
		return uc.keywordSearch(req.Query, req.TopK), nil
	case domain.StrategyMultiQuery:
		return uc.multiQuerySearch(ctx, req.Query, req.TopK, req.Filter)
	case domain.StrategyHyde:
		return uc.hydeSearch(ctx, req.Query, req.TopK, req.Filter)
	case domain.StrategyHybrid:
		return uc.hybridSearch(ctx, req.Query, req.TopK, req.Filter)
	default:
		return uc.hybridSearch(ctx, req.Query, req.TopK, req.Filter)
	}
}

// vectorSearch embeds the query and asks the vector index for the nearest
// neighbors, dropping matches under the similarity threshold. Provider and
// index failures propagate as retrieval errors, untouched by retries at
// this layer.
func (uc *SearchUseCase) vectorSearch(ctx context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.SearchResult, error) {
	queryVector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrieval, "embed query", err)
	}

	matches, err := uc.vectorDB.Query(ctx, queryVector, topK, filter)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrieval, "vector query", err)
	}

	out := make([]domain.SearchResult, 0, len(matches))
	for _, m := range matches {
		if m.Score < uc.cfg.SimilarityThreshold {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (uc *SearchUseCase) keywordSearch(query string, topK int) []domain.SearchResult {
	return uc.keywordDB.Search(query, topK, uc.cfg.KeywordMinScore)
}

// hybridSearch retrieves candidate pools from both signals and fuses them.
// A single failing signal degrades to the surviving list; only both failing
// is an error.
func (uc *SearchUseCase) hybridSearch(ctx context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.SearchResult, error) {
	candidates := uc.cfg.HybridCandidates
	if candidates < topK {
		candidates = topK
	}

	semantic, vectorErr := uc.vectorSearch(ctx, query, candidates, filter)
	lexical := uc.keywordSearch(query, candidates)

	if vectorErr != nil {
		if len(lexical) == 0 {
			return nil, vectorErr
		}
		slog.Warn("hybrid_vector_degraded", "error", vectorErr)
		semantic = nil
	}

	lists := []rankedList{
		{results: semantic, weight: uc.cfg.VectorWeight},
		{results: lexical, weight: uc.cfg.KeywordWeight},
	}

	var fused []domain.SearchResult
	if uc.cfg.FusionStrategy == fusionWeighted {
		fused = fuseWeighted(lists)
	} else {
		fused = fuseRRF(lists, uc.cfg.FusionRRFK)
	}
	return trimResults(fused, topK), nil
}

func trimResults(results []domain.SearchResult, topK int) []domain.SearchResult {
	if topK <= 0 || len(results) <= topK {
		return results
	}
	return results[:topK]
}

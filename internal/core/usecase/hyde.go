package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/aleksworks/docintel/internal/core/domain"
)

const hydeTemperature = 0.7

// generateHypotheticalDocument asks the generator to write a passage that
// would plausibly answer the query. On failure the original query text comes
// back unchanged, degrading HyDE to ordinary vector search.
func (uc *SearchUseCase) generateHypotheticalDocument(ctx context.Context, query string) string {
	raw, err := uc.generator.Generate(ctx, buildHydePrompt(query), hydeTemperature)
	if err != nil {
		slog.Warn("hyde_generation_failed", "error", err)
		return query
	}
	doc := strings.TrimSpace(raw)
	if doc == "" {
		return query
	}
	return doc
}

// hydeSearch vector-searches with the hypothetical document for 2*topK
// candidates and, when configured, with the literal query for topK more.
// Both searches run concurrently; the union is deduplicated by id, sorted
// by score, and truncated, so the merge is deterministic regardless of
// completion order.
func (uc *SearchUseCase) hydeSearch(ctx context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.SearchResult, error) {
	hypothetical := uc.generateHypotheticalDocument(ctx, query)

	var hypoResults, literalResults []domain.SearchResult
	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results, err := uc.vectorSearch(groupCtx, hypothetical, 2*topK, filter)
		if err != nil {
			return fmt.Errorf("hyde hypothetical search: %w", err)
		}
		hypoResults = results
		return nil
	})
	if uc.cfg.HydeUseBoth {
		g.Go(func() error {
			results, err := uc.vectorSearch(groupCtx, query, topK, filter)
			if err != nil {
				return fmt.Errorf("hyde literal search: %w", err)
			}
			literalResults = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !uc.cfg.HydeUseBoth {
		return trimResults(hypoResults, topK), nil
	}

	union := make([]domain.SearchResult, 0, len(hypoResults)+len(literalResults))
	union = append(union, hypoResults...)
	union = append(union, literalResults...)
	union = dedupeByID(union)
	sortByScore(union)
	return trimResults(union, topK), nil
}

func buildHydePrompt(query string) string {
	return fmt.Sprintf(`Write a 2-3 paragraph passage that would plausibly answer the question below.
Write as if it came from a relevant document, using the domain's own phrasing and terminology.
Do not mention the question or that the passage is hypothetical.

Question: %s`, query)
}

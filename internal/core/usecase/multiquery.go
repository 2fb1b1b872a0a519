package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/aleksworks/docintel/internal/core/domain"
)

const multiQueryTemperature = 0.7

// generateQueries asks the generator for n-1 rewordings and returns the
// original query plus the variations. Any generation failure or malformed
// output degrades to the original query alone, so multi-query never does
// worse than single-query search.
func (uc *SearchUseCase) generateQueries(ctx context.Context, original string, n int) []string {
	if n <= 1 {
		return []string{original}
	}

	raw, err := uc.generator.Generate(ctx, buildMultiQueryPrompt(original, n-1), multiQueryTemperature)
	if err != nil {
		slog.Warn("multi_query_generation_failed", "error", err)
		return []string{original}
	}

	variations := parseQueryLines(raw, original, n-1)
	if len(variations) == 0 {
		return []string{original}
	}
	return append([]string{original}, variations...)
}

// parseQueryLines extracts up to max non-empty lines, stripping list
// numbering and bullets, and dropping lines that duplicate the original.
func parseQueryLines(raw, original string, max int) []string {
	out := make([]string, 0, max)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.-*) \t")
		line = strings.Trim(line, `"`)
		if line == "" || strings.EqualFold(line, original) {
			continue
		}
		out = append(out, line)
		if len(out) == max {
			break
		}
	}
	return out
}

// multiQuerySearch runs the hybrid base search once per generated query,
// concurrently, then merges the union: dedupe by id keeping the first
// occurrence, sort by raw score, truncate. Scores from different query runs
// are not normalized against each other; that approximation is inherited
// from the reference behavior.
func (uc *SearchUseCase) multiQuerySearch(ctx context.Context, query string, topK int, filter domain.SearchFilter) ([]domain.SearchResult, error) {
	queries := uc.generateQueries(ctx, query, uc.cfg.MultiQueryCount)

	perQuery := make([][]domain.SearchResult, len(queries))
	g, groupCtx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			results, err := uc.hybridSearch(groupCtx, q, topK, filter)
			if err != nil {
				return fmt.Errorf("multi-query run %d: %w", i+1, err)
			}
			perQuery[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge in query order so the result is independent of completion order.
	union := make([]domain.SearchResult, 0, len(queries)*topK)
	for _, results := range perQuery {
		union = append(union, results...)
	}
	union = dedupeByID(union)
	sortByScore(union)
	return trimResults(union, topK), nil
}

func buildMultiQueryPrompt(query string, n int) string {
	return fmt.Sprintf(`Generate %d alternative phrasings of the search query below.
Each phrasing should capture a different aspect, use synonyms, or reword the question.
Return one phrasing per line, with no numbering and no commentary.

Query: %s`, n, query)
}

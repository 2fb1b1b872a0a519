package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aleksworks/docintel/internal/core/domain"
)

const (
	answerTemperature = 0.2
	noContextAnswer   = "No relevant information was found in the indexed documents for this question."
	truncationMarker  = "\n[context truncated]"
)

// Answer runs retrieval for the question and synthesizes a grounded answer.
// Empty retrieval short-circuits to a canned answer without calling the
// generator. A generation failure after successful retrieval is reported in
// the answer's GenerationError while the sources are kept.
func (uc *SearchUseCase) Answer(
	ctx context.Context,
	question string,
	strategy domain.Strategy,
	topK int,
	filter domain.SearchFilter,
) (*domain.RAGAnswer, error) {
	if topK <= 0 {
		topK = 5
	}
	strategy = domain.ParseStrategy(string(strategy))
	start := time.Now()

	results, err := uc.Search(ctx, domain.RetrievalRequest{
		Query:    question,
		TopK:     topK,
		Strategy: strategy,
		Filter:   filter,
	})
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return &domain.RAGAnswer{
			Answer:        noContextAnswer,
			Sources:       []domain.Source{},
			Confidence:    0.0,
			StrategyUsed:  strategy,
			ExecutionTime: time.Since(start).Seconds(),
		}, nil
	}

	answer := &domain.RAGAnswer{
		Sources:      numberSources(results),
		Confidence:   confidenceFromScores(results),
		StrategyUsed: strategy,
	}

	text, genErr := uc.generator.Generate(ctx, buildAnswerPrompt(question, results, uc.cfg.MaxContextChars), answerTemperature)
	if genErr != nil {
		answer.GenerationError = domain.WrapError(domain.ErrGeneration, "synthesize answer", genErr).Error()
	} else {
		answer.Answer = strings.TrimSpace(text)
	}

	answer.ExecutionTime = time.Since(start).Seconds()
	return answer, nil
}

func numberSources(results []domain.SearchResult) []domain.Source {
	out := make([]domain.Source, 0, len(results))
	for i, r := range results {
		out = append(out, domain.Source{
			Number:     i + 1,
			Content:    r.Content,
			Score:      r.Score,
			DocumentID: r.DocumentID,
			Metadata:   r.Metadata,
		})
	}
	return out
}

// confidenceFromScores is the mean of the top three scores clamped to [0,1].
// Fewer than three results average over what exists.
func confidenceFromScores(results []domain.SearchResult) float64 {
	n := len(results)
	if n == 0 {
		return 0
	}
	if n > 3 {
		n = 3
	}

	sum := 0.0
	for _, r := range results[:n] {
		sum += r.Score
	}
	mean := sum / float64(n)
	if mean < 0 {
		return 0
	}
	if mean > 1 {
		return 1
	}
	return mean
}

// buildAnswerPrompt assembles the [Source N] context block, truncated at
// maxChars with a marker, followed by the grounding instruction.
func buildAnswerPrompt(question string, results []domain.SearchResult, maxChars int) string {
	var contextBuilder strings.Builder
	for i, r := range results {
		contextBuilder.WriteString(fmt.Sprintf("[Source %d] %s\n\n", i+1, r.Content))
	}

	contextBlock := strings.TrimRight(contextBuilder.String(), "\n")
	if maxChars > 0 && len(contextBlock) > maxChars {
		contextBlock = contextBlock[:maxChars] + truncationMarker
	}

	return fmt.Sprintf(`Answer the question using only the context below.
Cite the sources you used as [Source N]. If the context does not contain
the answer, say so directly instead of guessing.

Context:
%s

Question: %s`, contextBlock, question)
}

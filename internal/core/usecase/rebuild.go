package usecase

import (
	"context"
	"fmt"

	"github.com/aleksworks/docintel/internal/core/domain"
	"github.com/aleksworks/docintel/internal/core/ports"
)

// RebuildIndexUseCase reloads the in-memory keyword index from the chunk
// table. The API process runs it at startup and whenever a document-indexed
// event arrives, keeping the lexical corpus converged with the vector store.
type RebuildIndexUseCase struct {
	chunks  ports.ChunkRepository
	keyword ports.KeywordIndex
}

func NewRebuildIndexUseCase(chunks ports.ChunkRepository, keyword ports.KeywordIndex) *RebuildIndexUseCase {
	return &RebuildIndexUseCase{chunks: chunks, keyword: keyword}
}

// Rebuild replaces the keyword index with the persisted corpus and returns
// the number of indexed chunks.
func (uc *RebuildIndexUseCase) Rebuild(ctx context.Context) (int, error) {
	chunks, err := uc.chunks.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list chunks: %w", err)
	}

	docs := make([]domain.IndexedDocument, 0, len(chunks))
	for _, chunk := range chunks {
		docs = append(docs, chunk.IndexedDoc())
	}
	uc.keyword.Index(docs)
	return len(docs), nil
}

package usecase

import (
	"context"
	"fmt"

	"github.com/aleksworks/docintel/internal/core/ports"
)

// DeleteDocumentUseCase removes a document from the vector index, the chunk
// table, object storage, and the document table, then announces the change
// so API processes rebuild their keyword index.
type DeleteDocumentUseCase struct {
	repo      ports.DocumentRepository
	chunkRepo ports.ChunkRepository
	storage   ports.ObjectStorage
	vectorDB  ports.VectorIndex
	queue     ports.MessageQueue
}

func NewDeleteDocumentUseCase(
	repo ports.DocumentRepository,
	chunkRepo ports.ChunkRepository,
	storage ports.ObjectStorage,
	vectorDB ports.VectorIndex,
	queue ports.MessageQueue,
) *DeleteDocumentUseCase {
	return &DeleteDocumentUseCase{
		repo:      repo,
		chunkRepo: chunkRepo,
		storage:   storage,
		vectorDB:  vectorDB,
		queue:     queue,
	}
}

func (uc *DeleteDocumentUseCase) Delete(ctx context.Context, id string) error {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	if err := uc.vectorDB.DeleteByDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := uc.chunkRepo.DeleteForDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := uc.storage.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete stored file: %w", err)
	}
	if err := uc.repo.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document row: %w", err)
	}

	if err := uc.queue.PublishDocumentIndexed(ctx, doc.ID); err != nil {
		return fmt.Errorf("publish index change event: %w", err)
	}
	return nil
}

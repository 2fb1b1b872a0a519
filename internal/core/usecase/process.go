package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aleksworks/docintel/internal/core/domain"
	"github.com/aleksworks/docintel/internal/core/ports"
)

const defaultEmbedBatchSize = 100

// ProcessDocumentUseCase runs the indexing pipeline for one uploaded
// document: extract text, chunk it, embed the chunks in provider-sized
// batches, upsert the vectors, and persist the chunks that feed the keyword
// index.
type ProcessDocumentUseCase struct {
	repo           ports.DocumentRepository
	chunkRepo      ports.ChunkRepository
	extractor      ports.TextExtractor
	chunker        ports.Chunker
	embedder       ports.Embedder
	vectorDB       ports.VectorIndex
	queue          ports.MessageQueue
	embedBatchSize int
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	chunkRepo ports.ChunkRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectorDB ports.VectorIndex,
	queue ports.MessageQueue,
	embedBatchSize int,
) *ProcessDocumentUseCase {
	if embedBatchSize <= 0 || embedBatchSize > defaultEmbedBatchSize {
		embedBatchSize = defaultEmbedBatchSize
	}
	return &ProcessDocumentUseCase{
		repo:           repo,
		chunkRepo:      chunkRepo,
		extractor:      extractor,
		chunker:        chunker,
		embedder:       embedder,
		vectorDB:       vectorDB,
		queue:          queue,
		embedBatchSize: embedBatchSize,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	chunkCount, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SetChunkCount(ctx, documentID, chunkCount); err != nil {
		return fmt.Errorf("save chunk count: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	if err := uc.queue.PublishDocumentIndexed(ctx, documentID); err != nil {
		return fmt.Errorf("publish indexed event: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (int, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("fetch document by id: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	pieces := uc.chunker.Split(text)
	if len(pieces) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	now := time.Now().UTC()
	for i, content := range pieces {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Index:      i,
			Content:    content,
			DocType:    doc.DocType,
			Filename:   doc.Filename,
			CreatedAt:  now,
		})
	}

	if err := uc.embedAndUpsert(ctx, doc, chunks); err != nil {
		return 0, err
	}

	if err := uc.chunkRepo.ReplaceForDocument(ctx, doc.ID, chunks); err != nil {
		return 0, fmt.Errorf("persist chunks: %w", err)
	}
	return len(chunks), nil
}

// embedAndUpsert embeds and indexes batch by batch so a mid-corpus failure
// leaves the already-indexed batches intact; the error reports how far the
// pipeline got rather than rolling everything back.
func (uc *ProcessDocumentUseCase) embedAndUpsert(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	indexed := 0
	for start := 0; start < len(chunks); start += uc.embedBatchSize {
		end := start + uc.embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Content
		}

		vectors, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch %d-%d (%d chunks already indexed): %w", start, end, indexed, err)
		}
		if len(vectors) != len(batch) {
			return domain.WrapError(
				domain.ErrInvalidInput,
				"embed batch",
				fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(batch)),
			)
		}

		if err := uc.vectorDB.Upsert(ctx, doc, batch, vectors); err != nil {
			return fmt.Errorf("upsert batch %d-%d (%d chunks already indexed): %w", start, end, indexed, err)
		}
		indexed = end
	}
	return nil
}

package ports

import (
	"context"
	"io"

	"github.com/aleksworks/docintel/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetChunkCount(ctx context.Context, id string, count int) error
	Delete(ctx context.Context, id string) error
}

// ChunkRepository persists indexed passages. The chunk table is the corpus
// the keyword index is rebuilt from.
type ChunkRepository interface {
	ReplaceForDocument(ctx context.Context, documentID string, chunks []domain.Chunk) error
	DeleteForDocument(ctx context.Context, documentID string) error
	ListAll(ctx context.Context) ([]domain.Chunk, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes document lifecycle events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
	PublishDocumentIndexed(ctx context.Context, documentID string) error
	SubscribeDocumentIndexed(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits text into indexable passages.
type Chunker interface {
	Split(text string) []string
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex stores chunk vectors and performs nearest-neighbor search.
type VectorIndex interface {
	Upsert(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, vectors [][]float32) error
	Query(ctx context.Context, queryVector []float32, topK int, filter domain.SearchFilter) ([]domain.SearchResult, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

// KeywordIndex scores the in-memory corpus lexically. Search against an
// empty index returns an empty slice, never an error.
type KeywordIndex interface {
	Index(docs []domain.IndexedDocument)
	Search(query string, topK int, minScore float64) []domain.SearchResult
	Add(doc domain.IndexedDocument)
	Remove(id string)
	Size() int
}

// TextGenerator produces text from a prompt. Used for multi-query expansion,
// HyDE document generation, and final answer synthesis.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

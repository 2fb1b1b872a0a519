package ports

import (
	"context"
	"io"

	"github.com/aleksworks/docintel/internal/core/domain"
)

// Retriever is the inbound contract for strategy-dispatched search.
type Retriever interface {
	Search(ctx context.Context, req domain.RetrievalRequest) ([]domain.SearchResult, error)
}

// Answerer is the inbound contract for end-to-end RAG.
type Answerer interface {
	Answer(ctx context.Context, question string, strategy domain.Strategy, topK int, filter domain.SearchFilter) (*domain.RAGAnswer, error)
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType, docType string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous indexing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentDeleter removes a document from storage and both indexes.
type DocumentDeleter interface {
	Delete(ctx context.Context, id string) error
}

// IndexRebuilder reloads the in-memory keyword index from the chunk store.
type IndexRebuilder interface {
	Rebuild(ctx context.Context) (int, error)
}

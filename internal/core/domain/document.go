package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is the persisted state of an ingested source file.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	DocType     string         `json:"doc_type,omitempty"`
	Status      DocumentStatus `json:"status"`
	ChunkCount  int            `json:"chunk_count"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Chunk is one indexed passage of a document. The chunk table is the source
// of truth the in-memory keyword index is rebuilt from.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Index      int       `json:"index"`
	Content    string    `json:"content"`
	DocType    string    `json:"doc_type,omitempty"`
	Filename   string    `json:"filename,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// IndexedDoc converts a chunk into its keyword index representation.
func (c Chunk) IndexedDoc() IndexedDocument {
	return IndexedDocument{
		ID:      c.ID,
		Content: c.Content,
		Metadata: map[string]any{
			"document_id": c.DocumentID,
			"chunk_index": c.Index,
			"doc_type":    c.DocType,
			"filename":    c.Filename,
		},
	}
}

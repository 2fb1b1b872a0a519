package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/aleksworks/docintel/internal/core/domain"
)

var errEmbedBatch = errors.New("embedding provider unavailable")

type embedderFake struct {
	mu         sync.Mutex
	err        error
	queryCalls int
	lastQuery  string
	batchSizes []int
	failOnCall int
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batchSizes = append(f.batchSizes, len(texts))
	call := len(f.batchSizes)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.failOnCall > 0 && call == f.failOnCall {
		return nil, errEmbedBatch
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.queryCalls++
	f.lastQuery = text
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type vectorIndexFake struct {
	mu             sync.Mutex
	results        []domain.SearchResult
	err            error
	queries        int
	lastTopK       int
	upsertErr      error
	upsertedChunks int
	deletedDocs    []string
}

func (f *vectorIndexFake) Upsert(_ context.Context, _ *domain.Document, chunks []domain.Chunk, _ [][]float32) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	f.upsertedChunks += len(chunks)
	f.mu.Unlock()
	return nil
}

func (f *vectorIndexFake) Query(_ context.Context, _ []float32, topK int, _ domain.SearchFilter) ([]domain.SearchResult, error) {
	f.mu.Lock()
	f.queries++
	f.lastTopK = topK
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > topK {
		return f.results[:topK], nil
	}
	return f.results, nil
}

func (f *vectorIndexFake) DeleteByDocument(_ context.Context, documentID string) error {
	f.mu.Lock()
	f.deletedDocs = append(f.deletedDocs, documentID)
	f.mu.Unlock()
	return nil
}

type keywordIndexFake struct {
	mu       sync.Mutex
	results  []domain.SearchResult
	searches int
	lastTopK int
}

func (f *keywordIndexFake) Index([]domain.IndexedDocument) {}
func (f *keywordIndexFake) Add(domain.IndexedDocument)     {}
func (f *keywordIndexFake) Remove(string)                  {}
func (f *keywordIndexFake) Size() int                      { return len(f.results) }

func (f *keywordIndexFake) Search(_ string, topK int, _ float64) []domain.SearchResult {
	f.mu.Lock()
	f.searches++
	f.lastTopK = topK
	f.mu.Unlock()
	if len(f.results) > topK {
		return f.results[:topK]
	}
	return f.results
}

type generatorFake struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	prompts  []string
}

func (f *generatorFake) Generate(_ context.Context, prompt string, _ float64) (string, error) {
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type documentRepoFake struct {
	mu          sync.Mutex
	docs        map[string]*domain.Document
	statuses    []domain.DocumentStatus
	lastError   string
	chunkCounts map[string]int
	createErr   error
	statusErr   error
}

func newDocumentRepoFake() *documentRepoFake {
	return &documentRepoFake{
		docs:        make(map[string]*domain.Document),
		chunkCounts: make(map[string]int),
	}
}

func (f *documentRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *doc
	f.docs[doc.ID] = &copied
	return nil
}

func (f *documentRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	copied := *doc
	return &copied, nil
}

func (f *documentRepoFake) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	f.lastError = errMessage
	if doc, ok := f.docs[id]; ok {
		doc.Status = status
		doc.Error = errMessage
	}
	return nil
}

func (f *documentRepoFake) SetChunkCount(_ context.Context, id string, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunkCounts[id] = count
	return nil
}

func (f *documentRepoFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

type chunkRepoFake struct {
	mu       sync.Mutex
	byDoc    map[string][]domain.Chunk
	listErr  error
	saveErr  error
	replaced int
}

func newChunkRepoFake() *chunkRepoFake {
	return &chunkRepoFake{byDoc: make(map[string][]domain.Chunk)}
}

func (f *chunkRepoFake) ReplaceForDocument(_ context.Context, documentID string, chunks []domain.Chunk) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byDoc[documentID] = append([]domain.Chunk(nil), chunks...)
	f.replaced++
	return nil
}

func (f *chunkRepoFake) DeleteForDocument(_ context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byDoc, documentID)
	return nil
}

func (f *chunkRepoFake) ListAll(_ context.Context) ([]domain.Chunk, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Chunk
	for _, chunks := range f.byDoc {
		out = append(out, chunks...)
	}
	return out, nil
}

type objectStorageFake struct {
	mu      sync.Mutex
	saved   map[string][]byte
	saveErr error
	deleted []string
}

func newObjectStorageFake() *objectStorageFake {
	return &objectStorageFake{saved: make(map[string][]byte)}
}

func (f *objectStorageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[key] = content
	return nil
}

func (f *objectStorageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.saved[key]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (f *objectStorageFake) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type messageQueueFake struct {
	mu         sync.Mutex
	ingested   []string
	indexed    []string
	publishErr error
}

func (f *messageQueueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ingested = append(f.ingested, documentID)
	return nil
}

func (f *messageQueueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return nil
}

func (f *messageQueueFake) PublishDocumentIndexed(_ context.Context, documentID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, documentID)
	return nil
}

func (f *messageQueueFake) SubscribeDocumentIndexed(context.Context, func(context.Context, string) error) error {
	return nil
}

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, *domain.Document) (string, error) {
	return f.text, f.err
}

type chunkerFake struct {
	pieces []string
}

func (f *chunkerFake) Split(string) []string { return f.pieces }

type keywordIndexSpy struct {
	keywordIndexFake
	indexed [][]domain.IndexedDocument
}

func (f *keywordIndexSpy) Index(docs []domain.IndexedDocument) {
	f.indexed = append(f.indexed, docs)
}

func newTestSearchUseCase(
	embedder *embedderFake,
	vector *vectorIndexFake,
	keyword *keywordIndexFake,
	generator *generatorFake,
	cfg RetrievalConfig,
) *SearchUseCase {
	return NewSearchUseCase(embedder, vector, keyword, generator, cfg)
}

package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aleksworks/docintel/internal/config"
	"github.com/aleksworks/docintel/internal/core/domain"
)

type retrieverFake struct {
	results []domain.SearchResult
	err     error
	lastReq domain.RetrievalRequest
}

func (f *retrieverFake) Search(_ context.Context, req domain.RetrievalRequest) ([]domain.SearchResult, error) {
	f.lastReq = req
	return f.results, f.err
}

type answererFake struct {
	answer   *domain.RAGAnswer
	err      error
	lastTopK int
}

func (f *answererFake) Answer(_ context.Context, _ string, strategy domain.Strategy, topK int, _ domain.SearchFilter) (*domain.RAGAnswer, error) {
	f.lastTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	if f.answer != nil {
		return f.answer, nil
	}
	return &domain.RAGAnswer{Answer: "ok", Sources: []domain.Source{}, StrategyUsed: strategy}, nil
}

type ingestorFake struct {
	err error
}

func (f *ingestorFake) Upload(_ context.Context, filename, mimeType, docType string, body io.Reader) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &domain.Document{
		ID:          "doc-1",
		Filename:    filename,
		MimeType:    mimeType,
		DocType:     docType,
		StoragePath: "doc-1_file.txt",
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type deleterFake struct {
	err     error
	deleted []string
}

func (f *deleterFake) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type docReaderFake struct {
	doc *domain.Document
	err error
}

func (f *docReaderFake) GetByID(context.Context, string) (*domain.Document, error) {
	return f.doc, f.err
}

type routerFakes struct {
	retriever *retrieverFake
	answerer  *answererFake
	ingestor  *ingestorFake
	deleter   *deleterFake
	docs      *docReaderFake
}

func newTestRouter(cfg config.Config) (http.Handler, *routerFakes) {
	fakes := &routerFakes{
		retriever: &retrieverFake{},
		answerer:  &answererFake{},
		ingestor:  &ingestorFake{},
		deleter:   &deleterFake{},
		docs:      &docReaderFake{doc: &domain.Document{ID: "doc-1", Status: domain.StatusReady}},
	}
	if cfg.SearchTopK == 0 {
		cfg.SearchTopK = 10
	}
	if cfg.RAGTopK == 0 {
		cfg.RAGTopK = 5
	}
	router := NewRouter(cfg, fakes.retriever, fakes.answerer, fakes.ingestor, fakes.deleter, fakes.docs, nil)
	return router.Handler(), fakes
}

func postJSONRequest(t *testing.T, handler http.Handler, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestHealthzEndpoint(t *testing.T) {
	handler, _ := newTestRouter(config.Config{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	handler, _ := newTestRouter(config.Config{})
	res := postJSONRequest(t, handler, "/v1/search", `{"query":"  "}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestSearchTopKValidation(t *testing.T) {
	handler, _ := newTestRouter(config.Config{})

	res := postJSONRequest(t, handler, "/v1/search", `{"query":"q","top_k":101}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("top_k=101 expected 400, got %d", res.Code)
	}
	res = postJSONRequest(t, handler, "/v1/search", `{"query":"q","top_k":-1}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("top_k=-1 expected 400, got %d", res.Code)
	}
}

func TestSearchDefaultsTopKAndStrategy(t *testing.T) {
	handler, fakes := newTestRouter(config.Config{SearchTopK: 10})

	res := postJSONRequest(t, handler, "/v1/search", `{"query":"hello","strategy":"bogus"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if fakes.retriever.lastReq.TopK != 10 {
		t.Fatalf("TopK = %d, want config default", fakes.retriever.lastReq.TopK)
	}
	if fakes.retriever.lastReq.Strategy != domain.StrategyHybrid {
		t.Fatalf("Strategy = %q, want hybrid fallback", fakes.retriever.lastReq.Strategy)
	}

	var resp struct {
		Query        string                `json:"query"`
		Results      []domain.SearchResult `json:"results"`
		TotalResults int                   `json:"total_results"`
		Strategy     string                `json:"strategy"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Results == nil || resp.TotalResults != 0 || resp.Strategy != "hybrid" {
		t.Fatalf("response = %+v, want empty array with hybrid", resp)
	}
	if resp.Query != "hello" {
		t.Fatalf("Query = %q, want request query echoed", resp.Query)
	}
}

func TestSearchPassesFilter(t *testing.T) {
	handler, fakes := newTestRouter(config.Config{})
	res := postJSONRequest(t, handler, "/v1/search",
		`{"query":"q","document_type":"report","date_from":"2026-01-01T00:00:00Z"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	got := fakes.retriever.lastReq.Filter
	if got.DocumentType != "report" || got.DateFrom != "2026-01-01T00:00:00Z" {
		t.Fatalf("filter = %+v", got)
	}
}

func TestSearchMapsInvalidInputTo400(t *testing.T) {
	handler, fakes := newTestRouter(config.Config{})
	fakes.retriever.err = domain.WrapError(domain.ErrInvalidInput, "search", io.EOF)

	res := postJSONRequest(t, handler, "/v1/search", `{"query":"q"}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestSearchMapsRetrievalErrorTo500(t *testing.T) {
	handler, fakes := newTestRouter(config.Config{})
	fakes.retriever.err = domain.WrapError(domain.ErrRetrieval, "search", io.EOF)

	res := postJSONRequest(t, handler, "/v1/search", `{"query":"q"}`)
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
}

func TestQueryRequiresQuestion(t *testing.T) {
	handler, _ := newTestRouter(config.Config{})
	res := postJSONRequest(t, handler, "/v1/query", `{"question":""}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestQueryTopKBoundsAndDefault(t *testing.T) {
	handler, fakes := newTestRouter(config.Config{RAGTopK: 5})

	res := postJSONRequest(t, handler, "/v1/query", `{"question":"q","top_k":21}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("top_k=21 expected 400, got %d", res.Code)
	}

	res = postJSONRequest(t, handler, "/v1/query", `{"question":"q"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if fakes.answerer.lastTopK != 5 {
		t.Fatalf("topK = %d, want config default", fakes.answerer.lastTopK)
	}
}

func TestQueryReturnsAnswerWithSources(t *testing.T) {
	handler, fakes := newTestRouter(config.Config{})
	fakes.answerer.answer = &domain.RAGAnswer{
		Answer:       "grounded answer",
		Sources:      []domain.Source{{Number: 1, Content: "alpha", Score: 0.9}},
		Confidence:   0.9,
		StrategyUsed: domain.StrategyHybrid,
	}

	res := postJSONRequest(t, handler, "/v1/query", `{"question":"what?"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var resp struct {
		Answer            string          `json:"answer"`
		Sources           []domain.Source `json:"sources"`
		Confidence        float64         `json:"confidence"`
		NumSources        int             `json:"num_sources"`
		RetrievalStrategy string          `json:"retrieval_strategy"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	if resp.Answer != "grounded answer" || len(resp.Sources) != 1 || resp.Sources[0].Number != 1 {
		t.Fatalf("answer = %+v", resp)
	}
	if resp.NumSources != 1 || resp.RetrievalStrategy != "hybrid" {
		t.Fatalf("num_sources/strategy = %+v", resp)
	}
}

func multipartUpload(t *testing.T, fieldContent string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(fieldContent)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.WriteField("doc_type", "report"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadDocumentAccepted(t *testing.T) {
	handler, _ := newTestRouter(config.Config{})
	body, contentType := multipartUpload(t, "file content")

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	var doc domain.Document
	if err := json.Unmarshal(res.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.ID != "doc-1" || doc.DocType != "report" {
		t.Fatalf("document = %+v", doc)
	}
}

func TestUploadDocumentMissingFile(t *testing.T) {
	handler, _ := newTestRouter(config.Config{})
	res := postJSONRequest(t, handler, "/v1/documents", `{}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	handler, fakes := newTestRouter(config.Config{})
	fakes.docs.doc = nil
	fakes.docs.err = domain.WrapError(domain.ErrDocumentNotFound, "get document", io.EOF)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestDeleteDocument(t *testing.T) {
	handler, fakes := newTestRouter(config.Config{})

	req := httptest.NewRequest(http.MethodDelete, "/v1/documents/doc-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if len(fakes.deleter.deleted) != 1 || fakes.deleter.deleted[0] != "doc-1" {
		t.Fatalf("deleted = %v", fakes.deleter.deleted)
	}
}

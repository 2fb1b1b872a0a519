package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aleksworks/docintel/internal/core/domain"
)

type filterRequest struct {
	DocumentType string `json:"document_type"`
	DateFrom     string `json:"date_from"`
	DateTo       string `json:"date_to"`
}

func (f filterRequest) toDomain() domain.SearchFilter {
	return domain.SearchFilter{
		DocumentType: strings.TrimSpace(f.DocumentType),
		DateFrom:     strings.TrimSpace(f.DateFrom),
		DateTo:       strings.TrimSpace(f.DateTo),
	}
}

type searchRequest struct {
	Query    string `json:"query"`
	Strategy string `json:"strategy"`
	TopK     int    `json:"top_k"`
	filterRequest
}

type searchResponse struct {
	Query         string                `json:"query"`
	Results       []domain.SearchResult `json:"results"`
	TotalResults  int                   `json:"total_results"`
	Strategy      domain.Strategy       `json:"strategy"`
	ExecutionTime float64               `json:"execution_time"`
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	topK := req.TopK
	if topK == 0 {
		topK = rt.cfg.SearchTopK
	}
	if topK < 1 || topK > maxSearchTopK {
		writeError(w, http.StatusBadRequest, "top_k must be between 1 and 100")
		return
	}

	strategy := domain.ParseStrategy(req.Strategy)
	start := time.Now()
	results, err := rt.searchUC.Search(r.Context(), domain.RetrievalRequest{
		Query:    req.Query,
		TopK:     topK,
		Strategy: strategy,
		Filter:   req.toDomain(),
	})
	if rt.metrics != nil {
		rt.metrics.RecordSearch(serviceName, string(strategy), len(results), time.Since(start), err)
	}
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	if results == nil {
		results = []domain.SearchResult{}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:         req.Query,
		Results:       results,
		TotalResults:  len(results),
		Strategy:      strategy,
		ExecutionTime: time.Since(start).Seconds(),
	})
}

type queryRequest struct {
	Question string `json:"question"`
	Strategy string `json:"strategy"`
	TopK     int    `json:"top_k"`
	filterRequest
}

type queryResponse struct {
	Answer            string          `json:"answer"`
	Sources           []domain.Source `json:"sources"`
	Confidence        float64         `json:"confidence"`
	NumSources        int             `json:"num_sources"`
	RetrievalStrategy domain.Strategy `json:"retrieval_strategy"`
	ExecutionTime     float64         `json:"execution_time"`
	GenerationError   string          `json:"generation_error,omitempty"`
}

func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	topK := req.TopK
	if topK == 0 {
		topK = rt.cfg.RAGTopK
	}
	if topK < 1 || topK > maxQueryTopK {
		writeError(w, http.StatusBadRequest, "top_k must be between 1 and 20")
		return
	}

	start := time.Now()
	answer, err := rt.answerUC.Answer(
		r.Context(),
		req.Question,
		domain.ParseStrategy(req.Strategy),
		topK,
		req.toDomain(),
	)
	if err != nil {
		if rt.metrics != nil {
			rt.metrics.RecordSearch(serviceName, req.Strategy, 0, time.Since(start), err)
		}
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordRAGAnswer(
			serviceName,
			string(answer.StrategyUsed),
			len(answer.Sources),
			answer.Confidence,
			answer.GenerationError != "",
			time.Since(start),
		)
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Answer:            answer.Answer,
		Sources:           answer.Sources,
		Confidence:        answer.Confidence,
		NumSources:        len(answer.Sources),
		RetrievalStrategy: answer.StrategyUsed,
		ExecutionTime:     answer.ExecutionTime,
		GenerationError:   answer.GenerationError,
	})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	doc, err := rt.ingestUC.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		r.FormValue("doc_type"),
		file,
	)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")
	if id == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")
	if id == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	if err := rt.deleteUC.Delete(r.Context(), id); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aleksworks/docintel/internal/config"
	"github.com/aleksworks/docintel/internal/core/ports"
	"github.com/aleksworks/docintel/internal/observability/metrics"
)

const (
	serviceName = "api"

	maxSearchTopK = 100
	maxQueryTopK  = 20

	backpressureWait = 100 * time.Millisecond
)

type Router struct {
	cfg      config.Config
	searchUC ports.Retriever
	answerUC ports.Answerer
	ingestUC ports.DocumentIngestor
	deleteUC ports.DocumentDeleter
	docs     ports.DocumentReader
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	searchUC ports.Retriever,
	answerUC ports.Answerer,
	ingestUC ports.DocumentIngestor,
	deleteUC ports.DocumentDeleter,
	docs ports.DocumentReader,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:      cfg,
		searchUC: searchUC,
		answerUC: answerUC,
		ingestUC: ingestUC,
		deleteUC: deleteUC,
		docs:     docs,
		metrics:  m,
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", rt.healthz)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	r.Post("/v1/search", rt.search)
	r.Post("/v1/query", rt.query)
	r.Post("/v1/documents", rt.uploadDocument)
	r.Get("/v1/documents/{documentID}", rt.getDocument)
	r.Delete("/v1/documents/{documentID}", rt.deleteDocument)

	var handler http.Handler = r
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxConcurrent, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
